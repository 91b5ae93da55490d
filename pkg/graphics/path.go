package graphics

import (
	"math"
)

// PathOp represents a path operation type.
type PathOp int

const (
	PathOpMoveTo PathOp = iota
	PathOpLineTo
	PathOpClose
)

// PathSegment represents a single segment in a path.
type PathSegment struct {
	Op     PathOp
	Points []Point
}

// Path is a sequence of straight subpaths. It carries overlays such as the
// area-of-interest outline; document content is drawn by the SVG renderer.
type Path struct {
	Segments []PathSegment
	start    Point
}

// NewPath creates a new empty path.
func NewPath() *Path {
	return &Path{}
}

// MoveTo starts a new subpath at the given point.
func (p *Path) MoveTo(x, y float64) {
	pt := Point{x, y}
	p.Segments = append(p.Segments, PathSegment{
		Op:     PathOpMoveTo,
		Points: []Point{pt},
	})
	p.start = pt
}

// LineTo draws a line from the current point to the given point.
func (p *Path) LineTo(x, y float64) {
	p.Segments = append(p.Segments, PathSegment{
		Op:     PathOpLineTo,
		Points: []Point{{x, y}},
	})
}

// Close closes the current subpath with a line back to its start.
func (p *Path) Close() {
	p.Segments = append(p.Segments, PathSegment{Op: PathOpClose})
}

// Polygon adds a closed subpath through the given points.
func (p *Path) Polygon(pts ...Point) {
	if len(pts) == 0 {
		return
	}
	p.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	p.Close()
}

// Rect adds a rectangle to the path.
func (p *Path) Rect(x, y, width, height float64) {
	c := Rect{x, y, width, height}.Corners()
	p.Polygon(c[:]...)
}

// Frame adds a rectangular ring of the given thickness lying inside r.
// The inner edge runs in the opposite direction so that a non-zero fill
// leaves the middle open.
func (p *Path) Frame(r Rect, thickness float64) {
	r = r.Normalize()
	p.Rect(r.X, r.Y, r.Width, r.Height)

	t := math.Min(thickness, math.Min(r.Width, r.Height)/2)
	in := Rect{r.X + t, r.Y + t, r.Width - 2*t, r.Height - 2*t}
	c := in.Corners()
	p.Polygon(c[0], c[3], c[2], c[1])
}

// IsEmpty returns true if the path has no segments.
func (p *Path) IsEmpty() bool {
	return len(p.Segments) == 0
}

// Bounds returns the bounding box of the path.
func (p *Path) Bounds() Rect {
	minX := math.MaxFloat64
	minY := math.MaxFloat64
	maxX := -math.MaxFloat64
	maxY := -math.MaxFloat64

	for _, seg := range p.Segments {
		for _, pt := range seg.Points {
			minX = math.Min(minX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxX = math.Max(maxX, pt.X)
			maxY = math.Max(maxY, pt.Y)
		}
	}

	if minX == math.MaxFloat64 {
		return Rect{}
	}

	return NewRect(minX, minY, maxX, maxY)
}

// Transform applies a transformation matrix to all points in the path.
func (p *Path) Transform(m Matrix) *Path {
	result := NewPath()
	for _, seg := range p.Segments {
		newSeg := PathSegment{
			Op:     seg.Op,
			Points: make([]Point, len(seg.Points)),
		}
		for i, pt := range seg.Points {
			newSeg.Points[i] = m.TransformPoint(pt)
		}
		result.Segments = append(result.Segments, newSeg)
	}
	result.start = m.TransformPoint(p.start)
	return result
}

// Contains reports whether pt is inside the path under the non-zero
// winding rule.
func (p *Path) Contains(pt Point) bool {
	winding := 0
	var prevPt, startPt Point

	for _, seg := range p.Segments {
		switch seg.Op {
		case PathOpMoveTo:
			prevPt = seg.Points[0]
			startPt = prevPt
		case PathOpLineTo:
			endPt := seg.Points[0]
			winding += windingLine(pt, prevPt, endPt)
			prevPt = endPt
		case PathOpClose:
			winding += windingLine(pt, prevPt, startPt)
			prevPt = startPt
		}
	}

	return winding != 0
}

// windingLine returns the winding contribution of a line segment.
func windingLine(pt, p1, p2 Point) int {
	if p1.Y <= pt.Y {
		if p2.Y > pt.Y && isLeft(p1, p2, pt) > 0 {
			return 1
		}
	} else if p2.Y <= pt.Y && isLeft(p1, p2, pt) < 0 {
		return -1
	}
	return 0
}

// isLeft returns a value indicating which side of a line a point is on.
func isLeft(p0, p1, p2 Point) float64 {
	return (p1.X-p0.X)*(p2.Y-p0.Y) - (p2.X-p0.X)*(p1.Y-p0.Y)
}
