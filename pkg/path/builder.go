// Package path provides path construction utilities for the rasterizer.
package path

import (
	"svgraster/pkg/graphics"

	"golang.org/x/image/vector"
)

// ToVector adds a graphics.Path to a golang.org/x/image/vector rasterizer.
// Open subpaths are closed by the rasterizer.
func ToVector(p *graphics.Path, rasterizer *vector.Rasterizer) {
	for _, seg := range p.Segments {
		switch seg.Op {
		case graphics.PathOpMoveTo:
			if len(seg.Points) >= 1 {
				rasterizer.MoveTo(
					float32(seg.Points[0].X),
					float32(seg.Points[0].Y),
				)
			}
		case graphics.PathOpLineTo:
			if len(seg.Points) >= 1 {
				rasterizer.LineTo(
					float32(seg.Points[0].X),
					float32(seg.Points[0].Y),
				)
			}
		case graphics.PathOpClose:
			rasterizer.ClosePath()
		}
	}
}

// Builder provides a fluent interface for building paths.
type Builder struct {
	path *graphics.Path
}

// NewBuilder creates a new path builder.
func NewBuilder() *Builder {
	return &Builder{
		path: graphics.NewPath(),
	}
}

// MoveTo starts a new subpath.
func (b *Builder) MoveTo(x, y float64) *Builder {
	b.path.MoveTo(x, y)
	return b
}

// LineTo draws a line to the given point.
func (b *Builder) LineTo(x, y float64) *Builder {
	b.path.LineTo(x, y)
	return b
}

// Close closes the current subpath.
func (b *Builder) Close() *Builder {
	b.path.Close()
	return b
}

// Rect adds a rectangle to the path.
func (b *Builder) Rect(r graphics.Rect) *Builder {
	r = r.Normalize()
	b.path.Rect(r.X, r.Y, r.Width, r.Height)
	return b
}

// Frame adds a rectangular ring of the given thickness inside r.
func (b *Builder) Frame(r graphics.Rect, thickness float64) *Builder {
	b.path.Frame(r, thickness)
	return b
}

// Transform maps every point added so far through m.
func (b *Builder) Transform(m graphics.Matrix) *Builder {
	b.path = b.path.Transform(m)
	return b
}

// Build returns the constructed path.
func (b *Builder) Build() *graphics.Path {
	return b.path
}

// Clear resets the builder for reuse.
func (b *Builder) Clear() *Builder {
	b.path = graphics.NewPath()
	return b
}
