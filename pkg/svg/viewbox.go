package svg

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"svgraster/pkg/graphics"
)

// ViewBox is the user-space rectangle that a viewport shows.
type ViewBox struct {
	X, Y, Width, Height float64
}

// ParseViewBox parses a viewBox attribute: four numbers separated by
// whitespace and/or commas. Width and height must be positive.
func ParseViewBox(s string) (ViewBox, error) {
	nums, err := parseNumberList(s)
	if err != nil || len(nums) != 4 {
		return ViewBox{}, fmt.Errorf("%w: %q", ErrInvalidViewBox, s)
	}
	vb := ViewBox{nums[0], nums[1], nums[2], nums[3]}
	if !(vb.Width > 0) || !(vb.Height > 0) {
		return ViewBox{}, fmt.Errorf("%w: non-positive size in %q", ErrInvalidViewBox, s)
	}
	return vb, nil
}

// String returns the attribute form of the view box.
func (vb ViewBox) String() string {
	return strings.Join([]string{
		strconv.FormatFloat(vb.X, 'g', -1, 64),
		strconv.FormatFloat(vb.Y, 'g', -1, 64),
		strconv.FormatFloat(vb.Width, 'g', -1, 64),
		strconv.FormatFloat(vb.Height, 'g', -1, 64),
	}, " ")
}

// Rect returns the view box as a rectangle.
func (vb ViewBox) Rect() graphics.Rect {
	return graphics.Rect{X: vb.X, Y: vb.Y, Width: vb.Width, Height: vb.Height}
}

func parseNumberList(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite number %q", f)
		}
		nums = append(nums, v)
	}
	return nums, nil
}

// Align is the alignment part of preserveAspectRatio.
// The zero value is xMidYMid, the SVG default.
type Align int

const (
	AlignXMidYMid Align = iota
	AlignNone
	AlignXMinYMin
	AlignXMidYMin
	AlignXMaxYMin
	AlignXMinYMid
	AlignXMaxYMid
	AlignXMinYMax
	AlignXMidYMax
	AlignXMaxYMax
)

var alignNames = map[Align]string{
	AlignXMidYMid: "xMidYMid",
	AlignNone:     "none",
	AlignXMinYMin: "xMinYMin",
	AlignXMidYMin: "xMidYMin",
	AlignXMaxYMin: "xMaxYMin",
	AlignXMinYMid: "xMinYMid",
	AlignXMaxYMid: "xMaxYMid",
	AlignXMinYMax: "xMinYMax",
	AlignXMidYMax: "xMidYMax",
	AlignXMaxYMax: "xMaxYMax",
}

func (a Align) String() string {
	if s, ok := alignNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Align(%d)", int(a))
}

// factors returns the fraction of the spare room placed before the content
// on each axis.
func (a Align) factors() (fx, fy float64) {
	switch a {
	case AlignXMinYMin:
		return 0, 0
	case AlignXMidYMin:
		return 0.5, 0
	case AlignXMaxYMin:
		return 1, 0
	case AlignXMinYMid:
		return 0, 0.5
	case AlignXMaxYMid:
		return 1, 0.5
	case AlignXMinYMax:
		return 0, 1
	case AlignXMidYMax:
		return 0.5, 1
	case AlignXMaxYMax:
		return 1, 1
	default:
		return 0.5, 0.5
	}
}

// PreserveAspectRatio is a parsed preserveAspectRatio attribute.
// The zero value is "xMidYMid meet".
type PreserveAspectRatio struct {
	Defer bool
	Align Align
	Slice bool
}

// ParsePreserveAspectRatio parses "[defer] <align> [meet|slice]".
func ParsePreserveAspectRatio(s string) (PreserveAspectRatio, error) {
	var par PreserveAspectRatio
	fields := strings.Fields(s)
	if len(fields) > 0 && fields[0] == "defer" {
		par.Defer = true
		fields = fields[1:]
	}
	if len(fields) == 0 || len(fields) > 2 {
		return PreserveAspectRatio{}, fmt.Errorf("%w: %q", ErrInvalidPreserveAspectRatio, s)
	}

	found := false
	for a, name := range alignNames {
		if fields[0] == name {
			par.Align = a
			found = true
			break
		}
	}
	if !found {
		return PreserveAspectRatio{}, fmt.Errorf("%w: unknown alignment %q", ErrInvalidPreserveAspectRatio, fields[0])
	}

	if len(fields) == 2 {
		switch fields[1] {
		case "meet":
		case "slice":
			par.Slice = true
		default:
			return PreserveAspectRatio{}, fmt.Errorf("%w: %q", ErrInvalidPreserveAspectRatio, s)
		}
	}
	return par, nil
}

// String returns the attribute form.
func (par PreserveAspectRatio) String() string {
	var b strings.Builder
	if par.Defer {
		b.WriteString("defer ")
	}
	b.WriteString(par.Align.String())
	if par.Align != AlignNone {
		if par.Slice {
			b.WriteString(" slice")
		} else {
			b.WriteString(" meet")
		}
	}
	return b.String()
}

// ViewTransform returns the transform that maps the view box onto the
// viewport (0, 0, width, height) according to par.
func ViewTransform(vb ViewBox, par PreserveAspectRatio, width, height float64) graphics.Matrix {
	sx := width / vb.Width
	sy := height / vb.Height

	if par.Align == AlignNone {
		return graphics.Translate(-vb.X, -vb.Y).Then(graphics.Scale(sx, sy))
	}

	s := math.Min(sx, sy)
	if par.Slice {
		s = math.Max(sx, sy)
	}
	fx, fy := par.Align.factors()
	tx := -vb.X*s + (width-vb.Width*s)*fx
	ty := -vb.Y*s + (height-vb.Height*s)*fy
	return graphics.Scale(s, s).Then(graphics.Translate(tx, ty))
}
