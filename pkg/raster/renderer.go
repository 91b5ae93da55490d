package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"

	"svgraster/pkg/graphics"
	"svgraster/pkg/svg"
	"svgraster/pkg/viewport"
)

// DefaultOutlineColor is used for outlines when
// Options.OutlineColor is nil.
var DefaultOutlineColor = color.NRGBA{0xff, 0x00, 0x00, 0xff}

// Options controls a single render.
type Options struct {
	// Background fills the surface before drawing. nil means transparent.
	Background color.Color

	// Outline marks a document-space rectangle, typically an area of
	// interest, with a border drawn around its image on the output.
	Outline      *graphics.Rect
	OutlineColor color.Color
	OutlineWidth float64
}

// Renderer draws SVG documents through a resolved viewport.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a renderer. A nil logger disables logging.
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger}
}

// Render draws doc onto a surface of ceil(res.Width) x ceil(res.Height)
// pixels, mapping user space through res.Transform.
func (r *Renderer) Render(doc *svg.Document, res viewport.Result, opts Options) (*image.RGBA, error) {
	if !res.Transform.IsFinite() {
		return nil, fmt.Errorf("failed to render: %w", viewport.ErrDegenerateAreaOfInterest)
	}
	if err := CheckSurface(res.Width, res.Height); err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(doc.Source()), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to read SVG content: %w", err)
	}
	icon.Transform = toMatrix2D(res.Transform)

	w, h := CanvasSize(res.Width, res.Height)
	canvas := NewCanvas(w, h, opts.Background)
	img := canvas.Image()

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1)

	if opts.Outline != nil {
		col := opts.OutlineColor
		if col == nil {
			col = DefaultOutlineColor
		}
		width := opts.OutlineWidth
		if width <= 0 {
			width = 1
		}
		canvas.StrokeRect(opts.Outline.Normalize().Transform(res.Transform), col, width)
	}

	r.logger.Debug("rendered document",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("paths", len(icon.SVGPaths)),
		zap.Float64("scale_x", res.Transform.ScaleX()),
		zap.Float64("scale_y", res.Transform.ScaleY()),
		zap.Float64s("transform", res.Transform[:]),
	)
	return img, nil
}

func toMatrix2D(m graphics.Matrix) rasterx.Matrix2D {
	return rasterx.Matrix2D{A: m[0], B: m[1], C: m[2], D: m[3], E: m[4], F: m[5]}
}
