// Package viewport resolves how a vector document is mapped onto a raster
// output surface.
//
// Given the document's intrinsic size, an optionally constrained output
// size, an optional area of interest and the document's own fit transform
// (viewBox and preserveAspectRatio), Resolve computes the output dimensions
// and the affine transform from document user space to output pixels.
//
// Resolve keeps no state and may be called concurrently.
package viewport

import (
	"errors"
	"fmt"
	"math"

	"svgraster/pkg/graphics"
)

var (
	// ErrInvalidDocumentSize is returned when the intrinsic width or height
	// is not a positive finite number.
	ErrInvalidDocumentSize = errors.New("invalid document size")

	// ErrInvalidRequestedSize is returned when a requested width or height
	// is supplied but not a positive finite number.
	ErrInvalidRequestedSize = errors.New("invalid requested size")

	// ErrDegenerateAreaOfInterest is returned when the area of interest, or
	// its image under the fit transform, has zero width or height.
	ErrDegenerateAreaOfInterest = errors.New("degenerate area of interest")
)

// Size is a width and height pair.
type Size struct {
	Width, Height float64
}

func (s Size) valid() bool {
	return positive(s.Width) && positive(s.Height)
}

// Options are the caller's constraints on the output. A nil field is unset.
type Options struct {
	// Width constrains the output width in pixels.
	Width *float64
	// Height constrains the output height in pixels.
	Height *float64
	// AreaOfInterest is the document-space region that fills the output.
	AreaOfInterest *graphics.Rect
}

// Float returns a pointer to v, for filling Options.
func Float(v float64) *float64 {
	return &v
}

// FitResolver computes a document's own fit transform for a target box.
type FitResolver interface {
	// ResolveFit returns the transform from document user space onto the box
	// (0, 0, width, height). hasBox reports whether the document declared a
	// fit box at all; when it is false the returned matrix is ignored.
	ResolveFit(width, height float64) (m graphics.Matrix, hasBox bool, err error)
}

// FitFunc adapts an ordinary function to the FitResolver interface.
type FitFunc func(width, height float64) (graphics.Matrix, bool, error)

// ResolveFit calls f(width, height).
func (f FitFunc) ResolveFit(width, height float64) (graphics.Matrix, bool, error) {
	return f(width, height)
}

// NoFit is a FitResolver for documents without a fit box.
var NoFit FitResolver = FitFunc(func(float64, float64) (graphics.Matrix, bool, error) {
	return graphics.Identity(), false, nil
})

// Result is a resolved viewport.
type Result struct {
	// Width and Height are the output surface dimensions in pixels.
	Width, Height float64

	// AOI is the document-space rectangle that maps onto the whole output.
	AOI graphics.Rect

	// PixelAOI is AOI under the fit transform, before the area-of-interest
	// zoom. It is (0, 0, Width, Height) when no area of interest was given.
	PixelAOI graphics.Rect

	// Fit is the fit transform alone.
	Fit graphics.Matrix

	// Transform maps document user space to output pixels.
	Transform graphics.Matrix
}

// Resolve computes the output size and final transform for a document of the
// given intrinsic size. A nil fit behaves like NoFit.
func Resolve(intrinsic Size, opts Options, fit FitResolver) (Result, error) {
	if !intrinsic.valid() {
		return Result{}, fmt.Errorf("%w: %gx%g", ErrInvalidDocumentSize, intrinsic.Width, intrinsic.Height)
	}
	if opts.Width != nil && !positive(*opts.Width) {
		return Result{}, fmt.Errorf("%w: width %g", ErrInvalidRequestedSize, *opts.Width)
	}
	if opts.Height != nil && !positive(*opts.Height) {
		return Result{}, fmt.Errorf("%w: height %g", ErrInvalidRequestedSize, *opts.Height)
	}
	if fit == nil {
		fit = NoFit
	}

	size := targetSize(intrinsic, opts)

	px, hasBox, err := fit.ResolveFit(size.Width, size.Height)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve fit transform: %w", err)
	}
	if !hasBox {
		px = graphics.Identity()
		if size != intrinsic {
			// Keep the document's proportions when there is no box to fit.
			s := math.Max(size.Width, size.Height) / math.Max(intrinsic.Width, intrinsic.Height)
			px = graphics.Scale(s, s)
		}
	}

	res := Result{
		Width:     size.Width,
		Height:    size.Height,
		Fit:       px,
		Transform: px,
		PixelAOI:  graphics.Rect{Width: size.Width, Height: size.Height},
	}

	if opts.AreaOfInterest == nil {
		res.AOI = res.PixelAOI
		if inv, ok := px.Invert(); ok {
			res.AOI = res.PixelAOI.Transform(inv)
		}
		return res, nil
	}

	aoi := opts.AreaOfInterest.Normalize()
	if !aoi.IsFinite() || aoi.Empty() {
		return Result{}, fmt.Errorf("%w: %+v", ErrDegenerateAreaOfInterest, *opts.AreaOfInterest)
	}

	bounds := aoi.Transform(px)
	if !bounds.IsFinite() || bounds.Empty() {
		return Result{}, fmt.Errorf("%w: %+v maps to %+v", ErrDegenerateAreaOfInterest, aoi, bounds)
	}

	mx := graphics.Translate(-bounds.X, -bounds.Y).
		Then(graphics.Scale(size.Width/bounds.Width, size.Height/bounds.Height))
	final := px.Then(mx)
	if !final.IsFinite() {
		return Result{}, fmt.Errorf("%w: transform overflow for %+v", ErrDegenerateAreaOfInterest, aoi)
	}

	res.Transform = final
	res.PixelAOI = bounds
	res.AOI = aoi
	if inv, ok := px.Invert(); ok {
		res.AOI = bounds.Transform(inv)
	}
	return res, nil
}

// targetSize picks the output size. Both dimensions given wins over height
// alone, which wins over width alone; only the single-dimension cases keep
// the intrinsic aspect ratio.
func targetSize(doc Size, opts Options) Size {
	switch {
	case opts.Width != nil && opts.Height != nil:
		return Size{*opts.Width, *opts.Height}
	case opts.Height != nil:
		return Size{doc.Width * *opts.Height / doc.Height, *opts.Height}
	case opts.Width != nil:
		return Size{*opts.Width, doc.Height * *opts.Width / doc.Width}
	default:
		return doc
	}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
