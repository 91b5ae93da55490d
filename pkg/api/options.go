package api

import (
	"image/color"

	"svgraster/pkg/graphics"
	"svgraster/pkg/svg"
	"svgraster/pkg/viewport"
)

// RenderOptions configures rendering behavior.
type RenderOptions struct {
	// Width and Height constrain the output in pixels. When only one is set
	// the other follows the document's aspect ratio.
	// Default: the document's intrinsic size
	Width  *float64
	Height *float64

	// AreaOfInterest is the document-space region that fills the output.
	// Default: the whole document
	AreaOfInterest *graphics.Rect

	// Fragment selects a view: a <view> id, any element id or an
	// svgView(...) specification, without the leading '#'.
	Fragment string

	// Background sets the background color.
	// Default: white
	Background color.Color

	// Transparent leaves the background transparent (ignores Background).
	// Default: false
	Transparent bool

	// Viewport is the size percentage lengths on the root element resolve
	// against.
	// Default: 400x400
	Viewport viewport.Size

	// MaxSize rejects outputs larger than it in either dimension. A zero
	// dimension is unlimited.
	MaxSize viewport.Size

	// OutlineAOI renders the whole document and outlines the area of
	// interest instead of zooming into it.
	OutlineAOI bool
}

// DefaultRenderOptions returns render options with sensible defaults.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Background: color.White,
		Viewport:   svg.DefaultViewport,
	}
}

// Option is a functional option for configuring RenderOptions.
type Option func(*RenderOptions)

// Width sets the output width.
func Width(w float64) Option {
	return func(o *RenderOptions) {
		o.Width = viewport.Float(w)
	}
}

// Height sets the output height.
func Height(h float64) Option {
	return func(o *RenderOptions) {
		o.Height = viewport.Float(h)
	}
}

// AreaOfInterest sets the document-space region to render.
func AreaOfInterest(x, y, w, h float64) Option {
	return func(o *RenderOptions) {
		o.AreaOfInterest = &graphics.Rect{X: x, Y: y, Width: w, Height: h}
	}
}

// Fragment selects a view by fragment identifier.
func Fragment(ref string) Option {
	return func(o *RenderOptions) {
		o.Fragment = ref
	}
}

// Background sets the background color.
func Background(c color.Color) Option {
	return func(o *RenderOptions) {
		o.Background = c
	}
}

// Transparent enables transparent background.
func Transparent() Option {
	return func(o *RenderOptions) {
		o.Transparent = true
	}
}

// Viewport sets the size percentages resolve against.
func Viewport(w, h float64) Option {
	return func(o *RenderOptions) {
		o.Viewport = viewport.Size{Width: w, Height: h}
	}
}

// MaxSize limits the output dimensions.
func MaxSize(w, h float64) Option {
	return func(o *RenderOptions) {
		o.MaxSize = viewport.Size{Width: w, Height: h}
	}
}

// OutlineAOI outlines the area of interest on the full document.
func OutlineAOI() Option {
	return func(o *RenderOptions) {
		o.OutlineAOI = true
	}
}

// NewRenderOptions creates options from functional options.
func NewRenderOptions(opts ...Option) RenderOptions {
	o := DefaultRenderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Apply applies functional options to existing options.
func (o *RenderOptions) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// EffectiveBackground returns the color the surface is filled with, or nil
// for a transparent surface.
func (o *RenderOptions) EffectiveBackground() color.Color {
	if o.Transparent {
		return nil
	}
	return o.Background
}

func (o *RenderOptions) viewportOptions() viewport.Options {
	return viewport.Options{
		Width:          o.Width,
		Height:         o.Height,
		AreaOfInterest: o.AreaOfInterest,
	}
}

func (o *RenderOptions) viewportSize() viewport.Size {
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		return svg.DefaultViewport
	}
	return o.Viewport
}
