// Package raster draws resolved SVG views into RGBA images.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"svgraster/pkg/graphics"
	pathpkg "svgraster/pkg/path"

	"golang.org/x/image/vector"
)

// Canvas represents a drawing surface for rasterization.
type Canvas struct {
	img    *image.RGBA
	width  int
	height int

	// nil leaves the surface transparent
	background color.Color
}

// NewCanvas creates a canvas filled with background. A nil background
// leaves every pixel transparent.
func NewCanvas(width, height int, background color.Color) *Canvas {
	c := &Canvas{
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		width:      width,
		height:     height,
		background: background,
	}
	c.Clear()
	return c
}

// MaxPixels bounds the area of a single surface.
const MaxPixels = 1 << 28

var ErrSurfaceTooLarge = errors.New("surface too large")

// CheckSurface reports whether a w x h output fits in one surface.
func CheckSurface(w, h float64) error {
	pw, ph := math.Ceil(w), math.Ceil(h)
	if !(pw*ph <= MaxPixels) {
		return fmt.Errorf("%w: %gx%g exceeds %d pixels", ErrSurfaceTooLarge, w, h, MaxPixels)
	}
	return nil
}

// CanvasSize returns the pixel dimensions covering a w x h output,
// rounding fractional sizes up. Each dimension is at least one pixel.
func CanvasSize(w, h float64) (int, int) {
	cw, ch := int(math.Ceil(w)), int(math.Ceil(h))
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	return cw, ch
}

// Image returns the underlying RGBA image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int {
	return c.width
}

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int {
	return c.height
}

// Background returns the background color, or nil if transparent.
func (c *Canvas) Background() color.Color {
	return c.background
}

// Clear fills the canvas with the background color.
func (c *Canvas) Clear() {
	bg := c.background
	if bg == nil {
		bg = color.Transparent
	}
	draw.Draw(c.img, c.img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
}

// Fill fills a path with the given color under the non-zero winding rule.
func (c *Canvas) Fill(path *graphics.Path, col color.Color) {
	if path.IsEmpty() {
		return
	}

	r := vector.NewRasterizer(c.width, c.height)
	pathpkg.ToVector(path, r)
	r.Draw(c.img, c.img.Bounds(), &image.Uniform{col}, image.Point{})
}

// StrokeRect outlines rect with a border of the given width drawn inside
// its edges.
func (c *Canvas) StrokeRect(rect graphics.Rect, col color.Color, width float64) {
	if rect.Empty() || width <= 0 {
		return
	}
	c.Fill(pathpkg.NewBuilder().Frame(rect, width).Build(), col)
}

// GetPixel gets a pixel color.
func (c *Canvas) GetPixel(x, y int) color.Color {
	if x >= 0 && x < c.width && y >= 0 && y < c.height {
		return c.img.At(x, y)
	}
	return color.Transparent
}
