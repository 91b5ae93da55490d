package raster

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svgraster/pkg/graphics"
	"svgraster/pkg/svg"
	"svgraster/pkg/viewport"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#102030", color.NRGBA{0x10, 0x20, 0x30, 0xff}},
		{"#10203040", color.NRGBA{0x10, 0x20, 0x30, 0x40}},
		{"1, 2, 3", color.NRGBA{1, 2, 3, 255}},
		{"1,2,3,4", color.NRGBA{1, 2, 3, 4}},
		{"128.255.0.0", color.NRGBA{255, 0, 0, 128}},
		{"Red", color.NRGBA{255, 0, 0, 255}},
		{"transparent", color.NRGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, in := range []string{"", "#12", "#ggg", "1,2", "256,0,0", "1.2.3", "notacolor"} {
		_, err := ParseColor(in)
		assert.ErrorIs(t, err, ErrInvalidColor, "input %q", in)
	}
}

func TestFlatten(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(1, 0, color.RGBA{0, 0, 255, 255})

	out := Flatten(img, color.NRGBA{255, 0, 0, 10})
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, out.RGBAAt(1, 0))

	out = Flatten(img, nil)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(0, 0))
}

func TestCanvasSize(t *testing.T) {
	w, h := CanvasSize(10.2, 3)
	assert.Equal(t, 11, w)
	assert.Equal(t, 3, h)

	w, h = CanvasSize(0.1, 0)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestCanvasStrokeRect(t *testing.T) {
	c := NewCanvas(20, 20, nil)
	assert.Equal(t, color.RGBA{}, c.Image().RGBAAt(5, 5))

	c.StrokeRect(graphics.Rect{X: 2, Y: 2, Width: 16, Height: 16}, color.White, 2)
	img := c.Image()
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(2, 10))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(10, 17))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(10, 10))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
	assert.Equal(t, color.Transparent, c.GetPixel(-1, 0))
}

const quadrants = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10" viewBox="0 0 10 10">
  <rect x="0" y="0" width="5" height="5" fill="#ff0000"/>
  <rect x="5" y="5" width="5" height="5" fill="#0000ff"/>
</svg>`

func render(t *testing.T, opts viewport.Options, ropts Options) *image.RGBA {
	t.Helper()
	doc, err := svg.ParseBytes([]byte(quadrants))
	require.NoError(t, err)
	res, err := viewport.Resolve(doc.Size(svg.DefaultViewport), opts, doc.Fit(""))
	require.NoError(t, err)
	img, err := NewRenderer(nil).Render(doc, res, ropts)
	require.NoError(t, err)
	return img
}

func TestRenderScaled(t *testing.T) {
	img := render(t, viewport.Options{Width: viewport.Float(20)}, Options{Background: color.White})

	assert.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(4, 4))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(15, 15))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(15, 4))
}

func TestRenderTransparentBackground(t *testing.T) {
	img := render(t, viewport.Options{}, Options{})
	assert.Equal(t, uint8(0), img.RGBAAt(8, 2).A)
	assert.Equal(t, uint8(255), img.RGBAAt(2, 2).A)
}

func TestRenderAreaOfInterest(t *testing.T) {
	aoi := graphics.Rect{X: 0, Y: 0, Width: 5, Height: 5}
	img := render(t, viewport.Options{AreaOfInterest: &aoi}, Options{Background: color.White})

	// The red quadrant fills the whole output.
	assert.Equal(t, image.Rect(0, 0, 10, 10), img.Bounds())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(8, 8))
}

func TestRenderOutline(t *testing.T) {
	outline := graphics.Rect{X: 5, Y: 5, Width: 5, Height: 5}
	img := render(t, viewport.Options{Width: viewport.Float(20)},
		Options{Background: color.White, Outline: &outline, OutlineColor: color.Black, OutlineWidth: 1})

	// The outline follows the scaled document: pixels 10..20.
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(10, 15))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(15, 19))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(15, 15))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(9, 15))
}

func TestRenderRejectsNonFiniteTransform(t *testing.T) {
	doc, err := svg.ParseBytes([]byte(quadrants))
	require.NoError(t, err)

	res := viewport.Result{Width: 1, Height: 1, Transform: graphics.Translate(math.Inf(1), 0)}
	_, err = NewRenderer(nil).Render(doc, res, Options{})
	assert.ErrorIs(t, err, viewport.ErrDegenerateAreaOfInterest)
}

func TestCheckSurface(t *testing.T) {
	assert.NoError(t, CheckSurface(4096, 4096))
	assert.NoError(t, CheckSurface(1<<14, 1<<14))
	assert.ErrorIs(t, CheckSurface(1<<14+1, 1<<14), ErrSurfaceTooLarge)
	assert.ErrorIs(t, CheckSurface(1e12, 1), ErrSurfaceTooLarge)
	assert.ErrorIs(t, CheckSurface(math.Inf(1), 1), ErrSurfaceTooLarge)
	assert.ErrorIs(t, CheckSurface(math.NaN(), 1), ErrSurfaceTooLarge)
}

func TestRenderRejectsHugeSurface(t *testing.T) {
	doc, err := svg.ParseBytes([]byte(quadrants))
	require.NoError(t, err)

	res := viewport.Result{Width: 1e12, Height: 1e12, Transform: graphics.Scale(1e11, 1e11)}
	_, err = NewRenderer(nil).Render(doc, res, Options{})
	assert.ErrorIs(t, err, ErrSurfaceTooLarge)
}
