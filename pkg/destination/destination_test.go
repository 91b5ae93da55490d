package destination

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"png", PNG},
		{"PNG", PNG},
		{"image/png", PNG},
		{".png", PNG},
		{"jpg", JPEG},
		{"jpeg", JPEG},
		{".jpeg", JPEG},
		{"image/jpeg", JPEG},
		{"tif", TIFF},
		{".tiff", TIFF},
		{"application/pdf", PDF},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseType("gif")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestTypeAccessors(t *testing.T) {
	assert.Equal(t, ".jpg", JPEG.Extension())
	assert.Equal(t, "image/tiff", TIFF.MIMEType())
	assert.Equal(t, "pdf", PDF.String())
	assert.Equal(t, "Type(9)", Type(9).String())
	assert.Len(t, Types(), 4)

	var typ Type
	require.NoError(t, typ.UnmarshalText([]byte("tiff")))
	assert.Equal(t, TIFF, typ)
	text, err := PDF.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(text))
}

func sampleImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	return img
}

func TestEncodePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, PNG, sampleImage(), EncodeOptions{}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
	_, _, _, a := img.At(6, 1).RGBA()
	assert.Zero(t, a)
}

func TestEncodeJPEGFlattens(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, JPEG, sampleImage(), EncodeOptions{Quality: 0.95, Background: color.White}))

	img, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	r, g, b, _ := img.At(6, 1).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestEncodeTIFF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, TIFF, sampleImage(), EncodeOptions{}))

	img, err := tiff.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
}

func TestEncodePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, PDF, sampleImage(), EncodeOptions{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestEncodeQuality(t *testing.T) {
	for _, q := range []float64{1, 1.5, -0.1} {
		err := Encode(&bytes.Buffer{}, JPEG, sampleImage(), EncodeOptions{Quality: q})
		assert.ErrorIs(t, err, ErrInvalidQuality, "quality %g", q)
	}
	assert.NoError(t, EncodeOptions{Quality: 0.99}.Validate())
}
