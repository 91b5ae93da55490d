// Package destination names the output formats a rendered image can be
// written as and encodes images into them.
package destination

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/tiff"

	"svgraster/pkg/raster"
)

var (
	ErrUnknownType    = errors.New("unknown destination type")
	ErrInvalidQuality = errors.New("quality must be greater than 0 and less than 1")
)

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 0.75

// PixelsPerPoint converts output pixels (96 per inch) to PDF points.
const PixelsPerPoint = 96.0 / 72.0

// Type is an output format.
type Type int

const (
	PNG Type = iota
	JPEG
	TIFF
	PDF
)

var typeInfo = [...]struct {
	name, mime, ext string
	aliases         []string
}{
	PNG:  {"png", "image/png", ".png", nil},
	JPEG: {"jpeg", "image/jpeg", ".jpg", []string{"jpg", ".jpeg"}},
	TIFF: {"tiff", "image/tiff", ".tiff", []string{"tif", ".tif"}},
	PDF:  {"pdf", "application/pdf", ".pdf", nil},
}

// Types returns every supported output format.
func Types() []Type {
	return []Type{PNG, JPEG, TIFF, PDF}
}

// ParseType accepts a format name, MIME type or file extension, ignoring
// case.
func ParseType(s string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types() {
		info := typeInfo[t]
		if key == info.name || key == info.mime || key == info.ext {
			return t, nil
		}
		for _, alias := range info.aliases {
			if key == alias {
				return t, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

func (t Type) valid() bool {
	return t >= PNG && t <= PDF
}

// String returns the format name.
func (t Type) String() string {
	if !t.valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeInfo[t].name
}

// MIMEType returns the format's media type.
func (t Type) MIMEType() string {
	if !t.valid() {
		return "application/octet-stream"
	}
	return typeInfo[t].mime
}

// Extension returns the file extension, including the dot.
func (t Type) Extension() string {
	if !t.valid() {
		return ""
	}
	return typeInfo[t].ext
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// EncodeOptions control encoding.
type EncodeOptions struct {
	// Quality is the JPEG quality in (0, 1). Zero selects DefaultQuality.
	Quality float64

	// Background is composited under formats without alpha. Default: white
	Background color.Color
}

// Validate checks the options.
func (o EncodeOptions) Validate() error {
	if math.IsNaN(o.Quality) || o.Quality < 0 || o.Quality >= 1 {
		return fmt.Errorf("%w: %g", ErrInvalidQuality, o.Quality)
	}
	return nil
}

// Encode writes img to w in format t.
func Encode(w io.Writer, t Type, img image.Image, opts EncodeOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	switch t {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		q := opts.Quality
		if q == 0 {
			q = DefaultQuality
		}
		quality := int(math.Round(q * 100))
		if quality < 1 {
			quality = 1
		}
		return jpeg.Encode(w, raster.Flatten(img, opts.Background), &jpeg.Options{Quality: quality})
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case PDF:
		return encodePDF(w, img)
	}
	return fmt.Errorf("%w: %d", ErrUnknownType, int(t))
}

// encodePDF writes a single page sized to the image at 96 pixels per inch,
// with the image as its only content.
func encodePDF(w io.Writer, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode page image: %w", err)
	}

	b := img.Bounds()
	wd := float64(b.Dx()) / PixelsPerPoint
	ht := float64(b.Dy()) / PixelsPerPoint

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: wd, Ht: ht},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("svgraster", true)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("page", opts, &buf)
	pdf.ImageOptions("page", 0, 0, wd, ht, false, opts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
