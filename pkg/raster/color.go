package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned by ParseColor.
var ErrInvalidColor = errors.New("invalid color")

// ParseColor parses a background color. Accepted forms are CSS color names,
// "transparent", "#rgb", "#rrggbb", "#rrggbbaa", "r,g,b[,a]" and the dotted
// "a.r.g.b" form, with components in 0..255.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	switch {
	case lower == "transparent":
		return color.NRGBA{}, nil
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.Contains(s, ","):
		parts := strings.Split(s, ",")
		if len(parts) != 3 && len(parts) != 4 {
			break
		}
		c, err := parseComponents(parts)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		if len(parts) == 3 {
			c[3] = 255
		}
		return color.NRGBA{c[0], c[1], c[2], c[3]}, nil
	case strings.Count(s, ".") == 3:
		c, err := parseComponents(strings.Split(s, "."))
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		return color.NRGBA{c[1], c[2], c[3], c[0]}, nil
	default:
		if named, ok := colornames.Map[lower]; ok {
			return color.NRGBA{named.R, named.G, named.B, named.A}, nil
		}
	}
	return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

func parseComponents(parts []string) ([4]uint8, error) {
	var c [4]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return c, err
		}
		c[i] = uint8(v)
	}
	return c, nil
}

func parseHex(h string) (color.NRGBA, error) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.NRGBA{}, fmt.Errorf("%w: #%s", ErrInvalidColor, h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: #%s", ErrInvalidColor, h)
	}
	return color.NRGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// Flatten composites img over an opaque background. Formats without an
// alpha channel use it before encoding.
func Flatten(img image.Image, bg color.Color) *image.RGBA {
	if bg == nil {
		bg = color.White
	}
	opaque := color.NRGBAModel.Convert(bg).(color.NRGBA)
	opaque.A = 0xff

	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), &image.Uniform{opaque}, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Over)
	return out
}
