package graphics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidRect = errors.New("invalid rectangle")

// ParseRect parses "x,y,width,height". Extents may be negative; callers
// normalize as needed.
func ParseRect(s string) (Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("%w: %q: want x,y,width,height", ErrInvalidRect, s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Rect{}, fmt.Errorf("%w: %q", ErrInvalidRect, s)
		}
		v[i] = f
	}
	return Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// String formats r as ParseRect accepts it.
func (r Rect) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", r.X, r.Y, r.Width, r.Height)
}
