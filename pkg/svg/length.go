package svg

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is the unit of an SVG length.
type Unit int

const (
	UnitNone Unit = iota // user units, same as px
	UnitPx
	UnitPt
	UnitPc
	UnitMm
	UnitCm
	UnitIn
	UnitEm
	UnitEx
	UnitPercent
)

// PixelsPerInch is the resolution used to convert absolute units.
// It corresponds to 0.26458333 millimeters per pixel.
const PixelsPerInch = 96.0

// DefaultFontSize is the em size, in pixels, used for font-relative units.
const DefaultFontSize = 16.0

var unitSuffixes = []struct {
	suffix string
	unit   Unit
}{
	{"px", UnitPx},
	{"pt", UnitPt},
	{"pc", UnitPc},
	{"mm", UnitMm},
	{"cm", UnitCm},
	{"in", UnitIn},
	{"em", UnitEm},
	{"ex", UnitEx},
	{"%", UnitPercent},
}

// Length is a number with a unit.
type Length struct {
	Value float64
	Unit  Unit
}

// Percent returns a percentage length.
func Percent(v float64) Length {
	return Length{Value: v, Unit: UnitPercent}
}

// ParseLength parses an SVG length such as "12", "3.5cm" or "100%".
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Length{}, fmt.Errorf("%w: empty", ErrInvalidLength)
	}

	unit := UnitNone
	num := s
	lower := strings.ToLower(s)
	for _, u := range unitSuffixes {
		if strings.HasSuffix(lower, u.suffix) {
			unit = u.unit
			num = strings.TrimSpace(s[:len(s)-len(u.suffix)])
			break
		}
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("%w: %q", ErrInvalidLength, s)
	}
	return Length{Value: v, Unit: unit}, nil
}

// Pixels converts the length to pixels. Percentages are taken of reference.
func (l Length) Pixels(reference float64) float64 {
	switch l.Unit {
	case UnitPt:
		return l.Value * PixelsPerInch / 72
	case UnitPc:
		return l.Value * PixelsPerInch / 6
	case UnitMm:
		return l.Value * PixelsPerInch / 25.4
	case UnitCm:
		return l.Value * PixelsPerInch / 2.54
	case UnitIn:
		return l.Value * PixelsPerInch
	case UnitEm:
		return l.Value * DefaultFontSize
	case UnitEx:
		return l.Value * DefaultFontSize / 2
	case UnitPercent:
		return l.Value * reference / 100
	default:
		return l.Value
	}
}

// String formats the length the way it would appear in an attribute.
func (l Length) String() string {
	v := strconv.FormatFloat(l.Value, 'g', -1, 64)
	for _, u := range unitSuffixes {
		if u.unit == l.Unit {
			return v + u.suffix
		}
	}
	return v
}
