package geom

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
)

// ErrInvalidHex is returned by ParseHex for malformed color strings.
var ErrInvalidHex = errors.New("geom: invalid hex color")

// ParseHex parses a color in "RGB", "RGBA", "RRGGBB" or "RRGGBBAA" form,
// with an optional leading '#'.
func ParseHex(hex string) (gputypes.Color, error) {
	s := hex
	if s != "" && s[0] == '#' {
		s = s[1:]
	}

	var digits [8]uint32
	for i := 0; i < len(s) && i < len(digits); i++ {
		v, ok := hexDigit(s[i])
		if !ok {
			return gputypes.Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, hex)
		}
		digits[i] = v
	}

	var r, g, b, a uint32 = 0, 0, 0, 255
	switch len(s) {
	case 3:
		r, g, b = digits[0]*17, digits[1]*17, digits[2]*17
	case 4:
		r, g, b, a = digits[0]*17, digits[1]*17, digits[2]*17, digits[3]*17
	case 6:
		r, g, b = digits[0]<<4|digits[1], digits[2]<<4|digits[3], digits[4]<<4|digits[5]
	case 8:
		r, g, b = digits[0]<<4|digits[1], digits[2]<<4|digits[3], digits[4]<<4|digits[5]
		a = digits[6]<<4 | digits[7]
	default:
		return gputypes.Color{}, fmt.Errorf("%w: %q", ErrInvalidHex, hex)
	}

	return gputypes.NewColor(float64(r)/255, float64(g)/255, float64(b)/255, float64(a)/255), nil
}

func hexDigit(c byte) (uint32, bool) {
	switch {
	case '0' <= c && c <= '9':
		return uint32(c - '0'), true
	case 'a' <= c && c <= 'f':
		return uint32(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return uint32(c-'A') + 10, true
	}
	return 0, false
}

// IdentifierToColor encodes a 24-bit pick identifier as an opaque color.
func IdentifierToColor(id int) gputypes.Color {
	r8 := (id >> 16) & 0xFF
	g8 := (id >> 8) & 0xFF
	b8 := id & 0xFF
	return gputypes.NewColor(float64(r8)/255, float64(g8)/255, float64(b8)/255, 1)
}

// ColorToIdentifier decodes a pick identifier written by IdentifierToColor.
func ColorToIdentifier(c gputypes.Color) int {
	r8 := int(math.Round(c.R * 255))
	g8 := int(math.Round(c.G * 255))
	b8 := int(math.Round(c.B * 255))
	return r8<<16 | g8<<8 | b8
}

// ToNRGBA converts c to a non-premultiplied 8-bit color.
func ToNRGBA(c gputypes.Color) color.NRGBA {
	return color.NRGBA{
		R: unit8(c.R),
		G: unit8(c.G),
		B: unit8(c.B),
		A: unit8(c.A),
	}
}

func unit8(v float64) uint8 {
	return uint8(Clamp(v, 0, 1)*255 + 0.5)
}
