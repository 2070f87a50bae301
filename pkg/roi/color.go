package roi

import (
	"fmt"
	"math"
)

// GoldenRatioConjugate is the hue step between successive ROI colors,
// ((1 - sqrt(5)) / 2) mod 1.
var GoldenRatioConjugate = math.Mod((1-math.Sqrt(5))/2+1, 1)

// RGB is an 8 bit per channel color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ColorCursor produces a reproducible sequence of well separated colors by
// stepping the hue by the golden ratio conjugate at a fixed saturation and
// lightness.
type ColorCursor struct {
	hueStart   float64
	saturation float64
	lightness  float64
	hue        float64
}

// NewColorCursor returns a cursor whose first color has hue hueStart. All
// parameters must lie in [0, 1].
func NewColorCursor(hueStart, saturation, lightness float64) (*ColorCursor, error) {
	for name, v := range map[string]float64{"hue start": hueStart, "saturation": saturation, "lightness": lightness} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return nil, fmt.Errorf("%s %v must be between 0 and 1", name, v)
		}
	}
	return &ColorCursor{
		hueStart:   hueStart,
		saturation: saturation,
		lightness:  lightness,
		hue:        hueStart,
	}, nil
}

// Next returns the color at the current hue and advances the hue.
func (c *ColorCursor) Next() RGB {
	r, g, b := hslToRGB(c.hue, c.saturation, c.lightness)
	c.hue = math.Mod(c.hue+GoldenRatioConjugate, 1)
	return RGB{R: scale(r), G: scale(g), B: scale(b)}
}

// Reset rewinds the cursor to its first color.
func (c *ColorCursor) Reset() {
	c.hue = c.hueStart
}

func scale(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// hslToRGB converts hue h in [0, 1), saturation s and lightness l to RGB
// channels in [0, 1].
func hslToRGB(h, s, l float64) (r, g, b float64) {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2

	switch {
	case h < 1.0/6:
		r, g, b = c, x, 0
	case h < 2.0/6:
		r, g, b = x, c, 0
	case h < 3.0/6:
		r, g, b = 0, c, x
	case h < 4.0/6:
		r, g, b = 0, x, c
	case h < 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
