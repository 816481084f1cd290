package logic

import (
	"fmt"
	"math"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

var (
	ColorBlue   = Color{31, 137, 251}
	ColorGreen  = Color{99, 255, 124}
	ColorYellow = Color{254, 219, 82}
	ColorRed    = Color{247, 0, 63}
)

// gradient runs from wet to dry. IndicatorColor inverts its input so that
// saturation 0 lands on the last stop.
var gradient = []Color{ColorBlue, ColorGreen, ColorYellow, ColorRed}

// IndicatorColor maps a saturation in [0,1] to a display color: dry soil is red,
// wet soil is blue, and values between stops are blended linearly.
func IndicatorColor(saturation float64) Color {
	v := 1.0 - clamp01(saturation)

	if v == 1.0 {
		return gradient[len(gradient)-1]
	}
	if v == 0.0 {
		return gradient[0]
	}

	v *= float64(len(gradient) - 1)
	a := int(math.Floor(v))
	blend := v - float64(a)
	from, to := gradient[a], gradient[a+1]

	return Color{
		R: lerp(from.R, to.R, blend),
		G: lerp(from.G, to.G, blend),
		B: lerp(from.B, to.B, blend),
	}
}

func lerp(from, to uint8, blend float64) uint8 {
	return uint8(int((float64(to)-float64(from))*blend + float64(from)))
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
