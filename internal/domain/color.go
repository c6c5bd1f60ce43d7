package domain

import "fmt"

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// IsOff reports whether c emits no light.
func (c Color) IsOff() bool {
	return c == Black
}

// Lerp returns the color at ratio between c and to. Channels are truncated
// toward zero, so ratio 0.5 from 0 to 255 gives 127.
func (c Color) Lerp(to Color, ratio float64) Color {
	return Color{
		R: lerp(c.R, to.R, ratio),
		G: lerp(c.G, to.G, ratio),
		B: lerp(c.B, to.B, ratio),
	}
}

func lerp(from, to uint8, ratio float64) uint8 {
	return uint8(int(float64(from) + (float64(to)-float64(from))*ratio))
}
