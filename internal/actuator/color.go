package actuator

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an 8-bit RGB triple
type Color struct {
	R, G, B uint8
}

// Black is the zero color
var Black = Color{}

// RGB builds a Color
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ParseColor parses "#rrggbb"
func ParseColor(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalText implements encoding.TextMarshaler
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// HSV returns hue, saturation and value, each in [0,1). Unsaturated colors have hue 0.
func (c Color) HSV() (h, s, v float64) {
	h, s, v = c.colorful().Hsv()
	return h / 360, s, v
}

// FromHSV converts hue (turns, wrapped into [0,1)), saturation and value back to RGB
func FromHSV(h, s, v float64) Color {
	h = wrapTurn(h)
	r, g, b := colorful.Hsv(h*360, clamp01(s), clamp01(v)).RGB255()
	return Color{R: r, G: g, B: b}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Lerp blends two colors channel by channel; the result is truncated
func Lerp(a, b Color, p float64) Color {
	p = clamp01(p)
	return Color{
		R: lerp8(a.R, b.R, p),
		G: lerp8(a.G, b.G, p),
		B: lerp8(a.B, b.B, p),
	}
}

// HueBlend interpolates through HSV space. Clockwise walks increasing hue,
// counter-clockwise decreasing hue, wrapping through red either way.
func HueBlend(a, b Color, p float64, clockwise bool) Color {
	p = clamp01(p)
	sh, ss, sv := a.HSV()
	dh, ds, dv := b.HSV()

	if clockwise && dh < sh {
		dh += 1
	}
	if !clockwise && sh < dh {
		sh += 1
	}

	return FromHSV(sh+(dh-sh)*p, ss+(ds-ss)*p, sv+(dv-sv)*p)
}

// Average returns the per-channel mean of a frame
func Average(frame []Color) Color {
	if len(frame) == 0 {
		return Black
	}
	var r, g, b int
	for _, px := range frame {
		r += int(px.R)
		g += int(px.G)
		b += int(px.B)
	}
	n := len(frame)
	return Color{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n)}
}

// Rotate shifts a frame by one pixel in place. Forward moves the first pixel
// to the end; backward moves the last pixel to the front.
func Rotate(frame []Color, forward bool) {
	n := len(frame)
	if n < 2 {
		return
	}
	if forward {
		first := frame[0]
		copy(frame, frame[1:])
		frame[n-1] = first
		return
	}
	last := frame[n-1]
	copy(frame[1:], frame[:n-1])
	frame[0] = last
}

func lerp8(a, b uint8, p float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*p)
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func wrapTurn(h float64) float64 {
	for h >= 1 {
		h -= 1
	}
	for h < 0 {
		h += 1
	}
	return h
}
