package imaging

import (
	"fmt"
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// RGBAColor is a non-premultiplied color with 8-bit components.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"` // 0 = fully transparent, 255 = opaque
}

// HSLColor is a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // 0-360 degrees
	S int `json:"s"` // 0-100 percent
	L int `json:"l"` // 0-100 percent
}

// ColorResult is one sampled pixel.
type ColorResult struct {
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Hex         string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGBA        RGBAColor `json:"rgba"`
	HSL         HSLColor  `json:"hsl"`
	Transparent bool      `json:"transparent"`
}

// SampleColor reads the pixel at (x, y), relative to the image's top-left
// corner.
//
// Color channels are reported un-premultiplied, so a fully transparent pixel
// reads as #000000 with A=0.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	b := img.Bounds()
	px, py := b.Min.X+x, b.Min.Y+y
	if x < 0 || y < 0 || px >= b.Max.X || py >= b.Max.Y {
		return nil, errors.Errorf("coordinates (%d,%d) outside %dx%d image", x, y, b.Dx(), b.Dy())
	}

	c := colorNRGBA(img.At(px, py))
	res := &ColorResult{
		X:           x,
		Y:           y,
		Hex:         fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B),
		RGBA:        c,
		Transparent: c.A == 0,
	}

	// MakeColor refuses fully transparent colors; they keep a zero HSL.
	if cf, ok := colorful.MakeColor(img.At(px, py)); ok {
		h, s, l := cf.Hsl()
		res.HSL = HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)}
	}
	return res, nil
}

// Point is a pixel coordinate with an optional label.
type Point struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// LabeledColorResult is a sample tagged with the label of its point.
type LabeledColorResult struct {
	Label string `json:"label,omitempty"`
	ColorResult
}

// SampleColors samples every point in order. Any point outside the image
// fails the whole call.
func SampleColors(img image.Image, points []Point) ([]LabeledColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))
	for _, p := range points {
		c, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, errors.WithMessagef(err, "point %q", p.Label)
		}
		results = append(results, LabeledColorResult{Label: p.Label, ColorResult: *c})
	}
	return results, nil
}

func colorNRGBA(c interface{ RGBA() (r, g, b, a uint32) }) RGBAColor {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return RGBAColor{}
	}
	// Un-premultiply 16-bit channels, then drop to 8 bits.
	r = r * 0xffff / a
	g = g * 0xffff / a
	b = b * 0xffff / a
	return RGBAColor{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
