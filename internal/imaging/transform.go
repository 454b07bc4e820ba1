package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Transform post-processes a composed canvas before it is encoded.
//
// Transforms must not modify their input; they return a new canvas. They are
// free to change the image size, so size guarantees of the crop policies do
// not hold after a transform.
type Transform func(*Canvas) *Canvas

// Chain applies transforms left to right. Nil entries are skipped; an empty
// chain returns nil.
func Chain(ts ...Transform) Transform {
	var live []Transform
	for _, t := range ts {
		if t != nil {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return func(c *Canvas) *Canvas {
		for _, t := range live {
			if c = t(c); c == nil {
				return nil
			}
		}
		return c
	}
}

// Apply runs t on c. A nil t returns c unchanged; a t that yields no canvas
// fails with ErrTransform.
func (t Transform) Apply(c *Canvas) (*Canvas, error) {
	if t == nil {
		return c, nil
	}
	out := t(c)
	if out == nil || out.Image == nil {
		return nil, errors.Wrap(ErrTransform, "transform returned no image")
	}
	return out, nil
}

// Grayscale removes all saturation, keeping alpha.
func Grayscale() Transform {
	return func(c *Canvas) *Canvas {
		return c.WithImage(adjust.Saturation(c.Image, -1))
	}
}

// Invert inverts color channels, keeping alpha.
func Invert() Transform {
	return func(c *Canvas) *Canvas {
		return c.WithImage(effect.Invert(c.Image))
	}
}

// Sepia applies a sepia tone.
func Sepia() Transform {
	return func(c *Canvas) *Canvas {
		return c.WithImage(effect.Sepia(c.Image))
	}
}

// Blur applies a gaussian blur of the given radius.
func Blur(radius float64) Transform {
	return func(c *Canvas) *Canvas {
		return c.WithImage(blur.Gaussian(c.Image, radius))
	}
}

// Brightness shifts brightness by change in [-1, 1].
func Brightness(change float64) Transform {
	return func(c *Canvas) *Canvas {
		return c.WithImage(adjust.Brightness(c.Image, change))
	}
}

// Contrast changes contrast by change in [-1, 1].
func Contrast(change float64) Transform {
	return func(c *Canvas) *Canvas {
		return c.WithImage(adjust.Contrast(c.Image, change))
	}
}

// Scale resizes the canvas image by factor with a Lanczos filter.
func Scale(factor float64) Transform {
	return func(c *Canvas) *Canvas {
		b := c.Image.Bounds()
		w := int(float64(b.Dx()) * factor)
		h := int(float64(b.Dy()) * factor)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		return c.WithImage(imaging.Resize(c.Image, w, h, imaging.Lanczos))
	}
}

// Flatten paints the sprite over an opaque background color.
func Flatten(bg color.Color) Transform {
	return func(c *Canvas) *Canvas {
		b := c.Image.Bounds()
		base := imaging.New(b.Dx(), b.Dy(), bg)
		return c.WithImage(imaging.Overlay(base, c.Image, image.Pt(0, 0), 1.0))
	}
}

// GridOverlay draws lines every spacing pixels, which makes cell seams
// visible when inspecting a composed sprite.
func GridOverlay(spacing int, lineColor color.Color) Transform {
	return func(c *Canvas) *Canvas {
		b := c.Image.Bounds()
		result := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(result, result.Bounds(), c.Image, b.Min, draw.Src)
		if spacing <= 0 {
			return c.WithImage(result)
		}

		width, height := b.Dx(), b.Dy()
		for x := spacing; x < width; x += spacing {
			for y := 0; y < height; y++ {
				result.Set(x, y, lineColor)
			}
		}
		for y := spacing; y < height; y += spacing {
			for x := 0; x < width; x++ {
				result.Set(x, y, lineColor)
			}
		}
		return c.WithImage(result)
	}
}

// ParseTransform builds a Transform from a comma separated list such as
// "grayscale,blur:1.5,grid:58:#FF000080". The empty string yields nil.
//
// Recognized steps: grayscale, invert, sepia, blur:R, brightness:F,
// contrast:F, scale:F, flatten:#RRGGBB, grid:N[:#RRGGBB[AA]].
func ParseTransform(list string) (Transform, error) {
	var steps []Transform
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		args := strings.Split(part, ":")
		name, args := strings.ToLower(args[0]), args[1:]

		t, err := parseStep(name, args)
		if err != nil {
			return nil, errors.WithMessagef(err, "transform step %q", part)
		}
		steps = append(steps, t)
	}
	return Chain(steps...), nil
}

func parseStep(name string, args []string) (Transform, error) {
	switch name {
	case "grayscale", "greyscale":
		return noArgs(args, Grayscale())
	case "invert":
		return noArgs(args, Invert())
	case "sepia":
		return noArgs(args, Sepia())
	case "blur":
		r, err := floatArg(args, 0, 256)
		if err != nil {
			return nil, err
		}
		return Blur(r), nil
	case "brightness":
		f, err := floatArg(args, -1, 1)
		if err != nil {
			return nil, err
		}
		return Brightness(f), nil
	case "contrast":
		f, err := floatArg(args, -1, 1)
		if err != nil {
			return nil, err
		}
		return Contrast(f), nil
	case "scale":
		f, err := floatArg(args, 0.01, 16)
		if err != nil {
			return nil, err
		}
		return Scale(f), nil
	case "flatten":
		if len(args) != 1 {
			return nil, errors.Wrap(ErrTransform, "want one color argument")
		}
		c, err := parseHexColor(args[0])
		if err != nil {
			return nil, err
		}
		return Flatten(c), nil
	case "grid":
		if len(args) < 1 || len(args) > 2 {
			return nil, errors.Wrap(ErrTransform, "want spacing and optional color")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return nil, errors.Wrapf(ErrTransform, "bad spacing %q", args[0])
		}
		lc := color.Color(color.NRGBA{R: 255, A: 128}) // semi-transparent red
		if len(args) == 2 {
			if lc, err = parseHexColor(args[1]); err != nil {
				return nil, err
			}
		}
		return GridOverlay(n, lc), nil
	}
	return nil, errors.Wrapf(ErrTransform, "unknown step %q", name)
}

func noArgs(args []string, t Transform) (Transform, error) {
	if len(args) != 0 {
		return nil, errors.Wrap(ErrTransform, "takes no arguments")
	}
	return t, nil
}

func floatArg(args []string, lo, hi float64) (float64, error) {
	if len(args) != 1 {
		return 0, errors.Wrap(ErrTransform, "want one numeric argument")
	}
	f, err := strconv.ParseFloat(args[0], 64)
	if err != nil || f < lo || f > hi {
		return 0, errors.Wrapf(ErrTransform, "argument %q outside [%g, %g]", args[0], lo, hi)
	}
	return f, nil
}

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func parseHexColor(hex string) (color.Color, error) {
	alpha := uint8(0xff)
	h := strings.TrimPrefix(hex, "#")
	if len(h) == 8 {
		a, err := strconv.ParseUint(h[6:], 16, 8)
		if err != nil {
			return nil, errors.Wrapf(ErrTransform, "bad color %q", hex)
		}
		alpha = uint8(a)
		h = h[:6]
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return nil, errors.Wrapf(ErrTransform, "bad color %q", hex)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}
