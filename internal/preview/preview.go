// Package preview prints reconstructed sprites on a terminal.
package preview

import (
	"fmt"
	"image"
	ic "image/color"
	"io"

	"github.com/gookit/color"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Mode selects how a sprite is drawn.
type Mode string

const (
	// ModeAuto draws a real image when the terminal supports one and falls
	// back to ModeTrueColor.
	ModeAuto Mode = "auto"
	// ModeRaster uses the kitty, iTerm2 or sixel protocols only.
	ModeRaster Mode = "raster"
	// ModeTrueColor paints two blanks per pixel with 24-bit backgrounds.
	ModeTrueColor Mode = "truecolor"
	// ModeColor paints through gookit/color, which degrades to whatever the
	// terminal supports.
	ModeColor Mode = "color"
	// ModeASCII uses shade characters and no escapes at all.
	ModeASCII Mode = "ascii"
)

// ErrNoRaster is returned by ModeRaster on terminals without image support.
var ErrNoRaster = errors.New("terminal cannot display images")

// Options controls Print.
type Options struct {
	Mode Mode

	// MaxWidth and MaxHeight bound the printed size in pixels; the sprite is
	// shrunk to fit, keeping its aspect ratio. Zero means unbounded.
	MaxWidth  uint
	MaxHeight uint
}

// Print draws img on w.
func Print(w io.Writer, img image.Image, opts Options) error {
	img = fit(img, opts.MaxWidth, opts.MaxHeight)

	switch opts.Mode {
	case "", ModeAuto:
		ok, err := printRaster(w, img)
		if ok || err != nil {
			return err
		}
		return printTrueColor(w, img)
	case ModeRaster:
		ok, err := printRaster(w, img)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoRaster
		}
		return nil
	case ModeTrueColor:
		return printTrueColor(w, img)
	case ModeColor:
		return printColor(w, img)
	case ModeASCII:
		return printASCII(w, img)
	default:
		return errors.Errorf("unknown preview mode %q", opts.Mode)
	}
}

func fit(img image.Image, maxW, maxH uint) image.Image {
	if maxW == 0 && maxH == 0 {
		return img
	}
	b := img.Bounds()
	if maxW == 0 {
		maxW = uint(b.Dx())
	}
	if maxH == 0 {
		maxH = uint(b.Dy())
	}
	return resize.Thumbnail(maxW, maxH, img, resize.Lanczos3)
}

func rgb8(c ic.Color) (r, g, b uint8, opaque bool) {
	n := ic.NRGBAModel.Convert(c).(ic.NRGBA)
	return n.R, n.G, n.B, n.A > 0
}

func printTrueColor(w io.Writer, img image.Image) error {
	return eachRow(w, img, func(c ic.Color) string {
		r, g, b, ok := rgb8(c)
		if !ok {
			return "\x1b[0m  "
		}
		return fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", r, g, b)
	})
}

func printColor(w io.Writer, img image.Image) error {
	return eachRow(w, img, func(c ic.Color) string {
		r, g, b, ok := rgb8(c)
		if !ok {
			return "  "
		}
		return color.RGB(r, g, b, true).Sprint("  ")
	})
}

func printASCII(w io.Writer, img image.Image) error {
	return eachRow(w, img, func(c ic.Color) string {
		r, g, b, ok := rgb8(c)
		if !ok {
			return "  "
		}
		switch a := (int(r) + int(g) + int(b)) / 3; {
		case a < 32:
			return ".."
		case a < 64:
			return "--"
		case a < 128:
			return "=="
		default:
			return "##"
		}
	})
}

func eachRow(w io.Writer, img image.Image, cell func(ic.Color) string) error {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, err := io.WriteString(w, cell(img.At(x, y))); err != nil {
				return errors.Wrap(err, "writing preview")
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return errors.Wrap(err, "writing preview")
		}
	}
	return nil
}
