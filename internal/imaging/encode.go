package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybons/gogif"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Format is an output image format the Encoder can write.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
)

// Formats lists every writable format.
var Formats = []Format{FormatPNG, FormatJPEG, FormatGIF, FormatTIFF, FormatBMP}

// ParseFormat resolves a format name or file extension ("png", ".jpg",
// "TIFF"). The empty string selects PNG.
func ParseFormat(s string) (Format, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	if name == "" {
		return FormatPNG, nil
	}
	f, err := imaging.FormatFromExtension(name)
	if err != nil {
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", s)
	}
	switch f {
	case imaging.PNG:
		return FormatPNG, nil
	case imaging.JPEG:
		return FormatJPEG, nil
	case imaging.GIF:
		return FormatGIF, nil
	case imaging.TIFF:
		return FormatTIFF, nil
	case imaging.BMP:
		return FormatBMP, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%q", s)
}

// MIMEType returns the media type of f.
func (f Format) MIMEType() string {
	return "image/" + string(f)
}

// Extension returns the file extension of f, including the dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

func (f Format) codec() (imaging.Format, error) {
	switch f {
	case FormatPNG:
		return imaging.PNG, nil
	case FormatJPEG:
		return imaging.JPEG, nil
	case FormatGIF:
		return imaging.GIF, nil
	case FormatTIFF:
		return imaging.TIFF, nil
	case FormatBMP:
		return imaging.BMP, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedFormat, "%q", string(f))
}

const (
	defaultJPEGQuality = 95
	defaultGIFColors   = 255 // plus one slot for transparency
)

// Encoder writes composed canvases in any of Formats.
//
// The zero value is ready to use.
type Encoder struct {
	// JPEGQuality is 1-100; zero means 95.
	JPEGQuality int

	// Background is painted under the sprite for formats without alpha
	// (JPEG). Nil means white.
	Background color.Color

	// GIFColors is the palette size for GIF output, at most 255; zero means 255.
	GIFColors int
}

// ParseBackground parses a "#RRGGBB" color for Encoder.Background.
func ParseBackground(hex string) (color.Color, error) {
	c, err := colorful.Hex("#" + strings.TrimPrefix(hex, "#"))
	if err != nil {
		return nil, errors.Wrapf(err, "background %q", hex)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Encode writes the canvas image to w in format f.
func (e *Encoder) Encode(w io.Writer, c *Canvas, f Format) error {
	codec, err := f.codec()
	if err != nil {
		return err
	}

	switch f {
	case FormatJPEG:
		q := e.JPEGQuality
		if q <= 0 {
			q = defaultJPEGQuality
		}
		err = imaging.Encode(w, e.flatten(c.Image), codec, imaging.JPEGQuality(q))
	case FormatGIF:
		n := e.GIFColors
		if n <= 0 || n > defaultGIFColors {
			n = defaultGIFColors
		}
		err = gif.Encode(w, paletted(c.Image, n), nil)
	default:
		err = imaging.Encode(w, c.Image, codec)
	}
	if err != nil {
		return errors.Wrapf(err, "encoding %s", f)
	}
	return nil
}

// EncodeBytes encodes the canvas image in format f and returns the blob.
func (e *Encoder) EncodeBytes(c *Canvas, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, c, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save encodes the canvas into the file at path. The file is written under a
// temporary name in the same directory and renamed into place, so a failed
// encode never leaves a truncated image behind.
func (e *Encoder) Save(path string, c *Canvas, f Format) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sprite-*")
	if err != nil {
		return errors.Wrapf(err, "creating temporary file for %s", path)
	}
	defer os.Remove(tmp.Name())

	if err := e.Encode(tmp, c, f); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "renaming into %s", path)
	}
	return nil
}

func (e *Encoder) flatten(img image.Image) image.Image {
	bg := e.Background
	if bg == nil {
		bg = color.White
	}
	b := img.Bounds()
	base := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(base, img, image.Pt(0, 0), 1.0)
}

// paletted quantizes img to at most numColors colors plus a transparent
// entry at index 0.
//
// GIF alpha is 1-bit: a semi-transparent pixel, such as an antialiased
// padding edge, maps to its nearest premultiplied palette entry and comes out
// either fully opaque or fully transparent. Use PNG to keep partial alpha.
func paletted(img image.Image, numColors int) *image.Paletted {
	b := img.Bounds()
	quantizer := gogif.MedianCutQuantizer{NumColor: numColors}
	pal := image.NewPaletted(b, nil)
	quantizer.Quantize(pal, b, img, image.Point{})

	// gogif only hands back the palette by drawing into pal; redraw with the
	// transparent entry in front so empty pixels keep index 0.
	out := image.NewPaletted(b, append(color.Palette{color.Transparent}, pal.Palette...))
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
