package imaging

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/ironsheep/sprite-atlas-mcp/internal/manifest"
)

// CropPolicy controls how much of the padded working canvas survives into a
// composed sprite.
type CropPolicy string

const (
	// CropNone keeps the canvas with its outer padding border.
	CropNone CropPolicy = "none"

	// CropDefault strips the outer padding border but keeps the overshoot
	// from rounding the sprite up to whole cells.
	CropDefault CropPolicy = "default"

	// CropFull cuts the sprite to its true width and height.
	CropFull CropPolicy = "full"
)

// CropPolicies lists every policy in increasing order of cropping.
var CropPolicies = []CropPolicy{CropNone, CropDefault, CropFull}

// ParseCropPolicy parses a policy name. The empty string selects CropDefault.
func ParseCropPolicy(s string) (CropPolicy, error) {
	switch p := CropPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CropDefault, nil
	case CropNone, CropDefault, CropFull:
		return p, nil
	default:
		return "", errors.Wrapf(ErrCrop, "unknown crop policy %q", s)
	}
}

// Size is a width and height in pixels.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// String renders the size as "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// Sizes holds the derived canvas geometry of one sprite.
type Sizes struct {
	// Stride is the placement step between cells, cellSize - 2*padding.
	Stride  int
	Padding int

	// Grid is the sprite size rounded up to whole strides.
	Grid Size
	// Delta is the overshoot of Grid over the true size.
	Delta Size
	// True is the sprite's unpadded size.
	True Size
}

// ComputeSizes derives the canvas geometry of a width×height sprite.
func ComputeSizes(width, height, cellSize, padding int) Sizes {
	rs := cellSize - 2*padding
	s := Sizes{Stride: rs, Padding: padding, True: Size{width, height}}
	if rs <= 0 {
		return s
	}
	s.Grid = Size{ceilDiv(width, rs) * rs, ceilDiv(height, rs) * rs}
	s.Delta = Size{s.Grid.W - width, s.Grid.H - height}
	return s
}

// Bordered is the working canvas size including the outer padding border.
func (s Sizes) Bordered() Size {
	return Size{s.Grid.W + 2*s.Padding, s.Grid.H + 2*s.Padding}
}

// Positions is the number of cell placements the canvas needs.
func (s Sizes) Positions() int {
	if s.Stride <= 0 {
		return 0
	}
	return (s.Grid.W / s.Stride) * (s.Grid.H / s.Stride)
}

// CropRect returns the region of the bordered canvas kept by p.
func (s Sizes) CropRect(p CropPolicy) (image.Rectangle, error) {
	switch p {
	case CropNone:
		b := s.Bordered()
		return image.Rect(0, 0, b.W, b.H), nil
	case CropDefault:
		return image.Rect(0, 0, s.Grid.W, s.Grid.H).Add(image.Pt(s.Padding, s.Padding)), nil
	case CropFull:
		// Rows are built bottom-up, so the rounding overshoot sits at the top.
		return image.Rect(0, 0, s.True.W, s.True.H).Add(image.Pt(s.Padding, s.Delta.H+s.Padding)), nil
	default:
		return image.Rectangle{}, errors.Wrapf(ErrCrop, "unknown crop policy %q", p)
	}
}

// For returns the size of a canvas composed with policy p.
func (s Sizes) For(p CropPolicy) Size {
	r, err := s.CropRect(p)
	if err != nil {
		return Size{}
	}
	return Size{r.Dx(), r.Dy()}
}

// crop applies policy p to a bordered canvas. The result always starts at the
// origin.
func crop(canvas *image.NRGBA, s Sizes, p CropPolicy) (*image.NRGBA, error) {
	r, err := s.CropRect(p)
	if err != nil {
		return nil, err
	}
	if p == CropNone {
		return canvas, nil
	}
	if r.Empty() || !r.In(canvas.Bounds()) {
		return nil, errors.Wrapf(ErrCrop, "policy %q: region %v outside canvas %v", p, r, canvas.Bounds())
	}
	return imaging.Crop(canvas, r), nil
}

// Stats is the human-readable size report for one sprite.
type Stats struct {
	Name    string `json:"name"`
	None    string `json:"none"`
	Default string `json:"default"`
	Full    string `json:"full"`
	Delta   string `json:"delta"`
}

// StatsFor reports the none, default and full canvas sizes of a sprite and its
// rounding overshoot, each as "WxH".
func StatsFor(sprite manifest.Sprite, cellSize, padding int) Stats {
	s := ComputeSizes(sprite.Width, sprite.Height, cellSize, padding)
	return Stats{
		Name:    sprite.Name,
		None:    s.For(CropNone).String(),
		Default: s.For(CropDefault).String(),
		Full:    s.For(CropFull).String(),
		Delta:   s.Delta.String(),
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
