package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/ironsheep/sprite-atlas-mcp/internal/manifest"
)

// Canvas is a composed sprite together with the metadata describing it.
type Canvas struct {
	// Image starts at the origin.
	Image image.Image

	// Width and Height are the sprite's true size, whatever the crop.
	Width  int
	Height int

	// Crop is the policy the image was cropped with.
	Crop CropPolicy
}

// Bounds is a shorthand for c.Image.Bounds().
func (c *Canvas) Bounds() image.Rectangle {
	return c.Image.Bounds()
}

// WithImage returns a copy of c carrying img instead of c.Image.
func (c *Canvas) WithImage(img image.Image) *Canvas {
	out := *c
	out.Image = img
	return &out
}

// Compose assembles sprite from the cells of grid and crops the result with
// policy.
//
// Cells are placed every cellSize - 2*padding pixels so that neighbours
// overlap by padding on each shared edge. Positions are walked bottom row
// first, left to right, consuming one entry of the sprite's cell index list
// each. A placement replaces the destination pixels rather than blending, so
// the later cell wins in every overlap.
//
// Compose returns a complete canvas or an error, never a partial image.
func Compose(sprite manifest.Sprite, grid *Grid, padding int, policy CropPolicy) (*Canvas, error) {
	s := ComputeSizes(sprite.Width, sprite.Height, grid.CellSize(), padding)
	rs := s.Stride
	if rs <= 0 {
		return nil, errors.Wrapf(manifest.ErrManifest, "sprite %q: padding %d leaves no inner area in %d px cells", sprite.Name, padding, grid.CellSize())
	}
	if _, err := s.CropRect(policy); err != nil {
		return nil, errors.WithMessagef(err, "sprite %q", sprite.Name)
	}

	b := s.Bordered()
	canvas := imaging.New(b.W, b.H, color.Transparent)

	indexes := sprite.CellIndexList
	i := 0
	for y := s.Grid.H - rs; y >= 0; y -= rs {
		for x := 0; x < s.Grid.W; x += rs {
			if i >= len(indexes) {
				return nil, errors.Wrapf(ErrIndexListTooShort, "sprite %q: %d entries for %d positions", sprite.Name, len(indexes), s.Positions())
			}
			idx := indexes[i]
			i++
			if idx == sprite.TransparentIndex {
				continue
			}
			cell, ok := grid.Cell(idx)
			if !ok {
				return nil, errors.Wrapf(ErrBadCellIndex, "sprite %q: index %d at position %d, grid has %d cells", sprite.Name, idx, i-1, grid.Len())
			}
			dst := image.Rect(x, y, x+cell.Rect.Dx(), y+cell.Rect.Dy())
			draw.Draw(canvas, dst, cell, cell.Rect.Min, draw.Src)
		}
	}
	if i != len(indexes) {
		return nil, errors.Wrapf(ErrIndexListTooLong, "sprite %q: %d entries for %d positions", sprite.Name, len(indexes), s.Positions())
	}

	out, err := crop(canvas, s, policy)
	if err != nil {
		return nil, errors.WithMessagef(err, "sprite %q", sprite.Name)
	}

	return &Canvas{
		Image:  out,
		Width:  sprite.Width,
		Height: sprite.Height,
		Crop:   policy,
	}, nil
}
