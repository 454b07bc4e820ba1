package imaging

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

// indexColor encodes a cell number in an opaque color.
func indexColor(i int) color.NRGBA {
	return color.NRGBA{R: uint8(10 + i*20), G: uint8(i), B: 200, A: 255}
}

// numberedAtlas builds a cols×rows atlas of cs-pixel cells where every cell is
// filled with indexColor of its manifest number (bottom row first).
func numberedAtlas(cols, rows, cs int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cols*cs, rows*cs))
	for row := 0; row < rows; row++ {
		top := (rows - 1 - row) * cs
		for col := 0; col < cols; col++ {
			c := indexColor(row*cols + col)
			for y := top; y < top+cs; y++ {
				for x := col * cs; x < (col+1)*cs; x++ {
					img.SetNRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

func TestSliceGrid_Order(t *testing.T) {
	g := SliceGrid(numberedAtlas(3, 2, 8), 8)

	if g.Len() != 6 {
		t.Fatalf("Len: got %d, want 6", g.Len())
	}
	if g.CellSize() != 8 {
		t.Errorf("CellSize: got %d, want 8", g.CellSize())
	}
	for i := 0; i < g.Len(); i++ {
		cell, ok := g.Cell(i)
		if !ok {
			t.Fatalf("Cell(%d) missing", i)
		}
		if cell.Bounds() != image.Rect(0, 0, 8, 8) {
			t.Errorf("cell %d bounds: got %v, want (0,0)-(8,8)", i, cell.Bounds())
		}
		if got := cell.NRGBAAt(4, 4); got != indexColor(i) {
			t.Errorf("cell %d: got color %v, want %v", i, got, indexColor(i))
		}
	}
}

func TestSliceGrid_Deterministic(t *testing.T) {
	atlas := numberedAtlas(4, 3, 16)
	a := SliceGrid(atlas, 16)
	b := SliceGrid(atlas, 16)

	if a.Len() != b.Len() {
		t.Fatalf("Len mismatch: %d vs %d", a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		ca, _ := a.Cell(i)
		cb, _ := b.Cell(i)
		if !bytes.Equal(ca.Pix, cb.Pix) {
			t.Errorf("cell %d differs between slices", i)
		}
	}
}

func TestSliceGrid_CopiesPixels(t *testing.T) {
	atlas := numberedAtlas(2, 1, 8)
	g := SliceGrid(atlas, 8)

	cell, _ := g.Cell(0)
	cell.SetNRGBA(0, 0, color.NRGBA{})
	if got := atlas.NRGBAAt(0, 0); got != indexColor(0) {
		t.Errorf("writing into a cell changed the atlas: got %v", got)
	}
}

func TestSliceGrid_NonZeroOrigin(t *testing.T) {
	big := numberedAtlas(3, 3, 8)
	// The top-right 2×2 cells of a 3×3 atlas are cells 4, 5, 7 and 8.
	sub := big.SubImage(image.Rect(8, 0, 24, 16))

	g := SliceGrid(sub, 8)
	want := []int{4, 5, 7, 8}
	if g.Len() != len(want) {
		t.Fatalf("Len: got %d, want %d", g.Len(), len(want))
	}
	for i, w := range want {
		cell, _ := g.Cell(i)
		if got := cell.NRGBAAt(1, 1); got != indexColor(w) {
			t.Errorf("cell %d: got %v, want color of atlas cell %d", i, got, w)
		}
	}
}

func TestSliceGrid_PartialTopRowSkipped(t *testing.T) {
	img := solidImage(16, 20, color.White) // 2 full rows of 8 plus 4 px
	g := SliceGrid(img, 8)
	if g.Len() != 4 {
		t.Errorf("Len: got %d, want 4", g.Len())
	}
}

func TestGrid_CellOutOfRange(t *testing.T) {
	g := SliceGrid(numberedAtlas(1, 1, 8), 8)
	for _, i := range []int{-1, 1, 99} {
		if _, ok := g.Cell(i); ok {
			t.Errorf("Cell(%d) should not exist", i)
		}
	}
}

func TestSliceGrid_ZeroCellSize(t *testing.T) {
	g := SliceGrid(solidImage(8, 8, color.White), 0)
	if g.Len() != 0 {
		t.Errorf("Len: got %d, want 0", g.Len())
	}
}
