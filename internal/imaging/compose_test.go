package imaging

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"

	"github.com/ironsheep/sprite-atlas-mcp/internal/manifest"
)

var (
	padColor  = color.NRGBA{R: 0, G: 255, B: 0, A: 128}
	innerRed  = color.NRGBA{R: 255, A: 255}
	innerBlue = color.NRGBA{B: 255, A: 255}
)

// paddedAtlas builds a one-row atlas whose cells have an opaque inner area in
// the given colors and a semi-transparent border of width padding.
func paddedAtlas(cs, padding int, inner ...color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cs*len(inner), cs))
	for i, c := range inner {
		for y := 0; y < cs; y++ {
			for x := 0; x < cs; x++ {
				px := padColor
				if x >= padding && x < cs-padding && y >= padding && y < cs-padding {
					px = c
				}
				img.SetNRGBA(i*cs+x, y, px)
			}
		}
	}
	return img
}

func spriteOf(w, h int, indexes ...int) manifest.Sprite {
	return manifest.Sprite{
		Name:             "test",
		AtlasName:        "atlas",
		Width:            w,
		Height:           h,
		TransparentIndex: -1,
		CellIndexList:    indexes,
	}
}

func fullIndexList(w, h, rs, cell int) []int {
	list := make([]int, manifest.Positions(w, h, rs))
	for i := range list {
		list[i] = cell
	}
	return list
}

func TestCompose_ExampleSizes(t *testing.T) {
	grid := SliceGrid(solidImage(64, 64, innerRed), 64)
	sprite := spriteOf(100, 50, 0, 0)

	tests := []struct {
		policy CropPolicy
		w, h   int
	}{
		{CropNone, 122, 64},
		{CropDefault, 116, 58},
		{CropFull, 100, 50},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			c, err := Compose(sprite, grid, 3, tt.policy)
			if err != nil {
				t.Fatalf("Compose failed: %v", err)
			}
			b := c.Bounds()
			if b.Min != (image.Point{}) {
				t.Errorf("origin: got %v, want (0,0)", b.Min)
			}
			if b.Dx() != tt.w || b.Dy() != tt.h {
				t.Errorf("size: got %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.w, tt.h)
			}
			if c.Width != 100 || c.Height != 50 || c.Crop != tt.policy {
				t.Errorf("metadata: got %dx%d %q", c.Width, c.Height, c.Crop)
			}
		})
	}
}

func TestCompose_SizeProperties(t *testing.T) {
	const cs, p = 16, 2
	rs := cs - 2*p
	grid := SliceGrid(solidImage(cs, cs, innerBlue), cs)

	for _, dims := range [][2]int{{1, 1}, {12, 12}, {13, 12}, {12, 25}, {40, 7}, {36, 36}} {
		w, h := dims[0], dims[1]
		sprite := spriteOf(w, h, fullIndexList(w, h, rs, 0)...)
		gw, gh := ceilDiv(w, rs)*rs, ceilDiv(h, rs)*rs

		want := map[CropPolicy]image.Point{
			CropNone:    {gw + 2*p, gh + 2*p},
			CropDefault: {gw, gh},
			CropFull:    {w, h},
		}
		for policy, size := range want {
			c, err := Compose(sprite, grid, p, policy)
			if err != nil {
				t.Fatalf("%dx%d %s: Compose failed: %v", w, h, policy, err)
			}
			if got := c.Bounds().Size(); got != size {
				t.Errorf("%dx%d %s: got %v, want %v", w, h, policy, got, size)
			}
			if s := ComputeSizes(w, h, cs, p).For(policy); s.W != size.X || s.H != size.Y {
				t.Errorf("%dx%d %s: ComputeSizes says %v, want %v", w, h, policy, s, size)
			}
		}
	}
}

func TestCompose_TransparentIndex(t *testing.T) {
	grid := SliceGrid(solidImage(64, 64, innerRed), 64)
	sprite := spriteOf(100, 50, -1, 0)

	c, err := Compose(sprite, grid, 3, CropDefault)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	first, err := SampleColor(c.Image, 0, 0)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	if !first.Transparent {
		t.Errorf("first position should be transparent, got %+v", first.RGBA)
	}

	// x=60 lies in the second placement (58..116 after the default crop).
	second, err := SampleColor(c.Image, 60, 10)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	if second.RGBA != (RGBAColor{R: 255, A: 255}) {
		t.Errorf("second position: got %+v, want opaque red", second.RGBA)
	}
}

func TestCompose_LaterPlacementOverwrites(t *testing.T) {
	const cs, p = 8, 1 // stride 6
	grid := SliceGrid(paddedAtlas(cs, p, innerRed, innerBlue), cs)

	c, err := Compose(spriteOf(12, 6, 0, 1), grid, p, CropNone)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	img := c.Image.(*image.NRGBA)

	// Cell 1 starts at x=6 and its semi-transparent left border replaces the
	// opaque inner pixel cell 0 left there.
	if got := img.NRGBAAt(6, 3); got != padColor {
		t.Errorf("overlap pixel: got %v, want %v (no blending)", got, padColor)
	}
	if got := img.NRGBAAt(3, 3); got != innerRed {
		t.Errorf("cell 0 inner: got %v, want %v", got, innerRed)
	}
	if got := img.NRGBAAt(9, 3); got != innerBlue {
		t.Errorf("cell 1 inner: got %v, want %v", got, innerBlue)
	}
}

func TestCompose_FullCropOrigin(t *testing.T) {
	const cs, p = 8, 1 // stride 6
	grid := SliceGrid(paddedAtlas(cs, p, innerRed, innerBlue), cs)
	// 10×5 needs 2×1 placements; gridH=6 so deltaH=1.
	sprite := spriteOf(10, 5, 0, 1)

	c, err := Compose(sprite, grid, p, CropFull)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	img := c.Image.(*image.NRGBA)

	checks := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, innerRed},  // canvas (1,2)
		{4, 4, innerRed},  // canvas (5,6)
		{6, 0, innerBlue}, // canvas (7,2)
		{9, 4, innerBlue}, // canvas (10,6)
	}
	for _, ck := range checks {
		if got := img.NRGBAAt(ck.x, ck.y); got != ck.want {
			t.Errorf("pixel (%d,%d): got %v, want %v", ck.x, ck.y, got, ck.want)
		}
	}
}

func TestCompose_BottomRowFirst(t *testing.T) {
	const cs = 8 // no padding, stride 8
	grid := SliceGrid(numberedAtlas(4, 1, cs), cs)
	// 8×16 sprite: two rows, the first index is the bottom row.
	c, err := Compose(spriteOf(8, 16, 2, 3), grid, 0, CropFull)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	img := c.Image.(*image.NRGBA)
	if got := img.NRGBAAt(4, 12); got != indexColor(2) {
		t.Errorf("bottom row: got %v, want cell 2", got)
	}
	if got := img.NRGBAAt(4, 4); got != indexColor(3) {
		t.Errorf("top row: got %v, want cell 3", got)
	}
}

func TestCompose_IndexListErrors(t *testing.T) {
	grid := SliceGrid(solidImage(64, 64, innerRed), 64)

	tests := []struct {
		name    string
		indexes []int
		want    error
	}{
		{"empty", nil, ErrIndexListTooShort},
		{"one short", []int{0}, ErrIndexListTooShort},
		{"one long", []int{0, 0, 0}, ErrIndexListTooLong},
		{"index past grid", []int{0, 1}, ErrBadCellIndex},
		{"negative index", []int{-2, 0}, ErrBadCellIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Compose(spriteOf(100, 50, tt.indexes...), grid, 3, CropDefault)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if c != nil {
				t.Error("partial canvas returned alongside error")
			}
		})
	}
}

func TestCompose_UnknownPolicy(t *testing.T) {
	grid := SliceGrid(solidImage(64, 64, innerRed), 64)
	_, err := Compose(spriteOf(10, 10, 0), grid, 3, CropPolicy("tight"))
	if !errors.Is(err, ErrCrop) {
		t.Errorf("got %v, want ErrCrop", err)
	}
}

func TestCompose_Idempotent(t *testing.T) {
	grid := SliceGrid(paddedAtlas(16, 2, innerRed, innerBlue), 16)
	sprite := spriteOf(20, 10, 0, 1)
	var enc Encoder

	var blobs [][]byte
	for i := 0; i < 2; i++ {
		c, err := Compose(sprite, grid, 2, CropFull)
		if err != nil {
			t.Fatalf("Compose failed: %v", err)
		}
		b, err := enc.EncodeBytes(c, FormatPNG)
		if err != nil {
			t.Fatalf("EncodeBytes failed: %v", err)
		}
		blobs = append(blobs, b)
	}
	if !bytes.Equal(blobs[0], blobs[1]) {
		t.Error("composing twice produced different bytes")
	}
}

func TestCompose_DoesNotModifyGrid(t *testing.T) {
	grid := SliceGrid(paddedAtlas(8, 1, innerRed, innerBlue), 8)
	before := make([][]byte, grid.Len())
	for i := range before {
		cell, _ := grid.Cell(i)
		before[i] = append([]byte(nil), cell.Pix...)
	}

	if _, err := Compose(spriteOf(12, 6, 1, 0), grid, 1, CropNone); err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	for i := range before {
		cell, _ := grid.Cell(i)
		if !bytes.Equal(before[i], cell.Pix) {
			t.Errorf("cell %d modified by Compose", i)
		}
	}
}
