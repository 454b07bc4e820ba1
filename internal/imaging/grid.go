package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Grid is the ordered sequence of cells sliced from one atlas raster.
//
// Cell i is the i-th cell in manifest numbering: rows from the bottom of the
// raster upwards, cells left to right within a row. A Grid is read-only once
// built and may be shared between goroutines.
type Grid struct {
	cellSize int
	cells    []*image.NRGBA
}

// SliceGrid cuts img into cellSize×cellSize cells in manifest order.
//
// The raster is expected to be an exact multiple of cellSize in both
// directions; partial cells at the right edge are kept as cropped by the
// raster bounds and partial rows at the top are skipped. Each cell is a copy,
// so callers may draw over cells of a composed canvas without touching the
// source.
func SliceGrid(img image.Image, cellSize int) *Grid {
	g := &Grid{cellSize: cellSize}
	if cellSize <= 0 {
		return g
	}

	b := img.Bounds()
	width := b.Dx()
	for y := b.Dy() - cellSize; y >= 0; y -= cellSize {
		for x := 0; x < width; x += cellSize {
			r := image.Rect(x, y, x+cellSize, y+cellSize).Add(b.Min)
			g.cells = append(g.cells, imaging.Crop(img, r))
		}
	}
	return g
}

// Len reports the number of cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// CellSize reports the edge length of each cell.
func (g *Grid) CellSize() int {
	return g.cellSize
}

// Cell returns cell i, or false if i is outside the grid.
func (g *Grid) Cell(i int) (*image.NRGBA, bool) {
	if i < 0 || i >= len(g.cells) {
		return nil, false
	}
	return g.cells[i], true
}

// Slicer produces grids for atlas rasters held by a RasterCache, slicing each
// raster once per cell size. The grids live in the raster's cache slot and
// are released with it.
type Slicer struct {
	cache    *RasterCache
	cellSize int
}

// NewSlicer returns a Slicer cutting cellSize cells from rasters in cache.
func NewSlicer(cache *RasterCache, cellSize int) *Slicer {
	return &Slicer{cache: cache, cellSize: cellSize}
}

// CellSize reports the cell edge length this Slicer cuts.
func (s *Slicer) CellSize() int {
	return s.cellSize
}

// Grid returns the grid of the raster at path, loading the raster through the
// cache if needed.
func (s *Slicer) Grid(path string) (*Grid, error) {
	return s.cache.grid(path, s.cellSize)
}
