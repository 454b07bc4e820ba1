// Package imaging reconstructs sprites from packed texture atlases.
//
// An atlas raster is cut into square cells of a fixed size (SliceGrid). Each
// cell carries a padding border that overlaps its neighbours when cells are
// placed back together, which hides interpolation seams in the packed art.
// Compose lays the cells of one sprite onto a transparent canvas following
// the sprite's cell index list and crops the result according to a
// CropPolicy.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner; X grows to
// the right and Y downwards. Cell numbering and cell index lists, however,
// run bottom row first: cell 0 is the bottom-left cell of the atlas, and the
// first entry of a sprite's index list is its bottom-left placement.
//
// # Geometry
//
// With cell size cs and padding p, cells are placed every rs = cs - 2p
// pixels. A w×h sprite needs ceil(w/rs)×ceil(h/rs) placements:
//
//	gridW = ceil(w/rs)*rs    gridH = ceil(h/rs)*rs
//	none    -> (gridW+2p) × (gridH+2p)
//	default -> gridW × gridH, origin (p, p)
//	full    -> w × h,         origin (p, gridH-h+p)
//
// ComputeSizes and StatsFor report these numbers without composing.
//
// # Thread Safety
//
// RasterCache is safe for concurrent use and decodes or slices each atlas
// once, however many goroutines ask for it first. Grids are read-only, so
// any number of Compose calls may share one. Canvases are not shared.
//
// # Encoding
//
// Encoder writes PNG, JPEG, GIF, TIFF and BMP. JPEG output is flattened onto
// a background color; GIF output is median-cut quantized with a transparent
// palette entry. Atlases may additionally be read from WebP.
package imaging
