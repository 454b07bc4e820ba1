package imaging

import (
	"image"
	"math"
)

// OpaqueBounds returns the smallest rectangle, relative to the image's
// top-left corner, holding every pixel with non-zero alpha. A fully
// transparent image yields the empty rectangle.
func OpaqueBounds(img image.Image) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Dx(), b.Dy(), -1, -1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
				continue
			}
			lx, ly := x-b.Min.X, y-b.Min.Y
			if lx < minX {
				minX = lx
			}
			if lx > maxX {
				maxX = lx
			}
			if ly < minY {
				minY = ly
			}
			if ly > maxY {
				maxY = ly
			}
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// DiffResult summarizes a pixel comparison of two images.
type DiffResult struct {
	SameSize         bool    `json:"same_size"`
	TotalPixels      int     `json:"total_pixels"`
	PixelsDifferent  int     `json:"pixels_different"`
	MaxChannelDiff   int     `json:"max_channel_diff"`
	AverageColorDiff float64 `json:"average_color_diff"`
	SimilarityScore  float64 `json:"similarity_score"`
}

// Identical reports whether the images matched pixel for pixel.
func (d *DiffResult) Identical() bool {
	return d.SameSize && d.PixelsDifferent == 0
}

// Diff compares two images over their common top-left area. A pixel differs
// when any of its non-premultiplied RGBA channels differs by more than
// tolerance.
func Diff(a, b image.Image, tolerance int) *DiffResult {
	ab, bb := a.Bounds(), b.Bounds()
	w, h := ab.Dx(), ab.Dy()
	if bb.Dx() < w {
		w = bb.Dx()
	}
	if bb.Dy() < h {
		h = bb.Dy()
	}

	res := &DiffResult{
		SameSize:    ab.Size() == bb.Size(),
		TotalPixels: w * h,
	}
	var totalDiff float64
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			ca := colorNRGBA(a.At(ab.Min.X+dx, ab.Min.Y+dy))
			cb := colorNRGBA(b.At(bb.Min.X+dx, bb.Min.Y+dy))

			worst := 0
			sum := 0
			for _, d := range [4]int{
				absDiff(ca.R, cb.R), absDiff(ca.G, cb.G),
				absDiff(ca.B, cb.B), absDiff(ca.A, cb.A),
			} {
				sum += d
				if d > worst {
					worst = d
				}
			}
			totalDiff += float64(sum) / 4
			if worst > res.MaxChannelDiff {
				res.MaxChannelDiff = worst
			}
			if worst > tolerance {
				res.PixelsDifferent++
			}
		}
	}

	if res.TotalPixels > 0 {
		res.AverageColorDiff = math.Round(totalDiff/float64(res.TotalPixels)*100) / 100
		res.SimilarityScore = math.Round((1-float64(res.PixelsDifferent)/float64(res.TotalPixels))*1000) / 1000
	}
	return res
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
