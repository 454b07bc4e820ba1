package imaging

import (
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp" // Register WebP format decoder
	"golang.org/x/sync/singleflight"
)

// DecodeFunc reads and decodes the raster stored at path.
//
// Errors should wrap ErrRasterRead or ErrRasterDecode.
type DecodeFunc func(path string) (image.Image, error)

// DecodeFile is the default DecodeFunc. It supports PNG, JPEG, GIF, BMP,
// TIFF and WebP.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrRasterRead, "%v", err)
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(ErrRasterDecode, "%s: %v", path, err)
	}
	return img, nil
}

// rasterSlot is one cache entry: the decoded raster and every grid sliced
// from it. Grids share the slot's lifetime.
type rasterSlot struct {
	img image.Image

	mu    sync.Mutex
	grids map[int]*Grid // by cell size
}

// CacheCounters reports how much work a RasterCache has done.
type CacheCounters struct {
	Decodes int64 `json:"decodes"`
	Slices  int64 `json:"slices"`
}

// RasterCache loads each atlas raster once and keeps it, together with its
// grids, until ReleaseAll.
//
// Rasters are keyed by the exact path string. RasterCache is safe for
// concurrent use; concurrent first requests for the same path decode it once.
// Callers must treat returned rasters and grids as read-only.
type RasterCache struct {
	decode DecodeFunc

	mu    sync.RWMutex
	slots map[string]*rasterSlot
	gen   uint64 // bumped by ReleaseAll
	group singleflight.Group

	decodes atomic.Int64
	slices  atomic.Int64
}

// NewRasterCache creates an empty cache that decodes with DecodeFile.
func NewRasterCache() *RasterCache {
	return NewRasterCacheWithDecoder(DecodeFile)
}

// NewRasterCacheWithDecoder creates an empty cache using decode to load
// rasters.
func NewRasterCacheWithDecoder(decode DecodeFunc) *RasterCache {
	return &RasterCache{
		decode: decode,
		slots:  make(map[string]*rasterSlot),
	}
}

// Get returns the raster stored at path, decoding it on first use.
//
// A failed decode is not cached; the next Get retries.
func (c *RasterCache) Get(path string) (image.Image, error) {
	slot, err := c.slot(path)
	if err != nil {
		return nil, err
	}
	return slot.img, nil
}

func (c *RasterCache) lookup(path string) (*rasterSlot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	slot, ok := c.slots[path]
	return slot, ok
}

func (c *RasterCache) slot(path string) (*rasterSlot, error) {
	if slot, ok := c.lookup(path); ok {
		return slot, nil
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		// A previous flight may have filled the slot after our lookup.
		if slot, ok := c.lookup(path); ok {
			return slot, nil
		}
		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		img, err := c.decode(path)
		c.decodes.Add(1)
		if err != nil {
			return nil, err
		}
		b := img.Bounds()
		glog.V(1).Infof("decoded atlas %s (%dx%d)", path, b.Dx(), b.Dy())

		slot := &rasterSlot{img: img, grids: make(map[int]*Grid)}
		c.mu.Lock()
		// A ReleaseAll during the decode owns the cache now; the caller
		// still gets the raster but it is not kept.
		if c.gen == gen {
			c.slots[path] = slot
		}
		c.mu.Unlock()
		return slot, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*rasterSlot), nil
}

// grid returns the grid of cellSize cells for the raster at path, slicing it
// on first use.
func (c *RasterCache) grid(path string, cellSize int) (*Grid, error) {
	slot, err := c.slot(path)
	if err != nil {
		return nil, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	if g, ok := slot.grids[cellSize]; ok {
		return g, nil
	}
	g := SliceGrid(slot.img, cellSize)
	c.slices.Add(1)
	glog.V(1).Infof("sliced atlas %s into %d cells of %dpx", path, g.Len(), cellSize)
	slot.grids[cellSize] = g
	return g, nil
}

// Len reports the number of cached rasters.
func (c *RasterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.slots)
}

// Counters reports decode and slice totals since the cache was created.
func (c *RasterCache) Counters() CacheCounters {
	return CacheCounters{
		Decodes: c.decodes.Load(),
		Slices:  c.slices.Load(),
	}
}

// ReleaseAll drops every cached raster and its grids.
//
// Rasters and grids already handed out stay valid for their holders; the
// cache just stops referencing them. Decodes still in flight are not stored.
func (c *RasterCache) ReleaseAll() {
	c.mu.Lock()
	n := len(c.slots)
	c.slots = make(map[string]*rasterSlot)
	c.gen++
	c.mu.Unlock()
	glog.V(1).Infof("released %d atlas rasters", n)
}
