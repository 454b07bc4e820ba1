package atlas

import (
	"path/filepath"
	"runtime"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ironsheep/sprite-atlas-mcp/internal/imaging"
	"github.com/ironsheep/sprite-atlas-mcp/internal/manifest"
)

// DefaultExtension is appended to a sprite's atlas name to find its raster.
const DefaultExtension = ".png"

// Options configures a Session. The zero value is usable.
type Options struct {
	// SourceDir holds the atlas rasters. Open defaults it to the manifest's
	// directory, New to the working directory.
	SourceDir string

	// Extension is the raster file extension, including the dot. Empty means
	// DefaultExtension.
	Extension string

	// Crop is the policy used when a call passes an empty one. Empty means
	// imaging.CropDefault.
	Crop imaging.CropPolicy

	// Transform, if set, runs on every composed canvas before encoding.
	Transform imaging.Transform

	// Encoder writes the output blobs.
	Encoder imaging.Encoder

	// Workers bounds ExportAll's parallelism. Zero means runtime.NumCPU().
	Workers int

	// Decode replaces the raster decoder, mainly for tests.
	Decode imaging.DecodeFunc
}

// Session reconstructs the sprites of one manifest. It owns the decoded
// atlases and their grids until Close.
//
// A Session is safe for concurrent use.
type Session struct {
	manifest *manifest.Manifest
	opts     Options
	cache    *imaging.RasterCache
	slicer   *imaging.Slicer
}

// Result is one encoded sprite.
type Result struct {
	Name     string             `json:"name"`
	Data     []byte             `json:"-"`
	Width    int                `json:"width"`
	Height   int                `json:"height"`
	Crop     imaging.CropPolicy `json:"crop"`
	Format   imaging.Format     `json:"format"`
	MIMEType string             `json:"mime_type"`
}

// Open loads the manifest at path and starts a session over it.
func Open(path string, opts Options) (*Session, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.SourceDir == "" {
		opts.SourceDir = filepath.Dir(path)
	}
	return New(m, opts)
}

// New starts a session over an already loaded manifest.
func New(m *manifest.Manifest, opts Options) (*Session, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if opts.SourceDir == "" {
		opts.SourceDir = "."
	}
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.Crop == "" {
		opts.Crop = imaging.CropDefault
	} else if _, err := imaging.ParseCropPolicy(string(opts.Crop)); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	cache := imaging.NewRasterCache()
	if opts.Decode != nil {
		cache = imaging.NewRasterCacheWithDecoder(opts.Decode)
	}
	return &Session{
		manifest: m,
		opts:     opts,
		cache:    cache,
		slicer:   imaging.NewSlicer(cache, m.CellSize),
	}, nil
}

// Manifest returns the session's manifest. Callers must not modify it.
func (s *Session) Manifest() *manifest.Manifest {
	return s.manifest
}

// SpriteNames lists the sprites in manifest order.
func (s *Session) SpriteNames() []string {
	return s.manifest.Names()
}

// Sprite looks a sprite up by name.
func (s *Session) Sprite(name string) (manifest.Sprite, error) {
	return s.manifest.SpriteByName(name)
}

// RasterPath is the file the sprite's atlas is read from.
func (s *Session) RasterPath(sprite manifest.Sprite) string {
	return filepath.Join(s.opts.SourceDir, sprite.AtlasName+s.opts.Extension)
}

// Canvas composes the named sprite, crops it with policy (empty means the
// session default) and applies the session transform.
func (s *Session) Canvas(name string, policy imaging.CropPolicy) (*imaging.Canvas, error) {
	sprite, err := s.manifest.SpriteByName(name)
	if err != nil {
		return nil, err
	}
	policy, err = s.policy(policy)
	if err != nil {
		return nil, err
	}
	return s.canvas(sprite, policy)
}

func (s *Session) canvas(sprite manifest.Sprite, policy imaging.CropPolicy) (*imaging.Canvas, error) {
	grid, err := s.slicer.Grid(s.RasterPath(sprite))
	if err != nil {
		return nil, errors.WithMessagef(err, "sprite %q", sprite.Name)
	}
	c, err := imaging.Compose(sprite, grid, s.manifest.Padding, policy)
	if err != nil {
		return nil, err
	}
	c, err = s.opts.Transform.Apply(c)
	if err != nil {
		return nil, errors.WithMessagef(err, "sprite %q", sprite.Name)
	}
	return c, nil
}

// Compose reconstructs the named sprite and encodes it in format. Unknown
// names and formats fail before any atlas is read.
func (s *Session) Compose(name string, policy imaging.CropPolicy, format string) (*Result, error) {
	sprite, err := s.manifest.SpriteByName(name)
	if err != nil {
		return nil, err
	}
	f, err := imaging.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	policy, err = s.policy(policy)
	if err != nil {
		return nil, err
	}

	c, err := s.canvas(sprite, policy)
	if err != nil {
		return nil, err
	}
	data, err := s.opts.Encoder.EncodeBytes(c, f)
	if err != nil {
		return nil, errors.WithMessagef(err, "sprite %q", name)
	}
	glog.V(2).Infof("composed %s (%dx%d, crop %s) as %d bytes of %s", name, c.Width, c.Height, c.Crop, len(data), f)

	return &Result{
		Name:     name,
		Data:     data,
		Width:    c.Width,
		Height:   c.Height,
		Crop:     c.Crop,
		Format:   f,
		MIMEType: f.MIMEType(),
	}, nil
}

// SaveSprite reconstructs the named sprite into the file at path. An empty
// format is taken from the path's extension.
func (s *Session) SaveSprite(name, path, format string) error {
	sprite, err := s.manifest.SpriteByName(name)
	if err != nil {
		return err
	}
	if format == "" {
		format = filepath.Ext(path)
	}
	f, err := imaging.ParseFormat(format)
	if err != nil {
		return err
	}
	c, err := s.canvas(sprite, s.opts.Crop)
	if err != nil {
		return err
	}
	if err := s.opts.Encoder.Save(path, c, f); err != nil {
		return errors.WithMessagef(err, "sprite %q", name)
	}
	return nil
}

// Stats reports the canvas sizes of every sprite, in manifest order.
func (s *Session) Stats() []imaging.Stats {
	stats := make([]imaging.Stats, 0, s.manifest.Len())
	for _, sprite := range s.manifest.Sprites {
		stats = append(stats, imaging.StatsFor(sprite, s.manifest.CellSize, s.manifest.Padding))
	}
	return stats
}

// StatsFor reports the canvas sizes of the named sprite.
func (s *Session) StatsFor(name string) (imaging.Stats, error) {
	sprite, err := s.manifest.SpriteByName(name)
	if err != nil {
		return imaging.Stats{}, err
	}
	return imaging.StatsFor(sprite, s.manifest.CellSize, s.manifest.Padding), nil
}

// Encoder returns the encoder the session writes blobs with.
func (s *Session) Encoder() *imaging.Encoder {
	return &s.opts.Encoder
}

// Counters reports how often atlases were decoded and sliced.
func (s *Session) Counters() imaging.CacheCounters {
	return s.cache.Counters()
}

// WithCrop returns a session that shares s's caches but crops with p by
// default. Closing either releases the caches of both.
func (s *Session) WithCrop(p imaging.CropPolicy) (*Session, error) {
	p, err := s.policy(p)
	if err != nil {
		return nil, err
	}
	out := *s
	out.opts.Crop = p
	return &out, nil
}

// Close releases every cached atlas and grid. The session stays usable and
// reloads atlases on demand.
func (s *Session) Close() error {
	s.cache.ReleaseAll()
	return nil
}

// ResolveCrop returns the policy a call passing p would crop with.
func (s *Session) ResolveCrop(p imaging.CropPolicy) (imaging.CropPolicy, error) {
	return s.policy(p)
}

func (s *Session) policy(p imaging.CropPolicy) (imaging.CropPolicy, error) {
	if p == "" {
		return s.opts.Crop, nil
	}
	return imaging.ParseCropPolicy(string(p))
}
