package manifest

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
)

var (
	// ErrManifest marks an unreadable, malformed or invalid manifest.
	ErrManifest = errors.New("bad manifest")

	// ErrNotFound marks a lookup of a sprite the manifest does not describe.
	ErrNotFound = errors.New("sprite not found")
)

// Sprite describes how one sprite is assembled from atlas cells.
type Sprite struct {
	// Name is unique within the manifest.
	Name string `json:"name"`

	// AtlasName identifies the source raster (without directory or extension).
	AtlasName string `json:"atlasName"`

	// Width and Height are the true, unpadded pixel dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// TransparentIndex is the cell index value meaning "leave transparent".
	TransparentIndex int `json:"transparentIndex"`

	// CellIndexList holds one entry per grid position, bottom row first,
	// left to right.
	CellIndexList []int `json:"cellIndexList"`
}

// Manifest is the parsed atlas description. It is not modified after Load.
type Manifest struct {
	CellSize int
	Padding  int
	Sprites  []Sprite

	// Path is the file the manifest was loaded from, empty for Parse.
	Path string
}

// rawManifest mirrors the file layout. Pointer fields distinguish a missing
// key from an explicit zero.
type rawManifest struct {
	CellSize        *int      `json:"cellSize"`
	Padding         *int      `json:"padding"`
	TextureDataList *[]Sprite `json:"textureDataList"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrManifest, "reading %q: %v", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "manifest %q", path)
	}
	m.Path = path
	return m, nil
}

// Parse decodes and validates manifest data.
func Parse(data []byte) (*Manifest, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, errors.Wrapf(ErrManifest, "not valid structured data: %v", err)
	}

	var raw rawManifest
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, errors.Wrapf(ErrManifest, "decoding: %v", err)
	}

	var missing []string
	if raw.CellSize == nil {
		missing = append(missing, "cellSize")
	}
	if raw.Padding == nil {
		missing = append(missing, "padding")
	}
	if raw.TextureDataList == nil {
		missing = append(missing, "textureDataList")
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrManifest, "missing required keys: %s", strings.Join(missing, ", "))
	}

	m := &Manifest{
		CellSize: *raw.CellSize,
		Padding:  *raw.Padding,
		Sprites:  *raw.TextureDataList,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the grid geometry and every sprite descriptor.
//
// It does not check cell index list lengths; composition reports those
// against the actual grid walk.
func (m *Manifest) Validate() error {
	if m.CellSize <= 0 {
		return errors.Wrapf(ErrManifest, "cellSize must be positive, got %d", m.CellSize)
	}
	if m.Padding < 0 {
		return errors.Wrapf(ErrManifest, "padding must not be negative, got %d", m.Padding)
	}
	if 2*m.Padding >= m.CellSize {
		return errors.Wrapf(ErrManifest, "padding %d leaves no inner area in %d px cells", m.Padding, m.CellSize)
	}

	seen := make(map[string]int, len(m.Sprites))
	for i, s := range m.Sprites {
		if s.Name == "" {
			return errors.Wrapf(ErrManifest, "sprite #%d has no name", i)
		}
		if j, dup := seen[s.Name]; dup {
			return errors.Wrapf(ErrManifest, "sprite name %q used by #%d and #%d", s.Name, j, i)
		}
		seen[s.Name] = i
		if s.AtlasName == "" {
			return errors.Wrapf(ErrManifest, "sprite %q has no atlasName", s.Name)
		}
		if strings.ContainsAny(s.AtlasName, `/\`) {
			return errors.Wrapf(ErrManifest, "sprite %q: atlasName %q contains a path separator", s.Name, s.AtlasName)
		}
		if s.Width <= 0 || s.Height <= 0 {
			return errors.Wrapf(ErrManifest, "sprite %q has invalid size %dx%d", s.Name, s.Width, s.Height)
		}
	}
	return nil
}

// InnerSize is the cell edge left after stripping padding on both sides.
// It is also the placement stride between neighbouring cells.
func (m *Manifest) InnerSize() int {
	return m.CellSize - 2*m.Padding
}

// Len reports the number of sprites.
func (m *Manifest) Len() int {
	return len(m.Sprites)
}

// Names returns sprite names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Sprites))
	for i, s := range m.Sprites {
		names[i] = s.Name
	}
	return names
}

// SpriteByName finds a sprite by its name.
func (m *Manifest) SpriteByName(name string) (Sprite, error) {
	for _, s := range m.Sprites {
		if s.Name == name {
			return s, nil
		}
	}
	return Sprite{}, errors.Wrapf(ErrNotFound, "%q", name)
}

// SpriteByIndex returns the sprite at position i in manifest order.
func (m *Manifest) SpriteByIndex(i int) (Sprite, error) {
	if i < 0 || i >= len(m.Sprites) {
		return Sprite{}, errors.Wrapf(ErrNotFound, "index %d out of range [0,%d)", i, len(m.Sprites))
	}
	return m.Sprites[i], nil
}

// Positions returns the number of grid positions a width×height sprite
// occupies when cells are placed every innerSize pixels.
func Positions(width, height, innerSize int) int {
	if width <= 0 || height <= 0 || innerSize <= 0 {
		return 0
	}
	return ceilDiv(width, innerSize) * ceilDiv(height, innerSize)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
