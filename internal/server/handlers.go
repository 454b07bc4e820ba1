package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"

	"github.com/ironsheep/sprite-atlas-mcp/internal/atlas"
	"github.com/ironsheep/sprite-atlas-mcp/internal/imaging"
	"github.com/ironsheep/sprite-atlas-mcp/internal/manifest"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "atlas_list_sprites").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		glog.Errorf("tool %s: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Opens (or reuses) the manifest's session
//  4. Calls the atlas session or imaging function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Manifest Information
	case "atlas_list_sprites":
		return s.handleListSprites(args)
	case "atlas_sprite_info":
		return s.handleSpriteInfo(args)
	case "atlas_sprite_stats":
		return s.handleSpriteStats(args)

	// Reconstruction
	case "atlas_compose_sprite":
		return s.handleComposeSprite(args)
	case "atlas_sample_pixel":
		return s.handleSamplePixel(args)
	case "atlas_compare_sprite":
		return s.handleCompareSprite(args)

	// Export
	case "atlas_export_all":
		return s.handleExportAll(args)
	case "atlas_release":
		return s.handleRelease(args)

	default:
		return nil, errors.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// atlasArgs are the arguments every atlas tool accepts.
type atlasArgs struct {
	Manifest  string `json:"manifest"`
	SourceDir string `json:"source_dir"`
	Extension string `json:"extension"`
}

func (a atlasArgs) key() (sessionKey, error) {
	if a.Manifest == "" {
		return sessionKey{}, errors.New("manifest is required")
	}
	key := sessionKey{manifest: absPath(a.Manifest), extension: a.Extension}
	if a.SourceDir != "" {
		key.sourceDir = absPath(a.SourceDir)
	}
	return key, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func (s *Server) sessionFor(a atlasArgs) (*atlas.Session, error) {
	key, err := a.key()
	if err != nil {
		return nil, err
	}
	return s.session(key)
}

// === Manifest Information Handlers ===

type listSpritesResult struct {
	Manifest  string   `json:"manifest"`
	CellSize  int      `json:"cell_size"`
	Padding   int      `json:"padding"`
	InnerSize int      `json:"inner_size"`
	Count     int      `json:"count"`
	Sprites   []string `json:"sprites"`
}

func (s *Server) handleListSprites(args json.RawMessage) (interface{}, error) {
	var a atlasArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessionFor(a)
	if err != nil {
		return nil, err
	}
	m := sess.Manifest()
	return &listSpritesResult{
		Manifest:  m.Path,
		CellSize:  m.CellSize,
		Padding:   m.Padding,
		InnerSize: m.InnerSize(),
		Count:     m.Len(),
		Sprites:   sess.SpriteNames(),
	}, nil
}

type spriteArgs struct {
	atlasArgs
	Name string             `json:"name"`
	Crop imaging.CropPolicy `json:"crop"`
}

type rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

type spriteInfoResult struct {
	Name             string        `json:"name"`
	AtlasName        string        `json:"atlas_name"`
	RasterPath       string        `json:"raster_path"`
	Width            int           `json:"width"`
	Height           int           `json:"height"`
	TransparentIndex int           `json:"transparent_index"`
	Positions        int           `json:"positions"`
	CellIndexList    []int         `json:"cell_index_list"`
	Sizes            imaging.Stats `json:"sizes"`

	// OpaqueBounds is relative to the full-cropped sprite; nil when every
	// pixel is transparent.
	OpaqueBounds *rect `json:"opaque_bounds"`
}

func (s *Server) handleSpriteInfo(args json.RawMessage) (interface{}, error) {
	var a spriteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessionFor(a.atlasArgs)
	if err != nil {
		return nil, err
	}
	sprite, err := sess.Sprite(a.Name)
	if err != nil {
		return nil, err
	}
	m := sess.Manifest()
	stats, err := sess.StatsFor(a.Name)
	if err != nil {
		return nil, err
	}

	c, err := sess.Canvas(a.Name, imaging.CropFull)
	if err != nil {
		return nil, err
	}
	res := &spriteInfoResult{
		Name:             sprite.Name,
		AtlasName:        sprite.AtlasName,
		RasterPath:       sess.RasterPath(sprite),
		Width:            sprite.Width,
		Height:           sprite.Height,
		TransparentIndex: sprite.TransparentIndex,
		Positions:        manifest.Positions(sprite.Width, sprite.Height, m.InnerSize()),
		CellIndexList:    sprite.CellIndexList,
		Sizes:            stats,
	}
	if b := imaging.OpaqueBounds(c.Image); !b.Empty() {
		res.OpaqueBounds = &rect{X1: b.Min.X, Y1: b.Min.Y, X2: b.Max.X, Y2: b.Max.Y}
	}
	return res, nil
}

func (s *Server) handleSpriteStats(args json.RawMessage) (interface{}, error) {
	var a spriteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessionFor(a.atlasArgs)
	if err != nil {
		return nil, err
	}
	if a.Name != "" {
		return sess.StatsFor(a.Name)
	}
	return map[string]interface{}{"sprites": sess.Stats()}, nil
}

// === Reconstruction Handlers ===

type composeArgs struct {
	spriteArgs
	Format    string  `json:"format"`
	Transform string  `json:"transform"`
	Scale     float64 `json:"scale"`
}

type composeResult struct {
	Name        string             `json:"name"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	ImageWidth  int                `json:"image_width"`
	ImageHeight int                `json:"image_height"`
	Crop        imaging.CropPolicy `json:"crop"`
	Format      imaging.Format     `json:"format"`
	MimeType    string             `json:"mime_type"`
	Bytes       int                `json:"bytes"`
	ImageBase64 string             `json:"image_base64"`
	DataURL     string             `json:"data_url"`
}

func (s *Server) handleComposeSprite(args json.RawMessage) (interface{}, error) {
	var a composeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	f, err := imaging.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}
	steps, err := imaging.ParseTransform(a.Transform)
	if err != nil {
		return nil, err
	}
	var scale imaging.Transform
	if a.Scale != 1.0 {
		if a.Scale < 0.01 || a.Scale > 16 {
			return nil, errors.Wrapf(imaging.ErrTransform, "scale %g outside [0.01, 16]", a.Scale)
		}
		scale = imaging.Scale(a.Scale)
	}

	sess, err := s.sessionFor(a.atlasArgs)
	if err != nil {
		return nil, err
	}
	c, err := sess.Canvas(a.Name, a.Crop)
	if err != nil {
		return nil, err
	}
	if c, err = imaging.Chain(steps, scale).Apply(c); err != nil {
		return nil, err
	}

	var enc imaging.Encoder
	data, err := enc.EncodeBytes(c, f)
	if err != nil {
		return nil, err
	}
	u, err := dataurl.New(data, f.MIMEType()).MarshalText()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode data url")
	}

	b := c.Bounds()
	return &composeResult{
		Name:        a.Name,
		Width:       c.Width,
		Height:      c.Height,
		ImageWidth:  b.Dx(),
		ImageHeight: b.Dy(),
		Crop:        c.Crop,
		Format:      f,
		MimeType:    f.MIMEType(),
		Bytes:       len(data),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		DataURL:     string(u),
	}, nil
}

type samplePixelArgs struct {
	spriteArgs
	X      *int            `json:"x"`
	Y      *int            `json:"y"`
	Points []imaging.Point `json:"points"`
}

func (s *Server) handleSamplePixel(args json.RawMessage) (interface{}, error) {
	var a samplePixelArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 && (a.X == nil || a.Y == nil) {
		return nil, errors.New("either x and y or points are required")
	}
	sess, err := s.sessionFor(a.atlasArgs)
	if err != nil {
		return nil, err
	}
	c, err := sess.Canvas(a.Name, a.Crop)
	if err != nil {
		return nil, err
	}
	if len(a.Points) > 0 {
		return imaging.SampleColors(c.Image, a.Points)
	}
	return imaging.SampleColor(c.Image, *a.X, *a.Y)
}

type compareArgs struct {
	spriteArgs
	Reference string `json:"reference"`
	Tolerance int    `json:"tolerance"`
}

type compareResult struct {
	*imaging.DiffResult
	Identical bool         `json:"identical"`
	Sprite    imaging.Size `json:"sprite_size"`
	Reference imaging.Size `json:"reference_size"`
}

func (s *Server) handleCompareSprite(args json.RawMessage) (interface{}, error) {
	var a compareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Reference == "" {
		return nil, errors.New("reference is required")
	}
	sess, err := s.sessionFor(a.atlasArgs)
	if err != nil {
		return nil, err
	}
	c, err := sess.Canvas(a.Name, a.Crop)
	if err != nil {
		return nil, err
	}
	ref, err := imaging.DecodeFile(a.Reference)
	if err != nil {
		return nil, err
	}
	d := imaging.Diff(c.Image, ref, a.Tolerance)
	return &compareResult{
		DiffResult: d,
		Identical:  d.Identical(),
		Sprite:     sizeOf(c.Image),
		Reference:  sizeOf(ref),
	}, nil
}

func sizeOf(img image.Image) imaging.Size {
	b := img.Bounds()
	return imaging.Size{W: b.Dx(), H: b.Dy()}
}

// === Export Handlers ===

type exportArgs struct {
	atlasArgs
	OutputDir string             `json:"output_dir"`
	Crop      imaging.CropPolicy `json:"crop"`
	Format    string             `json:"format"`
}

func (s *Server) handleExportAll(args json.RawMessage) (interface{}, error) {
	var a exportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessionFor(a.atlasArgs)
	if err != nil {
		return nil, err
	}
	sess, err = sess.WithCrop(a.Crop)
	if err != nil {
		return nil, err
	}
	report, err := sess.ExportAll(context.Background(), a.OutputDir, a.Format)
	if err != nil {
		if report != nil && len(report.Written) > 0 {
			return nil, errors.Wrapf(err, "export stopped after %d files", len(report.Written))
		}
		return nil, err
	}
	return report, nil
}

func (s *Server) handleRelease(args json.RawMessage) (interface{}, error) {
	var a struct {
		Manifest string `json:"manifest"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}
	path := ""
	if a.Manifest != "" {
		path = absPath(a.Manifest)
	}
	return map[string]int{"released": s.release(path)}, nil
}
