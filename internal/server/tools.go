package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var cropProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"none", "default", "full"},
	"description": "Crop policy: none keeps the padding border, default strips it, full cuts to the sprite's true size. Default: default",
}

var formatProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"png", "jpg", "jpeg", "gif", "tif", "tiff", "bmp"},
	"description": "Output format. Default: png",
}

var nameProperty = map[string]interface{}{
	"type":        "string",
	"description": "Sprite name as listed in the manifest",
}

// atlasSchema builds an input schema from the properties every tool shares
// (manifest, source_dir, extension) plus extra. The manifest is always
// required, followed by required.
func atlasSchema(extra map[string]interface{}, required ...string) map[string]interface{} {
	props := map[string]interface{}{
		"manifest": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the atlas manifest (JSON, comments allowed)",
		},
		"source_dir": map[string]interface{}{
			"type":        "string",
			"description": "Directory holding the atlas rasters. Default: the manifest's directory",
		},
		"extension": map[string]interface{}{
			"type":        "string",
			"description": "Raster file extension including the dot. Default: .png",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   append([]string{"manifest"}, required...),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Manifest Information
		{
			Name:        "atlas_list_sprites",
			Description: "Load an atlas manifest and list its sprite names together with the cell geometry.",
			InputSchema: atlasSchema(nil),
		},
		{
			Name:        "atlas_sprite_info",
			Description: "Describe one sprite: its atlas raster, true size, cell index list, canvas sizes per crop policy and the bounding box of its opaque pixels.",
			InputSchema: atlasSchema(map[string]interface{}{
				"name": nameProperty,
			}, "name"),
		},
		{
			Name:        "atlas_sprite_stats",
			Description: "Report the none/default/full canvas sizes and rounding delta of one sprite, or of every sprite when no name is given. Does not read any raster.",
			InputSchema: atlasSchema(map[string]interface{}{
				"name": nameProperty,
			}),
		},

		// Reconstruction
		{
			Name:        "atlas_compose_sprite",
			Description: "Reconstruct a sprite from its atlas cells and return it as a base64 image and data URL.",
			InputSchema: atlasSchema(map[string]interface{}{
				"name":   nameProperty,
				"crop":   cropProperty,
				"format": formatProperty,
				"transform": map[string]interface{}{
					"type":        "string",
					"description": "Optional comma separated post-processing steps: grayscale, invert, sepia, blur:R, brightness:F, contrast:F, scale:F, flatten:#RRGGBB, grid:N[:#RRGGBBAA]",
				},
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "Optional scale factor applied last (e.g., 4.0 to enlarge pixel art). Default 1.0",
					"default":     1.0,
				},
			}, "name"),
		},
		{
			Name:        "atlas_sample_pixel",
			Description: "Get exact color values of pixels of a reconstructed sprite. Useful to verify transparency and seams.",
			InputSchema: atlasSchema(map[string]interface{}{
				"name": nameProperty,
				"crop": cropProperty,
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (0-based, from left)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (0-based, from top)",
				},
				"points": map[string]interface{}{
					"type":        "array",
					"description": "Sample several points instead of x/y",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x":     map[string]interface{}{"type": "integer"},
							"y":     map[string]interface{}{"type": "integer"},
							"label": map[string]interface{}{"type": "string"},
						},
						"required": []string{"x", "y"},
					},
				},
			}, "name"),
		},
		{
			Name:        "atlas_compare_sprite",
			Description: "Compare a reconstructed sprite with a reference image pixel by pixel.",
			InputSchema: atlasSchema(map[string]interface{}{
				"name": nameProperty,
				"crop": cropProperty,
				"reference": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the reference image",
				},
				"tolerance": map[string]interface{}{
					"type":        "integer",
					"description": "Largest per-channel difference still counted as equal (0-255). Default 0",
				},
			}, "name", "reference"),
		},

		// Export
		{
			Name:        "atlas_export_all",
			Description: "Reconstruct every sprite of the manifest into an existing, writable directory as <name>.<ext>. Stops at the first failing sprite.",
			InputSchema: atlasSchema(map[string]interface{}{
				"output_dir": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the output directory",
				},
				"crop":   cropProperty,
				"format": formatProperty,
			}, "output_dir"),
		},
		{
			Name:        "atlas_release",
			Description: "Drop the cached rasters of a manifest, or of all manifests when none is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"manifest": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the atlas manifest",
					},
				},
			},
		},
	}
}
