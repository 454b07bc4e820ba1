// Package manifest parses and validates atlas packer manifests.
//
// A manifest describes how square, padded grid cells of one or more atlas
// rasters are assembled into named sprites:
//
//	{
//	  "cellSize": 64,
//	  "padding": 3,
//	  "textureDataList": [
//	    {
//	      "name": "hero_stand",
//	      "atlasName": "hero_atlas_0",
//	      "width": 100,
//	      "height": 50,
//	      "transparentIndex": -1,
//	      "cellIndexList": [0, 1]
//	    }
//	  ]
//	}
//
// Manifests are read as JWCC (JSON with comments and trailing commas), so
// hand-edited files may carry annotations. The three top-level keys are
// mandatory; there are no fallback values for cell size or padding because
// cell arithmetic is meaningless without them.
//
// # Cell index order
//
// Each sprite's cellIndexList enumerates the positions of its padded canvas
// row-major, bottom row first, left to right within a row. Positions reports
// how many entries a sprite of a given size needs.
//
// # Errors
//
// Every load or validation failure wraps ErrManifest. Lookups of unknown
// sprites wrap ErrNotFound. Use errors.Is to classify.
package manifest
