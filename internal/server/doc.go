// Package server implements the MCP (Model Context Protocol) server for sprite
// atlas reconstruction.
//
// This package provides a JSON-RPC 2.0 server that exposes the atlas session
// API through the MCP protocol, so MCP clients can list, inspect, rebuild and
// export the sprites of a packed texture atlas.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Manifest Information:
//   - atlas_list_sprites: Sprite names and cell geometry
//   - atlas_sprite_info: Descriptor, raster path, sizes and opaque bounds
//   - atlas_sprite_stats: none/default/full sizes without reading rasters
//
// Reconstruction:
//   - atlas_compose_sprite: Rebuild a sprite as base64 and data URL
//   - atlas_sample_pixel: Exact colors of reconstructed pixels
//   - atlas_compare_sprite: Pixel diff against a reference image
//
// Export:
//   - atlas_export_all: Write every sprite into a directory
//   - atlas_release: Drop cached rasters
//
// # Sessions
//
// Every tool takes the manifest path, and optionally source_dir and
// extension. The server keeps one atlas.Session per distinct combination,
// so decoded atlases and their grids are shared across calls until
// atlas_release or process exit.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
