// Package server implements the MCP (Model Context Protocol) server for leaf
// measurements.
//
// This package provides a JSON-RPC 2.0 server that exposes the measurement
// pipeline through the MCP protocol, so an assistant can measure a leaf
// photo, check the sheet detection visually and store the resulting record.
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
// Photo Information:
//   - image_load: Load a photo and get metadata
//
// Measurements:
//   - leaf_measure: All leaf features plus the sheet and leaf boxes
//   - leaf_paper_roi: Sheet region, per-side fallback and pixel sizes
//   - leaf_record: Full record, optionally saved to the record store
//   - leaf_invalidate: Drop a cached measurement and its dependents
//   - leaf_measure_distance: Distance between points in pixels and mm
//
// Visual Checks:
//   - leaf_overlay: Sheet, leaf box and width lines drawn on the photo
//   - leaf_crop: Photo cropped to the sheet or the leaf
//
// # Caching
//
// Photos are cached by path in an imaging.ImageCache, and each photo gets a
// features.Store that lives as long as the server. Every measurement is
// therefore computed at most once per photo unless leaf_invalidate drops it.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Detection failures such as a missing sheet are tool errors; they never
// stop the server.
//
// # Usage
//
//	p, _ := measure.New(measure.DefaultConfig())
//	srv := server.New(p, server.WithLogger(log))
//	if err := srv.Run(); err != nil {
//	    log.Fatal().Err(err).Msg("server stopped")
//	}
package server
