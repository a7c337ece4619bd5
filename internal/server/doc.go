// Package server implements the MCP (Model Context Protocol) server for the
// bounding-box annotation tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the annotation
// format engine and the annotation store through the MCP protocol, so an MCP
// client can read, convert and edit the box annotations of images.
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
// The same tools are also reachable over HTTP (see Handler).
//
// # Available Tools
//
// Format Engine:
//   - bbox_formats, bbox_detect_format: Supported formats and detection
//   - bbox_parse, bbox_serialize, bbox_convert: Text to boxes and back
//   - bbox_decimal_places: Output precision for an image size
//
// Annotation Files:
//   - bbox_candidates, bbox_list_images: Which files belong to which image
//   - bbox_load, bbox_save, bbox_set_format: Whole-list reads and writes
//   - bbox_add, bbox_update, bbox_rename, bbox_delete: Index edits
//
// Pixel Helpers:
//   - bbox_crop: Preview the pixels under a box
//   - bbox_region_color: Mean color under a box
//   - bbox_fit: Snap a box to its content
//
// OCR:
//   - bbox_from_ocr: Boxes from recognized text
//   - bbox_ocr_label: Label a box with the text inside it
//
// Basic Image Information:
//   - image_dimensions: Get width and height
//
// # Sessions
//
// The format chosen for each annotation file is remembered for the lifetime
// of the server process, so a file detected as YOLO is written back as YOLO
// even after an edit makes its content ambiguous. Decoded images and their
// dimensions are cached the same way.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(cfg)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
