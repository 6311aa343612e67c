// Package server implements the MCP (Model Context Protocol) server for the
// photo preprocessing tools.
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
// Basic Image Information:
//   - image_load: Load image and get metadata
//
// Pipeline Stages:
//   - image_scale: Working thumbnail for a target view size
//   - image_grayscale: Photo noir grayscale
//   - image_blur: Gaussian blur
//   - image_crop: Extract rectangular region
//
// Quadrilaterals:
//   - image_detect_quadrilaterals: Candidate cards with confidence
//   - image_select_quadrilateral: Pick the best candidate
//   - image_detect_and_crop: Detect, select and crop in one call
//   - image_perspective_correct: Unskew a quadrilateral
//   - image_overlay_quadrilaterals: Draw candidates for inspection
//
// OCR and Pipeline:
//   - image_ocr: Extract text, optionally from a region
//   - image_preprocess: Scale, noir, blur, detect, select, crop, correct, OCR
//
// Tools that produce an image return it as base64 PNG, or write it to
// output_path when one is given.
//
// # Image Caching
//
// Images are cached by path and reused across tool calls. Writing to an
// output_path evicts that path so the new file is read on next use.
//
// # Error Handling
//
//   - -32700: the request line is not valid JSON
//   - -32601: unknown method
//   - -32602: bad arguments, a missing path or an unknown tool
//   - -32000: the tool ran and failed (unreadable file, empty crop)
//
// The data field carries the Go error string. A pipeline that finds no
// rectangle is not an error; the result reports "found": false.
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
package server
