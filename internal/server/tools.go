package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// with merges extra properties into base and returns base.
func with(base map[string]interface{}, extra ...map[string]interface{}) map[string]interface{} {
	for _, e := range extra {
		for k, v := range e {
			base[k] = v
		}
	}
	return base
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"path": prop("string", "Absolute path to the image file"),
	}
}

func outputProperty() map[string]interface{} {
	return map[string]interface{}{
		"output_path": prop("string", "Optional file to write the result to (format from extension). When set, the result is not returned as base64."),
	}
}

func rectProperties() map[string]interface{} {
	return map[string]interface{}{
		"x1": prop("integer", "Left edge X coordinate (0-based)"),
		"y1": prop("integer", "Top edge Y coordinate (0-based)"),
		"x2": prop("integer", "Right edge X coordinate (exclusive)"),
		"y2": prop("integer", "Bottom edge Y coordinate (exclusive)"),
	}
}

func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"accuracy": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"high", "low"},
			"description": "Detector accuracy. 'low' works on a 512px thumbnail. Default from server config (high).",
		},
		"aspect_ratio":      prop("number", "Expected long/short side ratio used to rank candidates. Default 1.667 (5:3 card)."),
		"max_features":      prop("integer", "Maximum candidates to return; 0 for no limit. Default 5."),
		"min_area_fraction": prop("number", "Drop candidates smaller than this fraction of the image area. Default 0.01."),
	}
}

func point2DSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"x": prop("number", "X coordinate, origin at the top-left"),
		"y": prop("number", "Y coordinate, origin at the top-left"),
	}, "x", "y")
}

func quadrilateralSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"top_left":     point2DSchema(),
		"top_right":    point2DSchema(),
		"bottom_left":  point2DSchema(),
		"bottom_right": point2DSchema(),
	}, "top_left", "top_right", "bottom_left", "bottom_right")
}

func quadrilateralListSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       quadrilateralSchema(),
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file (EXIF orientation applied) and return its dimensions, format and orientation. The decoded image is cached for later calls.",
			InputSchema: objectSchema(pathProperty(), "path"),
		},

		// Pipeline stages
		{
			Name:        "image_scale",
			Description: "Make a working thumbnail for a view of the given size. The thumbnail's longest side is max(target_width, target_height)/2; images are never enlarged.",
			InputSchema: objectSchema(with(pathProperty(), outputProperty(), map[string]interface{}{
				"target_width":  prop("integer", "Width of the target view in pixels"),
				"target_height": prop("integer", "Height of the target view in pixels"),
			}), "path", "target_width", "target_height"),
		},
		{
			Name:        "image_grayscale",
			Description: "Apply the high-contrast 'photo noir' grayscale effect used before rectangle detection.",
			InputSchema: objectSchema(with(pathProperty(), outputProperty()), "path"),
		},
		{
			Name:        "image_blur",
			Description: "Gaussian-blur an image. Edge pixels are extended so the borders do not darken.",
			InputSchema: objectSchema(with(pathProperty(), outputProperty(), map[string]interface{}{
				"radius": map[string]interface{}{
					"type":        "number",
					"description": "Blur radius in pixels. Default 5",
					"default":     5.0,
				},
			}), "path"),
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image. The region is clipped to the image bounds.",
			InputSchema: objectSchema(with(pathProperty(), outputProperty(), rectProperties()),
				"path", "x1", "y1", "x2", "y2"),
		},

		// Quadrilateral detection and selection
		{
			Name:        "image_detect_quadrilaterals",
			Description: "Detect candidate quadrilaterals (cards, prints, receipts) in an image. Returns corners in image coordinates with a confidence score, best first.",
			InputSchema: objectSchema(with(pathProperty(), detectionProperties()), "path"),
		},
		{
			Name: "image_select_quadrilateral",
			Description: "Pick the best quadrilateral from a candidate list: the largest width+height among candidates whose height is less than half their width. " +
				"Width is |top_right - top_left| and height is |bottom_left - top_left|. If none qualifies, the first candidate is returned.",
			InputSchema: objectSchema(map[string]interface{}{
				"candidates": quadrilateralListSchema("Candidate quadrilaterals in detector order"),
			}, "candidates"),
		},
		{
			Name:        "image_detect_and_crop",
			Description: "Detect quadrilaterals, select the best one and crop to its bounding box. Detection can run on a processed copy (process_path) while the crop is taken from path.",
			InputSchema: objectSchema(with(pathProperty(), outputProperty(), detectionProperties(), map[string]interface{}{
				"process_path": prop("string", "Optional image to run detection on, in the same coordinate space as path. Defaults to path."),
			}), "path"),
		},
		{
			Name:        "image_perspective_correct",
			Description: "Warp a quadrilateral region onto an upright rectangle. The output size is the average of opposite edge lengths.",
			InputSchema: objectSchema(with(pathProperty(), outputProperty(), map[string]interface{}{
				"quad": quadrilateralSchema(),
				"apply_correction": map[string]interface{}{
					"type":        "boolean",
					"description": "When false the image is returned unchanged. Default true",
					"default":     true,
				},
			}), "path", "quad"),
		},
		{
			Name:        "image_overlay_quadrilaterals",
			Description: "Draw quadrilateral outlines on an image for inspection. One candidate is highlighted; by default the one image_select_quadrilateral would pick.",
			InputSchema: objectSchema(with(pathProperty(), outputProperty(), map[string]interface{}{
				"quadrilaterals":  quadrilateralListSchema("Quadrilaterals to outline"),
				"highlight":       prop("integer", "Index to highlight, -1 for none. Default: the selected candidate"),
				"outline_color":   prop("string", "Outline colour as hex. Default #FFD400"),
				"highlight_color": prop("string", "Highlight colour as hex. Default #FF0000"),
			}), "path", "quadrilaterals"),
		},

		// OCR
		{
			Name:        "image_ocr",
			Description: "Extract text from an image using Tesseract OCR, with word bounding boxes and confidence. Optionally restrict to a region.",
			InputSchema: objectSchema(with(pathProperty(), map[string]interface{}{
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Tesseract language code. Default eng",
					"default":     "eng",
				},
				"region": objectSchema(rectProperties(), "x1", "y1", "x2", "y2"),
			}), "path"),
		},

		// Full pipeline
		{
			Name: "image_preprocess",
			Description: "Run the full camera pipeline: scale to a thumbnail, photo noir, blur, detect quadrilaterals, select the best, crop the colour thumbnail to it, " +
				"optionally perspective-correct and OCR the result. Unset options use the server configuration.",
			InputSchema: objectSchema(with(pathProperty(), outputProperty(), detectionProperties(), map[string]interface{}{
				"target_width":     prop("integer", "Width of the target view. Default 2048"),
				"target_height":    prop("integer", "Height of the target view. Default 2048"),
				"blur_radius":      prop("number", "Blur radius before detection. Default 5"),
				"apply_correction": prop("boolean", "Perspective-correct the crop. Default false"),
				"recognize_text":   prop("boolean", "Run OCR on the output. Default false"),
				"language":         prop("string", "OCR language. Default eng"),
			}), "path"),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
