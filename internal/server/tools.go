package server

import "github.com/ironsheep/bbox-editor-mcp/internal/bbox"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
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

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func integerProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}

func formatProp(description string) map[string]interface{} {
	formats := bbox.Formats()
	ids := make([]string, len(formats))
	for i, f := range formats {
		ids[i] = f.String()
	}
	return map[string]interface{}{"type": "string", "enum": ids, "description": description}
}

func imageProp() map[string]interface{} {
	return stringProp("Path to the image file the annotations belong to")
}

func indexProp() map[string]interface{} {
	return integerProp("0-based index of the box in the image's annotation list")
}

func boxSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"x_min":  numberProp("Left edge in pixels"),
		"y_min":  numberProp("Top edge in pixels"),
		"width":  numberProp("Width in pixels (>= 0)"),
		"height": numberProp("Height in pixels (>= 0)"),
		"label":  stringProp("Optional label; may contain spaces"),
	}, "x_min", "y_min", "width", "height")
}

func boxesProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       boxSchema(),
		"description": "Ordered list of boxes",
	}
}

func dimensionProps(properties map[string]interface{}) map[string]interface{} {
	properties["width"] = integerProp("Image width in pixels. Required for YOLO; sets output precision")
	properties["height"] = integerProp("Image height in pixels. Required for YOLO; sets output precision")
	return properties
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Format Engine
		{
			Name:        "bbox_formats",
			Description: "List the supported annotation formats in detection priority order, and the configured default.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "bbox_detect_format",
			Description: "Detect which annotation format a text is written in. Formats are tried in priority order; the first whose majority of lines match wins.",
			InputSchema: objectSchema(map[string]interface{}{
				"content": stringProp("Annotation file text"),
			}, "content"),
		},
		{
			Name:        "bbox_parse",
			Description: "Parse annotation text into canonical boxes (x_min, y_min, width, height in pixels). The format is detected when not given.",
			InputSchema: objectSchema(dimensionProps(map[string]interface{}{
				"content": stringProp("Annotation file text"),
				"format":  formatProp("Optional format; detected when omitted"),
			}), "content"),
		},
		{
			Name:        "bbox_serialize",
			Description: "Serialize canonical boxes into annotation text. Precision scales with the larger image dimension.",
			InputSchema: objectSchema(dimensionProps(map[string]interface{}{
				"boxes":  boxesProp(),
				"format": formatProp("Output format; the configured default when omitted"),
			}), "boxes"),
		},
		{
			Name:        "bbox_convert",
			Description: "Convert annotation text from one format to another.",
			InputSchema: objectSchema(dimensionProps(map[string]interface{}{
				"content": stringProp("Annotation file text"),
				"from":    formatProp("Source format; detected when omitted"),
				"to":      formatProp("Target format"),
			}), "content", "to"),
		},
		{
			Name:        "bbox_decimal_places",
			Description: "Return the number of decimal places used when writing coordinates for an image of the given size.",
			InputSchema: objectSchema(dimensionProps(map[string]interface{}{}), "width", "height"),
		},

		// Annotation Files
		{
			Name:        "bbox_candidates",
			Description: "List the candidate annotation files for an image, which of them exist, and the primary file writes go to.",
			InputSchema: objectSchema(map[string]interface{}{
				"image": imageProp(),
			}, "image"),
		},
		{
			Name:        "bbox_load",
			Description: "Load the annotation boxes of an image, merging every existing candidate file with one shared format.",
			InputSchema: objectSchema(map[string]interface{}{
				"image": imageProp(),
			}, "image"),
		},
		{
			Name:        "bbox_save",
			Description: "Replace the full annotation list of an image and write it to the primary file in the image's session format. Other candidate files are merged into it and removed.",
			InputSchema: objectSchema(map[string]interface{}{
				"image": imageProp(),
				"boxes": boxesProp(),
			}, "image", "boxes"),
		},
		{
			Name:        "bbox_set_format",
			Description: "Pin the format used for an image's annotation file for the rest of the session, overriding detection.",
			InputSchema: objectSchema(map[string]interface{}{
				"image":  imageProp(),
				"format": formatProp("Format to use"),
			}, "image", "format"),
		},
		{
			Name:        "bbox_add",
			Description: "Append a box to an image's annotations and save.",
			InputSchema: objectSchema(map[string]interface{}{
				"image": imageProp(),
				"box":   boxSchema(),
			}, "image", "box"),
		},
		{
			Name:        "bbox_update",
			Description: "Replace the box at an index and save.",
			InputSchema: objectSchema(map[string]interface{}{
				"image": imageProp(),
				"index": indexProp(),
				"box":   boxSchema(),
			}, "image", "index", "box"),
		},
		{
			Name:        "bbox_rename",
			Description: "Set the label of the box at an index and save. An empty label removes it.",
			InputSchema: objectSchema(map[string]interface{}{
				"image": imageProp(),
				"index": indexProp(),
				"label": stringProp("New label"),
			}, "image", "index", "label"),
		},
		{
			Name:        "bbox_delete",
			Description: "Delete the box at an index and save. The remaining boxes keep their order.",
			InputSchema: objectSchema(map[string]interface{}{
				"image": imageProp(),
				"index": indexProp(),
			}, "image", "index"),
		},
		{
			Name:        "bbox_list_images",
			Description: "List the images in the configured image directory with their primary annotation file and box count.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},

		// Pixel Helpers
		{
			Name:        "bbox_crop",
			Description: "Crop the pixels under a stored box and return them as base64-encoded PNG.",
			InputSchema: objectSchema(map[string]interface{}{
				"image":   imageProp(),
				"index":   indexProp(),
				"padding": integerProp("Extra pixels on every side. Default 0"),
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
					"default":     1.0,
				},
			}, "image", "index"),
		},
		{
			Name:        "bbox_region_color",
			Description: "Get the mean color of the pixels under a stored box.",
			InputSchema: objectSchema(map[string]interface{}{
				"image": imageProp(),
				"index": indexProp(),
			}, "image", "index"),
		},
		{
			Name:        "bbox_fit",
			Description: "Shrink a stored box to the tight bounds of the dark content inside it.",
			InputSchema: objectSchema(map[string]interface{}{
				"image":     imageProp(),
				"index":     indexProp(),
				"threshold": integerProp("Luminance threshold 1-255; darker pixels are content. Default 128"),
				"save": map[string]interface{}{
					"type":        "boolean",
					"description": "Write the fitted box back. Default true",
					"default":     true,
				},
			}, "image", "index"),
		},

		// OCR
		{
			Name:        "bbox_from_ocr",
			Description: "Run Tesseract OCR on an image and create one labeled box per recognized symbol, word or line.",
			InputSchema: objectSchema(map[string]interface{}{
				"image":          imageProp(),
				"language":       stringProp("Tesseract language code. Default from configuration"),
				"level":          map[string]interface{}{"type": "string", "enum": []string{"symbol", "word", "line"}, "description": "Box granularity. Default word"},
				"min_confidence": numberProp("Drop results below this confidence (0.0-1.0). Default 0"),
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        []string{modeNone, modeAppend, modeReplace},
					"description": "none returns boxes only; append adds them; replace overwrites the annotations. Default none",
				},
			}, "image"),
		},
		{
			Name:        "bbox_ocr_label",
			Description: "Read the text under a stored box with OCR and use it as the box label.",
			InputSchema: objectSchema(map[string]interface{}{
				"image":    imageProp(),
				"index":    indexProp(),
				"language": stringProp("Tesseract language code. Default from configuration"),
			}, "image", "index"),
		},

		// Basic Image Information
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": stringProp("Path to the image file"),
			}, "path"),
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
