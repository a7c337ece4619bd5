package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ironsheep/bbox-editor-mcp/internal/annotation"
	"github.com/ironsheep/bbox-editor-mcp/internal/bbox"
	"github.com/ironsheep/bbox-editor-mcp/internal/imaging"
	"github.com/ironsheep/bbox-editor-mcp/internal/ocr"
)

// errUnknownTool is returned by executeTool for names not in
// GetToolDefinitions.
var errUnknownTool = errors.New("unknown tool")

// OCR save modes for bbox_from_ocr.
const (
	modeNone    = "none"
	modeAppend  = "append"
	modeReplace = "replace"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "bbox_load", "bbox_crop").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
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
//  3. Reads image dimensions from the cache as needed
//  4. Calls the bbox engine, annotation store, imaging or ocr function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Format Engine
	case "bbox_formats":
		return s.handleFormats(args)
	case "bbox_detect_format":
		return s.handleDetectFormat(args)
	case "bbox_parse":
		return s.handleParse(args)
	case "bbox_serialize":
		return s.handleSerialize(args)
	case "bbox_convert":
		return s.handleConvert(args)
	case "bbox_decimal_places":
		return s.handleDecimalPlaces(args)

	// Annotation Files
	case "bbox_candidates":
		return s.handleCandidates(args)
	case "bbox_load":
		return s.handleLoad(ctx, args)
	case "bbox_save":
		return s.handleSave(ctx, args)
	case "bbox_set_format":
		return s.handleSetFormat(args)
	case "bbox_add":
		return s.handleAdd(ctx, args)
	case "bbox_update":
		return s.handleUpdate(ctx, args)
	case "bbox_rename":
		return s.handleRename(ctx, args)
	case "bbox_delete":
		return s.handleDelete(ctx, args)
	case "bbox_list_images":
		return s.handleListImages(ctx, args)

	// Pixel Helpers
	case "bbox_crop":
		return s.handleCrop(ctx, args)
	case "bbox_region_color":
		return s.handleRegionColor(ctx, args)
	case "bbox_fit":
		return s.handleFit(ctx, args)

	// OCR
	case "bbox_from_ocr":
		return s.handleFromOCR(ctx, args)
	case "bbox_ocr_label":
		return s.handleOCRLabel(ctx, args)

	// Basic Image Information
	case "image_dimensions":
		return s.handleImageDimensions(args)

	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments leave v untouched.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func validateBox(b bbox.Box) error {
	for _, v := range []float64{b.XMin, b.YMin, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("box coordinates must be finite: %+v", b)
		}
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("box width and height must be non-negative: %+v", b)
	}
	return nil
}

func validateBoxes(boxes []bbox.Box) error {
	for i, b := range boxes {
		if err := validateBox(b); err != nil {
			return fmt.Errorf("box %d: %w", i, err)
		}
	}
	return nil
}

// codecFor returns the codec named by id, or resolves one from content when
// id is empty.
func (s *Server) codecFor(id, content string) (bbox.Codec, error) {
	if id == "" {
		return s.registry.Resolve(nil, "", content, s.cfg.Format), nil
	}
	f, err := bbox.ParseFormat(id)
	if err != nil {
		return nil, err
	}
	codec, _ := s.registry.Provider(f)
	return codec, nil
}

// dimensions returns the pixel size of imagePath.
func (s *Server) dimensions(imagePath string) (int, int, error) {
	if imagePath == "" {
		return 0, 0, errors.New("image is required")
	}
	d, err := imaging.GetDimensions(s.cache, imagePath)
	if err != nil {
		return 0, 0, err
	}
	return d.Width, d.Height, nil
}

// boxAt loads the annotations of imagePath and returns the box at index.
func (s *Server) boxAt(ctx context.Context, imagePath string, index int) (bbox.Box, error) {
	w, h, err := s.dimensions(imagePath)
	if err != nil {
		return bbox.Box{}, err
	}
	doc, err := s.store.Load(ctx, imagePath, w, h)
	if err != nil {
		return bbox.Box{}, err
	}
	if index < 0 || index >= len(doc.Boxes) {
		return bbox.Box{}, fmt.Errorf("%w: %d (have %d boxes)", annotation.ErrIndexOutOfRange, index, len(doc.Boxes))
	}
	return doc.Boxes[index], nil
}

// === Format Engine Handlers ===

type formatsResult struct {
	Formats           []bbox.Format      `json:"formats"`
	Default           bbox.Format        `json:"default"`
	YOLOLabelPosition bbox.LabelPosition `json:"yolo_label_position"`
}

func (s *Server) handleFormats(args json.RawMessage) (interface{}, error) {
	return &formatsResult{
		Formats:           bbox.Formats(),
		Default:           s.cfg.Format,
		YOLOLabelPosition: s.cfg.YOLOLabelPosition,
	}, nil
}

type contentArgs struct {
	Content string `json:"content"`
}

type detectResult struct {
	Detected bool        `json:"detected"`
	Format   bbox.Format `json:"format,omitempty"`
}

func (s *Server) handleDetectFormat(args json.RawMessage) (interface{}, error) {
	var a contentArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	codec, ok := s.registry.Detect(a.Content)
	if !ok {
		return &detectResult{}, nil
	}
	return &detectResult{Detected: true, Format: codec.Format()}, nil
}

type parseArgs struct {
	Content string `json:"content"`
	Format  string `json:"format"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type parseResult struct {
	Format bbox.Format `json:"format"`
	Count  int         `json:"count"`
	Boxes  []bbox.Box  `json:"boxes"`
}

func (s *Server) handleParse(args json.RawMessage) (interface{}, error) {
	var a parseArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	codec, err := s.codecFor(a.Format, a.Content)
	if err != nil {
		return nil, err
	}
	boxes := codec.Parse(a.Content, a.Width, a.Height)
	return &parseResult{Format: codec.Format(), Count: len(boxes), Boxes: boxes}, nil
}

type serializeArgs struct {
	Boxes  []bbox.Box `json:"boxes"`
	Format string     `json:"format"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
}

type serializeResult struct {
	Format  bbox.Format `json:"format"`
	Content string      `json:"content"`
}

func (s *Server) handleSerialize(args json.RawMessage) (interface{}, error) {
	var a serializeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := validateBoxes(a.Boxes); err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = s.cfg.Format.String()
	}
	codec, err := s.codecFor(a.Format, "")
	if err != nil {
		return nil, err
	}
	return &serializeResult{Format: codec.Format(), Content: codec.Serialize(a.Boxes, a.Width, a.Height)}, nil
}

type convertArgs struct {
	Content string `json:"content"`
	From    string `json:"from"`
	To      string `json:"to"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type convertResult struct {
	From     bbox.Format `json:"from"`
	To       bbox.Format `json:"to"`
	BoxCount int         `json:"box_count"`
	Content  string      `json:"content"`
}

func (s *Server) handleConvert(args json.RawMessage) (interface{}, error) {
	var a convertArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.To == "" {
		return nil, errors.New("target format is required")
	}
	from, err := s.codecFor(a.From, a.Content)
	if err != nil {
		return nil, err
	}
	to, err := s.codecFor(a.To, "")
	if err != nil {
		return nil, err
	}
	boxes := from.Parse(a.Content, a.Width, a.Height)
	return &convertResult{
		From:     from.Format(),
		To:       to.Format(),
		BoxCount: len(boxes),
		Content:  to.Serialize(boxes, a.Width, a.Height),
	}, nil
}

type dimensionArgs struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleDecimalPlaces(args json.RawMessage) (interface{}, error) {
	var a dimensionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return map[string]int{"decimals": bbox.DecimalPlacesForImage(a.Width, a.Height)}, nil
}

// === Annotation File Handlers ===

type imageArgs struct {
	Image string `json:"image"`
}

type candidatesResult struct {
	Image      string   `json:"image"`
	Candidates []string `json:"candidates"`
	Existing   []string `json:"existing"`
	Primary    string   `json:"primary"`
}

func (s *Server) handleCandidates(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Image == "" {
		return nil, errors.New("image is required")
	}
	res := &candidatesResult{
		Image:      a.Image,
		Candidates: s.store.Candidates(a.Image),
		Existing:   []string{},
		Primary:    s.store.PrimaryPath(a.Image),
	}
	for _, p := range res.Candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			res.Existing = append(res.Existing, p)
		}
	}
	return res, nil
}

type loadResult struct {
	*annotation.Document
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Labels []string `json:"labels"`
}

func (s *Server) handleLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	w, h, err := s.dimensions(a.Image)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Load(ctx, a.Image, w, h)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(doc.Boxes))
	for i, b := range doc.Boxes {
		labels[i] = annotation.DisplayLabel(b, i)
	}
	return &loadResult{Document: doc, Width: w, Height: h, Labels: labels}, nil
}

type saveArgs struct {
	Image string     `json:"image"`
	Boxes []bbox.Box `json:"boxes"`
}

func (s *Server) handleSave(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a saveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := validateBoxes(a.Boxes); err != nil {
		return nil, err
	}
	w, h, err := s.dimensions(a.Image)
	if err != nil {
		return nil, err
	}
	if a.Boxes == nil {
		a.Boxes = []bbox.Box{}
	}
	return s.store.Save(ctx, a.Image, a.Boxes, w, h)
}

type setFormatArgs struct {
	Image  string `json:"image"`
	Format string `json:"format"`
}

func (s *Server) handleSetFormat(args json.RawMessage) (interface{}, error) {
	var a setFormatArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Image == "" {
		return nil, errors.New("image is required")
	}
	f, err := bbox.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetFormat(a.Image, f); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"image":   a.Image,
		"primary": s.store.PrimaryPath(a.Image),
		"format":  f,
	}, nil
}

type editResult struct {
	*annotation.SaveResult
	Boxes []bbox.Box `json:"boxes"`
}

func editResponse(res *annotation.SaveResult, boxes []bbox.Box, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return &editResult{SaveResult: res, Boxes: boxes}, nil
}

type boxEditArgs struct {
	Image string   `json:"image"`
	Index int      `json:"index"`
	Box   bbox.Box `json:"box"`
	Label string   `json:"label"`
}

func (s *Server) decodeEdit(args json.RawMessage, needBox bool) (*boxEditArgs, int, int, error) {
	var a boxEditArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, 0, 0, err
	}
	if needBox {
		if err := validateBox(a.Box); err != nil {
			return nil, 0, 0, err
		}
	}
	w, h, err := s.dimensions(a.Image)
	if err != nil {
		return nil, 0, 0, err
	}
	return &a, w, h, nil
}

func (s *Server) handleAdd(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, w, h, err := s.decodeEdit(args, true)
	if err != nil {
		return nil, err
	}
	return editResponse(s.store.Add(ctx, a.Image, a.Box, w, h))
}

func (s *Server) handleUpdate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, w, h, err := s.decodeEdit(args, true)
	if err != nil {
		return nil, err
	}
	return editResponse(s.store.Update(ctx, a.Image, a.Index, a.Box, w, h))
}

func (s *Server) handleRename(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, w, h, err := s.decodeEdit(args, false)
	if err != nil {
		return nil, err
	}
	return editResponse(s.store.Rename(ctx, a.Image, a.Index, a.Label, w, h))
}

func (s *Server) handleDelete(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, w, h, err := s.decodeEdit(args, false)
	if err != nil {
		return nil, err
	}
	return editResponse(s.store.Delete(ctx, a.Image, a.Index, w, h))
}

type listImagesResult struct {
	Directory string                  `json:"directory"`
	Count     int                     `json:"count"`
	Images    []annotation.ImageEntry `json:"images"`
}

func (s *Server) handleListImages(ctx context.Context, args json.RawMessage) (interface{}, error) {
	entries, err := s.store.ListImages(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []annotation.ImageEntry{}
	}
	return &listImagesResult{Directory: s.cfg.ImageDir(), Count: len(entries), Images: entries}, nil
}

// === Pixel Helper Handlers ===

type boxIndexArgs struct {
	Image string `json:"image"`
	Index int    `json:"index"`
}

type cropArgs struct {
	boxIndexArgs
	Padding int     `json:"padding"`
	Scale   float64 `json:"scale"`
}

type cropResult struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	*imaging.CropResult
}

func (s *Server) handleCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Padding < 0 {
		return nil, errors.New("padding must be non-negative")
	}
	box, err := s.boxAt(ctx, a.Image, a.Index)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Image)
	if err != nil {
		return nil, err
	}
	res, err := imaging.CropBox(img, box, a.Padding, a.Scale)
	if err != nil {
		return nil, err
	}
	return &cropResult{Index: a.Index, Label: annotation.DisplayLabel(box, a.Index), CropResult: res}, nil
}

type regionColorResult struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	*imaging.RegionColorResult
}

func (s *Server) handleRegionColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a boxIndexArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	box, err := s.boxAt(ctx, a.Image, a.Index)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Image)
	if err != nil {
		return nil, err
	}
	res, err := imaging.RegionColor(img, box)
	if err != nil {
		return nil, err
	}
	return &regionColorResult{Index: a.Index, Label: annotation.DisplayLabel(box, a.Index), RegionColorResult: res}, nil
}

type fitArgs struct {
	boxIndexArgs
	Threshold int   `json:"threshold"`
	Save      *bool `json:"save"`
}

type fitResult struct {
	Index int `json:"index"`
	*imaging.FitResult
	Saved bool   `json:"saved"`
	Path  string `json:"path,omitempty"`
}

func (s *Server) handleFit(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a fitArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	threshold := imaging.DefaultFitThreshold
	if a.Threshold != 0 {
		if a.Threshold < 1 || a.Threshold > 255 {
			return nil, fmt.Errorf("threshold must be between 1 and 255, got %d", a.Threshold)
		}
		threshold = uint8(a.Threshold)
	}

	box, err := s.boxAt(ctx, a.Image, a.Index)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Image)
	if err != nil {
		return nil, err
	}
	fitted, err := imaging.FitToContent(img, box, threshold)
	if err != nil {
		return nil, err
	}

	res := &fitResult{Index: a.Index, FitResult: fitted}
	if fitted.Changed && (a.Save == nil || *a.Save) {
		bounds := img.Bounds()
		saved, _, err := s.store.Update(ctx, a.Image, a.Index, fitted.Box, bounds.Dx(), bounds.Dy())
		if err != nil {
			return nil, err
		}
		res.Saved = true
		res.Path = saved.Path
	}
	return res, nil
}

// === OCR Handlers ===

type fromOCRArgs struct {
	Image         string  `json:"image"`
	Language      string  `json:"language"`
	Level         string  `json:"level"`
	MinConfidence float64 `json:"min_confidence"`
	Mode          string  `json:"mode"`
}

type fromOCRResult struct {
	*ocr.Result
	Mode  string                 `json:"mode"`
	Saved *annotation.SaveResult `json:"saved,omitempty"`
}

func (s *Server) handleFromOCR(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a fromOCRArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.cfg.OCRLanguage
	}
	if a.Mode == "" {
		a.Mode = modeNone
	}
	if a.Mode != modeNone && a.Mode != modeAppend && a.Mode != modeReplace {
		return nil, fmt.Errorf("unknown mode %q (want none, append or replace)", a.Mode)
	}
	level, err := ocr.ParseLevel(a.Level)
	if err != nil {
		return nil, err
	}
	w, h, err := s.dimensions(a.Image)
	if err != nil {
		return nil, err
	}

	result, err := ocr.ExtractBoxes(a.Image, a.Language, level)
	if err != nil {
		return nil, err
	}
	result.FilterConfidence(a.MinConfidence)

	res := &fromOCRResult{Result: result, Mode: a.Mode}
	boxes := result.Boxes()
	switch a.Mode {
	case modeAppend:
		doc, err := s.store.Load(ctx, a.Image, w, h)
		if err != nil {
			return nil, err
		}
		boxes = append(doc.Boxes, boxes...)
		fallthrough
	case modeReplace:
		saved, err := s.store.Save(ctx, a.Image, boxes, w, h)
		if err != nil {
			return nil, err
		}
		res.Saved = saved
	}
	return res, nil
}

type ocrLabelArgs struct {
	boxIndexArgs
	Language string `json:"language"`
}

type ocrLabelResult struct {
	Index      int     `json:"index"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Path       string  `json:"path"`
}

func (s *Server) handleOCRLabel(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a ocrLabelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.cfg.OCRLanguage
	}

	box, err := s.boxAt(ctx, a.Image, a.Index)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Image)
	if err != nil {
		return nil, err
	}
	result, err := ocr.ExtractBoxesFromRegion(img, imaging.BoxRect(box, 0, img.Bounds()), a.Language, ocr.LevelWord)
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, len(result.Regions))
	var confidence float64
	for _, r := range result.Regions {
		words = append(words, r.Text)
		confidence += r.Confidence
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("no text recognized in box %d", a.Index)
	}
	label := strings.Join(words, " ")

	bounds := img.Bounds()
	saved, _, err := s.store.Rename(ctx, a.Image, a.Index, label, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	return &ocrLabelResult{
		Index:      a.Index,
		Label:      label,
		Confidence: confidence / float64(len(words)),
		Path:       saved.Path,
	}, nil
}

// === Basic Image Information Handlers ===

type imagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}
