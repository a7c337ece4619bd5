package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/bbox-editor-mcp/internal/bbox"
	"github.com/ironsheep/bbox-editor-mcp/internal/config"
)

// newTestServer creates a server whose image directory is a fresh temp dir.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ImageDirectory = dir
	return New(cfg), dir
}

// writeImage encodes img as PNG at dir/name and returns its path.
func writeImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// solidImage creates a width x height image filled with c.
func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// callTool runs a tool through executeTool and decodes its JSON result into
// out when out is non-nil.
func callTool(t *testing.T, s *Server, name string, args interface{}, out interface{}) error {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to marshal args: %v", err)
	}
	result, err := s.executeTool(context.Background(), name, raw)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal([]byte(mustMarshalJSON(result)), out); err != nil {
			t.Fatalf("failed to decode %s result: %v", name, err)
		}
	}
	return nil
}

func mustCall(t *testing.T, s *Server, name string, args interface{}, out interface{}) {
	t.Helper()
	if err := callTool(t, s, name, args, out); err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestHandleToolsCall_Response(t *testing.T) {
	s := New(nil)
	paramsJSON, _ := json.Marshal(map[string]interface{}{
		"name":      "bbox_decimal_places",
		"arguments": map[string]interface{}{"width": 100, "height": 50},
	})

	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: paramsJSON})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("content: got %+v", content)
	}
	var decoded map[string]int
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &decoded); err != nil {
		t.Fatalf("text is not JSON: %v", err)
	}
	if decoded["decimals"] != 3 {
		t.Errorf("decimals: got %d, want 3", decoded["decimals"])
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := New(nil)

	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`"bad"`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("invalid params: got %+v", resp.Error)
	}

	resp = s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 2, Method: "tools/call", Params: json.RawMessage(`{"name":"nonexistent_tool"}`)})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("unknown tool: got %+v", resp.Error)
	}
	if !strings.Contains(resp.Error.Data.(string), "unknown tool") {
		t.Errorf("unknown tool data: got %v", resp.Error.Data)
	}
}

func TestFormats(t *testing.T) {
	s := New(nil)
	var res struct {
		Formats []string `json:"formats"`
		Default string   `json:"default"`
	}
	mustCall(t, s, "bbox_formats", nil, &res)

	if len(res.Formats) != 4 || res.Formats[0] != "tesseract_box" || res.Formats[3] != "coco" {
		t.Errorf("formats: got %v", res.Formats)
	}
	if res.Default != "coco" {
		t.Errorf("default: got %s, want coco", res.Default)
	}
}

func TestDetectFormat(t *testing.T) {
	s := New(nil)
	tests := []struct {
		content  string
		detected bool
		format   string
	}{
		{"10 20 5 5 cat", true, "coco"},
		{"0 0.5 0.5 0.2 0.2", true, "yolo"},
		{"a 1 2 3 4 0", true, "tesseract_box"},
		{"hello world", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			var res struct {
				Detected bool   `json:"detected"`
				Format   string `json:"format"`
			}
			mustCall(t, s, "bbox_detect_format", map[string]string{"content": tt.content}, &res)
			if res.Detected != tt.detected || res.Format != tt.format {
				t.Errorf("got detected=%v format=%q, want %v %q", res.Detected, res.Format, tt.detected, tt.format)
			}
		})
	}
}

type boxesResult struct {
	Format string     `json:"format"`
	Count  int        `json:"count"`
	Boxes  []bbox.Box `json:"boxes"`
}

func TestParse(t *testing.T) {
	s := New(nil)

	var detected boxesResult
	mustCall(t, s, "bbox_parse", map[string]interface{}{"content": "a 1 2 3 4 0"}, &detected)
	if detected.Format != "tesseract_box" {
		t.Errorf("format: got %s, want tesseract_box", detected.Format)
	}
	want := bbox.Box{XMin: 1, YMin: 2, Width: 2, Height: 2, Label: "a"}
	if detected.Count != 1 || detected.Boxes[0] != want {
		t.Errorf("boxes: got %+v, want %+v", detected.Boxes, want)
	}

	var yolo boxesResult
	mustCall(t, s, "bbox_parse", map[string]interface{}{
		"content": "0 0.5 0.5 0.2 0.4",
		"format":  "yolo",
		"width":   100,
		"height":  50,
	}, &yolo)
	want = bbox.Box{XMin: 40, YMin: 15, Width: 20, Height: 20, Label: "0"}
	if yolo.Count != 1 || yolo.Boxes[0] != want {
		t.Errorf("yolo boxes: got %+v, want %+v", yolo.Boxes, want)
	}

	if err := callTool(t, s, "bbox_parse", map[string]interface{}{"content": "1 2 3 4", "format": "xml"}, nil); err == nil {
		t.Error("bbox_parse should reject an unknown format")
	}
}

func TestSerialize(t *testing.T) {
	s := New(nil)

	var res struct {
		Format  string `json:"format"`
		Content string `json:"content"`
	}
	mustCall(t, s, "bbox_serialize", map[string]interface{}{
		"boxes":  []bbox.Box{{XMin: 10, YMin: 20, Width: 5, Height: 5, Label: "cat"}},
		"format": "pascal_voc",
	}, &res)
	if res.Content != "10.00 20.00 15.00 25.00 cat" {
		t.Errorf("content: got %q", res.Content)
	}

	mustCall(t, s, "bbox_serialize", map[string]interface{}{
		"boxes": []bbox.Box{{XMin: 1, YMin: 2, Width: 3, Height: 4}},
	}, &res)
	if res.Format != "coco" || res.Content != "1.00 2.00 3.00 4.00" {
		t.Errorf("default format: got %s %q", res.Format, res.Content)
	}

	err := callTool(t, s, "bbox_serialize", map[string]interface{}{
		"boxes": []bbox.Box{{XMin: 0, YMin: 0, Width: -1, Height: 4}},
	}, nil)
	if err == nil {
		t.Error("bbox_serialize should reject negative sizes")
	}
}

func TestConvert(t *testing.T) {
	s := New(nil)

	var res struct {
		From     string `json:"from"`
		To       string `json:"to"`
		BoxCount int    `json:"box_count"`
		Content  string `json:"content"`
	}
	mustCall(t, s, "bbox_convert", map[string]interface{}{
		"content": "10 20 5 5 big cat",
		"to":      "tesseract_box",
	}, &res)

	if res.From != "coco" || res.To != "tesseract_box" || res.BoxCount != 1 {
		t.Errorf("result: got %+v", res)
	}
	if res.Content != "big cat 10.00 20.00 15.00 25.00 0" {
		t.Errorf("content: got %q", res.Content)
	}

	if err := callTool(t, s, "bbox_convert", map[string]interface{}{"content": "1 2 3 4"}, nil); err == nil {
		t.Error("bbox_convert should require a target format")
	}
}

func TestDecimalPlaces(t *testing.T) {
	s := New(nil)
	tests := []struct {
		width, height, want int
	}{
		{0, 0, 2},
		{100, 50, 3},
		{1920, 1080, 4},
	}
	for _, tt := range tests {
		var res map[string]int
		mustCall(t, s, "bbox_decimal_places", map[string]int{"width": tt.width, "height": tt.height}, &res)
		if res["decimals"] != tt.want {
			t.Errorf("%dx%d: got %d, want %d", tt.width, tt.height, res["decimals"], tt.want)
		}
	}
}

func TestCandidates(t *testing.T) {
	s, dir := newTestServer(t)
	img := filepath.Join(dir, "page.png")

	var res candidatesResult
	mustCall(t, s, "bbox_candidates", map[string]string{"image": img}, &res)
	if res.Primary != filepath.Join(dir, "page.txt") {
		t.Errorf("primary: got %s", res.Primary)
	}
	if len(res.Candidates) != 1 || len(res.Existing) != 0 {
		t.Errorf("candidates: got %v existing %v", res.Candidates, res.Existing)
	}

	if err := os.WriteFile(filepath.Join(dir, "page.txt"), []byte("1 2 3 4"), 0644); err != nil {
		t.Fatal(err)
	}
	mustCall(t, s, "bbox_candidates", map[string]string{"image": img}, &res)
	if len(res.Existing) != 1 {
		t.Errorf("existing after write: got %v", res.Existing)
	}

	if err := callTool(t, s, "bbox_candidates", map[string]string{}, nil); err == nil {
		t.Error("bbox_candidates should require an image")
	}
}

type loadResponse struct {
	ImagePath   string     `json:"image_path"`
	PrimaryPath string     `json:"primary_path"`
	Format      string     `json:"format"`
	Boxes       []bbox.Box `json:"boxes"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Labels      []string   `json:"labels"`
}

func TestAnnotationWorkflow(t *testing.T) {
	s, dir := newTestServer(t)
	img := writeImage(t, dir, "page.png", solidImage(100, 50, color.White))
	txt := filepath.Join(dir, "page.txt")

	mustCall(t, s, "bbox_add", map[string]interface{}{
		"image": img,
		"box":   bbox.Box{XMin: 10, YMin: 20, Width: 30, Height: 15, Label: "a"},
	}, nil)
	if got := readFile(t, txt); got != "10.000 20.000 30.000 15.000 a" {
		t.Errorf("after add: got %q", got)
	}

	mustCall(t, s, "bbox_add", map[string]interface{}{
		"image": img,
		"box":   bbox.Box{XMin: 50, YMin: 5, Width: 10, Height: 10},
	}, nil)

	var doc loadResponse
	mustCall(t, s, "bbox_load", map[string]string{"image": img}, &doc)
	if doc.Width != 100 || doc.Height != 50 {
		t.Errorf("dimensions: got %dx%d", doc.Width, doc.Height)
	}
	if doc.Format != "coco" || doc.PrimaryPath != txt {
		t.Errorf("load: got format %s primary %s", doc.Format, doc.PrimaryPath)
	}
	if len(doc.Labels) != 2 || doc.Labels[0] != "a" || doc.Labels[1] != "Box 2" {
		t.Errorf("labels: got %v", doc.Labels)
	}

	var edit struct {
		Path  string     `json:"path"`
		Boxes []bbox.Box `json:"boxes"`
	}
	mustCall(t, s, "bbox_rename", map[string]interface{}{"image": img, "index": 1, "label": "b c"}, &edit)
	if edit.Boxes[1].Label != "b c" || edit.Path != txt {
		t.Errorf("after rename: got %+v", edit)
	}

	mustCall(t, s, "bbox_update", map[string]interface{}{
		"image": img,
		"index": 0,
		"box":   bbox.Box{XMin: 1, YMin: 2, Width: 3, Height: 4, Label: "z"},
	}, &edit)
	if edit.Boxes[0].Label != "z" {
		t.Errorf("after update: got %+v", edit.Boxes)
	}

	mustCall(t, s, "bbox_delete", map[string]interface{}{"image": img, "index": 0}, &edit)
	if len(edit.Boxes) != 1 || edit.Boxes[0].Label != "b c" {
		t.Errorf("after delete: got %+v", edit.Boxes)
	}
	if got := readFile(t, txt); got != "50.000 5.000 10.000 10.000 b c" {
		t.Errorf("file after delete: got %q", got)
	}

	err := callTool(t, s, "bbox_delete", map[string]interface{}{"image": img, "index": 5}, nil)
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("delete out of range: got %v", err)
	}
}

func TestSaveAndSetFormat(t *testing.T) {
	s, dir := newTestServer(t)
	img := writeImage(t, dir, "page.png", solidImage(100, 100, color.White))

	mustCall(t, s, "bbox_set_format", map[string]string{"image": img, "format": "yolo"}, nil)

	var res struct {
		Format   string `json:"format"`
		BoxCount int    `json:"box_count"`
		Content  string `json:"content"`
	}
	mustCall(t, s, "bbox_save", map[string]interface{}{
		"image": img,
		"boxes": []bbox.Box{{XMin: 0, YMin: 0, Width: 50, Height: 50, Label: "3"}},
	}, &res)
	if res.Format != "yolo" || res.BoxCount != 1 {
		t.Errorf("save: got %+v", res)
	}
	if res.Content != "0.250 0.250 0.500 0.500 3" {
		t.Errorf("content: got %q", res.Content)
	}

	if err := callTool(t, s, "bbox_set_format", map[string]string{"image": img, "format": "xml"}, nil); err == nil {
		t.Error("bbox_set_format should reject an unknown format")
	}
}

func TestListImages(t *testing.T) {
	s, dir := newTestServer(t)
	a := writeImage(t, dir, "a.png", solidImage(10, 10, color.White))
	writeImage(t, dir, "b.png", solidImage(10, 10, color.White))
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1 2 3 3 x\n4 5 1 1 y"), 0644); err != nil {
		t.Fatal(err)
	}

	var res struct {
		Count  int `json:"count"`
		Images []struct {
			ImagePath string `json:"image_path"`
			Annotated bool   `json:"annotated"`
			BoxCount  int    `json:"box_count"`
		} `json:"images"`
	}
	mustCall(t, s, "bbox_list_images", nil, &res)

	if res.Count != 2 {
		t.Fatalf("count: got %d, want 2", res.Count)
	}
	if res.Images[0].ImagePath != a || !res.Images[0].Annotated || res.Images[0].BoxCount != 2 {
		t.Errorf("first image: got %+v", res.Images[0])
	}
	if res.Images[1].Annotated {
		t.Errorf("second image should not be annotated: %+v", res.Images[1])
	}
}

func TestCropAndRegionColor(t *testing.T) {
	s, dir := newTestServer(t)
	img := writeImage(t, dir, "page.png", solidImage(100, 50, color.RGBA{255, 0, 0, 255}))
	mustCall(t, s, "bbox_save", map[string]interface{}{
		"image": img,
		"boxes": []bbox.Box{{XMin: 10, YMin: 10, Width: 20, Height: 10}},
	}, nil)

	var crop struct {
		Label    string `json:"label"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		MimeType string `json:"mime_type"`
	}
	mustCall(t, s, "bbox_crop", map[string]interface{}{"image": img, "index": 0, "scale": 2.0}, &crop)
	if crop.Width != 40 || crop.Height != 20 {
		t.Errorf("crop size: got %dx%d, want 40x20", crop.Width, crop.Height)
	}
	if crop.Label != "Box 1" {
		t.Errorf("crop label: got %q", crop.Label)
	}

	var c struct {
		Hex string `json:"hex"`
	}
	mustCall(t, s, "bbox_region_color", map[string]interface{}{"image": img, "index": 0}, &c)
	if c.Hex != "#ff0000" {
		t.Errorf("hex: got %s, want #ff0000", c.Hex)
	}

	if err := callTool(t, s, "bbox_crop", map[string]interface{}{"image": img, "index": 3}, nil); err == nil {
		t.Error("bbox_crop should fail for a missing index")
	}
}

func TestFit(t *testing.T) {
	s, dir := newTestServer(t)
	canvas := solidImage(100, 50, color.White)
	for y := 10; y < 20; y++ {
		for x := 30; x < 40; x++ {
			canvas.Set(x, y, color.Black)
		}
	}
	img := writeImage(t, dir, "page.png", canvas)
	mustCall(t, s, "bbox_save", map[string]interface{}{
		"image": img,
		"boxes": []bbox.Box{{XMin: 0, YMin: 0, Width: 100, Height: 50, Label: "glyph"}},
	}, nil)

	var res struct {
		Box     bbox.Box `json:"box"`
		Changed bool     `json:"changed"`
		Saved   bool     `json:"saved"`
	}
	mustCall(t, s, "bbox_fit", map[string]interface{}{"image": img, "index": 0}, &res)

	want := bbox.Box{XMin: 30, YMin: 10, Width: 10, Height: 10, Label: "glyph"}
	if res.Box != want || !res.Changed || !res.Saved {
		t.Errorf("fit: got %+v, want box %+v saved", res, want)
	}

	var doc loadResponse
	mustCall(t, s, "bbox_load", map[string]string{"image": img}, &doc)
	if len(doc.Boxes) != 1 || doc.Boxes[0] != want {
		t.Errorf("stored box: got %+v, want %+v", doc.Boxes, want)
	}

	if err := callTool(t, s, "bbox_fit", map[string]interface{}{"image": img, "index": 0, "threshold": 300}, nil); err == nil {
		t.Error("bbox_fit should reject thresholds above 255")
	}
}

func TestFromOCR_ArgumentErrors(t *testing.T) {
	s, dir := newTestServer(t)
	img := writeImage(t, dir, "page.png", solidImage(10, 10, color.White))

	if err := callTool(t, s, "bbox_from_ocr", map[string]string{"image": img, "mode": "merge"}, nil); err == nil {
		t.Error("bbox_from_ocr should reject an unknown mode")
	}
	if err := callTool(t, s, "bbox_from_ocr", map[string]string{"image": img, "level": "page"}, nil); err == nil {
		t.Error("bbox_from_ocr should reject an unknown level")
	}
}

func TestImageDimensions(t *testing.T) {
	s, dir := newTestServer(t)
	img := writeImage(t, dir, "page.png", solidImage(200, 150, color.White))

	var res map[string]int
	mustCall(t, s, "image_dimensions", map[string]string{"path": img}, &res)
	if res["width"] != 200 || res["height"] != 150 {
		t.Errorf("dimensions: got %v, want 200x150", res)
	}

	if err := callTool(t, s, "image_dimensions", map[string]string{"path": "/nonexistent.png"}, nil); err == nil {
		t.Error("image_dimensions should fail for a missing file")
	}
}
