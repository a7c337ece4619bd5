// Package config holds the settings that drive annotation file resolution:
// where images and annotation files live, which format to fall back to and
// which file extensions count as annotation candidates.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/bbox-editor-mcp/internal/bbox"
)

// Environment variables that override file settings.
const (
	EnvImageDirectory    = "BBOX_EDITOR_IMAGE_DIR"
	EnvBBoxDirectory     = "BBOX_EDITOR_BBOX_DIR"
	EnvFormat            = "BBOX_EDITOR_FORMAT"
	EnvExtensions        = "BBOX_EDITOR_EXTENSIONS"
	EnvYOLOLabelPosition = "BBOX_EDITOR_YOLO_LABEL_POSITION"
	EnvOCRLanguage       = "BBOX_EDITOR_OCR_LANGUAGE"
	EnvHTTPAddr          = "BBOX_EDITOR_HTTP_ADDR"
	EnvLogLevel          = "BBOX_EDITOR_LOG_LEVEL"
)

// DefaultConfigFile is looked up in the working directory when no config
// path is given.
const DefaultConfigFile = ".bbox-editor.yaml"

// DefaultBox is a seed box written as x/y/w/h in settings files.
type DefaultBox struct {
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	W     float64 `yaml:"w" json:"w"`
	H     float64 `yaml:"h" json:"h"`
	Label string  `yaml:"label,omitempty" json:"label,omitempty"`
}

// Config holds the annotation editor settings.
type Config struct {
	// ImageDirectory is the root searched for images.
	ImageDirectory string `yaml:"image_directory"`

	// BBoxDirectory holds annotation files. Empty means "next to each image".
	BBoxDirectory string `yaml:"bbox_directory"`

	// Format is used when an annotation file's format cannot be detected.
	Format bbox.Format `yaml:"format"`

	// AllowedExtensions lists annotation file extensions, each with a leading
	// dot. The first one names newly created files.
	AllowedExtensions []string `yaml:"allowed_extensions"`

	// YOLOLabelPosition selects class-first or class-last YOLO output.
	YOLOLabelPosition bbox.LabelPosition `yaml:"yolo_label_position"`

	// DefaultBoxes seed images that have no annotation file yet.
	DefaultBoxes []DefaultBox `yaml:"default_boxes"`

	// OCRLanguage is the Tesseract language used by OCR tools.
	OCRLanguage string `yaml:"ocr_language"`

	// HTTPAddr, when set, serves the tools over HTTP instead of stdio.
	HTTPAddr string `yaml:"http_addr"`

	// LogLevel enables debug logging when set to "debug".
	LogLevel string `yaml:"log_level"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		ImageDirectory:    ".",
		BBoxDirectory:     "",
		Format:            bbox.FormatCOCO,
		AllowedExtensions: []string{".txt"},
		YOLOLabelPosition: bbox.ClassLast,
		OCRLanguage:       "eng",
	}
}

// LoadFromFile reads a YAML configuration file on top of the defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load builds the effective configuration.
//
// A ".env" file in the working directory is loaded first when present. Then
// the YAML file at path is read; an empty path tries DefaultConfigFile and
// silently skips it when absent. Finally BBOX_EDITOR_* variables override
// individual fields. The result is normalized and validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	fileCfg, err := LoadFromFile(path)
	switch {
	case err == nil:
		cfg = fileCfg
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv(EnvImageDirectory); ok {
		c.ImageDirectory = v
	}
	if v, ok := lookupEnv(EnvBBoxDirectory); ok {
		c.BBoxDirectory = v
	}
	if v, ok := lookupEnv(EnvFormat); ok {
		f, err := bbox.ParseFormat(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFormat, err)
		}
		c.Format = f
	}
	if v, ok := lookupEnv(EnvExtensions); ok {
		c.AllowedExtensions = strings.Split(v, ",")
	}
	if v, ok := lookupEnv(EnvYOLOLabelPosition); ok {
		p, err := bbox.ParseLabelPosition(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvYOLOLabelPosition, err)
		}
		c.YOLOLabelPosition = p
	}
	if v, ok := lookupEnv(EnvOCRLanguage); ok {
		c.OCRLanguage = v
	}
	if v, ok := lookupEnv(EnvHTTPAddr); ok {
		c.HTTPAddr = v
	}
	if v, ok := lookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Normalize trims values and fills blanks with defaults.
//
// Extensions gain a leading dot and are deduplicated in order. A blank image
// directory becomes ".". Default boxes are dropped entirely if any entry is
// invalid.
func (c *Config) Normalize() {
	c.ImageDirectory = strings.TrimSpace(c.ImageDirectory)
	if c.ImageDirectory == "" {
		c.ImageDirectory = "."
	}
	c.BBoxDirectory = strings.TrimSpace(c.BBoxDirectory)
	if c.Format == "" {
		c.Format = bbox.FormatCOCO
	}
	if p, err := bbox.ParseLabelPosition(string(c.YOLOLabelPosition)); err == nil {
		c.YOLOLabelPosition = p
	}
	if strings.TrimSpace(c.OCRLanguage) == "" {
		c.OCRLanguage = "eng"
	}

	seen := make(map[string]bool)
	exts := make([]string, 0, len(c.AllowedExtensions))
	for _, ext := range c.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		exts = []string{".txt"}
	}
	c.AllowedExtensions = exts

	c.DefaultBoxes = validDefaultBoxes(c.DefaultBoxes)
}

// validDefaultBoxes returns boxes unchanged when every entry has finite
// coordinates and a positive size, and nil otherwise.
func validDefaultBoxes(boxes []DefaultBox) []DefaultBox {
	for _, b := range boxes {
		for _, v := range []float64{b.X, b.Y, b.W, b.H} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil
			}
		}
		if b.W <= 0 || b.H <= 0 {
			return nil
		}
	}
	return boxes
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !c.Format.Valid() {
		return fmt.Errorf("format must be one of %v, got %q", bbox.Formats(), c.Format)
	}
	if _, err := bbox.ParseLabelPosition(string(c.YOLOLabelPosition)); err != nil {
		return fmt.Errorf("yolo_label_position: %w", err)
	}
	if len(c.AllowedExtensions) == 0 {
		return fmt.Errorf("allowed_extensions cannot be empty")
	}
	for _, ext := range c.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("invalid annotation extension %q", ext)
		}
	}
	return nil
}

// Boxes converts the configured default boxes into canonical boxes.
func (c *Config) Boxes() []bbox.Box {
	boxes := make([]bbox.Box, 0, len(c.DefaultBoxes))
	for _, d := range c.DefaultBoxes {
		boxes = append(boxes, bbox.Box{XMin: d.X, YMin: d.Y, Width: d.W, Height: d.H, Label: d.Label})
	}
	return boxes
}

// ImageDir returns the image directory.
func (c *Config) ImageDir() string {
	return filepath.Clean(c.ImageDirectory)
}

// BBoxDirFor returns the directory holding annotation files for imagePath:
// the configured bbox directory, or the image's own directory.
func (c *Config) BBoxDirFor(imagePath string) string {
	if c.BBoxDirectory == "" {
		return filepath.Dir(imagePath)
	}
	return filepath.Clean(c.BBoxDirectory)
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}
