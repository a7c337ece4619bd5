package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageExtensions lists the file extensions treated as images when listing
// an image directory. All of them have a registered decoder.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// IsImagePath reports whether path has one of ImageExtensions.
func IsImagePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ImageCache provides thread-safe caching of loaded images and their
// dimensions to avoid redundant disk reads.
//
// Decoded images are keyed by file path. Dimensions are cached separately so
// that callers needing only width and height (every annotation read or
// write) can decode just the image header.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	dims, err := imaging.GetDimensions(cache, "/path/to/image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text := codec.Serialize(boxes, dims.Width, dims.Height)
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	dims   map[string]DimensionsResult
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
		dims:   make(map[string]DimensionsResult),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. The image is
// cached using the exact path string provided.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a supported image
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	c.mu.Lock()
	c.images[path] = img
	c.dims[path] = DimensionsResult{Width: bounds.Dx(), Height: bounds.Dy()}
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images and dimensions from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.dims = make(map[string]DimensionsResult)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	delete(c.dims, path)
	c.mu.Unlock()
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image.
//
// Only the image header is decoded unless the full image is already cached.
// The result is cached for later calls.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	cache.mu.RLock()
	d, ok := cache.dims[path]
	cache.mu.RUnlock()
	if ok {
		return &d, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	d = DimensionsResult{Width: cfg.Width, Height: cfg.Height}
	cache.mu.Lock()
	cache.dims[path] = d
	cache.mu.Unlock()

	return &d, nil
}
