package annotation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/bbox-editor-mcp/internal/bbox"
	"github.com/ironsheep/bbox-editor-mcp/internal/config"
	"github.com/ironsheep/bbox-editor-mcp/internal/imaging"
)

// ErrIndexOutOfRange is returned by index edits whose index does not name a
// box in the current sequence.
var ErrIndexOutOfRange = errors.New("box index out of range")

// listConcurrency bounds the number of images inspected at once by
// ListImages.
const listConcurrency = 8

// Document is the merged annotation state of one image.
type Document struct {
	ImagePath   string      `json:"image_path"`
	PrimaryPath string      `json:"primary_path"`
	Format      bbox.Format `json:"format"`
	Boxes       []bbox.Box  `json:"boxes"`

	// Sources lists the candidate files that were read, in merge order.
	Sources []string `json:"sources"`

	// Defaulted is true when no annotation file existed and the configured
	// default boxes were used.
	Defaulted bool `json:"defaulted,omitempty"`
}

// SaveResult describes a completed write.
type SaveResult struct {
	Path     string      `json:"path"`
	Format   bbox.Format `json:"format"`
	BoxCount int         `json:"box_count"`
	Content  string      `json:"content"`

	// Folded lists secondary candidate files whose boxes were merged into
	// Path and which were removed by the write.
	Folded []string `json:"folded,omitempty"`
}

// ImageEntry summarizes the annotation status of one image.
type ImageEntry struct {
	ImagePath   string `json:"image_path"`
	PrimaryPath string `json:"primary_path"`
	Annotated   bool   `json:"annotated"`
	BoxCount    int    `json:"box_count"`
}

// Store resolves, reads and writes annotation files for images.
//
// Store is safe for concurrent use; the format cache and image cache it is
// given carry their own locking.
type Store struct {
	cfg    *config.Config
	reg    *bbox.Registry
	cache  *bbox.FormatCache
	images *imaging.ImageCache
}

// StoreOption configures optional Store collaborators.
type StoreOption func(*Store)

// WithImageCache shares an image cache with the store. ListImages uses it to
// read image dimensions.
func WithImageCache(c *imaging.ImageCache) StoreOption {
	return func(s *Store) { s.images = c }
}

// NewStore creates a store. A nil cache disables format memoization.
func NewStore(cfg *config.Config, reg *bbox.Registry, cache *bbox.FormatCache, opts ...StoreOption) *Store {
	s := &Store{cfg: cfg, reg: reg, cache: cache}
	for _, opt := range opts {
		opt(s)
	}
	if s.images == nil {
		s.images = imaging.NewImageCache()
	}
	return s
}

// Candidates returns the candidate annotation paths for imagePath, one per
// allowed extension, deduplicated and sorted.
func (s *Store) Candidates(imagePath string) []string {
	dir := s.cfg.BBoxDirFor(imagePath)
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))

	seen := make(map[string]bool, len(s.cfg.AllowedExtensions))
	paths := make([]string, 0, len(s.cfg.AllowedExtensions))
	for _, ext := range s.cfg.AllowedExtensions {
		p := filepath.Join(dir, base+ext)
		if seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// PrimaryPath returns the file writes for imagePath go to.
func (s *Store) PrimaryPath(imagePath string) string {
	for _, p := range s.Candidates(imagePath) {
		if fileExists(p) {
			return p
		}
	}
	return s.defaultPath(imagePath)
}

func (s *Store) defaultPath(imagePath string) string {
	ext := ".txt"
	if len(s.cfg.AllowedExtensions) > 0 {
		ext = s.cfg.AllowedExtensions[0]
	}
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	return filepath.Join(s.cfg.BBoxDirFor(imagePath), base+ext)
}

// Load reads and merges every existing candidate file for imagePath.
//
// Candidates are read concurrently. The codec is resolved once from the
// first readable candidate and applied to all of them. Missing files are
// skipped; any other read error fails the load. When no candidate exists the
// configured default boxes are returned.
func (s *Store) Load(ctx context.Context, imagePath string, imgWidth, imgHeight int) (*Document, error) {
	candidates := s.Candidates(imagePath)
	contents := make([]*string, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range candidates {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read annotation file %s: %w", path, err)
			}
			text := string(data)
			contents[i] = &text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := &Document{ImagePath: imagePath, Boxes: []bbox.Box{}, Sources: []string{}}

	var codec bbox.Codec
	for i, content := range contents {
		if content == nil {
			continue
		}
		if codec == nil {
			doc.PrimaryPath = candidates[i]
			codec = s.reg.Resolve(s.cache, candidates[i], *content, s.cfg.Format)
		}
		doc.Sources = append(doc.Sources, candidates[i])
		doc.Boxes = append(doc.Boxes, codec.Parse(*content, imgWidth, imgHeight)...)
	}

	if codec == nil {
		doc.PrimaryPath = s.defaultPath(imagePath)
		codec = s.reg.Resolve(s.cache, doc.PrimaryPath, "", s.cfg.Format)
		doc.Boxes = append(doc.Boxes, s.cfg.Boxes()...)
		doc.Defaulted = true
	}
	doc.Format = codec.Format()

	if s.cfg.Debug() {
		log.Printf("[DEBUG] loaded %d boxes for %s as %s from %d files", len(doc.Boxes), imagePath, doc.Format, len(doc.Sources))
	}
	return doc, nil
}

// Save serializes boxes and writes them to the primary file of imagePath,
// creating its directory if needed.
//
// boxes replaces the whole merged sequence that Load returns, so every other
// existing candidate file is removed once the primary is written.
func (s *Store) Save(ctx context.Context, imagePath string, boxes []bbox.Box, imgWidth, imgHeight int) (*SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.PrimaryPath(imagePath)
	current, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read annotation file %s: %w", path, err)
	}

	codec := s.reg.Resolve(s.cache, path, string(current), s.cfg.Format)
	content := codec.Serialize(boxes, imgWidth, imgHeight)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create annotation directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write annotation file %s: %w", path, err)
	}

	folded, err := s.foldSecondaries(imagePath, path)
	if err != nil {
		return nil, err
	}

	if s.cfg.Debug() {
		log.Printf("[DEBUG] saved %d boxes to %s as %s, folded %d files", len(boxes), path, codec.Format(), len(folded))
	}
	return &SaveResult{Path: path, Format: codec.Format(), BoxCount: len(boxes), Content: content, Folded: folded}, nil
}

// foldSecondaries removes the existing candidates of imagePath other than
// primary and forgets their cached formats.
func (s *Store) foldSecondaries(imagePath, primary string) ([]string, error) {
	var folded []string
	for _, p := range s.Candidates(imagePath) {
		if p == primary || !fileExists(p) {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return folded, fmt.Errorf("failed to remove merged annotation file %s: %w", p, err)
		}
		if s.cache != nil {
			s.cache.Evict(p)
		}
		folded = append(folded, p)
	}
	return folded, nil
}

// SetFormat pins the codec used for imagePath's primary file, overriding
// detection for the rest of the session.
func (s *Store) SetFormat(imagePath string, f bbox.Format) error {
	codec, ok := s.reg.Provider(f)
	if !ok {
		return fmt.Errorf("%w: %q", bbox.ErrUnknownFormat, f)
	}
	if s.cache != nil {
		s.cache.Set(s.PrimaryPath(imagePath), codec)
	}
	return nil
}

// edit loads the merged sequence, applies fn and saves the result.
func (s *Store) edit(ctx context.Context, imagePath string, imgWidth, imgHeight int, fn func([]bbox.Box) ([]bbox.Box, error)) (*SaveResult, []bbox.Box, error) {
	doc, err := s.Load(ctx, imagePath, imgWidth, imgHeight)
	if err != nil {
		return nil, nil, err
	}
	boxes, err := fn(doc.Boxes)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.Save(ctx, imagePath, boxes, imgWidth, imgHeight)
	if err != nil {
		return nil, nil, err
	}
	return res, boxes, nil
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %d (have %d boxes)", ErrIndexOutOfRange, index, n)
	}
	return nil
}

// Add appends box to the sequence of imagePath.
func (s *Store) Add(ctx context.Context, imagePath string, box bbox.Box, imgWidth, imgHeight int) (*SaveResult, []bbox.Box, error) {
	return s.edit(ctx, imagePath, imgWidth, imgHeight, func(boxes []bbox.Box) ([]bbox.Box, error) {
		return append(boxes, box), nil
	})
}

// Update replaces the box at index.
func (s *Store) Update(ctx context.Context, imagePath string, index int, box bbox.Box, imgWidth, imgHeight int) (*SaveResult, []bbox.Box, error) {
	return s.edit(ctx, imagePath, imgWidth, imgHeight, func(boxes []bbox.Box) ([]bbox.Box, error) {
		if err := checkIndex(index, len(boxes)); err != nil {
			return nil, err
		}
		boxes[index] = box
		return boxes, nil
	})
}

// Rename sets the label of the box at index. An empty label removes it.
func (s *Store) Rename(ctx context.Context, imagePath string, index int, label string, imgWidth, imgHeight int) (*SaveResult, []bbox.Box, error) {
	return s.edit(ctx, imagePath, imgWidth, imgHeight, func(boxes []bbox.Box) ([]bbox.Box, error) {
		if err := checkIndex(index, len(boxes)); err != nil {
			return nil, err
		}
		boxes[index] = boxes[index].WithLabel(strings.TrimSpace(label))
		return boxes, nil
	})
}

// Delete removes the box at index, keeping the order of the rest.
func (s *Store) Delete(ctx context.Context, imagePath string, index int, imgWidth, imgHeight int) (*SaveResult, []bbox.Box, error) {
	return s.edit(ctx, imagePath, imgWidth, imgHeight, func(boxes []bbox.Box) ([]bbox.Box, error) {
		if err := checkIndex(index, len(boxes)); err != nil {
			return nil, err
		}
		return append(boxes[:index:index], boxes[index+1:]...), nil
	})
}

// ListImages walks the image directory and reports the annotation status of
// every image found, sorted by path. Hidden directories are skipped.
func (s *Store) ListImages(ctx context.Context) ([]ImageEntry, error) {
	root := s.cfg.ImageDir()

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if imaging.IsImagePath(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list images in %s: %w", root, err)
	}
	sort.Strings(paths)

	entries := make([]ImageEntry, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			entry, err := s.inspect(ctx, path)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) inspect(ctx context.Context, imagePath string) (ImageEntry, error) {
	entry := ImageEntry{ImagePath: imagePath, PrimaryPath: s.PrimaryPath(imagePath)}
	entry.Annotated = fileExists(entry.PrimaryPath)
	if !entry.Annotated {
		return entry, nil
	}

	var w, h int
	if dims, err := imaging.GetDimensions(s.images, imagePath); err == nil {
		w, h = dims.Width, dims.Height
	} else {
		log.Printf("[WARN] could not read dimensions of %s: %v", imagePath, err)
	}

	doc, err := s.Load(ctx, imagePath, w, h)
	if err != nil {
		return ImageEntry{}, err
	}
	entry.BoxCount = len(doc.Boxes)
	return entry, nil
}

// DisplayLabel returns the label of box, or "Box N" (1-based) when it has
// none.
func DisplayLabel(box bbox.Box, index int) string {
	if box.HasLabel() {
		return box.Label
	}
	return fmt.Sprintf("Box %d", index+1)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
