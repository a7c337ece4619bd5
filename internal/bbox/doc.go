// Package bbox implements the bounding-box annotation format engine.
//
// The package converts between annotation text files and a canonical in-memory
// representation ([Box]) for four interchangeable on-disk conventions:
//
//   - coco: "x_min y_min width height [label]" in pixels
//   - pascal_voc: "x_min y_min x_max y_max [label]" in pixels
//   - yolo: "class xc yc w h" or "xc yc w h class", normalized to [0,1]
//   - tesseract_box: "label x_min y_min x_max y_max [page]" in pixels
//
// # Codecs
//
// Each format is handled by a [Codec] with three operations: Parse, Serialize
// and Detect. Parsing is line oriented and tolerant: a malformed line is
// skipped and the remaining lines are still parsed. No codec ever returns an
// error for textual input; the worst case is an empty result.
//
// # Detection
//
// [Registry.Detect] tries each codec's heuristic in a fixed priority order
// (tesseract_box, yolo, pascal_voc, coco) and returns the first match. Every
// heuristic is a majority vote: content matches when at least half of its
// non-blank lines have the expected shape.
//
// # Session Cache
//
// A [FormatCache] remembers the codec chosen for each image so that reads and
// writes during one session stay on the same format even when detection over
// edited content would waver. The cache is an explicit value owned by the
// caller; nothing in this package keeps global state.
//
// # Precision
//
// Serializers format coordinates with [DecimalPlacesForImage] decimals, which
// scales with the largest image dimension so round trips stay within
// sub-pixel error.
package bbox
