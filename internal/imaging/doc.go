// Package imaging provides the image-side helpers of the annotation editor.
//
// Annotation codecs need the pixel size of the image they describe, and the
// editing tools need to look at the pixels under a box. This package covers
// both: a cache of decoded images and dimensions, and box-oriented
// operations (crop previews, mean color, fitting a box to its content).
//
// # Coordinate System
//
// Coordinates follow the annotation model: (0,0) is the top-left corner, X
// increases rightward and Y increases downward. Boxes are fractional; they are
// converted to the smallest enclosing integer rectangle (floor of the
// top-left corner, ceiling of the bottom-right corner) and clipped to the
// image before any pixel is read.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Box operations are
// stateless and can be called concurrently.
//
// # Formats
//
// PNG, JPEG and GIF are decoded by the standard library; BMP, TIFF and WebP
// by golang.org/x/image.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O and decoding failures
//   - Boxes that do not overlap the image
//   - Encoding errors during image output
package imaging
