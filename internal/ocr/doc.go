// Package ocr turns recognized text into annotation boxes using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Each
// recognized symbol, word or line becomes a bbox.Box labeled with its text,
// so an image can be pre-annotated before manual correction. Symbol level
// output matches the layout of Tesseract training .box files.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Builds with CGO_ENABLED=0 compile without Tesseract; every extraction then
// returns ErrUnavailable and GetInfo reports Available=false.
//
// # Coordinates
//
// Boxes are in pixel coordinates of the source image. For region OCR the
// crop offset is added back, so results can be merged directly into the
// image's annotation list.
package ocr
