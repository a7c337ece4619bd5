// Package annotation reads and writes the annotation files that belong to an
// image.
//
// An image may have several candidate annotation files, one per allowed
// extension, in the configured annotation directory. Load reads every
// candidate that exists, resolves a single codec from the first readable one
// and concatenates the parsed boxes in candidate order. Writes always go to
// the primary file: the first candidate that exists, or the path derived
// from the first allowed extension when none does.
//
// Every edit reloads the merged sequence, replaces it wholesale and writes it
// back through the same codec, so a file never holds a partially updated box
// list.
package annotation
