// Package cimbar encodes and decodes the color-icon matrix barcode: a
// fixed 1024x1024 grid of colored icon tiles carrying an arbitrary
// byte payload through an optional fountain + Reed-Solomon + interleave
// pipeline, recoverable from a photographed or scanned copy of the
// page via anchor-based deskew and flood-fill cell classification.
//
// Encode and Decode are the two entry points; everything else
// (geometry, palette, cellcodec, rscode, fountain, bitstream, deskew,
// page) is a reusable collaborator a caller could also use directly.
package cimbar
