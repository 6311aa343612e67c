// Package ocr recognises text in images using Tesseract (via gosseract/v2).
//
// Images are passed to Tesseract in memory as PNG bytes. Word-level results
// carry bounding boxes in the caller's coordinate space.
//
// An Engine implements preprocess.TextRecognizer, so a cropped card can be
// read as the last pipeline stage.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Set Engine.TessdataPrefix (PHOTO_PREP_TESSDATA) to use language data from a
// non-standard directory. GetOCRInfo reports what the linked Tesseract finds.
package ocr
