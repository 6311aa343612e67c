package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/photo-prep-mcp/internal/imaging"
)

// DefaultLanguage is used when a call passes an empty language.
const DefaultLanguage = "eng"

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion represents a word with its location and OCR confidence.
type TextRegion struct {
	// Text is the recognized word.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this word in the image.
	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the complete results of text extraction from an image.
type OCRResult struct {
	// FullText is all recognized text with Tesseract's spacing and newlines.
	FullText string `json:"full_text"`

	// Regions contains individual words with their bounding boxes and confidence scores.
	// May be empty if bounding box extraction fails (text will still be in FullText).
	Regions []TextRegion `json:"regions"`
}

// Engine runs Tesseract through gosseract. A new Tesseract client is created
// per call, so an Engine is safe for concurrent use.
type Engine struct {
	// TessdataPrefix is the directory holding *.traineddata files. Empty uses
	// Tesseract's compiled-in default.
	TessdataPrefix string
}

// NewEngine returns an Engine reading language data from tessdataPrefix.
func NewEngine(tessdataPrefix string) *Engine {
	return &Engine{TessdataPrefix: tessdataPrefix}
}

// ExtractText runs OCR on img with a default Engine.
func ExtractText(img image.Image, language string) (*OCRResult, error) {
	return (&Engine{}).ExtractText(img, language)
}

// ExtractText performs OCR on an in-memory image and returns the recognized
// text plus word-level regions.
//
// The image is PNG-encoded in memory and handed to Tesseract with
// SetImageFromBytes; nothing touches the filesystem. Region bounds are in
// img's coordinate space.
//
// If word-level bounding box extraction fails (which can happen with some
// Tesseract configurations), the full text is still returned with an empty
// Regions slice.
func (e *Engine) ExtractText(img image.Image, language string) (*OCRResult, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, imaging.ErrEmptyImage
	}
	if language == "" {
		language = DefaultLanguage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &OCRResult{
			FullText: text,
			Regions:  []TextRegion{},
		}, nil
	}

	// Tesseract reports boxes relative to the encoded image, which starts at
	// the origin.
	off := img.Bounds().Min
	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X + off.X,
				Y1: box.Box.Min.Y + off.Y,
				X2: box.Box.Max.X + off.X,
				Y2: box.Box.Max.Y + off.Y,
			},
		})
	}

	return &OCRResult{
		FullText: text,
		Regions:  regions,
	}, nil
}

// ExtractTextFromRegion performs OCR on the part of img inside r. The region
// is clipped to the image; returned bounds are in img's coordinates, not the
// crop's.
func (e *Engine) ExtractTextFromRegion(img image.Image, r image.Rectangle, language string) (*OCRResult, error) {
	cropped, err := imaging.Crop(img, r)
	if err != nil {
		return nil, err
	}

	result, err := e.ExtractText(cropped, language)
	if err != nil {
		return nil, err
	}

	origin := r.Canon().Intersect(img.Bounds()).Min
	for i := range result.Regions {
		result.Regions[i].Bounds.X1 += origin.X
		result.Regions[i].Bounds.Y1 += origin.Y
		result.Regions[i].Bounds.X2 += origin.X
		result.Regions[i].Bounds.Y2 += origin.Y
	}

	return result, nil
}

// RecognizeText returns the trimmed full text of img. It lets an Engine serve
// as the preprocessing pipeline's text recognizer.
func (e *Engine) RecognizeText(ctx context.Context, img image.Image, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	result, err := e.ExtractText(img, language)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.FullText), nil
}

// OCRInfo contains information about the OCR subsystem.
type OCRInfo struct {
	Available bool     `json:"available"`
	Version   string   `json:"version,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Error     string   `json:"error,omitempty"`
	Backend   string   `json:"backend"`
}

// GetOCRInfo reports the linked Tesseract version and the languages found in
// the default tessdata directory.
func GetOCRInfo() OCRInfo {
	info := OCRInfo{
		Version: gosseract.Version(),
		Backend: "gosseract",
	}

	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Languages = langs
	info.Available = info.Version != "" && len(langs) > 0
	if !info.Available {
		info.Error = "no tesseract language data found"
	}
	return info
}
