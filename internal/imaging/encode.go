package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned when an operation is given a nil image or one
// with no pixels.
var ErrEmptyImage = errors.New("image is empty")

// EncodedImage is an image packaged for a tool result.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	if isEmpty(img) {
		return nil, ErrEmptyImage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// DecodePNG reverses EncodePNG.
func DecodePNG(enc *EncodedImage) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode png: %w", err)
	}
	return img, nil
}

// SaveImage writes img to path, choosing the format from the extension
// (.png, .jpg, .jpeg, .gif, .tif, .tiff, .bmp).
func SaveImage(img image.Image, path string) error {
	if isEmpty(img) {
		return ErrEmptyImage
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("unsupported output format for %s: %w", path, err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func isEmpty(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}
