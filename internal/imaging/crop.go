package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Crop extracts the part of img inside r.
//
// r is clipped to the image bounds first, so a detector rectangle that pokes a
// few pixels past the edge still crops. The result is anchored at (0,0).
//
// Returns an error when r does not overlap the image at all.
func Crop(img image.Image, r image.Rectangle) (image.Image, error) {
	if isEmpty(img) {
		return nil, ErrEmptyImage
	}

	bounds := img.Bounds()
	clipped := r.Canon().Intersect(bounds)
	if clipped.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}

	return imaging.Crop(img, clipped), nil
}
