package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Scale produces a working thumbnail of img for a view of the given size.
//
// The thumbnail's longest side is at most max(target.X, target.Y)/2 and the
// aspect ratio is preserved. Images already within that limit are returned as
// an unscaled copy; Scale never enlarges.
//
// Parameters:
//   - img: the source photograph
//   - target: the view size; only its longer side matters
//
// Returns:
//   - image.Image: an *image.NRGBA anchored at the origin
//
// # Errors
//
//   - ErrEmptyImage for a nil or zero-sized image
//   - An error when the target would allow less than one pixel
func Scale(img image.Image, target image.Point) (image.Image, error) {
	if isEmpty(img) {
		return nil, ErrEmptyImage
	}

	maxSide := ThumbnailMaxPixelSize(target)
	if maxSide < 1 {
		return nil, fmt.Errorf("target size %dx%d too small for a thumbnail", target.X, target.Y)
	}

	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos), nil
}

// ThumbnailMaxPixelSize is the longest-side limit Scale applies for target.
func ThumbnailMaxPixelSize(target image.Point) int {
	longest := target.X
	if target.Y > longest {
		longest = target.Y
	}
	return longest / 2
}
