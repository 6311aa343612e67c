package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// DefaultBlurRadius is the Gaussian radius used by the preprocessing pipeline.
	DefaultBlurRadius = 5.0

	// MaxBlurRadius bounds the Gaussian radius. bild allocates a kernel
	// proportional to the radius.
	MaxBlurRadius = 100.0

	// noirContrast is the fixed contrast boost applied after desaturation.
	noirContrast = 0.35
)

// Grayscale applies a fixed "photo noir" effect: each pixel is replaced by its
// perceptual lightness (CIE L*) and the result gets a strong contrast boost.
// Fully transparent pixels become black.
//
// The output has the same bounds as img. A nil or empty image yields an empty
// *image.Gray.
func Grayscale(img image.Image) *image.Gray {
	if isEmpty(img) {
		return image.NewGray(image.Rectangle{})
	}

	b := img.Bounds()
	light := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			l, _, _ := c.Lab()
			light.SetGray(x, y, color.Gray{Y: toByte(l)})
		}
	}

	// Contrast keeps R=G=B for a gray source, so one channel carries the result.
	return grayFromRGBA(adjust.Contrast(light, noirContrast), b)
}

// Blur applies a Gaussian blur of the given radius. Pixels beyond the edge are
// treated as copies of the nearest edge pixel, so the borders do not darken and
// the output keeps img's bounds.
//
// A radius <= 0 or NaN returns an unblurred copy. Radii above MaxBlurRadius
// are clamped to it.
func Blur(img image.Image, radius float64) *image.RGBA {
	if isEmpty(img) {
		return image.NewRGBA(image.Rectangle{})
	}
	if math.IsNaN(radius) || radius < 0 {
		radius = 0
	}
	if radius > MaxBlurRadius {
		radius = MaxBlurRadius
	}

	blurred := blur.Gaussian(img, radius)
	b := img.Bounds()
	if blurred.Bounds() == b {
		return blurred
	}
	out := image.NewRGBA(b)
	copy(out.Pix, blurred.Pix)
	return out
}

// ValidBlurRadius reports whether radius is finite and within
// [0, MaxBlurRadius].
func ValidBlurRadius(radius float64) bool {
	return !math.IsNaN(radius) && radius >= 0 && radius <= MaxBlurRadius
}

// grayFromRGBA copies src's red channel into a gray image with bounds b.
// bild anchors its results at the origin; b restores the source bounds.
func grayFromRGBA(src *image.RGBA, b image.Rectangle) *image.Gray {
	out := image.NewGray(b)
	sb := src.Bounds()
	for y := 0; y < b.Dy() && y < sb.Dy(); y++ {
		for x := 0; x < b.Dx() && x < sb.Dx(); x++ {
			out.Pix[y*out.Stride+x] = src.Pix[src.PixOffset(sb.Min.X+x, sb.Min.Y+y)]
		}
	}
	return out
}

func toByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
