// Package imaging implements the image operations of the photo preprocessing
// pipeline: thumbnailing, the noir grayscale effect, Gaussian blur, cropping,
// perspective correction and a debug overlay for detected quadrilaterals.
//
// All operations take and return standard image.Image values and use the
// top-left-origin coordinate system of the image package.
//
// # Operations
//
//   - Scale: thumbnail limited to half the longest side of a target size
//   - Grayscale: perceptual lightness plus a fixed contrast boost
//   - Blur: Gaussian blur with edge pixels extended past the border
//   - Crop: rectangle crop clipped to the image
//   - PerspectiveCorrect: warp a quadrilateral onto an upright rectangle
//   - DrawQuadrilaterals: outline candidates and highlight the selected one
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The operations are stateless and
// never modify their input, so they may run concurrently on shared images.
//
// # Error Handling
//
// Operations that can produce nothing (an empty crop, a degenerate quad, a
// zero-sized input) return an error. Grayscale and Blur cannot fail; given an
// empty image they return an empty image.
package imaging
