// Package detection proposes candidate quadrilaterals (cards, prints, receipts)
// in photographs.
//
// A Detector returns up to Config.MaxFeatureCount features, each a
// geometry.Quadrilateral with a confidence score, ordered best first. Picking
// the one to crop is left to geometry.SelectBest.
//
// # Backends
//
// New returns the backend compiled into the build:
//
//   - default: NativeDetector, pure Go (Canny edges, connected components,
//     convex hulls)
//   - -tags gocv: OpenCVDetector, using OpenCV through gocv (contours and
//     polygon approximation)
//
// Both honour the same Config and report corners in the input image's
// coordinate space with the origin at the top-left.
//
// # Configuration
//
// DefaultConfig matches the camera pipeline: high accuracy, expected aspect
// ratio 1.667 (a 5:3 card) and at most five features. AspectRatio only ranks
// candidates; it never filters them out.
//
// # Confidence
//
// Confidence multiplies two factors in [0, 1]:
//   - fill: how much of the region's outline the four corners cover
//   - aspect fit: min(r, target) / max(r, target) for the long/short side ratio r
//
// # Limitations
//
// Corners are found as the extremes along the image diagonals, which is exact
// for convex, roughly upright quads. A card rotated close to 45 degrees may get
// two corners from the same side.
package detection
