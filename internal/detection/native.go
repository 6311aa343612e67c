package detection

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// minFill is the smallest quad-area / hull-area ratio accepted. A rectangle's
// diagonal corners span its whole hull (ratio ~1); a circle's only ~0.64.
const minFill = 0.85

// NativeDetector finds quadrilaterals with Canny edges, connected components
// and convex hulls, in pure Go.
type NativeDetector struct{}

// NewNativeDetector returns the pure Go detector.
func NewNativeDetector() *NativeDetector {
	return &NativeDetector{}
}

// Name identifies the backend in tool output and logs.
func (d *NativeDetector) Name() string { return "native" }

// Detect returns up to cfg.MaxFeatureCount candidates, best first.
//
// # Algorithm
//
//  1. With AccuracyLow, shrink the image so its longest side is at most 512
//  2. Canny edges, dilated by one pixel to close corner gaps
//  3. 8-connected components of edge pixels
//  4. Convex hull of each component and its four diagonal-extreme corners
//  5. Drop quads below MinAreaFraction of the image or filling less than 85%
//     of their hull
//  6. Confidence = fill * aspect fit; sort, de-duplicate, truncate
//
// Corners are reported in img's coordinate space.
func (d *NativeDetector) Detect(img image.Image, cfg Config) ([]Feature, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("cannot detect rectangles in an empty image")
	}

	bounds := img.Bounds()
	work := img
	scaleX, scaleY := 1.0, 1.0
	if cfg.Accuracy == AccuracyLow && (bounds.Dx() > lowAccuracyMaxSide || bounds.Dy() > lowAccuracyMaxSide) {
		work = imaging.Fit(img, lowAccuracyMaxSide, lowAccuracyMaxSide, imaging.Box)
		scaleX = float64(bounds.Dx()) / float64(work.Bounds().Dx())
		scaleY = float64(bounds.Dy()) / float64(work.Bounds().Dy())
	}

	edges := cannyEdges(work, cannyLow, cannyHigh).dilate()
	contours := findContours(edges)

	minArea := cfg.MinAreaFraction * float64(edges.w*edges.h)
	features := make([]Feature, 0)
	for _, contour := range contours {
		hull := convexHull(contour)
		if len(hull) < 4 {
			continue
		}
		hullArea := polygonArea(hull)
		if hullArea == 0 {
			continue
		}

		q := extremeCorners(hull)
		area := q.Area()
		if area < minArea {
			continue
		}
		fill := area / hullArea
		if fill < minFill {
			continue
		}

		q = q.Scale(scaleX, scaleY).Translate(float64(bounds.Min.X), float64(bounds.Min.Y))
		features = append(features, Feature{
			Quad:       q,
			Confidence: clampUnit(fill) * aspectFit(q, cfg.AspectRatio),
			Area:       area * scaleX * scaleY,
		})
	}

	return finalize(features, cfg), nil
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
