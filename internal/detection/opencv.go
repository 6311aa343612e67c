//go:build gocv

package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// approxEpsilon is the ApproxPolyDP tolerance as a fraction of arc length.
const approxEpsilon = 0.02

// OpenCVDetector finds quadrilaterals with OpenCV: Canny, external contours
// and polygon approximation. It requires OpenCV 4 and the gocv build tag.
type OpenCVDetector struct{}

// NewOpenCVDetector returns the OpenCV-backed detector.
func NewOpenCVDetector() *OpenCVDetector {
	return &OpenCVDetector{}
}

// Name identifies the backend in tool output and logs.
func (d *OpenCVDetector) Name() string { return "opencv" }

// Detect returns up to cfg.MaxFeatureCount candidates, best first. Only
// contours that approximate to exactly four convex corners are kept.
func (d *OpenCVDetector) Detect(img image.Image, cfg Config) ([]Feature, error) {
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

	src, err := gocv.ImageToMatRGB(work)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBToGray)
	gocv.GaussianBlur(gray, &gray, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, cannyLow, cannyHigh)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	gocv.Dilate(edges, &edges, kernel)

	contours := gocv.FindContours(edges, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	minArea := cfg.MinAreaFraction * float64(src.Cols()*src.Rows())
	features := make([]Feature, 0)
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		perimeter := gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, approxEpsilon*perimeter, true)
		pts := approx.ToPoints()
		approx.Close()

		if len(pts) != 4 || !isConvex(pts) {
			continue
		}

		q := extremeCorners(pts)
		area := q.Area()
		if area < minArea {
			continue
		}
		contourArea := gocv.ContourArea(contour)
		fill := math.Min(area, contourArea) / math.Max(area, contourArea)

		q = q.Scale(scaleX, scaleY).Translate(float64(bounds.Min.X), float64(bounds.Min.Y))
		features = append(features, Feature{
			Quad:       q,
			Confidence: clampUnit(fill) * aspectFit(q, cfg.AspectRatio),
			Area:       area * scaleX * scaleY,
		})
	}

	return finalize(features, cfg), nil
}

// isConvex reports whether the closed polygon pts turns the same way at
// every vertex.
func isConvex(pts []image.Point) bool {
	sign := 0
	for i := range pts {
		c := cross(pts[i], pts[(i+1)%len(pts)], pts[(i+2)%len(pts)])
		switch {
		case c > 0 && sign < 0, c < 0 && sign > 0:
			return false
		case c > 0:
			sign = 1
		case c < 0:
			sign = -1
		}
	}
	return sign != 0
}
