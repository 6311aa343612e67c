package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/photo-prep-mcp/internal/geometry"
)

// Feature is one candidate quadrilateral with the detector's confidence in it.
type Feature struct {
	// Quad holds the corners in image coordinates.
	Quad geometry.Quadrilateral `json:"quad"`

	// Confidence (0.0 to 1.0) combines how well the quad fills the region's
	// outline and how close its aspect ratio is to the configured one.
	Confidence float64 `json:"confidence"`

	// Area is the quad's area in square pixels.
	Area float64 `json:"area"`
}

// Detector proposes candidate quadrilaterals for an image.
type Detector interface {
	Detect(img image.Image, cfg Config) ([]Feature, error)
	Name() string
}

// DetectQuadrilaterals runs d and returns only the quads, in the detector's
// ranking order.
func DetectQuadrilaterals(d Detector, img image.Image, cfg Config) ([]geometry.Quadrilateral, error) {
	features, err := d.Detect(img, cfg)
	if err != nil {
		return nil, err
	}
	quads := make([]geometry.Quadrilateral, len(features))
	for i, f := range features {
		quads[i] = f.Quad
	}
	return quads, nil
}

// aspectFit is 1 when the quad's long/short side ratio equals target and
// falls towards 0 as they diverge. target <= 0 always fits.
func aspectFit(q geometry.Quadrilateral, target float64) float64 {
	if target <= 0 {
		return 1
	}
	w := (geometry.Distance(q.TopLeft, q.TopRight) + geometry.Distance(q.BottomLeft, q.BottomRight)) / 2
	h := (geometry.Distance(q.TopLeft, q.BottomLeft) + geometry.Distance(q.TopRight, q.BottomRight)) / 2
	if w == 0 || h == 0 {
		return 0
	}
	ratio := math.Max(w, h) / math.Min(w, h)
	if target < 1 {
		target = 1 / target
	}
	return math.Min(ratio, target) / math.Max(ratio, target)
}

// finalize removes near-duplicates, orders candidates by confidence (then
// area) and applies MaxFeatureCount.
func finalize(features []Feature, cfg Config) []Feature {
	sort.SliceStable(features, func(i, j int) bool {
		if features[i].Confidence != features[j].Confidence {
			return features[i].Confidence > features[j].Confidence
		}
		return features[i].Area > features[j].Area
	})

	kept := make([]Feature, 0, len(features))
	for _, f := range features {
		dup := false
		for _, k := range kept {
			if sameQuad(f.Quad, k.Quad) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, f)
		}
	}

	if cfg.MaxFeatureCount > 0 && len(kept) > cfg.MaxFeatureCount {
		kept = kept[:cfg.MaxFeatureCount]
	}
	return kept
}

// sameQuad reports whether every corner of a lies within 2% of b's diagonal
// (at least 3px) of the matching corner of b.
func sameQuad(a, b geometry.Quadrilateral) bool {
	bb := b.Bounds()
	tol := math.Max(3, 0.02*math.Hypot(float64(bb.Dx()), float64(bb.Dy())))
	ac, bc := a.Corners(), b.Corners()
	for i := range ac {
		if geometry.Distance(ac[i], bc[i]) > tol {
			return false
		}
	}
	return true
}
