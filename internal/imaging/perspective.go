package imaging

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/photo-prep-mcp/internal/geometry"
)

// ErrDegenerateQuad is returned when a quadrilateral cannot be mapped onto a
// rectangle (collinear corners, zero-length edges).
var ErrDegenerateQuad = errors.New("degenerate quadrilateral")

// ErrOutputTooLarge is returned when a quadrilateral would produce an output
// larger than the pixel budget derived from the source image.
var ErrOutputTooLarge = errors.New("corrected image exceeds pixel budget")

const (
	// maxOutputScale bounds the output area relative to the square of the
	// source's longer side. Any quad inside the source stays under 2x.
	maxOutputScale = 4

	// maxOutputPixels caps the output regardless of source size.
	maxOutputPixels = 100_000_000
)

// PerspectiveCorrect warps the region of img bounded by q onto an upright
// rectangle.
//
// The output width is the mean of the top and bottom edge lengths and the
// height the mean of the left and right edges, rounded. Each output pixel is
// mapped back into img through the square-to-quadrilateral homography and
// sampled bilinearly; samples falling outside img are transparent.
//
// Parameters:
//   - img: the source image; any bounds origin is accepted
//   - q: corners in img's coordinate space, possibly lying outside it
//
// Returns:
//   - A new NRGBA image anchored at the origin
//
// # Errors
//
//   - ErrEmptyImage if img is nil or has no pixels
//   - ErrDegenerateQuad if a corner is not finite or the corners collapse
//   - ErrOutputTooLarge if the output would exceed the pixel budget
func PerspectiveCorrect(img image.Image, q geometry.Quadrilateral) (*image.NRGBA, error) {
	if isEmpty(img) {
		return nil, ErrEmptyImage
	}
	if !finiteQuad(q) {
		return nil, ErrDegenerateQuad
	}

	wf := math.Round((geometry.Distance(q.TopLeft, q.TopRight) + geometry.Distance(q.BottomLeft, q.BottomRight)) / 2)
	hf := math.Round((geometry.Distance(q.TopLeft, q.BottomLeft) + geometry.Distance(q.TopRight, q.BottomRight)) / 2)
	if wf < 1 || hf < 1 {
		return nil, ErrDegenerateQuad
	}
	if wf*hf > outputBudget(img.Bounds()) {
		return nil, ErrOutputTooLarge
	}
	w, h := int(wf), int(hf)

	xf, ok := squareToQuad(q)
	if !ok {
		return nil, ErrDegenerateQuad
	}

	// Clone normalises to NRGBA anchored at the origin.
	origin := img.Bounds().Min
	src := imaging.Clone(img)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	sx := 1.0
	if w > 1 {
		sx = 1 / float64(w-1)
	}
	sy := 1.0
	if h > 1 {
		sy = 1 / float64(h-1)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px, py := xf.apply(float64(x)*sx, float64(y)*sy)
			i := dst.PixOffset(x, y)
			sampleBilinear(src, px-float64(origin.X), py-float64(origin.Y), dst.Pix[i:i+4])
		}
	}

	return dst, nil
}

// outputBudget is the largest output area PerspectiveCorrect allocates for a
// source with bounds b.
func outputBudget(b image.Rectangle) float64 {
	long := float64(b.Dx())
	if d := float64(b.Dy()); d > long {
		long = d
	}
	return math.Min(maxOutputScale*long*long, maxOutputPixels)
}

func finiteQuad(q geometry.Quadrilateral) bool {
	for _, p := range q.Corners() {
		if !finitePoint(p) {
			return false
		}
	}
	return true
}

func finitePoint(p geometry.Point2D) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// homography maps (u, v) to
//
//	x = (a11*u + a21*v + a31) / (a13*u + a23*v + a33)
//	y = (a12*u + a22*v + a32) / (a13*u + a23*v + a33)
type homography struct {
	a11, a12, a13 float64
	a21, a22, a23 float64
	a31, a32, a33 float64
}

func (m homography) apply(u, v float64) (float64, float64) {
	d := m.a13*u + m.a23*v + m.a33
	return (m.a11*u + m.a21*v + m.a31) / d, (m.a12*u + m.a22*v + m.a32) / d
}

// squareToQuad builds the homography taking the unit square corners
// (0,0), (1,0), (1,1), (0,1) to q's TopLeft, TopRight, BottomRight, BottomLeft.
func squareToQuad(q geometry.Quadrilateral) (homography, bool) {
	x0, y0 := q.TopLeft.X, q.TopLeft.Y
	x1, y1 := q.TopRight.X, q.TopRight.Y
	x2, y2 := q.BottomRight.X, q.BottomRight.Y
	x3, y3 := q.BottomLeft.X, q.BottomLeft.Y

	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		m := homography{
			a11: x1 - x0, a21: x2 - x1, a31: x0,
			a12: y1 - y0, a22: y2 - y1, a32: y0,
			a33: 1,
		}
		return m, m.a11*m.a22-m.a12*m.a21 != 0
	}

	dx1 := x1 - x2
	dx2 := x3 - x2
	dy1 := y1 - y2
	dy2 := y3 - y2
	den := dx1*dy2 - dx2*dy1
	if math.Abs(den) < 1e-12 {
		return homography{}, false
	}
	a13 := (dx3*dy2 - dx2*dy3) / den
	a23 := (dx1*dy3 - dx3*dy1) / den
	return homography{
		a11: x1 - x0 + a13*x1, a21: x3 - x0 + a23*x3, a31: x0,
		a12: y1 - y0 + a13*y1, a22: y3 - y0 + a23*y3, a32: y0,
		a13: a13, a23: a23, a33: 1,
	}, true
}

// sampleBilinear writes the interpolated NRGBA value of src at (x, y) into out.
// Coordinates outside src leave out untouched (transparent).
func sampleBilinear(src *image.NRGBA, x, y float64, out []uint8) {
	b := src.Bounds()
	maxX, maxY := float64(b.Dx()-1), float64(b.Dy()-1)
	if math.IsNaN(x) || math.IsNaN(y) || x < 0 || y < 0 || x > maxX || y > maxY {
		return
	}

	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 > b.Dx()-1 {
		x1 = b.Dx() - 1
	}
	if y1 > b.Dy()-1 {
		y1 = b.Dy() - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)

	p00 := src.PixOffset(x0, y0)
	p10 := src.PixOffset(x1, y0)
	p01 := src.PixOffset(x0, y1)
	p11 := src.PixOffset(x1, y1)
	for c := 0; c < 4; c++ {
		top := lerp(float64(src.Pix[p00+c]), float64(src.Pix[p10+c]), fx)
		bottom := lerp(float64(src.Pix[p01+c]), float64(src.Pix[p11+c]), fx)
		out[c] = uint8(lerp(top, bottom, fy) + 0.5)
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
