package geometry

import (
	"fmt"
	"image"
	"math"
)

// Point2D is a point in image space.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point2D) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Quadrilateral is a four-corner region proposed by a rectangle detector.
//
// The corners are kept in the order the producer supplied them.
type Quadrilateral struct {
	TopLeft     Point2D `json:"top_left"`
	TopRight    Point2D `json:"top_right"`
	BottomLeft  Point2D `json:"bottom_left"`
	BottomRight Point2D `json:"bottom_right"`
}

// Corners returns the corners clockwise from TopLeft:
// TopLeft, TopRight, BottomRight, BottomLeft.
func (q Quadrilateral) Corners() [4]Point2D {
	return [4]Point2D{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// Width is the length of the top edge (TopLeft to TopRight).
func (q Quadrilateral) Width() float64 {
	return Distance(q.TopRight, q.TopLeft)
}

// Height is the length of the left edge (TopLeft to BottomLeft).
func (q Quadrilateral) Height() float64 {
	return Distance(q.BottomLeft, q.TopLeft)
}

// Score is the half-perimeter proxy Width + Height.
//
// Only the top and left edges contribute. The right and bottom edges are
// ignored on purpose; selection results depend on this exact score.
func (q Quadrilateral) Score() float64 {
	return q.Width() + q.Height()
}

// PassesAspectGate reports whether Height < Width/2.
func (q Quadrilateral) PassesAspectGate() bool {
	return q.Height() < q.Width()/2
}

// Bounds returns the smallest integer rectangle containing all four corners.
// Min is floored and Max is ceiled so the rectangle never clips a corner.
func (q Quadrilateral) Bounds() image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range q.Corners() {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}

// Area returns the shoelace area of the polygon TL, TR, BR, BL.
// Self-intersecting quads yield the net signed area's magnitude.
func (q Quadrilateral) Area() float64 {
	c := q.Corners()
	var sum float64
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(sum) / 2
}

// Scale multiplies every corner by sx, sy. Used to map corners found on a
// thumbnail back onto the full-size image.
func (q Quadrilateral) Scale(sx, sy float64) Quadrilateral {
	s := func(p Point2D) Point2D { return Point2D{X: p.X * sx, Y: p.Y * sy} }
	return Quadrilateral{
		TopLeft:     s(q.TopLeft),
		TopRight:    s(q.TopRight),
		BottomLeft:  s(q.BottomLeft),
		BottomRight: s(q.BottomRight),
	}
}

// Translate shifts every corner by dx, dy.
func (q Quadrilateral) Translate(dx, dy float64) Quadrilateral {
	t := func(p Point2D) Point2D { return Point2D{X: p.X + dx, Y: p.Y + dy} }
	return Quadrilateral{
		TopLeft:     t(q.TopLeft),
		TopRight:    t(q.TopRight),
		BottomLeft:  t(q.BottomLeft),
		BottomRight: t(q.BottomRight),
	}
}

func (q Quadrilateral) String() string {
	return fmt.Sprintf("TL(%.1f,%.1f) TR(%.1f,%.1f) BL(%.1f,%.1f) BR(%.1f,%.1f)",
		q.TopLeft.X, q.TopLeft.Y, q.TopRight.X, q.TopRight.Y,
		q.BottomLeft.X, q.BottomLeft.Y, q.BottomRight.X, q.BottomRight.Y)
}
