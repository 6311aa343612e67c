package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/photo-prep-mcp/internal/geometry"
)

const (
	defaultOutlineHex   = "#FFD400"
	defaultHighlightHex = "#FF0000"
)

// OverlayStyle controls how DrawQuadrilaterals outlines candidates.
type OverlayStyle struct {
	// OutlineHex colours every candidate, "#RRGGBB" or "#RGB".
	OutlineHex string

	// HighlightHex colours the highlighted candidate.
	HighlightHex string

	// Highlight is the index of the candidate drawn last and thicker, or -1.
	Highlight int
}

// DrawQuadrilaterals returns a copy of img with each candidate outlined.
// Unparseable colours fall back to yellow outlines and a red highlight.
func DrawQuadrilaterals(img image.Image, quads []geometry.Quadrilateral, style OverlayStyle) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	outline := parseHexColor(style.OutlineHex, defaultOutlineHex)
	highlight := parseHexColor(style.HighlightHex, defaultHighlightHex)

	for i, q := range quads {
		if i == style.Highlight {
			continue
		}
		strokeQuad(out, q, outline, 1)
	}
	if style.Highlight >= 0 && style.Highlight < len(quads) {
		strokeQuad(out, quads[style.Highlight], highlight, 3)
	}

	return out
}

func strokeQuad(img *image.RGBA, q geometry.Quadrilateral, c color.RGBA, width int) {
	corners := q.Corners()
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%len(corners)]
		drawLine(img, a, b, c, width)
	}
}

// drawLine rasterises a-b with Bresenham's algorithm, stamping a square of
// side width at every step. The segment is first clipped to the pixels the
// stamp can reach; segments with non-finite endpoints are not drawn.
func drawLine(img *image.RGBA, a, b geometry.Point2D, c color.RGBA, width int) {
	half := width / 2
	a, b, ok := clipSegment(a, b, img.Rect.Inset(-half))
	if !ok {
		return
	}

	x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
	x1, y1 := int(math.Round(b.X)), int(math.Round(b.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		for oy := -half; oy <= half; oy++ {
			for ox := -half; ox <= half; ox++ {
				p := image.Pt(x0+ox, y0+oy)
				if p.In(img.Rect) {
					img.SetRGBA(p.X, p.Y, c)
				}
			}
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// clipSegment clips a-b to the pixel centres of r using Liang-Barsky. It
// reports false when the segment misses r or an endpoint is not finite.
func clipSegment(a, b geometry.Point2D, r image.Rectangle) (geometry.Point2D, geometry.Point2D, bool) {
	if !finitePoint(a) || !finitePoint(b) || r.Empty() {
		return a, b, false
	}

	xmin, ymin := float64(r.Min.X), float64(r.Min.Y)
	xmax, ymax := float64(r.Max.X-1), float64(r.Max.Y-1)
	dx, dy := b.X-a.X, b.Y-a.Y

	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, a.X - xmin},
		{dx, xmax - a.X},
		{-dy, a.Y - ymin},
		{dy, ymax - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return a, b, false
			}
			t1 = math.Min(t1, t)
		}
	}

	// Clamp absorbs rounding when the endpoints are far from r.
	clamp := func(t float64) geometry.Point2D {
		return geometry.Pt(
			math.Min(math.Max(a.X+t*dx, xmin), xmax),
			math.Min(math.Max(a.Y+t*dy, ymin), ymax),
		)
	}
	return clamp(t0), clamp(t1), true
}

// parseHexColor parses hex with go-colorful, falling back to fallback.
func parseHexColor(hex, fallback string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(fallback)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
