package detection

import (
	"image"
	"sort"

	"github.com/ironsheep/photo-prep-mcp/internal/geometry"
)

// minContourPixels drops specks before hull construction.
const minContourPixels = 10

// findContours groups edge pixels into 8-connected components.
func findContours(edges *mask) [][]image.Point {
	visited := make([]bool, len(edges.bits))

	contours := make([][]image.Point, 0)
	for y := 0; y < edges.h; y++ {
		for x := 0; x < edges.w; x++ {
			if edges.on(x, y) && !visited[y*edges.w+x] {
				contour := floodFill(edges, visited, x, y)
				if len(contour) >= minContourPixels {
					contours = append(contours, contour)
				}
			}
		}
	}
	return contours
}

// floodFill collects the component containing (startX, startY) using an
// explicit stack, so large components cannot overflow the goroutine stack.
func floodFill(edges *mask, visited []bool, startX, startY int) []image.Point {
	var contour []image.Point
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= edges.w || p.Y < 0 || p.Y >= edges.h {
			continue
		}
		i := p.Y*edges.w + p.X
		if visited[i] || !edges.bits[i] {
			continue
		}

		visited[i] = true
		contour = append(contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx != 0 || dy != 0 {
					stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
				}
			}
		}
	}
	return contour
}

// convexHull returns the hull of pts in counter-clockwise order (Andrew's
// monotone chain). pts is reordered in place.
func convexHull(pts []image.Point) []image.Point {
	if len(pts) < 3 {
		return pts
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make([]image.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func cross(o, a, b image.Point) int {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// polygonArea is the shoelace area of a closed polygon.
func polygonArea(poly []image.Point) float64 {
	var sum int
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	if sum < 0 {
		sum = -sum
	}
	return float64(sum) / 2
}

// extremeCorners picks the four corners of a roughly rectangular hull as the
// points extreme along the two diagonals: top-left minimises x+y,
// bottom-right maximises it, top-right maximises x-y and bottom-left
// minimises it.
func extremeCorners(hull []image.Point) geometry.Quadrilateral {
	tl, tr, bl, br := hull[0], hull[0], hull[0], hull[0]
	for _, p := range hull[1:] {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.X-p.Y > tr.X-tr.Y {
			tr = p
		}
		if p.X-p.Y < bl.X-bl.Y {
			bl = p
		}
	}
	pt := func(p image.Point) geometry.Point2D {
		return geometry.Pt(float64(p.X), float64(p.Y))
	}
	return geometry.Quadrilateral{
		TopLeft:     pt(tl),
		TopRight:    pt(tr),
		BottomLeft:  pt(bl),
		BottomRight: pt(br),
	}
}
