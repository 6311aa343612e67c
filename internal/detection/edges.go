package detection

import (
	"image"
	"math"
)

// Canny thresholds on the 0-255 gradient scale.
const (
	cannyLow  = 40
	cannyHigh = 100
)

// plane is a row-major float image. Reads outside it replicate the border.
type plane struct {
	w, h int
	v    []float64
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, v: make([]float64, w*h)}
}

func (p *plane) at(x, y int) float64 {
	return p.v[clamp(y, 0, p.h-1)*p.w+clamp(x, 0, p.w-1)]
}

// mask is a row-major binary image.
type mask struct {
	w, h int
	bits []bool
}

func newMask(w, h int) *mask {
	return &mask{w: w, h: h, bits: make([]bool, w*h)}
}

func (m *mask) on(x, y int) bool { return m.bits[y*m.w+x] }
func (m *mask) set(x, y int) { m.bits[y*m.w+x] = true }

// gaussian5 smooths with sigma ~1.4; its weights sum to 273.
var gaussian5 = [5][5]float64{
	{1, 4, 7, 4, 1},
	{4, 16, 26, 16, 4},
	{7, 26, 41, 26, 7},
	{4, 16, 26, 16, 4},
	{1, 4, 7, 4, 1},
}

// sectorNeighbours are the two pixels compared during non-maximum
// suppression, per quantised gradient direction.
var sectorNeighbours = [4][2]image.Point{
	{{X: -1, Y: 0}, {X: 1, Y: 0}},  // horizontal gradient
	{{X: 1, Y: -1}, {X: -1, Y: 1}}, // 45 degrees
	{{X: 0, Y: -1}, {X: 0, Y: 1}},  // vertical gradient
	{{X: -1, Y: -1}, {X: 1, Y: 1}}, // 135 degrees
}

// cannyEdges returns the Canny edge mask of img, indexed relative to
// img.Bounds().Min. Thresholds are on the 0-255 scale.
func cannyEdges(img image.Image, thresholdLow, thresholdHigh int) *mask {
	smoothed := convolve5(luminance(img), &gaussian5, 273)
	mag, dir := sobel(smoothed)
	return hysteresis(suppress(mag, dir), float64(thresholdLow)/255, float64(thresholdHigh)/255)
}

// luminance converts img to ITU-R BT.601 luma in [0, 1].
func luminance(img image.Image) *plane {
	b := img.Bounds()
	p := newPlane(b.Dx(), b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			p.v[i] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 0xffff
			i++
		}
	}
	return p
}

func convolve5(src *plane, k *[5][5]float64, norm float64) *plane {
	out := newPlane(src.w, src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			var sum float64
			for ky := 0; ky < 5; ky++ {
				for kx := 0; kx < 5; kx++ {
					sum += src.at(x+kx-2, y+ky-2) * k[ky][kx]
				}
			}
			out.v[y*src.w+x] = sum / norm
		}
	}
	return out
}

// sobel returns the gradient magnitude and its direction quantised to an
// index into sectorNeighbours.
func sobel(p *plane) (*plane, []uint8) {
	mag := newPlane(p.w, p.h)
	dir := make([]uint8, p.w*p.h)
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			gx := p.at(x+1, y-1) + 2*p.at(x+1, y) + p.at(x+1, y+1) -
				p.at(x-1, y-1) - 2*p.at(x-1, y) - p.at(x-1, y+1)
			gy := p.at(x-1, y+1) + 2*p.at(x, y+1) + p.at(x+1, y+1) -
				p.at(x-1, y-1) - 2*p.at(x, y-1) - p.at(x+1, y-1)

			i := y*p.w + x
			mag.v[i] = math.Hypot(gx, gy)
			dir[i] = sector(gx, gy)
		}
	}
	return mag, dir
}

// sector folds the gradient angle into [0, pi) and splits it into four
// 45 degree bins centred on 0, 45, 90 and 135 degrees.
func sector(gx, gy float64) uint8 {
	a := math.Atan2(gy, gx)
	if a < 0 {
		a += math.Pi
	}
	switch {
	case a < math.Pi/8 || a >= 7*math.Pi/8:
		return 0
	case a < 3*math.Pi/8:
		return 1
	case a < 5*math.Pi/8:
		return 2
	default:
		return 3
	}
}

// suppress keeps only pixels at least as strong as both neighbours along the
// gradient. The one-pixel border is cleared.
func suppress(mag *plane, dir []uint8) *plane {
	out := newPlane(mag.w, mag.h)
	for y := 1; y < mag.h-1; y++ {
		for x := 1; x < mag.w-1; x++ {
			i := y*mag.w + x
			n := sectorNeighbours[dir[i]]
			m := mag.v[i]
			if m >= mag.at(x+n[0].X, y+n[0].Y) && m >= mag.at(x+n[1].X, y+n[1].Y) {
				out.v[i] = m
			}
		}
	}
	return out
}

// hysteresis marks strong pixels and weak pixels touching a strong one.
func hysteresis(p *plane, low, high float64) *mask {
	m := newMask(p.w, p.h)
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			v := p.v[y*p.w+x]
			if v >= high || (v >= low && strongNeighbour(p, x, y, high)) {
				m.set(x, y)
			}
		}
	}
	return m
}

func strongNeighbour(p *plane, x, y int, high float64) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if p.at(x+dx, y+dy) >= high {
				return true
			}
		}
	}
	return false
}

// dilate grows every set pixel into its 3x3 neighbourhood, closing the
// one- and two-pixel gaps suppression leaves at sharp corners.
func (m *mask) dilate() *mask {
	out := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if !m.on(x, y) {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					out.set(clamp(x+dx, 0, m.w-1), clamp(y+dy, 0, m.h-1))
				}
			}
		}
	}
	return out
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
