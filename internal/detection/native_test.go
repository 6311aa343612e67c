package detection

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/photo-prep-mcp/internal/geometry"
)

// createTestImage creates a solid colour test image.
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillRect paints the half-open rectangle r with c.
func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

// fillDisk paints a filled circle.
func fillDisk(img *image.RGBA, cx, cy, radius int, c color.Color) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, c)
			}
		}
	}
}

// boundsNear reports whether every edge of got is within tol of want.
func boundsNear(got, want image.Rectangle, tol int) bool {
	d := func(a, b int) bool { return math.Abs(float64(a-b)) <= float64(tol) }
	return d(got.Min.X, want.Min.X) && d(got.Min.Y, want.Min.Y) &&
		d(got.Max.X, want.Max.X) && d(got.Max.Y, want.Max.Y)
}

func TestNativeDetector_FilledRectangle(t *testing.T) {
	img := createTestImage(200, 100, color.White)
	card := image.Rect(30, 30, 170, 70)
	fillRect(img, card, color.Black)

	features, err := NewNativeDetector().Detect(img, DefaultConfig())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(features) != 1 {
		t.Fatalf("got %d features, want 1: %+v", len(features), features)
	}

	f := features[0]
	if !boundsNear(f.Quad.Bounds(), card, 4) {
		t.Errorf("bounds: got %v, want near %v", f.Quad.Bounds(), card)
	}
	if f.Confidence <= 0 || f.Confidence > 1 {
		t.Errorf("confidence out of range: %v", f.Confidence)
	}
	if f.Quad.TopLeft.X > f.Quad.TopRight.X || f.Quad.TopLeft.Y > f.Quad.BottomLeft.Y {
		t.Errorf("corners out of order: %v", f.Quad)
	}
}

func TestNativeDetector_RejectsCircle(t *testing.T) {
	img := createTestImage(100, 100, color.White)
	fillDisk(img, 50, 50, 30, color.Black)

	features, err := NewNativeDetector().Detect(img, DefaultConfig())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(features) != 0 {
		t.Errorf("circle should not yield quadrilaterals, got %+v", features)
	}
}

func TestNativeDetector_BlankImage(t *testing.T) {
	features, err := NewNativeDetector().Detect(createTestImage(60, 40, color.White), DefaultConfig())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(features) != 0 {
		t.Errorf("blank image: got %d features", len(features))
	}
}

func TestNativeDetector_MaxFeatureCount(t *testing.T) {
	img := createTestImage(420, 120, color.White)
	for i := 0; i < 7; i++ {
		x := 10 + i*58
		fillRect(img, image.Rect(x, 40, x+38, 80), color.Black)
	}

	cfg := DefaultConfig()
	cfg.MinAreaFraction = 0.001

	features, err := NewNativeDetector().Detect(img, cfg)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(features) != cfg.MaxFeatureCount {
		t.Errorf("got %d features, want %d", len(features), cfg.MaxFeatureCount)
	}

	cfg.MaxFeatureCount = 0
	all, err := NewNativeDetector().Detect(img, cfg)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(all) != 7 {
		t.Errorf("uncapped: got %d features, want 7", len(all))
	}
}

func TestNativeDetector_MinAreaFraction(t *testing.T) {
	img := createTestImage(400, 200, color.White)
	fillRect(img, image.Rect(20, 20, 40, 35), color.Black) // well under 1% of the image

	features, err := NewNativeDetector().Detect(img, DefaultConfig())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(features) != 0 {
		t.Errorf("small rectangle should be filtered, got %+v", features)
	}
}

func TestNativeDetector_PrefersConfiguredAspectRatio(t *testing.T) {
	img := createTestImage(400, 200, color.White)
	card := image.Rect(20, 50, 120, 110)   // 100x60, ratio 1.667
	strip := image.Rect(180, 80, 340, 120) // 160x40, ratio 4
	fillRect(img, card, color.Black)
	fillRect(img, strip, color.Black)

	features, err := NewNativeDetector().Detect(img, DefaultConfig())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("got %d features, want 2", len(features))
	}
	if !boundsNear(features[0].Quad.Bounds(), card, 4) {
		t.Errorf("first feature %v should be the 5:3 card", features[0].Quad.Bounds())
	}
	if features[0].Confidence <= features[1].Confidence {
		t.Errorf("confidences not descending: %v, %v", features[0].Confidence, features[1].Confidence)
	}
}

func TestNativeDetector_LowAccuracyMapsBack(t *testing.T) {
	img := createTestImage(1200, 600, color.White)
	card := image.Rect(200, 150, 1000, 450)
	fillRect(img, card, color.Black)

	cfg := DefaultConfig()
	cfg.Accuracy = AccuracyLow

	features, err := NewNativeDetector().Detect(img, cfg)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(features) == 0 {
		t.Fatal("no features detected")
	}
	if !boundsNear(features[0].Quad.Bounds(), card, 12) {
		t.Errorf("bounds: got %v, want near %v in full-size coordinates", features[0].Quad.Bounds(), card)
	}
}

func TestNativeDetector_OffsetImage(t *testing.T) {
	full := createTestImage(300, 200, color.White)
	fillRect(full, image.Rect(120, 80, 260, 130), color.Black)
	sub := full.SubImage(image.Rect(100, 50, 300, 200))

	features, err := NewNativeDetector().Detect(sub, DefaultConfig())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(features) != 1 {
		t.Fatalf("got %d features, want 1", len(features))
	}
	if !boundsNear(features[0].Quad.Bounds(), image.Rect(120, 80, 260, 130), 4) {
		t.Errorf("corners should be in the sub-image's coordinates, got %v", features[0].Quad.Bounds())
	}
}

func TestNativeDetector_Errors(t *testing.T) {
	d := NewNativeDetector()

	if _, err := d.Detect(nil, DefaultConfig()); err == nil {
		t.Error("nil image should fail")
	}

	cfg := DefaultConfig()
	cfg.MaxFeatureCount = -1
	if _, err := d.Detect(createTestImage(10, 10, color.White), cfg); err == nil {
		t.Error("invalid config should fail")
	}
}

func TestDetectQuadrilaterals(t *testing.T) {
	img := createTestImage(200, 100, color.White)
	fillRect(img, image.Rect(30, 30, 170, 70), color.Black)

	quads, err := DetectQuadrilaterals(NewNativeDetector(), img, DefaultConfig())
	if err != nil {
		t.Fatalf("DetectQuadrilaterals failed: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("got %d quads, want 1", len(quads))
	}

	best, ok := geometry.SelectBest(quads)
	if !ok || best != quads[0] {
		t.Errorf("SelectBest on a single detection should return it")
	}
}

func TestConvexHull(t *testing.T) {
	pts := []image.Point{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {2, 2}, {1, 3}, {2, 0}}
	hull := convexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("hull: got %v, want the 4 square corners", hull)
	}
	if a := polygonArea(hull); a != 16 {
		t.Errorf("hull area: got %v, want 16", a)
	}
}

func TestExtremeCorners(t *testing.T) {
	hull := []image.Point{{10, 12}, {50, 8}, {55, 40}, {8, 44}}
	q := extremeCorners(hull)

	want := geometry.Quadrilateral{
		TopLeft:     geometry.Pt(10, 12),
		TopRight:    geometry.Pt(50, 8),
		BottomLeft:  geometry.Pt(8, 44),
		BottomRight: geometry.Pt(55, 40),
	}
	if q != want {
		t.Errorf("got %v, want %v", q, want)
	}
}

func TestAspectFit(t *testing.T) {
	card := geometry.Quadrilateral{
		TopLeft: geometry.Pt(0, 0), TopRight: geometry.Pt(100, 0),
		BottomLeft: geometry.Pt(0, 60), BottomRight: geometry.Pt(100, 60),
	}
	if f := aspectFit(card, 100.0/60.0); math.Abs(f-1) > 1e-9 {
		t.Errorf("exact ratio: got %v, want 1", f)
	}
	if f := aspectFit(card, 0); f != 1 {
		t.Errorf("disabled: got %v, want 1", f)
	}
	if f := aspectFit(card, 3.333); f > 0.51 || f < 0.49 {
		t.Errorf("half ratio: got %v, want ~0.5", f)
	}
}

func TestParseAccuracy(t *testing.T) {
	tests := []struct {
		in      string
		want    Accuracy
		wantErr bool
	}{
		{"", AccuracyHigh, false},
		{"high", AccuracyHigh, false},
		{"LOW", AccuracyLow, false},
		{"medium", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAccuracy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAccuracy(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseAccuracy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	bad := []Config{
		{Accuracy: Accuracy(9)},
		{AspectRatio: -1},
		{MaxFeatureCount: -2},
		{MinAreaFraction: 1},
	}
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		c := DefaultConfig()
		c.AspectRatio = f
		bad = append(bad, c)

		c = DefaultConfig()
		c.MinAreaFraction = f
		bad = append(bad, c)
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("Validate(%+v) should fail", c)
		}
	}
}

func TestCannyEdges_VerticalStep(t *testing.T) {
	img := createTestImage(20, 10, color.White)
	fillRect(img, image.Rect(0, 0, 10, 10), color.Black)

	edges := cannyEdges(img, cannyLow, cannyHigh)
	if edges.w != 20 || edges.h != 10 {
		t.Fatalf("mask size: got %dx%d, want 20x10", edges.w, edges.h)
	}

	for y := 2; y < 8; y++ {
		if !edges.on(9, y) && !edges.on(10, y) {
			t.Errorf("row %d: no edge at the step", y)
		}
		if edges.on(3, y) || edges.on(16, y) {
			t.Errorf("row %d: edge inside a flat region", y)
		}
	}
}

func TestMaskDilate(t *testing.T) {
	m := newMask(5, 5)
	m.set(0, 0)
	m.set(3, 3)

	d := m.dilate()
	for _, p := range []image.Point{{0, 0}, {1, 1}, {2, 2}, {4, 4}, {4, 2}} {
		if !d.on(p.X, p.Y) {
			t.Errorf("(%d,%d) should be set", p.X, p.Y)
		}
	}
	if d.on(4, 0) || d.on(0, 4) {
		t.Error("dilation spread too far")
	}
}

func TestSector(t *testing.T) {
	tests := []struct {
		gx, gy float64
		want   uint8
	}{
		{1, 0, 0},
		{-1, 0, 0},
		{1, 1, 1},
		{-1, -1, 1},
		{0, 1, 2},
		{0, -1, 2},
		{-1, 1, 3},
		{1, -1, 3},
	}
	for _, tt := range tests {
		if got := sector(tt.gx, tt.gy); got != tt.want {
			t.Errorf("sector(%v, %v) = %d, want %d", tt.gx, tt.gy, got, tt.want)
		}
	}
}
