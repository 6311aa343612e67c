package geometry

import (
	"sync"
	"testing"
)

// rectQuad builds an axis-aligned quad with the given top-left corner and size.
func rectQuad(x, y, w, h float64) Quadrilateral {
	return Quadrilateral{
		TopLeft:     Pt(x, y),
		TopRight:    Pt(x+w, y),
		BottomLeft:  Pt(x, y+h),
		BottomRight: Pt(x+w, y+h),
	}
}

func TestSelectBest_Empty(t *testing.T) {
	q, ok := SelectBest(nil)
	if ok {
		t.Errorf("SelectBest(nil) returned ok with %v", q)
	}

	if _, ok := SelectBest([]Quadrilateral{}); ok {
		t.Error("SelectBest([]) should return false")
	}

	if i := SelectBestIndex(nil); i != -1 {
		t.Errorf("SelectBestIndex(nil): got %d, want -1", i)
	}
}

func TestSelectBest_SingleCandidate(t *testing.T) {
	tests := []struct {
		name string
		q    Quadrilateral
	}{
		{"wide", rectQuad(0, 0, 100, 20)},
		{"square", rectQuad(10, 10, 50, 50)},
		{"tall", rectQuad(0, 0, 20, 200)},
		{"degenerate", Quadrilateral{}},
		{"skewed", Quadrilateral{Pt(3, 7), Pt(90, 2), Pt(-4, 60), Pt(120, 80)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBest([]Quadrilateral{tt.q})
			if !ok {
				t.Fatal("SelectBest returned false for a non-empty input")
			}
			if got != tt.q {
				t.Errorf("got %v, want %v", got, tt.q)
			}
		})
	}
}

func TestSelectBest_AspectGateRejectsTallerCandidate(t *testing.T) {
	a := rectQuad(0, 0, 100, 40) // score 140, passes
	b := rectQuad(0, 0, 100, 60) // score 160, fails

	got, _ := SelectBest([]Quadrilateral{b, a})
	if got != a {
		t.Errorf("[B, A]: got %v, want A %v", got, a)
	}

	got, _ = SelectBest([]Quadrilateral{a, b})
	if got != a {
		t.Errorf("[A, B]: got %v, want A %v", got, a)
	}
}

func TestSelectBest_HigherScoreWins(t *testing.T) {
	small := rectQuad(0, 0, 80, 20)  // score 100
	large := rectQuad(5, 5, 110, 40) // score 150

	if !small.PassesAspectGate() || !large.PassesAspectGate() {
		t.Fatal("test quads must both pass the aspect gate")
	}

	for _, order := range [][]Quadrilateral{{small, large}, {large, small}} {
		got, _ := SelectBest(order)
		if got != large {
			t.Errorf("order %v: got %v, want %v", order, got, large)
		}
	}
}

func TestSelectBest_TieKeepsFirst(t *testing.T) {
	first := rectQuad(0, 0, 100, 40)
	second := rectQuad(200, 200, 100, 40)

	if i := SelectBestIndex([]Quadrilateral{first, second}); i != 0 {
		t.Errorf("got index %d, want 0", i)
	}
}

func TestSelectBest_HalfHeightFailsGate(t *testing.T) {
	exact := rectQuad(0, 0, 100, 50)
	if exact.PassesAspectGate() {
		t.Fatal("height == width/2 must fail the gate")
	}

	wide := rectQuad(0, 0, 60, 10) // score 70, smaller than exact's 150

	if i := SelectBestIndex([]Quadrilateral{wide, exact}); i != 0 {
		t.Errorf("exact half-height replaced a gated winner: index %d", i)
	}

	// As the first element it is still the default winner.
	if i := SelectBestIndex([]Quadrilateral{exact}); i != 0 {
		t.Errorf("single exact candidate: got index %d, want 0", i)
	}
	if i := SelectBestIndex([]Quadrilateral{exact, rectQuad(0, 0, 40, 40)}); i != 0 {
		t.Errorf("no qualifying candidate: got index %d, want default 0", i)
	}
}

func TestSelectBest_DefaultReplacedByAnyQualifier(t *testing.T) {
	// The default first element never sets bestScore, so any qualifying
	// candidate replaces it even with a smaller score.
	bigSquare := rectQuad(0, 0, 500, 500)
	smallWide := rectQuad(0, 0, 30, 5)

	if i := SelectBestIndex([]Quadrilateral{bigSquare, smallWide}); i != 1 {
		t.Errorf("got index %d, want 1", i)
	}
}

func TestSelectBest_UsesOnlyTopAndLeftEdges(t *testing.T) {
	// Both quads share top and left edges; b has a far longer bottom/right.
	a := Quadrilateral{Pt(0, 0), Pt(100, 0), Pt(0, 30), Pt(100, 30)}
	b := Quadrilateral{Pt(0, 0), Pt(100, 0), Pt(0, 30), Pt(900, 700)}

	if a.Score() != b.Score() {
		t.Fatalf("scores differ: %v vs %v", a.Score(), b.Score())
	}
	if i := SelectBestIndex([]Quadrilateral{a, b}); i != 0 {
		t.Errorf("got index %d, want 0", i)
	}
}

func TestSelectBest_DoesNotModifyInput(t *testing.T) {
	in := []Quadrilateral{rectQuad(0, 0, 10, 10), rectQuad(0, 0, 100, 20)}
	snapshot := append([]Quadrilateral(nil), in...)

	SelectBest(in)

	for i := range in {
		if in[i] != snapshot[i] {
			t.Errorf("candidate %d modified: %v -> %v", i, snapshot[i], in[i])
		}
	}
}

func TestSelectBest_Concurrent(t *testing.T) {
	in := []Quadrilateral{
		rectQuad(0, 0, 10, 10),
		rectQuad(0, 0, 100, 20),
		rectQuad(0, 0, 200, 90),
		rectQuad(0, 0, 150, 80),
	}

	var wg sync.WaitGroup
	for n := 0; n < 16; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i := SelectBestIndex(in); i != 2 {
				t.Errorf("got index %d, want 2", i)
			}
		}()
	}
	wg.Wait()
}

func TestQuadrilateral_Measurements(t *testing.T) {
	q := Quadrilateral{Pt(0, 0), Pt(3, 4), Pt(0, 10), Pt(3, 14)}

	if w := q.Width(); w != 5 {
		t.Errorf("Width: got %v, want 5", w)
	}
	if h := q.Height(); h != 10 {
		t.Errorf("Height: got %v, want 10", h)
	}
	if s := q.Score(); s != 15 {
		t.Errorf("Score: got %v, want 15", s)
	}
	if a := q.Area(); a != 30 {
		t.Errorf("Area: got %v, want 30", a)
	}
}

func TestQuadrilateral_Bounds(t *testing.T) {
	q := Quadrilateral{Pt(10.2, 5.7), Pt(90.5, 3.1), Pt(8.9, 40), Pt(95, 44.5)}
	b := q.Bounds()

	if b.Min.X != 8 || b.Min.Y != 3 || b.Max.X != 95 || b.Max.Y != 45 {
		t.Errorf("Bounds: got %v, want (8,3)-(95,45)", b)
	}
}

func TestQuadrilateral_ScaleTranslate(t *testing.T) {
	q := rectQuad(10, 20, 30, 40).Scale(2, 0.5).Translate(1, -1)
	want := rectQuad(21, 9, 60, 20)
	if q != want {
		t.Errorf("got %v, want %v", q, want)
	}
}
