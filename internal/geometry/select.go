package geometry

// SelectBest picks the candidate judged biggest among wide quadrilaterals.
//
// The first candidate is the default winner. A later candidate replaces the
// current winner only when its Score is strictly greater than the best score
// accepted so far (starting at 0) and it passes the aspect gate
// (Height < Width/2). Equal scores never replace; the first one seen stays.
//
// Returns false only for an empty input. The slice is read, never modified.
func SelectBest(candidates []Quadrilateral) (Quadrilateral, bool) {
	i := SelectBestIndex(candidates)
	if i < 0 {
		return Quadrilateral{}, false
	}
	return candidates[i], true
}

// SelectBestIndex applies the SelectBest rule and returns the winner's
// position in candidates, or -1 when candidates is empty.
func SelectBestIndex(candidates []Quadrilateral) int {
	if len(candidates) == 0 {
		return -1
	}

	best := 0
	var bestScore float64
	for i := range candidates {
		c := &candidates[i]
		width := c.Width()
		height := c.Height()
		score := width + height
		if score > bestScore && height < width/2 {
			best = i
			bestScore = score
		}
	}
	return best
}
