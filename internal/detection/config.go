package detection

import (
	"fmt"
	"math"
	"strings"
)

// Accuracy trades detection speed for precision.
type Accuracy int

const (
	// AccuracyHigh runs on the full-resolution image.
	AccuracyHigh Accuracy = iota
	// AccuracyLow runs on a thumbnail and maps corners back.
	AccuracyLow
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyHigh:
		return "high"
	case AccuracyLow:
		return "low"
	default:
		return fmt.Sprintf("Accuracy(%d)", int(a))
	}
}

// ParseAccuracy accepts "high" or "low" (case-insensitive). An empty string
// means high.
func ParseAccuracy(s string) (Accuracy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "high":
		return AccuracyHigh, nil
	case "low":
		return AccuracyLow, nil
	default:
		return 0, fmt.Errorf("unknown detector accuracy %q (want high or low)", s)
	}
}

// Config parameterises a rectangle detection run.
type Config struct {
	// Accuracy selects full-resolution or thumbnail detection.
	Accuracy Accuracy `json:"accuracy"`

	// AspectRatio is the expected long-side/short-side ratio. Candidates
	// closer to it rank higher. Zero disables the preference.
	AspectRatio float64 `json:"aspect_ratio"`

	// MaxFeatureCount caps the number of candidates returned. Zero means no cap.
	MaxFeatureCount int `json:"max_feature_count"`

	// MinAreaFraction drops candidates smaller than this fraction of the image.
	MinAreaFraction float64 `json:"min_area_fraction"`
}

const (
	defaultAspectRatio     = 1.667
	defaultMaxFeatureCount = 5
	defaultMinAreaFraction = 0.01

	// lowAccuracyMaxSide is the thumbnail size used for AccuracyLow.
	lowAccuracyMaxSide = 512
)

// DefaultConfig is high accuracy, aspect ratio 1.667 and at most five features.
func DefaultConfig() Config {
	return Config{
		Accuracy:        AccuracyHigh,
		AspectRatio:     defaultAspectRatio,
		MaxFeatureCount: defaultMaxFeatureCount,
		MinAreaFraction: defaultMinAreaFraction,
	}
}

// Validate rejects negative or out-of-range settings.
func (c Config) Validate() error {
	if c.Accuracy != AccuracyHigh && c.Accuracy != AccuracyLow {
		return fmt.Errorf("invalid accuracy %v", c.Accuracy)
	}
	if !finite(c.AspectRatio) || c.AspectRatio < 0 {
		return fmt.Errorf("aspect ratio must be a finite value >= 0, got %v", c.AspectRatio)
	}
	if c.MaxFeatureCount < 0 {
		return fmt.Errorf("max feature count must be >= 0, got %d", c.MaxFeatureCount)
	}
	if !finite(c.MinAreaFraction) || c.MinAreaFraction < 0 || c.MinAreaFraction >= 1 {
		return fmt.Errorf("min area fraction must be in [0, 1), got %v", c.MinAreaFraction)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
