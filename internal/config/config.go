// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ironsheep/photo-prep-mcp/internal/detection"
	"github.com/ironsheep/photo-prep-mcp/internal/logging"
	"github.com/ironsheep/photo-prep-mcp/internal/preprocess"
)

// Environment variable names.
const (
	EnvLogLevel        = "PHOTO_PREP_LOG_LEVEL"
	EnvAccuracy        = "PHOTO_PREP_ACCURACY"
	EnvAspectRatio     = "PHOTO_PREP_ASPECT_RATIO"
	EnvMaxFeatures     = "PHOTO_PREP_MAX_FEATURES"
	EnvMinArea         = "PHOTO_PREP_MIN_AREA"
	EnvTargetSize      = "PHOTO_PREP_TARGET_SIZE"
	EnvBlurRadius      = "PHOTO_PREP_BLUR_RADIUS"
	EnvApplyCorrection = "PHOTO_PREP_APPLY_CORRECTION"
	EnvOCR             = "PHOTO_PREP_OCR"
	EnvOCRLanguage     = "PHOTO_PREP_OCR_LANGUAGE"
	EnvTessdata        = "PHOTO_PREP_TESSDATA"
)

// DefaultEnvFile is read by Load when present.
const DefaultEnvFile = ".env"

// Config holds server configuration
type Config struct {
	LogLevel logging.Level

	// Pipeline defaults; tool calls may override them per request.
	Preprocess preprocess.Options

	// TessdataPrefix points Tesseract at a language data directory.
	TessdataPrefix string
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		LogLevel:   logging.LevelInfo,
		Preprocess: preprocess.DefaultOptions(),
	}
}

// Load reads envFile (if it exists) and then the process environment, which
// takes precedence. A missing envFile is not an error; a malformed one is.
func Load(envFile string) (*Config, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

// FromLookup builds a Config from lookup, starting from Default. Unset or
// empty variables keep their defaults; unparsable ones are errors.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvLogLevel); ok {
		level, err := logging.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	det := &cfg.Preprocess.Detection
	if v, ok := get(EnvAccuracy); ok {
		acc, err := detection.ParseAccuracy(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvAccuracy, err)
		}
		det.Accuracy = acc
	}
	if err := parseFloat(get, EnvAspectRatio, &det.AspectRatio); err != nil {
		return nil, err
	}
	if err := parseInt(get, EnvMaxFeatures, &det.MaxFeatureCount); err != nil {
		return nil, err
	}
	if err := parseFloat(get, EnvMinArea, &det.MinAreaFraction); err != nil {
		return nil, err
	}

	if v, ok := get(EnvTargetSize); ok {
		size, err := ParseSize(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTargetSize, err)
		}
		cfg.Preprocess.TargetSize = size
	}
	if err := parseFloat(get, EnvBlurRadius, &cfg.Preprocess.BlurRadius); err != nil {
		return nil, err
	}
	if err := parseBool(get, EnvApplyCorrection, &cfg.Preprocess.ApplyCorrection); err != nil {
		return nil, err
	}
	if err := parseBool(get, EnvOCR, &cfg.Preprocess.RecognizeText); err != nil {
		return nil, err
	}
	if v, ok := get(EnvOCRLanguage); ok {
		cfg.Preprocess.Language = v
	}
	if v, ok := get(EnvTessdata); ok {
		cfg.TessdataPrefix = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	return c.Preprocess.Validate()
}

// ParseSize accepts "WxH" or a single number meaning a square.
func ParseSize(s string) (image.Point, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return image.Point{}, fmt.Errorf("invalid size %q, want WxH", s)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return image.Point{}, fmt.Errorf("invalid size %q, want positive WxH", s)
	}
	return image.Pt(w, h), nil
}

func parseFloat(get func(string) (string, bool), key string, dst *float64) error {
	v, ok := get(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%s: invalid number %q", key, v)
	}
	*dst = f
	return nil
}

func parseInt(get func(string) (string, bool), key string, dst *int) error {
	v, ok := get(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func parseBool(get func(string) (string, bool), key string, dst *bool) error {
	v, ok := get(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	*dst = b
	return nil
}
