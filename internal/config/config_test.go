package config

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/photo-prep-mcp/internal/detection"
	"github.com/ironsheep/photo-prep-mcp/internal/logging"
	"github.com/ironsheep/photo-prep-mcp/internal/preprocess"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(mapLookup(nil))
	if err != nil {
		t.Fatalf("FromLookup failed: %v", err)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Errorf("LogLevel: got %v", cfg.LogLevel)
	}
	if cfg.Preprocess != preprocess.DefaultOptions() {
		t.Errorf("Preprocess: got %+v, want defaults", cfg.Preprocess)
	}
}

func TestFromLookup_AllKeys(t *testing.T) {
	cfg, err := FromLookup(mapLookup(map[string]string{
		EnvLogLevel:        "debug",
		EnvAccuracy:        "low",
		EnvAspectRatio:     "1.5",
		EnvMaxFeatures:     "8",
		EnvMinArea:         "0.05",
		EnvTargetSize:      "1280x720",
		EnvBlurRadius:      "3",
		EnvApplyCorrection: "true",
		EnvOCR:             "1",
		EnvOCRLanguage:     "deu",
		EnvTessdata:        "/opt/tessdata",
	}))
	if err != nil {
		t.Fatalf("FromLookup failed: %v", err)
	}

	want := preprocess.Options{
		TargetSize: image.Pt(1280, 720),
		BlurRadius: 3,
		Detection: detection.Config{
			Accuracy:        detection.AccuracyLow,
			AspectRatio:     1.5,
			MaxFeatureCount: 8,
			MinAreaFraction: 0.05,
		},
		ApplyCorrection: true,
		RecognizeText:   true,
		Language:        "deu",
	}
	if cfg.Preprocess != want {
		t.Errorf("Preprocess:\n got %+v\nwant %+v", cfg.Preprocess, want)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Errorf("LogLevel: got %v", cfg.LogLevel)
	}
	if cfg.TessdataPrefix != "/opt/tessdata" {
		t.Errorf("TessdataPrefix: got %q", cfg.TessdataPrefix)
	}
}

func TestFromLookup_EmptyValuesKeepDefaults(t *testing.T) {
	cfg, err := FromLookup(mapLookup(map[string]string{
		EnvMaxFeatures: "",
		EnvBlurRadius:  "  ",
	}))
	if err != nil {
		t.Fatalf("FromLookup failed: %v", err)
	}
	if cfg.Preprocess != preprocess.DefaultOptions() {
		t.Errorf("empty values should keep defaults, got %+v", cfg.Preprocess)
	}
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvLogLevel, "loud"},
		{EnvAccuracy, "medium"},
		{EnvAspectRatio, "wide"},
		{EnvAspectRatio, "-1"},
		{EnvMaxFeatures, "2.5"},
		{EnvMaxFeatures, "-3"},
		{EnvMinArea, "1.5"},
		{EnvTargetSize, "0x100"},
		{EnvTargetSize, "big"},
		{EnvBlurRadius, "-2"},
		{EnvBlurRadius, "NaN"},
		{EnvBlurRadius, "+Inf"},
		{EnvBlurRadius, "1e9"},
		{EnvAspectRatio, "NaN"},
		{EnvAspectRatio, "Inf"},
		{EnvMinArea, "nan"},
		{EnvMinArea, "-inf"},
		{EnvApplyCorrection, "sometimes"},
		{EnvOCR, "yes please"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			if _, err := FromLookup(mapLookup(map[string]string{tt.key: tt.value})); err == nil {
				t.Errorf("%s=%q should be rejected", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "PHOTO_PREP_MAX_FEATURES=3\nPHOTO_PREP_BLUR_RADIUS=2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	// The process environment wins over the file.
	t.Setenv(EnvBlurRadius, "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Preprocess.Detection.MaxFeatureCount != 3 {
		t.Errorf("MaxFeatureCount from file: got %d, want 3", cfg.Preprocess.Detection.MaxFeatureCount)
	}
	if cfg.Preprocess.BlurRadius != 7 {
		t.Errorf("BlurRadius: got %v, want 7 from the environment", cfg.Preprocess.BlurRadius)
	}
	if _, set := os.LookupEnv(EnvMaxFeatures); set {
		t.Error("Load should not export file variables into the process environment")
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    image.Point
		wantErr bool
	}{
		{"1024x768", image.Pt(1024, 768), false},
		{"800X600", image.Pt(800, 600), false},
		{"512", image.Pt(512, 512), false},
		{" 640 x 480 ", image.Pt(640, 480), false},
		{"1x2x3", image.Point{}, true},
		{"-5x10", image.Point{}, true},
		{"", image.Point{}, true},
	}

	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
