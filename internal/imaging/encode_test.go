package imaging

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestEncodePNG(t *testing.T) {
	img := createSplitImage(40, 20, color.Black, color.White)

	enc, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if enc.Width != 40 || enc.Height != 20 {
		t.Errorf("size: got %dx%d, want 40x20", enc.Width, enc.Height)
	}
	if enc.MimeType != "image/png" {
		t.Errorf("MimeType: got %s", enc.MimeType)
	}

	back, err := DecodePNG(enc)
	if err != nil {
		t.Fatalf("DecodePNG failed: %v", err)
	}
	if r, _, _, _ := rgba8(back.At(35, 10)); r != 255 {
		t.Errorf("right half should stay white, got r=%d", r)
	}
}

func TestEncodePNG_Empty(t *testing.T) {
	if _, err := EncodePNG(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("nil image: got %v, want ErrEmptyImage", err)
	}
	if _, err := EncodePNG(image.NewRGBA(image.Rectangle{})); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty image: got %v, want ErrEmptyImage", err)
	}
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	img := createInMemoryImage(30, 10, color.RGBA{R: 200, A: 255})

	for _, name := range []string{"out.png", "out.jpg"} {
		path := filepath.Join(dir, name)
		if err := SaveImage(img, path); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", name, err)
		}

		info, err := LoadImageInfo(NewImageCache(), path)
		if err != nil {
			t.Fatalf("reload %s: %v", name, err)
		}
		if info.Width != 30 || info.Height != 10 {
			t.Errorf("%s: got %dx%d, want 30x10", name, info.Width, info.Height)
		}
	}
}

func TestSaveImage_Errors(t *testing.T) {
	dir := t.TempDir()
	img := createInMemoryImage(5, 5, color.White)

	if err := SaveImage(img, filepath.Join(dir, "out.xyz")); err == nil {
		t.Error("unknown extension should fail")
	}
	if err := SaveImage(nil, filepath.Join(dir, "out.png")); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("nil image: got %v, want ErrEmptyImage", err)
	}
	if err := SaveImage(img, filepath.Join(dir, "missing", "out.png")); err == nil {
		t.Error("missing directory should fail")
	}
}
