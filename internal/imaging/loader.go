package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ImageCache keeps decoded photographs keyed by the path they were loaded from.
//
// Photos straight off a phone camera usually carry an EXIF orientation tag, so
// images are decoded with auto-orientation applied: the cached image is always
// upright and corner coordinates reported against it match what a viewer shows.
//
// ImageCache is safe for concurrent use.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache returns an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load returns the cached image for path, decoding it from disk on first use.
//
// Parameters:
//   - path: file path of a PNG, JPEG, GIF, BMP or TIFF image
//
// Returns:
//   - image.Image: the decoded image with EXIF orientation applied
//
// The path string is the cache key as given; two spellings of the same file
// are two entries.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a supported image format
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len reports how many images are cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Evict drops path from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Clear drops every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// ImageInfo describes a loaded photograph.
type ImageInfo struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	Orientation   string `json:"orientation"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// LoadImageInfo loads path through cache and reports its dimensions, format
// (from the file extension) and whether it is landscape, portrait or square.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	} else if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		format = strings.ToLower(ext)
	}

	b := img.Bounds()
	orientation := "square"
	switch {
	case b.Dx() > b.Dy():
		orientation = "landscape"
	case b.Dx() < b.Dy():
		orientation = "portrait"
	}

	return &ImageInfo{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        format,
		Orientation:   orientation,
		FileSizeBytes: stat.Size(),
	}, nil
}
