package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageCache provides thread-safe caching of decoded photos keyed by path.
//
// Once a photo is loaded, subsequent Load() calls for the same path return the
// cached copy, including any HSV planes it has already derived.
//
// Cached photos remain in memory until removed via Evict() or Clear(). Batch
// jobs over whole datasets should evict each photo once its record is stored.
type ImageCache struct {
	mu     sync.RWMutex
	photos map[string]*Photo
}

// NewImageCache creates and initializes a new empty photo cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		photos: make(map[string]*Photo),
	}
}

// Load retrieves a photo from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. The photo is
// cached under the exact path string given.
func (c *ImageCache) Load(path string) (*Photo, error) {
	c.mu.RLock()
	if p, ok := c.photos[path]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	p, err := LoadPhoto(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.photos[path] = p
	c.mu.Unlock()

	return p, nil
}

// Clear removes all photos from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.photos = make(map[string]*Photo)
	c.mu.Unlock()
}

// Evict removes a specific photo from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.photos, path)
	c.mu.Unlock()
}

// Len returns the number of cached photos.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.photos)
}

// LoadPhoto decodes the file at path without caching it.
func LoadPhoto(path string) (*Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return NewPhoto(img), nil
}

// IsPhotoFile reports whether path has an extension the loader can decode.
func IsPhotoFile(path string) bool {
	return formatFromExt(path) != "unknown"
}

// ImageInfo contains metadata about a photo file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is derived from the file extension: "png", "jpeg", "gif",
	// "bmp", "tiff", "webp" or "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads a photo through the cache and reports its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	p, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:         p.Width(),
		Height:        p.Height(),
		Format:        formatFromExt(path),
		FileSizeBytes: stat.Size(),
	}, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	}
	return "unknown"
}
