package studio

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	defaultPreviewSize    = 256
	defaultPreviewQuality = 80
)

// ThumbnailMinter implements PreviewMinter by writing a scaled JPEG thumbnail
// per item into dir. The returned handle is the thumbnail path; Revoke deletes
// the file. Handles are owned by their stash items and revoked exactly once.
type ThumbnailMinter struct {
	Dir     string
	MaxSize int
	Quality int
}

// NewThumbnailMinter returns a minter writing previews under dir, creating it
// if needed.
func NewThumbnailMinter(dir string) (*ThumbnailMinter, error) {
	if dir == "" {
		return nil, errors.New("preview directory is required")
	}
	// #nosec G301 -- preview files are user-visible artifacts
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create preview directory: %w", err)
	}
	return &ThumbnailMinter{Dir: dir, MaxSize: defaultPreviewSize, Quality: defaultPreviewQuality}, nil
}

// Mint decodes f, scales it down to fit MaxSize, and writes the thumbnail.
func (m *ThumbnailMinter) Mint(f File) (string, error) {
	src, err := os.Open(f.Path)
	if err != nil {
		return "", err
	}
	defer src.Close() // nolint:errcheck // best-effort cleanup

	srcImg, _, err := image.Decode(src)
	if err != nil {
		return "", err
	}

	bounds := srcImg.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return "", errors.New("invalid image dimensions")
	}

	maxSize := m.MaxSize
	if maxSize <= 0 {
		maxSize = defaultPreviewSize
	}

	longest := width
	if height > longest {
		longest = height
	}
	scale := float64(maxSize) / float64(longest)
	if scale > 1 {
		scale = 1
	}
	newW := int(float64(width) * scale)
	newH := int(float64(height) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), srcImg, bounds, draw.Over, nil)

	handle := filepath.Join(m.Dir, uuid.New().String()+".preview.jpg")
	out, err := os.Create(handle)
	if err != nil {
		return "", err
	}
	defer out.Close() // nolint:errcheck // best-effort cleanup

	quality := m.Quality
	if quality < 1 || quality > 100 {
		quality = defaultPreviewQuality
	}
	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: quality}); err != nil {
		_ = os.Remove(handle)
		return "", err
	}

	return handle, nil
}

// Revoke deletes the thumbnail behind handle. Revoking an already-removed
// handle is harmless.
func (m *ThumbnailMinter) Revoke(handle string) {
	if handle == "" {
		return
	}
	_ = os.Remove(handle)
}
