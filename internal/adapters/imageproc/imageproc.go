// Package imageproc verifies uploaded images and shrinks oversized ones before they are stored.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"path"
	"strings"

	"github.com/disintegration/imaging"

	"devevents/internal/domain"
)

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// DefaultMaxPixels bounds the declared size of an upload when Processor.MaxPixels is zero.
const DefaultMaxPixels = 40_000_000

// Processor prepares uploads. Images wider than MaxWidth are resized to MaxWidth,
// keeping the aspect ratio; a zero MaxWidth disables resizing. Images declaring more
// than MaxPixels pixels are rejected before any pixel data is decoded.
type Processor struct {
	MaxWidth  int
	MaxPixels int
}

var _ domain.ImageProcessor = (*Processor)(nil)

// Prepare decodes data, resizing it if needed. The filename extension is replaced
// by the detected format.
func (p *Processor) Prepare(filename string, data []byte) (*domain.PreparedImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage
	}
	contentType, ok := contentTypes[format]
	if !ok {
		return nil, domain.ErrInvalidImage
	}
	if !p.withinPixelLimit(cfg.Width, cfg.Height) {
		return nil, domain.ErrInvalidImage
	}
	out := &domain.PreparedImage{
		Data:        data,
		Filename:    withExt(filename, format),
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}
	if p.MaxWidth <= 0 || cfg.Width <= p.MaxWidth {
		return out, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.ErrInvalidImage
	}
	resized := imaging.Resize(img, p.MaxWidth, 0, imaging.Lanczos)
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, fmt.Errorf("image format %s: %w", format, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, f, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	b := resized.Bounds()
	out.Data = buf.Bytes()
	out.Width = b.Dx()
	out.Height = b.Dy()
	return out, nil
}

func (p *Processor) withinPixelLimit(w, h int) bool {
	limit := p.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if w <= 0 || h <= 0 {
		return false
	}
	// Divide rather than multiply so forged dimensions cannot overflow.
	return w <= limit/h
}

func withExt(filename, format string) string {
	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	return base + ext
}
