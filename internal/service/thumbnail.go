package service

import (
	"bytes"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/net/context"
)

// Thumbnailer renders preview images. Generation is enhancement, not
// correctness: the upload orchestrator never fails an upload over it.
type Thumbnailer interface {
	Supports(mimeType string) bool
	Generate(ctx context.Context, r io.Reader, maxWidth, maxHeight, quality int) (io.Reader, int64, error)
}

// ImageThumbnailer decodes raster images and re-encodes a bounded JPEG
// preview preserving aspect ratio.
type ImageThumbnailer struct{}

var thumbnailMimes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

// Supports reports whether a MIME type can be thumbnailed.
func (ImageThumbnailer) Supports(mimeType string) bool {
	return thumbnailMimes[strings.ToLower(strings.TrimSpace(mimeType))]
}

// Generate decodes the stream and returns an encoded JPEG preview that
// fits within maxWidth x maxHeight.
func (ImageThumbnailer) Generate(ctx context.Context, r io.Reader, maxWidth, maxHeight, quality int) (io.Reader, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, err
	}
	if maxWidth <= 0 {
		maxWidth = 256
	}
	if maxHeight <= 0 {
		maxHeight = 256
	}
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	thumb := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, 0, err
	}
	return &buf, int64(buf.Len()), nil
}
