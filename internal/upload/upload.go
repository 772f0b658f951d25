// Package upload validates images and hands them to an object store.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sakif/report-portal/internal/apperror"
)

// Image is a single uploaded file on its way to the object store.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Extension returns the canonical file extension for the image's sniffed
// content type, without the leading dot.
func (img Image) Extension() string {
	switch img.ContentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(img.Filename)), ".")
}

// Uploader stores an image and returns a locator (URL) clients can fetch it from.
type Uploader interface {
	Upload(ctx context.Context, img Image) (string, error)
}

// Config controls what Validate accepts.
type Config struct {
	// MaxBytes is the largest accepted file, in bytes.
	MaxBytes int64
	// AllowedFormats are file extensions without the dot.
	AllowedFormats []string
}

// DefaultMaxBytes is 10 MiB.
const DefaultMaxBytes int64 = 10 << 20

func DefaultConfig() Config {
	return Config{
		MaxBytes:       DefaultMaxBytes,
		AllowedFormats: []string{"jpg", "jpeg", "png", "gif", "webp"},
	}
}

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

// formatsByContentType maps sniffed MIME types to the extensions they may carry.
var formatsByContentType = map[string][]string{
	"image/jpeg": {"jpg", "jpeg"},
	"image/png":  {"png"},
	"image/gif":  {"gif"},
	"image/webp": {"webp"},
}

// Validate checks img against cfg and sets img.ContentType from the file's
// leading bytes. The client-supplied content type is ignored.
//
// img.Body is replaced with a reader that replays the sniffed bytes, so the
// caller can still stream the full file afterwards.
func Validate(img *Image, cfg Config) error {
	if cfg.MaxBytes > 0 && img.Size > cfg.MaxBytes {
		return apperror.PayloadTooLarge(cfg.MaxBytes)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(img.Filename)), ".")
	if !slices.Contains(cfg.AllowedFormats, ext) {
		return unsupported(cfg)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(img.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("upload: reading image header: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return apperror.ValidationFailed("image", "No file uploaded")
	}

	sniffed := http.DetectContentType(head)
	exts, ok := formatsByContentType[sniffed]
	if !ok || !anyAllowed(exts, cfg.AllowedFormats) {
		return unsupported(cfg)
	}

	img.ContentType = sniffed
	img.Body = io.MultiReader(bytes.NewReader(head), img.Body)
	return nil
}

func anyAllowed(exts, allowed []string) bool {
	for _, e := range exts {
		if slices.Contains(allowed, e) {
			return true
		}
	}
	return false
}

func unsupported(cfg Config) *apperror.AppError {
	return apperror.ValidationFailed("image",
		"Unsupported image format, allowed: "+strings.Join(cfg.AllowedFormats, ", "))
}
