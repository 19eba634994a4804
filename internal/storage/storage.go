// Package storage persists uploaded cover files on local disk or in a MinIO bucket.
package storage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"inkwell/internal/config"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// PublicPrefix is prepended to object names to form the stored cover path.
const PublicPrefix = "uploads/"

const maxExtLen = 10

var (
	// ErrObjectNotFound is returned by Open when no object has the given name.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidName rejects names that could escape the storage root.
	ErrInvalidName = errors.New("invalid object name")

	extSanitizer = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// Storage is a flat namespace of uploaded files.
type Storage interface {
	// Save writes r under name and returns the public cover path.
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	// Open returns the object contents and content type; the caller closes the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, name string) error
	Ping(ctx context.Context) error
	Backend() string
}

// New builds the backend selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return NewLocalStorage(cfg.UploadDir)
	case config.StorageMinio:
		return NewMinioStorage(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

// NewObjectName returns a fresh UUID name that keeps the original file's
// extension, reduced to alphanumerics and at most ten characters.
func NewObjectName(original string) string {
	name := uuid.NewString()
	ext := strings.TrimPrefix(filepath.Ext(original), ".")
	ext = extSanitizer.ReplaceAllString(ext, "")
	if len(ext) > maxExtLen {
		ext = ext[:maxExtLen]
	}
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// PublicPath is the cover value stored on a post for an object name.
func PublicPath(name string) string {
	return PublicPrefix + name
}

// NameFromPath is the inverse of PublicPath.
func NameFromPath(path string) string {
	return strings.TrimPrefix(path, PublicPrefix)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return ErrInvalidName
	}
	return nil
}

// DetectContentType sniffs the leading bytes of r. Decodable images report
// their decoded format; anything else falls back to content sniffing and then
// to the file extension. The returned reader replays the sniffed bytes.
func DetectContentType(r io.Reader, filename string) (string, io.Reader) {
	br := bufio.NewReaderSize(r, 512)
	head, _ := br.Peek(512)

	if _, format, err := image.DecodeConfig(bytes.NewReader(head)); err == nil {
		return "image/" + format, br
	}

	sniffed := http.DetectContentType(head)
	if sniffed != "application/octet-stream" && !strings.HasPrefix(sniffed, "text/plain") {
		return sniffed, br
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt, br
	}
	return sniffed, br
}
