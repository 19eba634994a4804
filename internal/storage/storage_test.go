package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"inkwell/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidPattern = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

func TestNewObjectName(t *testing.T) {
	tests := []struct {
		name     string
		original string
		pattern  string
	}{
		{"keeps extension", "cover.png", `^` + uuidPattern + `\.png$`},
		{"keeps case", "photo.JPEG", `^` + uuidPattern + `\.JPEG$`},
		{"only last extension", "archive.tar.gz", `^` + uuidPattern + `\.gz$`},
		{"strips unsafe characters", "x.p/n..g", `^` + uuidPattern + `\.g$`},
		{"sanitizes extension", "evil.ph$p%00", `^` + uuidPattern + `\.php00$`},
		{"truncates long extension", "f.abcdefghijklmnop", `^` + uuidPattern + `\.abcdefghij$`},
		{"no extension", "README", `^` + uuidPattern + `$`},
		{"empty", "", `^` + uuidPattern + `$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewObjectName(tt.original)
			assert.Regexp(t, regexp.MustCompile(tt.pattern), got)
		})
	}

	assert.NotEqual(t, NewObjectName("a.png"), NewObjectName("a.png"))
}

func TestPublicPathRoundTrip(t *testing.T) {
	name := uuid.NewString() + ".png"
	assert.Equal(t, "uploads/"+name, PublicPath(name))
	assert.Equal(t, name, NameFromPath(PublicPath(name)))
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetectContentType(t *testing.T) {
	pngBytes := encodePNG(t)

	var gifBuf bytes.Buffer
	require.NoError(t, gif.Encode(&gifBuf, image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White}), nil))

	tests := []struct {
		name     string
		content  []byte
		filename string
		want     string
	}{
		{"png by content", pngBytes, "cover.bin", "image/png"},
		{"png misnamed", pngBytes, "cover.gif", "image/png"},
		{"gif", gifBuf.Bytes(), "a.gif", "image/gif"},
		{"pdf sniffed", []byte("%PDF-1.4 rest of the file"), "doc", "application/pdf"},
		{"text falls back to extension", []byte("body { color: red }"), "style.css", "text/css"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, r := DetectContentType(bytes.NewReader(tt.content), tt.filename)
			assert.True(t, strings.HasPrefix(ct, tt.want), "got %s", ct)

			replayed, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.content, replayed)
		})
	}
}

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))
	assert.Equal(t, config.StorageLocal, s.Backend())

	content := encodePNG(t)
	name := NewObjectName("cover.png")

	path, err := s.Save(ctx, name, bytes.NewReader(content), int64(len(content)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "uploads/"+name, path)

	rc, ct, err := s.Open(ctx, name)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, content, got)
	assert.Equal(t, "image/png", ct)

	_, err = s.Save(ctx, name, bytes.NewReader(content), int64(len(content)), "image/png")
	assert.Error(t, err, "existing objects are never overwritten")

	require.NoError(t, s.Delete(ctx, name))
	_, _, err = s.Open(ctx, name)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.NoError(t, s.Delete(ctx, name))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("secret"), 0o600))

	for _, name := range []string{"../secret.txt", "..", "", "a/b.png", `a\b.png`} {
		_, err := s.Save(ctx, name, strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, ErrInvalidName, name)

		_, _, err = s.Open(ctx, name)
		assert.ErrorIs(t, err, ErrObjectNotFound, name)
	}
	assert.FileExists(t, filepath.Join(root, "secret.txt"))
}

func TestNew_SelectsBackend(t *testing.T) {
	s, err := New(context.Background(), &config.Config{
		StorageBackend: config.StorageLocal,
		UploadDir:      filepath.Join(t.TempDir(), "up"),
	})
	require.NoError(t, err)
	assert.Equal(t, config.StorageLocal, s.Backend())

	_, err = New(context.Background(), &config.Config{StorageBackend: "ftp"})
	assert.Error(t, err)
}

func TestMinioStorage(t *testing.T) {
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT not set")
	}
	ctx := context.Background()

	s, err := NewMinioStorage(ctx, MinioOptions{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_TEST_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_TEST_SECRET_KEY"),
		Bucket:    "inkwell-test-" + uuid.NewString()[:8],
	})
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))

	content := encodePNG(t)
	name := NewObjectName("cover.png")
	path, err := s.Save(ctx, name, bytes.NewReader(content), int64(len(content)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, PublicPath(name), path)

	rc, ct, err := s.Open(ctx, name)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, content, got)
	assert.Equal(t, "image/png", ct)

	require.NoError(t, s.Delete(ctx, name))
	_, _, err = s.Open(ctx, name)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
