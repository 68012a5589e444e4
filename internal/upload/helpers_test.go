package upload_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"campusnest_backend/internal/logger"
	"campusnest_backend/internal/storage"
	"campusnest_backend/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter("production", io.Discard)
}

// pdfBytes is a minimal document; only the signature matters for sniffing.
var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func gifBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func newStorage(t *testing.T) (*storage.LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := storage.NewLocalStorage(storage.Config{BasePath: dir})
	require.NoError(t, err)
	return s, dir
}

func newUploader(t *testing.T, name string, opts upload.Options) (*upload.Uploader, string) {
	t.Helper()
	s, dir := newStorage(t)
	u, err := upload.New(context.Background(), name, opts, upload.Deps{Storage: s})
	require.NoError(t, err)
	return u, dir
}

// storedFiles lists the regular files under dir/category.
func storedFiles(t *testing.T, dir, category string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dir, category))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names
}

type filePart struct {
	field       string
	filename    string
	contentType string // omitted from the part header when empty
	data        []byte
}

type formValue struct {
	name  string
	value string
}

func multipartBody(t *testing.T, files []filePart, values ...formValue) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for _, v := range values {
		require.NoError(t, mw.WriteField(v.name, v.value))
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}
