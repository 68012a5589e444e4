package upload

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"campusnest_backend/internal/logger"
	"campusnest_backend/pkg/apperrors"

	"github.com/gabriel-vasile/mimetype"
)

const (
	modeNormalize   = "normalize"
	modePassthrough = "passthrough"
)

// ProcessedFile is the stored result of one IncomingFile.
type ProcessedFile struct {
	FieldName    string `json:"fieldname"`
	URL          string `json:"url"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`

	// Key is the storage key, "{category}/{filename}".
	Key string `json:"-"`
}

// ProcessFile writes one accepted file to storage. Eligible images are
// decoded, bounded to the category width and re-encoded as JPEG; documents
// and GIFs are stored byte for byte. A corrupt image fails the call, it is
// never stored as-is.
func (u *Uploader) ProcessFile(ctx context.Context, file IncomingFile) (ProcessedFile, error) {
	opts := u.category.Options
	start := time.Now()
	base := uniqueBase(file.FieldName, start)

	mode := modePassthrough
	filename := base + extension(file.OriginalName, file.MimeType)
	contentType := file.MimeType
	data := file.Buffer

	if opts.Normalizes(file.MimeType) {
		mode = modeNormalize
		res, err := u.processor.Normalize(bytes.NewReader(file.Buffer), opts.ImageWidth)
		if err != nil {
			u.observer.FileProcessed(u.category.Name, mode, 0, time.Since(start), err)
			return ProcessedFile{}, apperrors.ErrProcessingFailed(err, file.FieldName, file.OriginalName)
		}
		filename = base + ".jpg"
		contentType = res.ContentType
		data = res.Data
	}

	if err := ctx.Err(); err != nil {
		u.observer.FileProcessed(u.category.Name, mode, 0, time.Since(start), err)
		return ProcessedFile{}, apperrors.ErrProcessingFailed(err, file.FieldName, file.OriginalName)
	}

	key := u.category.Name + "/" + filename
	if err := u.storage.Save(ctx, key, bytes.NewReader(data), contentType); err != nil {
		u.observer.FileProcessed(u.category.Name, mode, 0, time.Since(start), err)
		return ProcessedFile{}, apperrors.ErrProcessingFailed(err, file.FieldName, file.OriginalName)
	}

	url, err := u.storage.GetURL(ctx, key)
	if err != nil {
		return ProcessedFile{}, apperrors.ErrProcessingFailed(err, file.FieldName, file.OriginalName)
	}

	size := int64(len(data))
	u.observer.FileProcessed(u.category.Name, mode, size, time.Since(start), nil)
	logger.CtxDebug(ctx, "upload stored",
		"field", file.FieldName,
		"filename", filename,
		"mode", mode,
		"size", size,
	)

	return ProcessedFile{
		FieldName:    file.FieldName,
		URL:          url,
		Filename:     filename,
		OriginalName: file.OriginalName,
		MimeType:     contentType,
		Size:         size,
		Key:          key,
	}, nil
}

// uniqueBase builds "{field}-{unixMillis}-{rand}". Collisions need the same
// field, millisecond and a 1-in-1e9 draw.
func uniqueBase(field string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d", sanitize(field, "file"), now.UnixMilli(), rand.IntN(1e9))
}

// extension keeps the original extension. Without one it is taken from the
// content type so the file is served back with the right type, and .jpg is
// the last resort.
func extension(originalName, contentType string) string {
	ext := sanitize(strings.TrimPrefix(filepath.Ext(originalName), "."), "")
	if ext != "" {
		return "." + strings.ToLower(ext)
	}
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".jpg"
}

// sanitize keeps [A-Za-z0-9_-] so client input can't shape storage paths.
func sanitize(s, fallback string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}
