package upload

import (
	"mime"
	"slices"
	"strings"
	"time"
)

// NoResize disables the width bound for a category; images are still
// re-encoded.
const NoResize = -1

const (
	DefaultMaxFileSize = 10 << 20
	DefaultImageWidth  = 800
	DefaultQuality     = 80
)

// Content types shared by the default allow-lists.
const (
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
	TypeWebP = "image/webp"
	TypeGIF  = "image/gif"
	TypePDF  = "application/pdf"
)

// Options configure one upload category. Zero values fall back to the
// defaults, see DefaultOptions.
type Options struct {
	MaxFileSize   int64    `json:"max_file_size" validate:"gt=0"`
	ImageWidth    int      `json:"image_width" validate:"gte=-1"`
	ImageTypes    []string `json:"image_types" validate:"required,dive,mimetype"`
	DocumentTypes []string `json:"document_types" validate:"required,dive,mimetype"`
	IsDocument    bool     `json:"is_document"`
	Quality       int      `json:"quality" validate:"gte=1,lte=100"`

	// RollbackOnFailure deletes already stored siblings when one file of a
	// batch fails. Off by default: a failed batch keeps what it wrote.
	RollbackOnFailure bool `json:"rollback_on_failure"`

	// ProcessTimeout bounds the processing phase of one request. Zero means
	// no bound.
	ProcessTimeout time.Duration `json:"process_timeout" validate:"gte=0"`
}

// DefaultOptions returns the options used when a category overrides nothing.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:   DefaultMaxFileSize,
		ImageWidth:    DefaultImageWidth,
		ImageTypes:    []string{TypeJPEG, TypePNG, TypeWebP, TypeGIF},
		DocumentTypes: []string{TypePDF, TypeJPEG, TypePNG},
		Quality:       DefaultQuality,
	}
}

// WithDefaults fills zero-valued fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	def := DefaultOptions()
	if o.MaxFileSize == 0 {
		o.MaxFileSize = def.MaxFileSize
	}
	if o.ImageWidth == 0 {
		o.ImageWidth = def.ImageWidth
	}
	if len(o.ImageTypes) == 0 {
		o.ImageTypes = def.ImageTypes
	}
	if len(o.DocumentTypes) == 0 {
		o.DocumentTypes = def.DocumentTypes
	}
	if o.Quality == 0 {
		o.Quality = def.Quality
	}
	o.ImageTypes = normalizeTypes(o.ImageTypes)
	o.DocumentTypes = normalizeTypes(o.DocumentTypes)
	return o
}

// AllowedTypes is the allow-list that applies to the category.
func (o Options) AllowedTypes() []string {
	if o.IsDocument {
		return o.DocumentTypes
	}
	return o.ImageTypes
}

// Allows reports whether a (normalized) content type passes the intake filter.
func (o Options) Allows(contentType string) bool {
	return slices.Contains(o.AllowedTypes(), contentType)
}

// Normalizes reports whether a file of contentType is resized and re-encoded.
// GIFs are exempt so animations survive.
func (o Options) Normalizes(contentType string) bool {
	return !o.IsDocument &&
		contentType != TypeGIF &&
		slices.Contains(o.ImageTypes, contentType)
}

// Category is a named upload destination with its policy. The name doubles
// as the storage prefix.
type Category struct {
	Name    string  `json:"name" validate:"category_name"`
	Options Options `json:"options"`
}

// Presets returns the categories the marketplace ships with.
func Presets() map[string]Options {
	properties := DefaultOptions()
	properties.ImageWidth = 1200

	avatars := DefaultOptions()
	avatars.MaxFileSize = 5 << 20
	avatars.ImageWidth = 400

	documents := DefaultOptions()
	documents.IsDocument = true

	return map[string]Options{
		"properties": properties,
		"avatars":    avatars,
		"documents":  documents,
		"general":    DefaultOptions(),
	}
}

// NormalizeType lowercases a content type and strips its parameters.
func NormalizeType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return mediaType
}

func normalizeTypes(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if n := NormalizeType(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}
