package upload

import (
	"context"
	"fmt"

	"campusnest_backend/internal/imageprocessor"
	"campusnest_backend/internal/metrics"
	"campusnest_backend/internal/storage"
	"campusnest_backend/internal/validator"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators shared by every Uploader.
type Deps struct {
	Storage   storage.Storage
	Observer  *metrics.Observer // optional
	Validator *validator.Validator
}

// Uploader is the configured intake pipeline of one category. It is built
// once at startup and is safe for concurrent use by many requests.
type Uploader struct {
	category  Category
	storage   storage.Storage
	processor *imageprocessor.Processor
	observer  *metrics.Observer
}

// New validates the category, makes sure its storage prefix exists and
// returns the Uploader for it.
func New(ctx context.Context, name string, opts Options, deps Deps) (*Uploader, error) {
	if deps.Storage == nil {
		return nil, fmt.Errorf("upload: storage is required")
	}
	v := deps.Validator
	if v == nil {
		v = validator.New()
	}

	category := Category{Name: name, Options: opts.WithDefaults()}
	if err := v.Validate(&category); err != nil {
		return nil, fmt.Errorf("upload: invalid category %q: %w", name, err)
	}

	if err := deps.Storage.EnsurePrefix(ctx, category.Name); err != nil {
		return nil, fmt.Errorf("upload: prepare storage for %q: %w", name, err)
	}

	return &Uploader{
		category:  category,
		storage:   deps.Storage,
		processor: imageprocessor.NewProcessor(category.Options.Quality),
		observer:  deps.Observer,
	}, nil
}

// Category returns the immutable category record.
func (u *Uploader) Category() Category {
	return u.category
}

// Single accepts at most one file under field; the result is read with FileFrom.
func (u *Uploader) Single(field string) gin.HandlerFunc {
	return u.handle(newRules(modeSingle, Field{Name: field, MaxCount: 1}))
}

// Array accepts up to maxCount files under field; read with FilesFrom.
func (u *Uploader) Array(field string, maxCount int) gin.HandlerFunc {
	return u.handle(newRules(modeArray, Field{Name: field, MaxCount: maxCount}))
}

// Fields accepts several named file fields; read with FilesFrom.
func (u *Uploader) Fields(fields ...Field) gin.HandlerFunc {
	return u.handle(newRules(modeFields, fields...))
}

// None accepts a text-only form. Any file part is rejected.
func (u *Uploader) None() gin.HandlerFunc {
	return u.handle(newRules(modeNone))
}
