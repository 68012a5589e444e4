package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"campusnest_backend/internal/logger"
	"campusnest_backend/internal/storage"
	"campusnest_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// FileHandler serves stored files back through the storage backend, so the
// same URLs work for local disk and object stores.
type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, storage storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     storage,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup) {
	files := r.Group(storage.DefaultPublicPrefix)
	{
		files.GET("/*filepath", h.ServeFile)
		files.HEAD("/*filepath", h.CheckFileExists)
	}
}

// ServeFile streams /uploads/{category}/{filename}.
func (h *FileHandler) ServeFile(c *gin.Context) {
	key, size, ok := h.lookup(c)
	if !ok {
		return
	}

	reader, err := h.storage.Get(c.Request.Context(), key)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewNotFoundError("File not found in storage"))
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, size, contentTypeOf(key), reader, fileHeaders(c, key))
}

func (h *FileHandler) CheckFileExists(c *gin.Context) {
	key, size, ok := h.lookup(c)
	if !ok {
		return
	}

	for k, v := range fileHeaders(c, key) {
		c.Header(k, v)
	}
	c.Header("Content-Type", contentTypeOf(key))
	c.Header("Content-Length", strconv.FormatInt(size, 10))
	c.Status(http.StatusOK)
}

func (h *FileHandler) lookup(c *gin.Context) (string, int64, bool) {
	ctx := c.Request.Context()
	key := strings.TrimPrefix(path.Clean("/"+c.Param("filepath")), "/")
	if key == "" || !strings.Contains(key, "/") || storage.IsTempKey(key) {
		h.notFound(c)
		return "", 0, false
	}

	exists, err := h.storage.Exists(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrInvalidPath) {
			logger.CtxWithError(ctx, "storage lookup failed", err, "key", key)
		}
		h.notFound(c)
		return "", 0, false
	}
	if !exists {
		h.notFound(c)
		return "", 0, false
	}

	size, err := h.storage.GetSize(ctx, key)
	if err != nil {
		logger.CtxWithError(ctx, "storage stat failed", err, "key", key)
		h.notFound(c)
		return "", 0, false
	}
	return key, size, true
}

func (h *FileHandler) notFound(c *gin.Context) {
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusNotFound)
		return
	}
	apperrors.HandleError(c, apperrors.NewNotFoundError("File not found"))
}

func fileHeaders(c *gin.Context, key string) map[string]string {
	disposition := "inline"
	if c.Query("download") == "true" {
		disposition = fmt.Sprintf(`attachment; filename="%s"`, path.Base(key))
	}
	return map[string]string{
		"Cache-Control":          "public, max-age=31536000, immutable",
		"Content-Disposition":    disposition,
		"X-Content-Type-Options": "nosniff",
	}
}

func contentTypeOf(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
