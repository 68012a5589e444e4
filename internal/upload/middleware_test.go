package upload_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"campusnest_backend/internal/middleware"
	"campusnest_backend/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func router(mw gin.HandlerFunc, handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/upload", mw, handler)
	return r
}

func respondFile(c *gin.Context) {
	pf, ok := upload.FileFrom(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"file": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": pf})
}

func respondFiles(c *gin.Context) {
	files, _ := upload.FilesFrom(c)
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func post(t *testing.T, r http.Handler, files []filePart, values ...formValue) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files, values...)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSingle_StoresAvatar(t *testing.T) {
	u, dir := newUploader(t, "avatars", upload.Presets()["avatars"])
	r := router(u.Single("avatar"), respondFile)

	w := post(t, r, []filePart{{"avatar", "me.png", "image/png", pngBytes(t, 800, 800)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[struct {
		File upload.ProcessedFile `json:"file"`
	}](t, w)
	assert.Equal(t, "avatar", resp.File.FieldName)
	assert.Equal(t, "me.png", resp.File.OriginalName)
	assert.Equal(t, "image/jpeg", resp.File.MimeType)
	assert.True(t, strings.HasPrefix(resp.File.URL, "/uploads/avatars/avatar-"))
	assert.Equal(t, []string{resp.File.Filename}, storedFiles(t, dir, "avatars"))

	width, _ := decodedSize(t, filepath.Join(dir, "avatars", resp.File.Filename))
	assert.Equal(t, 400, width)
}

func TestSingle_WithoutFileReachesHandler(t *testing.T) {
	u, _ := newUploader(t, "avatars", upload.Presets()["avatars"])
	r := router(u.Single("avatar"), respondFile)

	w := post(t, r, nil, formValue{"note", "no picture today"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"file":null}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSingle_RejectsDisallowedType(t *testing.T) {
	u, dir := newUploader(t, "avatars", upload.Presets()["avatars"])
	called := false
	r := router(u.Single("avatar"), func(c *gin.Context) { called = true })

	w := post(t, r, []filePart{{"avatar", "archive.zip", "application/zip", []byte("PK\x03\x04 not really")}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_TYPE", decode[errorBody](t, w).Error.Code)
	assert.False(t, called)
	assert.Empty(t, storedFiles(t, dir, "avatars"))
}

func TestSingle_SniffsMissingContentType(t *testing.T) {
	u, dir := newUploader(t, "avatars", upload.Presets()["avatars"])
	r := router(u.Single("avatar"), respondFile)

	w := post(t, r, []filePart{{"avatar", "me.png", "", pngBytes(t, 50, 50)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, storedFiles(t, dir, "avatars"), 1)

	w = post(t, r, []filePart{{"avatar", "me.pdf", "application/octet-stream", pdfBytes}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_TYPE", decode[errorBody](t, w).Error.Code)
}

func TestSingle_RejectsOversizedFile(t *testing.T) {
	opts := upload.Presets()["documents"]
	opts.MaxFileSize = 64
	u, dir := newUploader(t, "documents", opts)
	r := router(u.Single("document"), respondFile)

	w := post(t, r, []filePart{{"document", "lease.pdf", "application/pdf", pdfBytes}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "LIMIT_FILE_SIZE", body.Error.Code)
	assert.EqualValues(t, 64, body.Error.Details["limit"])
	assert.Empty(t, storedFiles(t, dir, "documents"))
}

func TestSingle_ExactLimitIsAccepted(t *testing.T) {
	opts := upload.Presets()["documents"]
	opts.MaxFileSize = int64(len(pdfBytes))
	u, _ := newUploader(t, "documents", opts)
	r := router(u.Single("document"), respondFile)

	w := post(t, r, []filePart{{"document", "lease.pdf", "application/pdf", pdfBytes}})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSingle_RejectsUnexpectedField(t *testing.T) {
	u, _ := newUploader(t, "avatars", upload.Presets()["avatars"])
	r := router(u.Single("avatar"), respondFile)

	w := post(t, r, []filePart{{"photo", "me.png", "image/png", pngBytes(t, 10, 10)}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "LIMIT_UNEXPECTED_FILE", decode[errorBody](t, w).Error.Code)

	w = post(t, r, []filePart{
		{"avatar", "a.png", "image/png", pngBytes(t, 10, 10)},
		{"avatar", "b.png", "image/png", pngBytes(t, 10, 10)},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "LIMIT_UNEXPECTED_FILE", decode[errorBody](t, w).Error.Code)
}

func TestArray_StoresAllInOrder(t *testing.T) {
	u, dir := newUploader(t, "properties", upload.Presets()["properties"])
	r := router(u.Array("photos", 10), respondFiles)

	w := post(t, r, []filePart{
		{"photos", "kitchen.jpg", "image/jpeg", jpegBytes(t, 2000, 1500)},
		{"photos", "bath.webp", "image/jpeg", jpegBytes(t, 640, 480)},
		{"photos", "view.gif", "image/gif", gifBytes(t, 30, 30)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[struct {
		Files map[string][]upload.ProcessedFile `json:"files"`
	}](t, w)
	photos := resp.Files["photos"]
	require.Len(t, photos, 3)
	assert.Equal(t, "kitchen.jpg", photos[0].OriginalName)
	assert.Equal(t, "bath.webp", photos[1].OriginalName)
	assert.Equal(t, "view.gif", photos[2].OriginalName)
	assert.Equal(t, "image/gif", photos[2].MimeType)
	assert.Len(t, storedFiles(t, dir, "properties"), 3)
}

func TestArray_RejectsTooManyFiles(t *testing.T) {
	u, dir := newUploader(t, "properties", upload.Presets()["properties"])
	r := router(u.Array("photos", 2), respondFiles)

	img := jpegBytes(t, 10, 10)
	w := post(t, r, []filePart{
		{"photos", "1.jpg", "image/jpeg", img},
		{"photos", "2.jpg", "image/jpeg", img},
		{"photos", "3.jpg", "image/jpeg", img},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "LIMIT_UNEXPECTED_FILE", decode[errorBody](t, w).Error.Code)
	assert.Empty(t, storedFiles(t, dir, "properties"))
}

func TestArray_CorruptFileFailsBatchAndKeepsSiblings(t *testing.T) {
	u, dir := newUploader(t, "properties", upload.Presets()["properties"])
	called := false
	r := router(u.Array("photos", 10), func(c *gin.Context) { called = true })

	w := post(t, r, []filePart{
		{"photos", "ok-1.jpg", "image/jpeg", jpegBytes(t, 100, 100)},
		{"photos", "broken.jpg", "image/jpeg", []byte("\xff\xd8 truncated")},
		{"photos", "ok-2.jpg", "image/jpeg", jpegBytes(t, 100, 100)},
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "PROCESSING_FAILED", decode[errorBody](t, w).Error.Code)
	assert.False(t, called)
	assert.Len(t, storedFiles(t, dir, "properties"), 2)
}

func TestArray_ProcessTimeoutNamesTheFile(t *testing.T) {
	opts := upload.Presets()["properties"]
	opts.ProcessTimeout = time.Nanosecond
	u, dir := newUploader(t, "properties", opts)
	called := false
	r := router(u.Array("photos", 10), func(c *gin.Context) { called = true })

	w := post(t, r, []filePart{
		{"photos", "kitchen.jpg", "image/jpeg", jpegBytes(t, 100, 100)},
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "PROCESSING_FAILED", body.Error.Code)
	assert.Equal(t, "photos", body.Error.Details["field"])
	assert.Equal(t, "kitchen.jpg", body.Error.Details["originalname"])
	assert.False(t, called)
	assert.Empty(t, storedFiles(t, dir, "properties"))
}

func TestArray_RollbackOnFailureRemovesSiblings(t *testing.T) {
	opts := upload.Presets()["properties"]
	opts.RollbackOnFailure = true
	u, dir := newUploader(t, "properties", opts)
	r := router(u.Array("photos", 10), respondFiles)

	w := post(t, r, []filePart{
		{"photos", "ok-1.jpg", "image/jpeg", jpegBytes(t, 100, 100)},
		{"photos", "broken.jpg", "image/jpeg", []byte("\xff\xd8 truncated")},
		{"photos", "ok-2.jpg", "image/jpeg", jpegBytes(t, 100, 100)},
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, storedFiles(t, dir, "properties"))
}

func TestFields_GroupsByField(t *testing.T) {
	u, dir := newUploader(t, "general", upload.Presets()["general"])
	r := router(u.Fields(
		upload.Field{Name: "images", MaxCount: 5},
		upload.Field{Name: "attachments", MaxCount: 3},
	), respondFiles)

	w := post(t, r, []filePart{
		{"images", "a.jpg", "image/jpeg", jpegBytes(t, 20, 20)},
		{"attachments", "b.png", "image/png", pngBytes(t, 20, 20)},
		{"images", "c.gif", "image/gif", gifBytes(t, 20, 20)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[struct {
		Files map[string][]upload.ProcessedFile `json:"files"`
	}](t, w)
	require.Len(t, resp.Files["images"], 2)
	require.Len(t, resp.Files["attachments"], 1)
	assert.Equal(t, "a.jpg", resp.Files["images"][0].OriginalName)
	assert.Equal(t, "c.gif", resp.Files["images"][1].OriginalName)
	assert.Len(t, storedFiles(t, dir, "general"), 3)
}

func TestNone_ExposesTextFields(t *testing.T) {
	u, _ := newUploader(t, "general", upload.Presets()["general"])
	r := router(u.None(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"body": c.PostForm("body"), "to": c.PostForm("to")})
	})

	w := post(t, r, nil, formValue{"body", "Is the room still free?"}, formValue{"to", "landlord-7"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"body":"Is the room still free?","to":"landlord-7"}`, w.Body.String())
}

func TestNone_RejectsFiles(t *testing.T) {
	u, dir := newUploader(t, "general", upload.Presets()["general"])
	r := router(u.None(), respondFile)

	w := post(t, r, []filePart{{"images", "a.jpg", "image/jpeg", jpegBytes(t, 20, 20)}}, formValue{"body", "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "LIMIT_UNEXPECTED_FILE", decode[errorBody](t, w).Error.Code)
	assert.Empty(t, storedFiles(t, dir, "general"))
}

func TestMalformedMultipart(t *testing.T) {
	u, _ := newUploader(t, "general", upload.Presets()["general"])
	r := router(u.Single("images"), respondFile)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("--xyz\r\nnot a header\r\n\r\ndata\r\n--xyz--\r\n"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MALFORMED_MULTIPART", decode[errorBody](t, w).Error.Code)
}

func TestSize_MatchesStoredObject(t *testing.T) {
	s, _ := newStorage(t)
	u, err := upload.New(context.Background(), "properties", upload.Presets()["properties"], upload.Deps{Storage: s})
	require.NoError(t, err)

	var stored upload.ProcessedFile
	r := router(u.Single("photo"), func(c *gin.Context) {
		stored, _ = upload.FileFrom(c)
		c.Status(http.StatusNoContent)
	})

	w := post(t, r, []filePart{{"photo", "p.jpg", "image/jpeg", jpegBytes(t, 1500, 900)}})
	require.Equal(t, http.StatusNoContent, w.Code)

	size, err := s.GetSize(context.Background(), stored.Key)
	require.NoError(t, err)
	assert.Equal(t, stored.Size, size)
}

func TestNone_URLEncodedFormStillParses(t *testing.T) {
	u, _ := newUploader(t, "general", upload.Presets()["general"])
	r := router(u.None(), func(c *gin.Context) {
		c.String(http.StatusOK, c.PostForm("body"))
	})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("body=hello+there"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello there", w.Body.String())
}
