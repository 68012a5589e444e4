package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"campusnest_backend/internal/app"
	"campusnest_backend/internal/config"
	"campusnest_backend/internal/logger"
	"campusnest_backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// TestServer is the whole application behind an httptest server, with
// uploads written to a temp directory.
type TestServer struct {
	Server     *httptest.Server
	DB         *gorm.DB // nil unless TEST_DATABASE_URL is set
	UploadRoot string
}

// NewTestServer builds the router the same way app.Run does. The registry
// is enabled only when TEST_DATABASE_URL points at a postgres database.
func NewTestServer(t *testing.T, uploadRoot string) *TestServer {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter("test", io.Discard)

	cfg := config.Defaults()
	cfg.Server.Env = "test"
	cfg.Storage.BasePath = uploadRoot
	cfg.Database.DSN = os.Getenv("TEST_DATABASE_URL")

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		t.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
	}

	store, err := storage.NewStorage(context.Background(), cfg.StorageConfig())
	if err != nil {
		t.Fatalf("Не удалось создать хранилище: %v", err)
	}

	router, err := app.SetupRouter(context.Background(), cfg, db, store, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Не удалось собрать роутер: %v", err)
	}

	server := httptest.NewServer(router)
	log.Printf("✅ Тестовый сервер запущен, uploads: %s, registry: %t", uploadRoot, db != nil)

	return &TestServer{
		Server:     server,
		DB:         db,
		UploadRoot: uploadRoot,
	}
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	if ts.DB != nil {
		sqlDB, _ := ts.DB.DB()
		sqlDB.Close()
	}
}

// ClearUploads removes registry rows of the given categories.
func (ts *TestServer) ClearUploads(categories ...string) {
	if ts.DB == nil {
		return
	}
	if err := ts.DB.Exec("DELETE FROM uploads WHERE category IN ?", categories).Error; err != nil {
		log.Fatalf("Не удалось очистить таблицу uploads: %v", err)
	}
}

// FilePart is one file of a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// SendMultipart posts files and text fields as multipart/form-data.
func (ts *TestServer) SendMultipart(t *testing.T, path string, files []FilePart, fields map[string]string) (*http.Response, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Ошибка записи поля формы: %v", err)
		}
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.Field, f.Filename))
		if f.ContentType != "" {
			h.Set("Content-Type", f.ContentType)
		}
		part, err := writer.CreatePart(h)
		if err != nil {
			t.Fatalf("Ошибка создания части формы: %v", err)
		}
		part.Write(f.Data)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Ошибка закрытия multipart: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, body)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return ts.do(t, req)
}

// SendRequest sends a request without a body.
func (ts *TestServer) SendRequest(t *testing.T, method, path string) (*http.Response, string) {
	req, err := http.NewRequest(method, ts.Server.URL+path, nil)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}
	return ts.do(t, req)
}

func (ts *TestServer) do(t *testing.T, req *http.Request) (*http.Response, string) {
	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки HTTP-запроса: %v", err)
	}
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}
	return res, string(resBodyBytes)
}
