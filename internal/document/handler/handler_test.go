package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tuma-app/tuma/backend/internal/document/service"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/storage"
	"github.com/tuma-app/tuma/backend/internal/store"
	"github.com/tuma-app/tuma/backend/pkg/middleware"
)

type fakeFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeFiles) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	return nil
}

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeFiles) PresignedURL(_ context.Context, key string, _ time.Duration, _ string) (string, error) {
	return "https://files.test/" + key + "?sig=x", nil
}

func newRouter(t *testing.T, files storage.FileStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	docs := store.NewMemoryRepository("document", func() *models.ProjectDocument { return &models.ProjectDocument{} })
	svc := service.New(docs, nil, nil, files)
	g := gin.New()
	api := g.Group("/api", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, "u1")
		c.Next()
	})
	RegisterDocumentRoutes(api, svc)
	return g
}

func do(g *gin.Engine, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	g.ServeHTTP(w, req)
	return w
}

func createDoc(t *testing.T, g *gin.Engine) string {
	t.Helper()
	w := do(g, http.MethodPost, "/api/documents", strings.NewReader(`{"title":"Brief"}`), "application/json")
	require.Equal(t, http.StatusCreated, w.Code)
	var d models.ProjectDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	require.Equal(t, "note", d.Type)
	return d.ID
}

func multipartBody(t *testing.T, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestDocumentCRUD(t *testing.T) {
	g := newRouter(t, nil)
	id := createDoc(t, g)

	w := do(g, http.MethodGet, "/api/documents/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	// file fields are only set by uploads
	w = do(g, http.MethodPatch, "/api/documents/"+id, strings.NewReader(`{"content":"v2","fileKey":"x"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"content":"v2"`)
	require.NotContains(t, w.Body.String(), "fileKey")

	w = do(g, http.MethodPatch, "/api/documents/"+id, strings.NewReader(`not json`), "application/json")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodGet, "/api/documents", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"total":1`)

	w = do(g, http.MethodDelete, "/api/documents/"+id, nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(g, http.MethodGet, "/api/documents/"+id, nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestFileRoutesWithoutStorage(t *testing.T) {
	g := newRouter(t, nil)
	id := createDoc(t, g)

	body, ct := multipartBody(t, "devis.pdf", "%PDF")
	w := do(g, http.MethodPost, "/api/documents/"+id+"/file", body, ct)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(g, http.MethodGet, "/api/documents/"+id+"/file", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFileUploadAndDownload(t *testing.T) {
	files := &fakeFiles{objects: map[string][]byte{}}
	g := newRouter(t, files)
	id := createDoc(t, g)

	w := do(g, http.MethodGet, "/api/documents/"+id+"/file", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(g, http.MethodPost, "/api/documents/"+id+"/file", strings.NewReader("nope"), "text/plain")
	require.Equal(t, http.StatusBadRequest, w.Code)

	body, ct := multipartBody(t, "devis.pdf", "%PDF-1.4")
	w = do(g, http.MethodPost, "/api/documents/"+id+"/file", body, ct)
	require.Equal(t, http.StatusOK, w.Code)
	var d models.ProjectDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	require.Equal(t, "devis.pdf", d.FileName)
	require.Equal(t, int64(8), d.Size)
	require.Equal(t, "file", d.Type)
	require.True(t, strings.HasPrefix(d.FileKey, "u1/"+id+"/"))
	require.Len(t, files.objects, 1)

	// a second upload replaces the first object
	body, ct = multipartBody(t, "devis-v2.pdf", "%PDF-1.5!")
	w = do(g, http.MethodPost, "/api/documents/"+id+"/file", body, ct)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, files.objects, 1)

	w = do(g, http.MethodGet, "/api/documents/"+id+"/file", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var link struct {
		URL       string    `json:"url"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	require.Contains(t, link.URL, "devis-v2.pdf")
	require.WithinDuration(t, time.Now().Add(service.DownloadURLTTL), link.ExpiresAt, time.Minute)

	w = do(g, http.MethodDelete, "/api/documents/"+id, nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, files.objects)
}
