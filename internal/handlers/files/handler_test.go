package files

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileaccess/internal/auth"
	apperrors "fileaccess/internal/errors"
	"fileaccess/internal/storage"
)

type stubFilesService struct {
	result *storage.UploadResult
	err    error

	gotUserID string
	gotReq    UploadRequest
	gotKey    string
}

func (s *stubFilesService) Upload(ctx context.Context, userID string, req UploadRequest) (*storage.UploadResult, error) {
	s.gotUserID = userID
	s.gotReq = req
	return s.result, s.err
}

func (s *stubFilesService) Delete(ctx context.Context, userID, key string) error {
	s.gotUserID = userID
	s.gotKey = key
	return s.err
}

func filesRouter(handler *FileHandler) chi.Router {
	r := chi.NewRouter()
	r.Post("/files", handler.Upload)
	r.Delete("/files/*", handler.Delete)
	return r
}

func multipartBody(t *testing.T, category, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("category", category))
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadHandler_Created(t *testing.T) {
	stub := &stubFilesService{result: &storage.UploadResult{
		Key:         "resources/" + testUserID + "/deadbeefdeadbeefdeadbeefdeadbeef.pdf",
		Size:        9,
		ContentType: "application/pdf",
	}}
	handler := NewFileHandler(stub)

	body, contentType := multipartBody(t, "resource", "notes.pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithUser(req.Context(), auth.UserInfo{ID: testUserID}))

	rec := httptest.NewRecorder()
	filesRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, testUserID, stub.gotUserID)
	assert.Equal(t, "resource", stub.gotReq.Category)
	assert.Equal(t, "notes.pdf", stub.gotReq.Filename)
	assert.Equal(t, int64(9), stub.gotReq.Size)

	var resp storage.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, stub.result.Key, resp.Key)
}

func TestUploadHandler_MissingFilePart(t *testing.T) {
	handler := NewFileHandler(&stubFilesService{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("category", "resource"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req = req.WithContext(auth.WithUser(req.Context(), auth.UserInfo{ID: testUserID}))

	rec := httptest.NewRecorder()
	filesRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadHandler_Unauthenticated(t *testing.T) {
	handler := NewFileHandler(&stubFilesService{})

	body, contentType := multipartBody(t, "resource", "notes.pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	filesRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteHandler_WildcardKeyAndNoContent(t *testing.T) {
	stub := &stubFilesService{}
	handler := NewFileHandler(stub)

	key := "resources/" + testUserID + "/deadbeefdeadbeefdeadbeefdeadbeef.pdf"
	req := httptest.NewRequest(http.MethodDelete, "/files/"+key, nil)
	req = req.WithContext(auth.WithUser(req.Context(), auth.UserInfo{ID: testUserID}))

	rec := httptest.NewRecorder()
	filesRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, key, stub.gotKey)
}

func TestDeleteHandler_ServiceErrorPropagates(t *testing.T) {
	stub := &stubFilesService{err: apperrors.New(apperrors.ErrUnauthorized, "You do not own this file", nil)}
	handler := NewFileHandler(stub)

	req := httptest.NewRequest(http.MethodDelete, "/files/resources/other/deadbeef.pdf", nil)
	req = req.WithContext(auth.WithUser(req.Context(), auth.UserInfo{ID: testUserID}))

	rec := httptest.NewRecorder()
	filesRouter(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
