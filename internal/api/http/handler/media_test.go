package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora-beauty/velora-server/internal/testutil"
)

type stubStorage struct {
	objects   map[string][]byte
	uploadErr error
	deleteErr error
}

func (s *stubStorage) Upload(_ context.Context, key string, reader io.Reader) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	data, _ := io.ReadAll(reader)
	s.objects[key] = data
	return nil
}

func (s *stubStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s.objects[key]))), nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *stubStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func newMediaFixture() (*Media, *stubStorage) {
	storage := &stubStorage{objects: map[string][]byte{}}
	return NewMedia(storage, testutil.MakeNoopLogger()), storage
}

func mediaRequest(method, key string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, "/api/admin/media/"+key, body)
	req.SetPathValue("key", key)
	return req
}

func TestMediaUpload(t *testing.T) {
	h, storage := newMediaFixture()

	rec := httptest.NewRecorder()
	h.Upload(rec, mediaRequest(http.MethodPost, "products/serum.jpg", strings.NewReader("image bytes")))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []byte("image bytes"), storage.objects["products/serum.jpg"])
	assert.Contains(t, rec.Body.String(), "products/serum.jpg")
}

func TestMediaUploadStorageError(t *testing.T) {
	h, storage := newMediaFixture()
	storage.uploadErr = errors.New("bucket unavailable")

	rec := httptest.NewRecorder()
	h.Upload(rec, mediaRequest(http.MethodPost, "products/serum.jpg", strings.NewReader("x")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Storage detail stays out of the response.
	assert.NotContains(t, rec.Body.String(), "bucket unavailable")
}

func TestMediaDownload(t *testing.T) {
	h, storage := newMediaFixture()
	storage.objects["products/serum.jpg"] = []byte("image bytes")

	rec := httptest.NewRecorder()
	h.Download(rec, mediaRequest(http.MethodGet, "products/serum.jpg", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image bytes", rec.Body.String())
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
}

func TestMediaDownloadMissingObject(t *testing.T) {
	h, _ := newMediaFixture()

	rec := httptest.NewRecorder()
	h.Download(rec, mediaRequest(http.MethodGet, "products/missing.jpg", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMediaDelete(t *testing.T) {
	h, storage := newMediaFixture()
	storage.objects["products/serum.jpg"] = []byte("image bytes")

	rec := httptest.NewRecorder()
	h.Delete(rec, mediaRequest(http.MethodDelete, "products/serum.jpg", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, storage.objects, "products/serum.jpg")
}
