package handler

import (
	"io"
	"net/http"

	"github.com/velora-beauty/velora-server/internal/logger"
	"github.com/velora-beauty/velora-server/internal/model"
)

// Media handles admin-console uploads of product and marketing assets to
// object storage. Routes are guarded by the admin authenticate middleware
// plus a content permission check.
type Media struct {
	storage model.Storage
	logger  *logger.Logger
}

// NewMedia creates a new Media handler.
func NewMedia(storage model.Storage, logger *logger.Logger) *Media {
	return &Media{storage: storage, logger: logger}
}

// Upload stores the request body under the given key.
func (h *Media) Upload(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, &model.ValidationError{Violations: []string{"media key is required"}})
		return
	}

	if err := h.storage.Upload(r.Context(), key, r.Body); err != nil {
		h.logger.Error("Media handler: upload failed",
			"key", key,
			"error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// Download streams the stored object.
func (h *Media) Download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	exists, err := h.storage.Exists(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		writeError(w, model.ErrNotFound)
		return
	}

	reader, err := h.storage.Download(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("Media handler: download stream interrupted",
			"key", key,
			"error", err.Error())
	}
}

// Delete removes the stored object.
func (h *Media) Delete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if err := h.storage.Delete(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}
