package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gatherly/server/internal/api/problem"
	"github.com/gatherly/server/internal/media"
)

type UploadHandler struct {
	Store    media.Store
	MaxBytes int64
	Env      string
}

func NewUploadHandler(store media.Store, maxBytes int64, env string) *UploadHandler {
	return &UploadHandler{Store: store, MaxBytes: maxBytes, Env: env}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload accepts a multipart form with an "image" field and returns the
// public URL of the stored file. Anything over MaxBytes or without an image
// MIME type is rejected.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeValidation, "Upload too large", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithDetail("expected multipart form with an image field"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithDetail("missing image field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, h.Env)
		return
	}

	url, err := h.Store.Save(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, media.ErrNotImage):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
				problem.WithDetail("only image uploads are accepted"))
		case errors.Is(err, media.ErrEmptyUpload):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
				problem.WithDetail("empty upload"))
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{URL: url})
}
