package files

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fileaccess/internal/auth"
	"fileaccess/internal/errors"
	"fileaccess/internal/json"
)

type FileHandler struct {
	svc FilesService
}

func NewFileHandler(svc FilesService) *FileHandler {
	return &FileHandler{
		svc: svc,
	}
}

// maxMultipartMemory bounds how much of the multipart form is buffered in
// memory; the rest spills to disk.
const maxMultipartMemory = 8 << 20

// Upload accepts a multipart form with a 'category' field and a 'file'
// part, stores the bytes and returns the persisted key.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := auth.GetUserID(ctx)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		errors.RespondError(w, r, errors.New(errors.ErrInvalidInput, "Invalid multipart body", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errors.RespondError(w, r, errors.New(errors.ErrInvalidInput, "A 'file' part is required", err))
		return
	}
	defer file.Close()

	result, err := h.svc.Upload(ctx, userID, UploadRequest{
		Category:    r.FormValue("category"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		errors.RespondError(w, r, err)
		return
	}

	json.Write(w, http.StatusCreated, result)
}

// Delete removes a stored object the caller owns. Keys contain slashes, so
// the route mounts this behind a wildcard.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := auth.GetUserID(ctx)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	key := chi.URLParam(r, "*")
	if key == "" {
		errors.RespondError(w, r, errors.New(errors.ErrInvalidInput, "File key is required", nil))
		return
	}

	if err := h.svc.Delete(ctx, userID, key); err != nil {
		errors.RespondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
