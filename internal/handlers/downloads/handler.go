package downloads

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fileaccess/internal/auth"
	"fileaccess/internal/errors"
	"fileaccess/internal/media"
)

type DownloadsHandler struct {
	service DownloadsService
}

func NewDownloadsHandler(svc DownloadsService) *DownloadsHandler {
	return &DownloadsHandler{
		service: svc,
	}
}

// ResourceDownload serves an authenticated download of a purchasable file.
func (h *DownloadsHandler) ResourceDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userInfo, err := auth.GetUserInfo(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Unauthorized access attempt", "error", err)
		errors.RespondError(w, r, errors.New(errors.ErrUnauthorized, "Unauthorized access", err))
		return
	}

	resourceID := chi.URLParam(r, "id")
	if resourceID == "" {
		errors.RespondError(w, r, errors.New(errors.ErrInvalidInput, "Resource ID is required", nil))
		return
	}

	transfer, _, err := h.service.DownloadForUser(ctx, userInfo, resourceID)
	if err != nil {
		errors.RespondError(w, r, err)
		return
	}

	h.respond(w, r, transfer)
}

// GuestDownload serves a tokenized download with no session. All
// authorization is carried by the token itself.
func (h *DownloadsHandler) GuestDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := chi.URLParam(r, "token")
	if token == "" {
		errors.RespondError(w, r, errors.New(errors.ErrInvalidToken, "Download link is not valid", nil))
		return
	}

	transfer, err := h.service.DownloadGuest(ctx, token)
	if err != nil {
		errors.RespondError(w, r, err)
		return
	}

	h.respond(w, r, transfer)
}

func (h *DownloadsHandler) respond(w http.ResponseWriter, r *http.Request, transfer *Transfer) {
	if !transfer.Inline() {
		// Cloud private files: hand the client a time-limited signed URL.
		// Content-Length is deliberately omitted on the redirect.
		http.Redirect(w, r, transfer.RedirectURL, http.StatusFound)
		return
	}
	defer transfer.Close()

	w.Header().Set("Content-Type", transfer.ContentType)
	w.Header().Set("Content-Disposition", media.ContentDisposition(transfer.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(transfer.Size, 10))

	if _, err := io.Copy(w, transfer.Body); err != nil {
		// Headers are already sent; the usage count was committed when
		// the transfer was prepared, not on confirmed delivery.
		slog.WarnContext(r.Context(), "Download stream aborted", "error", err)
	}
}
