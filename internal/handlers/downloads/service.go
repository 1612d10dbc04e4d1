package downloads

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"fileaccess/internal/auth"
	repo "fileaccess/internal/database/postgresql"
	"fileaccess/internal/errors"
	"fileaccess/internal/media"
	"fileaccess/internal/storage"
)

// Transfer is a prepared file response: either a redirect to a signed URL
// (cloud private files) or an inline body with exact size.
type Transfer struct {
	RedirectURL string

	Body        io.ReadCloser
	Size        int64
	ContentType string
	Filename    string
}

// Inline reports whether the bytes are served directly.
func (t *Transfer) Inline() bool {
	return t.RedirectURL == ""
}

func (t *Transfer) Close() {
	if t.Body != nil {
		_ = t.Body.Close()
	}
}

type DownloadsService interface {
	// DownloadForUser runs the grant resolver for an authenticated
	// requester and prepares the transfer when access is granted.
	DownloadForUser(ctx context.Context, user auth.UserInfo, resourceID string) (*Transfer, AccessDecision, error)

	// DownloadGuest runs the token state machine for an unauthenticated
	// holder of a download link.
	DownloadGuest(ctx context.Context, token string) (*Transfer, error)
}

type svc struct {
	repo    *repo.Queries
	storage storage.Backend
	legacy  storage.LegacyResolver
	logger  *slog.Logger
}

func NewDownloadsService(queries *repo.Queries, backend storage.Backend, legacy storage.LegacyResolver, logger *slog.Logger) DownloadsService {
	return &svc{
		repo:    queries,
		storage: backend,
		legacy:  legacy,
		logger:  logger,
	}
}

func (s *svc) DownloadForUser(ctx context.Context, user auth.UserInfo, resourceID string) (*Transfer, AccessDecision, error) {
	var id pgtype.UUID
	if err := id.Scan(resourceID); err != nil {
		return nil, denied("invalid resource id"), errors.New(errors.ErrInvalidInput, "Invalid resource ID", err)
	}

	resource, err := s.repo.GetResource(ctx, id)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, denied("resource not found"), errors.New(errors.ErrNotFound, "Resource not found", err)
		}
		return nil, denied("lookup failed"), errors.New(errors.ErrInternal, "Unable to load resource", err)
	}

	decision, err := s.resolveAccess(ctx, user, resource)
	if err != nil {
		return nil, decision, err
	}
	if decision.Kind == AccessDenied {
		return nil, decision, errors.New(errors.ErrUnauthorized, decision.Reason, nil)
	}

	s.logger.InfoContext(ctx, "Download granted",
		"resource_id", resourceID,
		"user_id", user.ID,
		"access", decision.Kind.String(),
	)

	transfer, err := s.prepareTransfer(ctx, resource.FileKey, resource.Title)
	return transfer, decision, err
}

// resolveAccess is the grant state machine: owner, then publication gate
// for everyone else, then zero price, then completed purchase.
func (s *svc) resolveAccess(ctx context.Context, user auth.UserInfo, resource repo.Resource) (AccessDecision, error) {
	var userID pgtype.UUID
	if err := userID.Scan(user.ID); err != nil {
		return denied("invalid user id"), errors.New(errors.ErrUnauthorized, "Invalid user identity", err)
	}

	// Owners always get through, even for unpublished drafts.
	if resource.OwnerID == userID {
		return granted(OwnerAccess), nil
	}

	if !resource.Downloadable() {
		return denied("resource is not available"), nil
	}

	if resource.Free() {
		// First grant creates the download record; ON CONFLICT keeps
		// re-grants from duplicating it.
		if err := s.repo.InsertDownload(ctx, userID, resource.ID); err != nil {
			return denied("record failed"), errors.New(errors.ErrInternal, "Unable to record download", err)
		}
		return granted(FreeAccess), nil
	}

	purchased, err := s.repo.HasCompletedTransaction(ctx, userID, resource.ID)
	if err != nil {
		return denied("lookup failed"), errors.New(errors.ErrInternal, "Unable to verify purchase", err)
	}
	if purchased {
		return granted(PurchasedAccess), nil
	}

	return denied("resource must be purchased first"), nil
}

// DownloadGuest checks the token in a fixed order: unresolvable, payment
// incomplete, expired, exhausted, valid. The transfer is prepared before
// any mutation; only a successfully prepared transfer consumes a use.
func (s *svc) DownloadGuest(ctx context.Context, token string) (*Transfer, error) {
	t, err := s.repo.GetGuestToken(ctx, token)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrInvalidToken, "Download link is not valid", err)
		}
		return nil, errors.New(errors.ErrInternal, "Unable to load download token", err)
	}

	if t.TransactionStatus != repo.TransactionStatusCompleted {
		return nil, errors.New(errors.ErrPaymentIncomplete, "Payment has not been completed", nil)
	}
	if time.Now().After(t.ExpiresAt) {
		return nil, errors.New(errors.ErrTokenExpired, "Download link has expired", nil)
	}
	if t.DownloadCount >= t.MaxDownloads {
		return nil, errors.New(errors.ErrMaxDownloads, "Download limit has been reached", nil)
	}

	transfer, err := s.prepareTransfer(ctx, t.FileKey, t.ResourceTitle)
	if err != nil {
		// Failed preparation must never consume a use.
		return nil, err
	}

	consumed, err := s.repo.ConsumeDownloadToken(ctx, token)
	if err != nil {
		transfer.Close()
		return nil, errors.New(errors.ErrInternal, "Unable to record download", err)
	}
	if !consumed {
		// A concurrent request burned the last use, or expiry passed
		// between the read and the conditional update.
		transfer.Close()
		if time.Now().After(t.ExpiresAt) {
			return nil, errors.New(errors.ErrTokenExpired, "Download link has expired", nil)
		}
		return nil, errors.New(errors.ErrMaxDownloads, "Download limit has been reached", nil)
	}

	s.logger.InfoContext(ctx, "Guest download consumed",
		"token", token,
		"downloads_used", t.DownloadCount+1,
		"max_downloads", t.MaxDownloads,
	)

	return transfer, nil
}

// prepareTransfer dispatches on the shape of the stored reference: legacy
// absolute paths read straight from disk, modern keys go through the
// backend (inline for local, redirect to a signed URL for cloud).
func (s *svc) prepareTransfer(ctx context.Context, fileKey, title string) (*Transfer, error) {
	filename := media.SafeDownloadFilename(title, fileKey)

	if s.legacy.IsLegacyLocalPath(fileKey) {
		f, size, err := s.legacy.ReadLegacyFile(fileKey)
		if err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				return nil, errors.New(errors.ErrFileNotFound, "File is no longer available", err)
			}
			return nil, errors.New(errors.ErrInternal, "Unable to read file", err)
		}
		return &Transfer{
			Body:        f,
			Size:        size,
			ContentType: media.ContentTypeFor(fileKey),
			Filename:    filename,
		}, nil
	}

	if s.storage.IsLocal() {
		body, size, err := s.storage.Get(ctx, fileKey, storage.CategoryResource)
		if err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				return nil, errors.New(errors.ErrFileNotFound, "File is no longer available", err)
			}
			return nil, errors.New(errors.ErrInternal, "Unable to read file", err)
		}
		return &Transfer{
			Body:        body,
			Size:        size,
			ContentType: media.ContentTypeFor(fileKey),
			Filename:    filename,
		}, nil
	}

	url, err := s.storage.SignedURL(ctx, fileKey, storage.SignedURLOptions{
		DownloadFilename: filename,
	})
	if err != nil {
		return nil, errors.New(errors.ErrSignedURL, "Unable to prepare download", fmt.Errorf("signing %s: %w", fileKey, err))
	}
	return &Transfer{RedirectURL: url, Filename: filename}, nil
}
