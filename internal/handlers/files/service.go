package files

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"fileaccess/internal/errors"
	"fileaccess/internal/events"
	"fileaccess/internal/media"
	"fileaccess/internal/storage"
)

// FileConstraint bounds what may be uploaded per category.
type FileConstraint struct {
	MaxSize          int64
	AllowedMimeTypes []string
}

type FilesService interface {
	Upload(ctx context.Context, userID string, req UploadRequest) (*storage.UploadResult, error)
	Delete(ctx context.Context, userID, key string) error
}

type UploadRequest struct {
	Category    string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type svc struct {
	storage      storage.Backend
	constraints  map[storage.Category]FileConstraint
	eventHandler *events.EventHandler
	logger       *slog.Logger
}

func NewFilesService(backend storage.Backend, constraints map[storage.Category]FileConstraint, eventHandler *events.EventHandler, logger *slog.Logger) FilesService {
	return &svc{
		storage:      backend,
		constraints:  constraints,
		eventHandler: eventHandler,
		logger:       logger,
	}
}

func (s *svc) Upload(ctx context.Context, userID string, req UploadRequest) (*storage.UploadResult, error) {
	category := storage.Category(req.Category)
	if !category.Valid() {
		return nil, errors.New(errors.ErrInvalidInput, "Unknown category. Must be 'resource', 'preview' or 'avatar'", nil)
	}

	constraints, ok := s.constraints[category]
	if !ok {
		return nil, errors.New(errors.ErrInvalidInput, "Uploads are not enabled for this category", nil)
	}
	if req.Size <= 0 || req.Size > constraints.MaxSize {
		return nil, errors.New(errors.ErrInvalidInput,
			fmt.Sprintf("File size must be between 1 byte and %d bytes", constraints.MaxSize), nil)
	}

	mimeType := req.ContentType
	if mimeType == "" {
		mimeType = media.ContentTypeFor(req.Filename)
	}
	if !slices.Contains(constraints.AllowedMimeTypes, mimeType) {
		return nil, errors.New(errors.ErrInvalidInput,
			fmt.Sprintf("File type '%s' is not allowed for %s uploads", mimeType, req.Category), nil)
	}

	result, err := s.storage.Upload(ctx, req.Body, req.Size, storage.UploadInput{
		Category:    category,
		UserID:      userID,
		Filename:    req.Filename,
		ContentType: mimeType,
	})
	if err != nil {
		return nil, errors.New(errors.ErrUploadFailed, "Failed to store file", err)
	}

	s.logger.InfoContext(ctx, "Stored file",
		"key", result.Key,
		"category", req.Category,
		"size", result.Size,
		"user_id", userID,
	)

	// Resource files feed the preview collaborator; public categories
	// are served straight from their public URL and need no event.
	if category == storage.CategoryResource {
		spanContext := trace.SpanContextFromContext(ctx)
		traceIDVal := ""
		if spanContext.IsValid() {
			traceIDVal = spanContext.TraceID().String()
		}

		evt := events.FileStoredEvent{
			Key:         result.Key,
			Category:    req.Category,
			OwnerID:     userID,
			ContentType: result.ContentType,
			Size:        result.Size,
			TraceID:     traceIDVal,
		}
		if err := s.eventHandler.RaiseFileStoredEvent(evt); err != nil {
			// The upload itself succeeded; a sweeper re-publishes
			// missed events.
			s.logger.ErrorContext(ctx, "Failed to publish file stored event", "key", result.Key, "error", err)
		}
	}

	return result, nil
}

func (s *svc) Delete(ctx context.Context, userID, key string) error {
	category, owner, err := storage.ParseKey(key)
	if err != nil {
		return errors.New(errors.ErrInvalidInput, "Invalid file key", err)
	}
	if owner != userID {
		return errors.New(errors.ErrUnauthorized, "You do not own this file", nil)
	}

	exists, err := s.storage.Exists(ctx, key, category)
	if err != nil {
		return errors.New(errors.ErrInternal, "Unable to check file", err)
	}
	if !exists {
		// Absence is success; deletion stays idempotent end to end.
		s.logger.DebugContext(ctx, "Delete of absent key", "key", key)
		return nil
	}

	if err := s.storage.Delete(ctx, key, category); err != nil {
		return errors.New(errors.ErrDeleteFailed, "Failed to delete file", err)
	}

	s.logger.InfoContext(ctx, "Deleted file", "key", key, "user_id", userID)
	return nil
}
