package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Category classifies a stored object and decides where it lives and who
// may see it. We use a dedicated type to prevent passing random strings.
type Category string

const (
	// CategoryResource: the purchasable file itself. Always private;
	// access is decided upstream by the download grant resolver.
	CategoryResource Category = "resource"

	// CategoryPreview: derived preview images. Publicly readable.
	CategoryPreview Category = "preview"

	// CategoryAvatar: profile images. Publicly readable.
	CategoryAvatar Category = "avatar"
)

// Plural returns the key prefix segment for the category.
func (c Category) Plural() string {
	return string(c) + "s"
}

// Public reports whether objects of this category get a permanent public URL.
func (c Category) Public() bool {
	return c == CategoryPreview || c == CategoryAvatar
}

// Valid reports whether c is one of the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryResource, CategoryPreview, CategoryAvatar:
		return true
	}
	return false
}

// Wrapper for standard errors so checking them is consistent
var (
	ErrNotFound        = errors.New("storage: file not found")
	ErrAccessDenied    = errors.New("storage: access denied")
	ErrUploadFailed    = errors.New("storage: upload failed")
	ErrDeleteFailed    = errors.New("storage: delete failed")
	ErrSignedURLFailed = errors.New("storage: signed url failed")
)

// DefaultSignedURLExpiry is used when SignedURLOptions.Expiry is zero.
const DefaultSignedURLExpiry = 3600 * time.Second

type UploadInput struct {
	Category    Category
	UserID      string
	Filename    string
	ContentType string
	Metadata    map[string]string
}

type UploadResult struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`

	// PublicURL is populated only for public categories.
	PublicURL string `json:"public_url,omitempty"`
}

type SignedURLOptions struct {
	Expiry time.Duration

	// DownloadFilename, when set, forces the response's content-disposition
	// so browsers save the file under a human name rather than the key.
	DownloadFilename string
}

// Backend abstracts the two physical stores (local filesystem, MinIO/S3).
// Exactly one variant is constructed at startup and injected into callers.
type Backend interface {
	// Upload stores the bytes under a freshly generated key. The key is
	// only returned once the write has fully completed.
	Upload(ctx context.Context, r io.Reader, size int64, in UploadInput) (*UploadResult, error)

	// SignedURL mints a time-limited read URL for a private object.
	SignedURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)

	// PublicURL is a pure string join; no I/O, no existence check.
	PublicURL(key string) string

	// Delete removes an object. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string, category Category) error

	// Exists probes for an object. Absence is (false, nil), never an error.
	Exists(ctx context.Context, key string, category Category) (bool, error)

	// Get returns a stream and the exact byte size.
	Get(ctx context.Context, key string, category Category) (io.ReadCloser, int64, error)

	// IsLocal reports whether this is the filesystem variant. The download
	// flow uses it to choose between serving bytes inline and redirecting
	// to a signed URL.
	IsLocal() bool
}

// Config selects and parameterises the backend variant.
type Config struct {
	Driver string // "local" or "s3"

	// Local variant
	LocalRoot      string
	LocalPublicURL string

	// MinIO/S3 variant
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	PublicBucket    string
	PrivateBucket   string
	PublicBaseURL   string
}

// New builds the one Backend variant the process will use.
func New(cfg Config) (Backend, error) {
	switch cfg.Driver {
	case "local":
		return NewLocal(cfg.LocalRoot, cfg.LocalPublicURL), nil
	case "s3", "minio":
		return NewMinio(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
