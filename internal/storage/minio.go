package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"fileaccess/internal/media"
)

var _ Backend = (*Minio)(nil)

// Minio routes each category to one of two buckets: resource files go to the
// private bucket and are only reachable through signed URLs, previews and
// avatars go to the public bucket behind a CDN base URL.
type Minio struct {
	client        *minio.Client
	publicBucket  string
	privateBucket string
	publicBaseURL string
}

// publicReadPolicy grants anonymous GET on the public bucket, so objects are
// world-readable the moment they are written.
const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

func NewMinio(cfg Config) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	m := &Minio{
		client:        client,
		publicBucket:  cfg.PublicBucket,
		privateBucket: cfg.PrivateBucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}

	if err := client.SetBucketPolicy(context.Background(), cfg.PublicBucket,
		fmt.Sprintf(publicReadPolicy, cfg.PublicBucket)); err != nil {
		return nil, fmt.Errorf("failed to apply public-read policy: %w", mapMinioError(err))
	}

	return m, nil
}

func (m *Minio) bucketFor(category Category) string {
	if category.Public() {
		return m.publicBucket
	}
	return m.privateBucket
}

func (m *Minio) Upload(ctx context.Context, r io.Reader, size int64, in UploadInput) (*UploadResult, error) {
	key, err := NewKey(in.Category, in.UserID, in.Filename)
	if err != nil {
		return nil, err
	}

	info, err := m.client.PutObject(ctx, m.bucketFor(in.Category), key, r, size, minio.PutObjectOptions{
		ContentType:  in.ContentType,
		UserMetadata: in.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, mapMinioError(err))
	}

	res := &UploadResult{
		Key:         key,
		Size:        info.Size,
		ContentType: in.ContentType,
	}
	if in.Category.Public() {
		res.PublicURL = m.PublicURL(key)
	}
	return res, nil
}

// SignedURL issues a real time-limited credentialed URL against the private
// bucket. A DownloadFilename overrides the response content-disposition so
// browsers save under a human name.
func (m *Minio) SignedURL(ctx context.Context, key string, opts SignedURLOptions) (string, error) {
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiry
	}

	params := make(url.Values)
	if opts.DownloadFilename != "" {
		params.Set("response-content-disposition", media.ContentDisposition(opts.DownloadFilename))
	}

	u, err := m.client.PresignedGetObject(ctx, m.privateBucket, key, expiry, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignedURLFailed, mapMinioError(err))
	}
	return u.String(), nil
}

func (m *Minio) PublicURL(key string) string {
	return m.publicBaseURL + "/" + key
}

// Delete is idempotent; a missing object is success, anything else is
// wrapped so no raw SDK error crosses the subsystem boundary.
func (m *Minio) Delete(ctx context.Context, key string, category Category) error {
	err := m.client.RemoveObject(ctx, m.bucketFor(category), key, minio.RemoveObjectOptions{})
	if err != nil {
		if mapped := mapMinioError(err); mapped != ErrNotFound {
			return fmt.Errorf("%w: %v", ErrDeleteFailed, mapped)
		}
	}
	return nil
}

// Exists is the one place a "not found"-shaped backend error is swallowed
// and converted to a boolean; any other error propagates.
func (m *Minio) Exists(ctx context.Context, key string, category Category) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucketFor(category), key, minio.StatObjectOptions{})
	if err != nil {
		if mapMinioError(err) == ErrNotFound {
			return false, nil
		}
		return false, mapMinioError(err)
	}
	return true, nil
}

func (m *Minio) Get(ctx context.Context, key string, category Category) (io.ReadCloser, int64, error) {
	obj, err := m.client.GetObject(ctx, m.bucketFor(category), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, mapMinioError(err)
	}

	// GetObject does not verify existence immediately; Stat forces the
	// round-trip before we hand the stream out.
	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, mapMinioError(err)
	}
	return obj, st.Size, nil
}

func (m *Minio) IsLocal() bool {
	return false
}

// mapMinioError translates MinIO SDK errors into our domain errors
func mapMinioError(err error) error {
	if err == nil {
		return nil
	}

	errResp := minio.ToErrorResponse(err)

	switch errResp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrNotFound
	case "AccessDenied":
		return ErrAccessDenied
	}

	// Also check HTTP status codes if Code is empty
	if errResp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if errResp.StatusCode == http.StatusForbidden {
		return ErrAccessDenied
	}

	return fmt.Errorf("storage provider error: %w", err)
}
