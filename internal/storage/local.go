package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var _ Backend = (*Local)(nil)

// Local stores objects under a root directory on disk. Access control for
// private files is enforced upstream by the download grant resolver; the
// backend itself has no access-control layer, so SignedURL degenerates to a
// plain public URL join.
type Local struct {
	root      string
	publicURL string
}

func NewLocal(root, publicURL string) *Local {
	return &Local{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (l *Local) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// Upload writes the bytes to a temp file and renames it into place, so a
// partially-written file is never reachable under a returned key.
func (l *Local) Upload(ctx context.Context, r io.Reader, size int64, in UploadInput) (*UploadResult, error) {
	key, err := NewKey(in.Category, in.UserID, in.Filename)
	if err != nil {
		return nil, err
	}

	dst := l.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	res := &UploadResult{
		Key:         key,
		Size:        n,
		ContentType: in.ContentType,
	}
	if in.Category.Public() {
		res.PublicURL = l.PublicURL(key)
	}
	return res, nil
}

// SignedURL has no real signing for the local variant; local serving has no
// separate access-control layer at the storage level.
func (l *Local) SignedURL(ctx context.Context, key string, opts SignedURLOptions) (string, error) {
	return l.PublicURL(key), nil
}

func (l *Local) PublicURL(key string) string {
	return l.publicURL + "/" + key
}

// Delete is idempotent: removing an absent key is success.
func (l *Local) Delete(ctx context.Context, key string, category Category) error {
	if err := os.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (l *Local) Exists(ctx context.Context, key string, category Category) (bool, error) {
	_, err := os.Stat(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *Local) Get(ctx context.Context, key string, category Category) (io.ReadCloser, int64, error) {
	f, err := os.Open(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}

func (l *Local) IsLocal() bool {
	return true
}
