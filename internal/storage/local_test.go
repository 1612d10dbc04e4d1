package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	return NewLocal(t.TempDir(), "http://localhost:8080/static")
}

func upload(t *testing.T, l *Local, category Category, userID, filename, content string) *UploadResult {
	t.Helper()
	res, err := l.Upload(context.Background(), strings.NewReader(content), int64(len(content)), UploadInput{
		Category:    category,
		UserID:      userID,
		Filename:    filename,
		ContentType: "application/pdf",
	})
	require.NoError(t, err)
	return res
}

func TestLocalUpload_RoundTrip(t *testing.T) {
	l := newTestLocal(t)

	res := upload(t, l, CategoryResource, "user123", "test.pdf", "test content")
	assert.Regexp(t, `^resources/user123/[a-f0-9]+\.pdf$`, res.Key)
	assert.Equal(t, int64(len("test content")), res.Size)

	body, size, err := l.Get(context.Background(), res.Key, CategoryResource)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "test content", string(data))
	assert.Equal(t, int64(len(data)), size)
}

func TestLocalUpload_SameBytesNewKey(t *testing.T) {
	l := newTestLocal(t)

	first := upload(t, l, CategoryResource, "user123", "test.pdf", "identical")
	second := upload(t, l, CategoryResource, "user123", "test.pdf", "identical")

	assert.NotEqual(t, first.Key, second.Key)
}

func TestLocalUpload_PublicURLOnlyForPublicCategories(t *testing.T) {
	l := newTestLocal(t)

	private := upload(t, l, CategoryResource, "u1", "doc.pdf", "secret")
	assert.Empty(t, private.PublicURL)

	preview := upload(t, l, CategoryPreview, "u1", "p.png", "img")
	assert.Equal(t, "http://localhost:8080/static/"+preview.Key, preview.PublicURL)

	avatar := upload(t, l, CategoryAvatar, "u1", "a.png", "img")
	assert.NotEmpty(t, avatar.PublicURL)
}

func TestLocalSignedURL_DegeneratesToPublicURL(t *testing.T) {
	l := newTestLocal(t)

	url, err := l.SignedURL(context.Background(), "resources/u1/deadbeef.pdf", SignedURLOptions{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/static/resources/u1/deadbeef.pdf", url)
}

func TestLocalDelete_Idempotent(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	res := upload(t, l, CategoryResource, "u1", "doc.pdf", "bytes")

	require.NoError(t, l.Delete(ctx, res.Key, CategoryResource))
	// Second delete of the same key must also succeed.
	require.NoError(t, l.Delete(ctx, res.Key, CategoryResource))
	// Deleting something that never existed is fine too.
	require.NoError(t, l.Delete(ctx, "resources/u1/never.pdf", CategoryResource))
}

func TestLocalExists(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	exists, err := l.Exists(ctx, "resources/u1/never.pdf", CategoryResource)
	require.NoError(t, err)
	assert.False(t, exists)

	res := upload(t, l, CategoryResource, "u1", "doc.pdf", "bytes")
	exists, err = l.Exists(ctx, res.Key, CategoryResource)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalGet_Missing(t *testing.T) {
	l := newTestLocal(t)

	_, _, err := l.Get(context.Background(), "resources/u1/never.pdf", CategoryResource)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalIsLocal(t *testing.T) {
	assert.True(t, newTestLocal(t).IsLocal())
}
