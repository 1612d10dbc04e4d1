package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLegacyLocalPath(t *testing.T) {
	l := LegacyResolver{Root: "/var/old"}

	assert.True(t, l.IsLegacyLocalPath("/var/old/files/123.pdf"))
	assert.True(t, l.IsLegacyLocalPath("uploads/123.pdf"))

	assert.False(t, l.IsLegacyLocalPath("resources/user123/abcdef.pdf"))
	assert.False(t, l.IsLegacyLocalPath("avatars/u1/deadbeef.png"))
	assert.False(t, l.IsLegacyLocalPath(""))
}

func TestResolveLegacyPath(t *testing.T) {
	l := LegacyResolver{Root: "/var/old"}

	assert.Equal(t, "/srv/files/a.pdf", l.ResolveLegacyPath("/srv/files/a.pdf"))
	assert.Equal(t, filepath.Join("/var/old", "uploads/a.pdf"), l.ResolveLegacyPath("uploads/a.pdf"))
}

func TestReadLegacyFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "old.pdf"), []byte("legacy bytes"), 0o644))

	l := LegacyResolver{Root: root}

	f, size, err := l.ReadLegacyFile("uploads/old.pdf")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "legacy bytes", string(data))
	assert.Equal(t, int64(len(data)), size)
}

func TestReadLegacyFile_Missing(t *testing.T) {
	l := LegacyResolver{Root: t.TempDir()}

	_, _, err := l.ReadLegacyFile("uploads/gone.pdf")
	assert.True(t, errors.Is(err, ErrNotFound))
}
