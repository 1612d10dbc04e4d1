package storage

import (
	"os"
	"path/filepath"
	"strings"
)

// LegacyResolver recognises file references written by the old on-disk
// layout, before the backend abstraction existed. Those rows hold absolute
// filesystem paths instead of modern keys; the download flow reads them
// straight from disk, bypassing the Backend. No new writes ever produce
// legacy-shaped references.
type LegacyResolver struct {
	// Root is prepended to relative legacy paths. Absolute paths are
	// served as-is after cleaning.
	Root string
}

// IsLegacyLocalPath reports whether value is an old-style local path rather
// than a modern {plural}/{owner}/{hex}.{ext} key.
func (l LegacyResolver) IsLegacyLocalPath(value string) bool {
	if value == "" {
		return false
	}
	if filepath.IsAbs(value) {
		return true
	}
	// The old layout kept everything under an uploads/ directory.
	return strings.HasPrefix(value, "uploads/")
}

// ResolveLegacyPath maps a legacy reference to the filesystem path to read.
func (l LegacyResolver) ResolveLegacyPath(value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(l.Root, value)
}

// ReadLegacyFile opens a legacy file for streaming. Missing files surface as
// ErrNotFound like any other absent object.
func (l LegacyResolver) ReadLegacyFile(value string) (*os.File, int64, error) {
	f, err := os.Open(l.ResolveLegacyPath(value))
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
