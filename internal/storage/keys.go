package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// NewKey derives a fresh storage key for an object:
//
//	{category-plural}/{ownerID}/{32 hex chars}{.ext}
//
// The random segment makes collisions practically impossible, so re-uploading
// the same bytes for the same logical slot still yields a new key. Pure aside
// from the entropy read; no disk or network I/O.
func NewKey(category Category, ownerID, filename string) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("unknown storage category %q", category)
	}
	if strings.TrimSpace(ownerID) == "" {
		return "", fmt.Errorf("owner id is required")
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random key bytes: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(category.Plural(), ownerID, hex.EncodeToString(buf)+ext), nil
}

// ParseKey splits a modern key back into its category and owner segments,
// for ownership checks on delete.
func ParseKey(key string) (Category, string, error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed storage key %q", key)
	}
	for _, c := range []Category{CategoryResource, CategoryPreview, CategoryAvatar} {
		if parts[0] == c.Plural() {
			return c, parts[1], nil
		}
	}
	return "", "", fmt.Errorf("unknown category segment %q", parts[0])
}
