// Package storage keeps recipe image blobs, either on local disk or in an
// S3-compatible object store.
package storage

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
)

// recipeImageDir is the key prefix for every uploaded recipe image.
const recipeImageDir = "uploads/recipe"

// BlobStore saves and retrieves opaque blobs by key.
type BlobStore interface {
	// Save writes data under key, replacing anything already there.
	Save(ctx context.Context, key string, data []byte) error
	// Open returns the blob stored under key, or common.ErrNotFound.
	Open(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// maxExtLen bounds the extension taken from a client filename so keys stay
// well inside the recipes.image column.
const maxExtLen = 10

// RecipeImagePath returns a fresh key of the form uploads/recipe/<uuid><ext>.
// The extension comes from filename when it is short and alphanumeric;
// otherwise format (e.g. "png") is used instead.
func RecipeImagePath(filename, format string) string {
	ext := path.Ext(strings.ReplaceAll(filename, "\\", "/"))
	if !validExt(ext) {
		ext = ""
		if format != "" {
			ext = "." + format
		}
	}
	return path.Join(recipeImageDir, uuid.NewString()+ext)
}

func validExt(ext string) bool {
	name := strings.TrimPrefix(ext, ".")
	if name == "" || len(name) > maxExtLen {
		return false
	}
	for _, c := range name {
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
