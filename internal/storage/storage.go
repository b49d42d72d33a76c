// Package storage uploads images to object storage and hands back their
// public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// DefaultBucket is the public bucket holding every user image.
const DefaultBucket = "chef-next-door-images"

// Image categories under a user's folder. The recipe folder keeps the
// spelling already present in the hosted bucket.
const (
	CategoryRecipe = "recipies"
	CategoryAvatar = "avatars"
)

// ObjectStore uploads objects and resolves their public URLs.
type ObjectStore interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) error
	PublicURL(path string) string
}

// ObjectPath builds users/{userID}/{category}/{uuid}.{ext}.
func ObjectPath(userID uuid.UUID, category, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("users/%s/%s/%s.%s", userID, category, uuid.New(), ext)
}

// ValidCategory reports whether c is a known image category.
func ValidCategory(c string) bool {
	return c == CategoryRecipe || c == CategoryAvatar
}
