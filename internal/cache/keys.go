// Package cache maps logical resources to cache keys and holds the cached
// read results. Writes reach the cache only as Commands interpreted by the
// Adapter.
package cache

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pageza/chef-next-door/backend/internal/models"
)

// Namespaces of the key registry.
const (
	NSProfile       = "profile"
	NSUserRecipes   = "user-recipes"
	NSRecipe        = "recipe"
	NSAllRecipes    = "all-recipes"
	NSSearchRecipes = "search-recipes"
	NSGlobalSearch  = "global-search"
)

// ProfileKey returns the key of a user's profile, or "" when the id is not
// known yet.
func ProfileKey(userID uuid.UUID) string {
	if userID == uuid.Nil {
		return ""
	}
	return SerializeKey(NSProfile, userID)
}

// UserRecipesKey returns the key of one chef's recipe list.
func UserRecipesKey(userID uuid.UUID) string {
	if userID == uuid.Nil {
		return ""
	}
	return SerializeKey(NSUserRecipes, userID)
}

// RecipeKey embeds only the recipe id.
func RecipeKey(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return SerializeKey(NSRecipe, id)
}

// AllRecipesKey embeds every option that changes the feed.
func AllRecipesKey(opts models.ListOptions) string {
	return SerializeKey(NSAllRecipes, opts)
}

// SearchRecipesKey returns "" for a blank query so the read is suspended
// instead of matching everything.
func SearchRecipesKey(query string, opts models.SearchOptions) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	return SerializeKey(NSSearchRecipes, query, opts)
}

// GlobalSearchKey returns "" for a blank query.
func GlobalSearchKey(query string, opts models.GlobalSearchOptions) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	return SerializeKey(NSGlobalSearch, query, opts)
}

// NamespacePrefix matches every key of ns.
func NamespacePrefix(ns string) string {
	return ns + KeySeparator
}

// Namespace returns the namespace segment of key.
func Namespace(key string) string {
	if i := strings.Index(key, KeySeparator); i >= 0 {
		return key[:i]
	}
	return key
}
