package cache

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/chef-next-door/backend/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestAllRecipesKeyIsStable(t *testing.T) {
	a := models.ListOptions{Limit: 10, Featured: boolPtr(true), Tags: []string{"quick", "vegan"}}
	b := models.ListOptions{Limit: 10, Featured: boolPtr(true), Tags: []string{"quick", "vegan"}}

	assert.Equal(t, AllRecipesKey(a), AllRecipesKey(b), "deep-equal options share a key")
	assert.Equal(t, AllRecipesKey(a), AllRecipesKey(a), "repeated calls are identical")
}

func TestAllRecipesKeyDistinguishesOptions(t *testing.T) {
	base := models.ListOptions{Limit: 10}
	variants := []models.ListOptions{
		{Limit: 20},
		{Limit: 10, Offset: 10},
		{Limit: 10, Featured: boolPtr(true)},
		{Limit: 10, Featured: boolPtr(false)},
		{Limit: 10, Difficulty: "easy"},
		{Limit: 10, Tags: []string{"quick"}},
		{Limit: 10, Tags: []string{}},
		{Limit: 10, Tags: []string{"a,b"}},
		{Limit: 10, Tags: []string{"a", "b"}},
	}

	seen := map[string]int{AllRecipesKey(base): -1}
	for i, v := range variants {
		key := AllRecipesKey(v)
		prev, dup := seen[key]
		assert.False(t, dup, "variant %d collides with %d: %s", i, prev, key)
		seen[key] = i
	}
}

func TestSearchKeys(t *testing.T) {
	assert.Empty(t, SearchRecipesKey("", models.SearchOptions{}))
	assert.Empty(t, SearchRecipesKey("   ", models.SearchOptions{}))
	assert.Empty(t, GlobalSearchKey("\t", models.GlobalSearchOptions{}))

	k := SearchRecipesKey("soup", models.SearchOptions{Limit: 5})
	assert.True(t, strings.HasPrefix(k, NamespacePrefix(NSSearchRecipes)))
	assert.Equal(t, k, SearchRecipesKey(" soup ", models.SearchOptions{Limit: 5}))
	assert.NotEqual(t, k, SearchRecipesKey("soup", models.SearchOptions{Limit: 6}))
	assert.NotEqual(t, k, SearchRecipesKey("soups", models.SearchOptions{Limit: 5}))

	// A separator inside the query must not forge another key.
	forged := SearchRecipesKey(`soup"::struct:{Limit:5`, models.SearchOptions{})
	assert.NotEqual(t, k, forged)
}

func TestEntityKeys(t *testing.T) {
	id := uuid.MustParse("7f0c1d2e-3a4b-4c5d-8e6f-708192a3b4c5")

	assert.Equal(t, "recipe::7f0c1d2e-3a4b-4c5d-8e6f-708192a3b4c5", RecipeKey(id))
	assert.Equal(t, "profile::7f0c1d2e-3a4b-4c5d-8e6f-708192a3b4c5", ProfileKey(id))
	assert.Equal(t, "user-recipes::7f0c1d2e-3a4b-4c5d-8e6f-708192a3b4c5", UserRecipesKey(id))

	assert.Empty(t, RecipeKey(uuid.Nil))
	assert.Empty(t, ProfileKey(uuid.Nil))
	assert.Empty(t, UserRecipesKey(uuid.Nil))

	assert.NotEqual(t, ProfileKey(id), ProfileKey(uuid.New()))
}

func TestNamespaceHelpers(t *testing.T) {
	key := AllRecipesKey(models.ListOptions{})
	assert.Equal(t, NSAllRecipes, Namespace(key))
	assert.True(t, strings.HasPrefix(key, NamespacePrefix(NSAllRecipes)))
	assert.False(t, strings.HasPrefix(RecipeKey(uuid.New()), NamespacePrefix(NSAllRecipes)))
	assert.Equal(t, "plain", Namespace("plain"))
}

func TestSerializeKeyMapsAreSorted(t *testing.T) {
	a := SerializeKey("ns", map[string]int{"b": 2, "a": 1, "c": 3})
	b := SerializeKey("ns", map[string]int{"c": 3, "a": 1, "b": 2})
	assert.Equal(t, a, b)
	assert.NotEqual(t, SerializeKey("ns", map[string]int(nil)), SerializeKey("ns", map[string]int{}))
	assert.Equal(t, "ns", SerializeKey("ns"))
	assert.Equal(t, `ns::nil::1::"x"`, SerializeKey("ns", nil, 1, "x"))
}
