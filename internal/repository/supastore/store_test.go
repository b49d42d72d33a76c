package supastore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/chef-next-door/backend/internal/repository"
)

type recorded struct {
	method string
	path   string
	query  map[string][]string
	auth   string
	body   string
}

type fakeRest struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeRest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.Query(),
		auth:   r.Header.Get("Authorization"),
		body:   string(body),
	})
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	f.handler(w, r)
}

func (f *fakeRest) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newStore(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Store, *fakeRest) {
	t.Helper()
	fake := &fakeRest{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL, APIKey: "anon-key"}), fake
}

func TestListRecipesBuildsFilters(t *testing.T) {
	chefID := uuid.New()
	store, fake := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{{
			"id":               uuid.NewString(),
			"chef_id":          chefID.String(),
			"title":            "Tacos",
			"ingredients":      []string{"1 tortilla"},
			"instructions":     []string{"Fill it"},
			"tags":             []string{"quick"},
			"difficulty_level": "easy",
			"chef":             map[string]interface{}{"id": chefID.String(), "first_name": "Ana", "last_name": "Lopez"},
		}})
	})

	featured := true
	recipes, err := store.WithToken("user-token").Recipes().List(context.Background(), repository.RecipeFilter{
		Featured:   &featured,
		Difficulty: "easy",
		Tags:       []string{"quick", "cheap"},
		Query:      "taco",
		Limit:      5,
	})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Tacos", recipes[0].Title)
	require.NotNil(t, recipes[0].Chef)
	assert.Equal(t, "Ana", recipes[0].Chef.FirstName)

	req := fake.last()
	assert.Equal(t, http.MethodGet, req.method)
	assert.True(t, strings.HasSuffix(req.path, "/recipes"))
	assert.Equal(t, "Bearer user-token", req.auth)
	assert.Equal(t, []string{"eq.true"}, req.query["featured"])
	assert.Equal(t, []string{"eq.easy"}, req.query["difficulty_level"])
	assert.Equal(t, []string{`ov.{"quick","cheap"}`}, req.query["tags"])
	assert.Contains(t, req.query["or"][0], "title.ilike.%taco%")
	assert.True(t, strings.HasPrefix(req.query["order"][0], "created_at.desc"))
	assert.Contains(t, req.query["select"][0], "chef:profiles!chef_id")
}

func TestGetRecipeNotFound(t *testing.T) {
	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		w.Write([]byte(`{"code":"PGRST116","details":"The result contains 0 rows","hint":null,"message":"JSON object requested, multiple (or no) rows returned"}`))
	})

	_, err := store.Recipes().Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateOwnedEmptyRepresentationIsNotFound(t *testing.T) {
	store, fake := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	id, chef := uuid.New(), uuid.New()
	_, err := store.Recipes().UpdateOwned(context.Background(), id, chef, map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	req := fake.last()
	assert.Equal(t, http.MethodPatch, req.method)
	assert.Equal(t, []string{"eq." + id.String()}, req.query["id"])
	assert.Equal(t, []string{"eq." + chef.String()}, req.query["chef_id"])
	assert.Contains(t, req.body, `"title":"x"`)
}

func TestRecipeCountRPC(t *testing.T) {
	var failing atomic.Bool
	store, fake := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":"PGRST202","message":"Could not find the function"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	id := uuid.New()
	require.NoError(t, store.Profiles().IncrementRecipeCount(context.Background(), id))
	req := fake.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.True(t, strings.HasSuffix(req.path, "/rpc/increment_recipe_count"))
	assert.JSONEq(t, `{"user_id":"`+id.String()+`"}`, req.body)

	failing.Store(true)
	err := store.Profiles().DecrementRecipeCount(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrement_recipe_count")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "mac and cheese", sanitize(" mac, and (cheese) "))
	assert.Equal(t, `{"a","b c"}`, arrayLiteral([]string{"a", "b c"}))
}
