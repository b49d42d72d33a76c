package hooks

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/pageza/chef-next-door/backend/internal/cache"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/service"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// Resources binds registry keys to the resource access functions. Use*
// methods read once, Watch* methods subscribe.
type Resources struct {
	client   *Client
	profiles service.IProfileService
	recipes  service.IRecipeService
	search   service.ISearchService
}

func NewResources(client *Client, profiles service.IProfileService, recipes service.IRecipeService, search service.ISearchService) *Resources {
	return &Resources{client: client, profiles: profiles, recipes: recipes, search: search}
}

func (r *Resources) Client() *Client { return r.client }

// subject resolves the user a user-scoped read is about: id when given,
// the session's user otherwise.
func subject(ctx context.Context, sess session.Session, id *uuid.UUID) (uuid.UUID, error) {
	if id != nil {
		return *id, nil
	}
	return session.UserID(ctx, sess)
}

func (r *Resources) failed(ns string, err error) {
	r.client.reportError(ns, err)
}

func (r *Resources) profile(ctx context.Context, sess session.Session, id *uuid.UUID) (string, Fetcher[*models.Profile], error) {
	uid, err := subject(ctx, sess, id)
	if err != nil {
		return "", nil, err
	}
	return cache.ProfileKey(uid), func(ctx context.Context) (*models.Profile, error) {
		return r.profiles.GetProfile(ctx, sess, &uid)
	}, nil
}

func (r *Resources) userRecipes(ctx context.Context, sess session.Session, id *uuid.UUID) (string, Fetcher[[]models.Recipe], error) {
	uid, err := subject(ctx, sess, id)
	if err != nil {
		return "", nil, err
	}
	return cache.UserRecipesKey(uid), func(ctx context.Context) ([]models.Recipe, error) {
		return r.recipes.GetUserRecipes(ctx, sess, &uid)
	}, nil
}

func (r *Resources) recipe(sess session.Session, id uuid.UUID) (string, Fetcher[*models.Recipe]) {
	return cache.RecipeKey(id), func(ctx context.Context) (*models.Recipe, error) {
		return r.recipes.GetRecipeByID(ctx, sess, id)
	}
}

func (r *Resources) allRecipes(sess session.Session, opts models.ListOptions) (string, Fetcher[[]models.Recipe]) {
	return cache.AllRecipesKey(opts), func(ctx context.Context) ([]models.Recipe, error) {
		return r.recipes.GetAllRecipes(ctx, sess, opts)
	}
}

func (r *Resources) searchRecipes(sess session.Session, query string, opts models.SearchOptions) (string, Fetcher[[]models.Recipe]) {
	query = strings.TrimSpace(query)
	return cache.SearchRecipesKey(query, opts), func(ctx context.Context) ([]models.Recipe, error) {
		return r.recipes.SearchRecipes(ctx, sess, query, opts)
	}
}

func (r *Resources) globalSearch(sess session.Session, query string, opts models.GlobalSearchOptions) (string, Fetcher[*models.GlobalSearchResult]) {
	query = strings.TrimSpace(query)
	return cache.GlobalSearchKey(query, opts), func(ctx context.Context) (*models.GlobalSearchResult, error) {
		return r.search.GlobalSearch(ctx, sess, query, opts)
	}
}

// UseProfile reads a profile, the current user's when id is nil.
func (r *Resources) UseProfile(ctx context.Context, sess session.Session, id *uuid.UUID) State[*models.Profile] {
	key, fetch, err := r.profile(ctx, sess, id)
	if err != nil {
		r.failed(cache.NSProfile, err)
		return State[*models.Profile]{Status: StatusError, Err: err}
	}
	return Read(ctx, r.client, key, fetch)
}

// UseUserRecipes reads one chef's recipes, the current user's when id is nil.
func (r *Resources) UseUserRecipes(ctx context.Context, sess session.Session, id *uuid.UUID) State[[]models.Recipe] {
	key, fetch, err := r.userRecipes(ctx, sess, id)
	if err != nil {
		r.failed(cache.NSUserRecipes, err)
		return State[[]models.Recipe]{Status: StatusError, Err: err}
	}
	return Read(ctx, r.client, key, fetch)
}

func (r *Resources) UseRecipe(ctx context.Context, sess session.Session, id uuid.UUID) State[*models.Recipe] {
	key, fetch := r.recipe(sess, id)
	return Read(ctx, r.client, key, fetch)
}

func (r *Resources) UseAllRecipes(ctx context.Context, sess session.Session, opts models.ListOptions) State[[]models.Recipe] {
	key, fetch := r.allRecipes(sess, opts)
	return Read(ctx, r.client, key, fetch)
}

// UseSearchRecipes stays idle for a blank query.
func (r *Resources) UseSearchRecipes(ctx context.Context, sess session.Session, query string, opts models.SearchOptions) State[[]models.Recipe] {
	key, fetch := r.searchRecipes(sess, query, opts)
	return Read(ctx, r.client, key, fetch)
}

func (r *Resources) UseGlobalSearch(ctx context.Context, sess session.Session, query string, opts models.GlobalSearchOptions) State[*models.GlobalSearchResult] {
	key, fetch := r.globalSearch(sess, query, opts)
	return Read(ctx, r.client, key, fetch)
}

func (r *Resources) WatchProfile(ctx context.Context, sess session.Session, id *uuid.UUID) (*Query[*models.Profile], error) {
	key, fetch, err := r.profile(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return Subscribe(ctx, r.client, key, fetch), nil
}

func (r *Resources) WatchUserRecipes(ctx context.Context, sess session.Session, id *uuid.UUID) (*Query[[]models.Recipe], error) {
	key, fetch, err := r.userRecipes(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return Subscribe(ctx, r.client, key, fetch), nil
}

func (r *Resources) WatchRecipe(ctx context.Context, sess session.Session, id uuid.UUID) *Query[*models.Recipe] {
	key, fetch := r.recipe(sess, id)
	return Subscribe(ctx, r.client, key, fetch)
}

func (r *Resources) WatchAllRecipes(ctx context.Context, sess session.Session, opts models.ListOptions) *Query[[]models.Recipe] {
	key, fetch := r.allRecipes(sess, opts)
	return Subscribe(ctx, r.client, key, fetch)
}

func (r *Resources) WatchSearchRecipes(ctx context.Context, sess session.Session, query string, opts models.SearchOptions) *Query[[]models.Recipe] {
	key, fetch := r.searchRecipes(sess, query, opts)
	return Subscribe(ctx, r.client, key, fetch)
}

// SetSearchQuery moves a search subscription to another query, dropping
// any response still in flight for the old one.
func (r *Resources) SetSearchQuery(q *Query[[]models.Recipe], sess session.Session, query string, opts models.SearchOptions) {
	key, fetch := r.searchRecipes(sess, query, opts)
	q.SetKey(key, fetch)
}

func (r *Resources) WatchGlobalSearch(ctx context.Context, sess session.Session, query string, opts models.GlobalSearchOptions) *Query[*models.GlobalSearchResult] {
	key, fetch := r.globalSearch(sess, query, opts)
	return Subscribe(ctx, r.client, key, fetch)
}
