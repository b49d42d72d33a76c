package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/repository"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// SearchService searches recipes and chefs together.
type SearchService struct {
	store repository.Store
	log   logrus.FieldLogger
}

func NewSearchService(store repository.Store, log logrus.FieldLogger) *SearchService {
	return &SearchService{
		store: store,
		log:   log.WithField("component", "SearchService"),
	}
}

// GlobalSearch returns up to opts.EffectiveLimit recipes and profiles
// matching query. Recipe failures are returned; a failed profile search
// only empties that section.
func (s *SearchService) GlobalSearch(ctx context.Context, sess session.Session, query string, opts models.GlobalSearchOptions) (*models.GlobalSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("globalSearch", map[string]string{"q": "search query is required"})
	}

	store := scoped(ctx, s.store, sess)
	limit := opts.EffectiveLimit()
	result := &models.GlobalSearchResult{Recipes: []models.Recipe{}, Profiles: []models.Profile{}}

	if opts.Recipes() {
		recipes, err := store.Recipes().List(ctx, repository.RecipeFilter{Query: query, Limit: limit})
		if err != nil {
			return nil, normalize("globalSearch", "recipes", err)
		}
		if recipes != nil {
			result.Recipes = recipes
		}
	}

	if opts.Profiles() {
		profiles, err := store.Profiles().Search(ctx, query, limit)
		if err != nil {
			s.log.WithError(err).WithField("query", query).Warn("profile search failed")
		} else if profiles != nil {
			result.Profiles = profiles
		}
	}

	return result, nil
}
