// Package mutations performs writes through the resource access functions
// and then declares how the cache changes. Commands are applied only after
// the write succeeded.
package mutations

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/cache"
	"github.com/pageza/chef-next-door/backend/internal/models"
	"github.com/pageza/chef-next-door/backend/internal/service"
	"github.com/pageza/chef-next-door/backend/internal/session"
)

// Applier interprets cache commands. Both the cache adapter and the read
// hooks client satisfy it; the latter also updates live subscriptions.
type Applier interface {
	Apply(ctx context.Context, cmds ...cache.Command) error
}

// listViews are the namespaces whose entries may contain any recipe.
var listViews = []string{cache.NSAllRecipes, cache.NSSearchRecipes, cache.NSGlobalSearch}

func invalidateListViews() []cache.Command {
	cmds := make([]cache.Command, 0, len(listViews))
	for _, ns := range listViews {
		cmds = append(cmds, cache.InvalidateNamespace(ns))
	}
	return cmds
}

// PlanUpdateProfile replaces the cached profile with the updated row.
func PlanUpdateProfile(profile *models.Profile) []cache.Command {
	return []cache.Command{cache.Replace(cache.ProfileKey(profile.ID), profile)}
}

// PlanCreateRecipe marks stale the chef's list, the chef's profile (recipe
// count) and every list view.
func PlanCreateRecipe(userID uuid.UUID) []cache.Command {
	return append([]cache.Command{
		cache.Invalidate(cache.UserRecipesKey(userID)),
		cache.Invalidate(cache.ProfileKey(userID)),
	}, invalidateListViews()...)
}

func PlanUpdateRecipe(userID uuid.UUID, recipe *models.Recipe) []cache.Command {
	return append([]cache.Command{
		cache.Replace(cache.RecipeKey(recipe.ID), recipe),
		cache.Invalidate(cache.UserRecipesKey(userID)),
	}, invalidateListViews()...)
}

// PlanDeleteRecipe drops the recipe entry so nothing serves it again.
func PlanDeleteRecipe(userID, recipeID uuid.UUID) []cache.Command {
	return append([]cache.Command{
		cache.Purge(cache.RecipeKey(recipeID)),
		cache.Invalidate(cache.UserRecipesKey(userID)),
		cache.Invalidate(cache.ProfileKey(userID)),
	}, invalidateListViews()...)
}

// PlanRateRecipe only refreshes the rated recipe; aggregates are computed
// by the backend.
func PlanRateRecipe(recipeID uuid.UUID) []cache.Command {
	return []cache.Command{cache.Invalidate(cache.RecipeKey(recipeID))}
}

// Helpers pair each write with its command plan.
type Helpers struct {
	cache    Applier
	profiles service.IProfileService
	recipes  service.IRecipeService
	log      logrus.FieldLogger
}

func New(applier Applier, profiles service.IProfileService, recipes service.IRecipeService, log logrus.FieldLogger) *Helpers {
	return &Helpers{
		cache:    applier,
		profiles: profiles,
		recipes:  recipes,
		log:      log.WithField("component", "Mutations"),
	}
}

// apply never fails the mutation: the write already happened and a missed
// command only costs a stale read until the next revalidation.
func (h *Helpers) apply(ctx context.Context, op string, cmds []cache.Command) {
	if err := h.cache.Apply(ctx, cmds...); err != nil {
		h.log.WithError(err).WithField("op", op).Warn("cache commands failed after write")
	}
}

func (h *Helpers) UpdateProfile(ctx context.Context, sess session.Session, update models.ProfileUpdate) (*models.Profile, error) {
	profile, err := h.profiles.UpdateProfile(ctx, sess, update)
	if err != nil {
		return nil, err
	}
	h.apply(ctx, "updateProfile", PlanUpdateProfile(profile))
	return profile, nil
}

func (h *Helpers) CreateRecipe(ctx context.Context, sess session.Session, data models.CreateRecipeData) (*models.Recipe, error) {
	recipe, err := h.recipes.CreateRecipe(ctx, sess, data)
	if err != nil {
		return nil, err
	}
	h.apply(ctx, "createRecipe", PlanCreateRecipe(recipe.ChefID))
	return recipe, nil
}

func (h *Helpers) UpdateRecipe(ctx context.Context, sess session.Session, id uuid.UUID, data models.UpdateRecipeData) (*models.Recipe, error) {
	recipe, err := h.recipes.UpdateRecipe(ctx, sess, id, data)
	if err != nil {
		return nil, err
	}
	h.apply(ctx, "updateRecipe", PlanUpdateRecipe(recipe.ChefID, recipe))
	return recipe, nil
}

func (h *Helpers) DeleteRecipe(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if err := h.recipes.DeleteRecipe(ctx, sess, id); err != nil {
		return err
	}
	userID, err := session.UserID(ctx, sess)
	if err != nil {
		// The delete went through with this session, so this only happens
		// with a session that stopped resolving. Drop the recipe anyway.
		h.apply(ctx, "deleteRecipe", []cache.Command{cache.Purge(cache.RecipeKey(id))})
		return nil
	}
	h.apply(ctx, "deleteRecipe", PlanDeleteRecipe(userID, id))
	return nil
}

func (h *Helpers) RateRecipe(ctx context.Context, sess session.Session, id uuid.UUID, rating int) error {
	if err := h.recipes.RateRecipe(ctx, sess, id, rating); err != nil {
		return err
	}
	h.apply(ctx, "rateRecipe", PlanRateRecipe(id))
	return nil
}
