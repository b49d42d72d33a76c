package models

// DefaultPageSize applies when an offset is given without a limit.
const DefaultPageSize = 10

// DefaultGlobalSearchLimit bounds each section of a global search.
const DefaultGlobalSearchLimit = 10

// ListOptions narrows a recipe feed. A recipe matches Tags when it carries
// at least one of them.
type ListOptions struct {
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
	Featured   *bool    `json:"featured,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// SearchOptions narrows a recipe text search.
type SearchOptions struct {
	Limit      int      `json:"limit,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// GlobalSearchOptions selects the sections of a global search. Nil flags
// default to included.
type GlobalSearchOptions struct {
	IncludeRecipes  *bool `json:"include_recipes,omitempty"`
	IncludeProfiles *bool `json:"include_profiles,omitempty"`
	Limit           int   `json:"limit,omitempty"`
}

func (o GlobalSearchOptions) Recipes() bool  { return o.IncludeRecipes == nil || *o.IncludeRecipes }
func (o GlobalSearchOptions) Profiles() bool { return o.IncludeProfiles == nil || *o.IncludeProfiles }

// EffectiveLimit returns the per-section limit.
func (o GlobalSearchOptions) EffectiveLimit() int {
	if o.Limit <= 0 {
		return DefaultGlobalSearchLimit
	}
	return o.Limit
}

// GlobalSearchResult groups the matches of a global search.
type GlobalSearchResult struct {
	Recipes  []Recipe  `json:"recipes"`
	Profiles []Profile `json:"profiles"`
}
