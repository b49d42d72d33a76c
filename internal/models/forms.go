package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
)

// CreateRecipeData is the publish form of a recipe.
type CreateRecipeData struct {
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	Ingredients     []string   `json:"ingredients"`
	Instructions    []string   `json:"instructions"`
	PrepTime        *int       `json:"prep_time,omitempty"`
	CookTime        *int       `json:"cook_time,omitempty"`
	Servings        *int       `json:"servings,omitempty"`
	DifficultyLevel Difficulty `json:"difficulty_level"`
	Category        string     `json:"category"`
	Tags            []string   `json:"tags"`
	ImageURL        *string    `json:"image_url,omitempty"`
}

// Normalize trims every text field in place. Blank list entries are kept so
// Validate can reject them by name.
func (d *CreateRecipeData) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Category = strings.TrimSpace(d.Category)
	d.DifficultyLevel = Difficulty(strings.ToLower(strings.TrimSpace(string(d.DifficultyLevel))))
	trimAll(d.Ingredients)
	trimAll(d.Instructions)
	trimAll(d.Tags)
	d.Description = trimOptional(d.Description)
	d.ImageURL = trimOptional(d.ImageURL)
}

// Validate checks the form and returns the failures keyed by json field name.
func (d CreateRecipeData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required.Error("title is required"), validation.Length(1, 255)),
		validation.Field(&d.Ingredients,
			validation.Required.Error("at least one ingredient is required"),
			validation.Each(validation.Required.Error("ingredients cannot be empty"))),
		validation.Field(&d.Instructions,
			validation.Required.Error("at least one instruction is required"),
			validation.Each(validation.Required.Error("instructions cannot be empty"))),
		validation.Field(&d.PrepTime, validation.Min(0).Error("prep time cannot be negative")),
		validation.Field(&d.CookTime, validation.Min(0).Error("cook time cannot be negative")),
		validation.Field(&d.Servings, validation.By(atLeastOne)),
		validation.Field(&d.DifficultyLevel,
			validation.Required.Error("difficulty is required"),
			validation.In(Difficulties...).Error("difficulty must be easy, medium or hard")),
		validation.Field(&d.Category, validation.Required.Error("category is required")),
		validation.Field(&d.Tags,
			validation.Required.Error("at least one tag is required"),
			validation.Each(validation.Required.Error("tags cannot be empty"))),
	)
}

// UpdateRecipeData carries the fields an owner may change. Nil means
// unchanged; a non-nil empty list is an attempt to clear it and is rejected.
type UpdateRecipeData struct {
	Title           *string     `json:"title,omitempty"`
	Description     *string     `json:"description,omitempty"`
	Ingredients     []string    `json:"ingredients,omitempty"`
	Instructions    []string    `json:"instructions,omitempty"`
	PrepTime        *int        `json:"prep_time,omitempty"`
	CookTime        *int        `json:"cook_time,omitempty"`
	Servings        *int        `json:"servings,omitempty"`
	DifficultyLevel *Difficulty `json:"difficulty_level,omitempty"`
	Category        *string     `json:"category,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	ImageURL        *string     `json:"image_url,omitempty"`
}

func (d *UpdateRecipeData) Normalize() {
	d.Title = trimOptional(d.Title)
	d.Category = trimOptional(d.Category)
	d.Description = trimOptional(d.Description)
	d.ImageURL = trimOptional(d.ImageURL)
	if d.DifficultyLevel != nil {
		lvl := Difficulty(strings.ToLower(strings.TrimSpace(string(*d.DifficultyLevel))))
		d.DifficultyLevel = &lvl
	}
	trimAll(d.Ingredients)
	trimAll(d.Instructions)
	trimAll(d.Tags)
}

func (d UpdateRecipeData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.When(d.Title != nil, validation.Required.Error("title is required"))),
		validation.Field(&d.Ingredients, validation.When(d.Ingredients != nil,
			validation.Required.Error("at least one ingredient is required"),
			validation.Each(validation.Required.Error("ingredients cannot be empty")))),
		validation.Field(&d.Instructions, validation.When(d.Instructions != nil,
			validation.Required.Error("at least one instruction is required"),
			validation.Each(validation.Required.Error("instructions cannot be empty")))),
		validation.Field(&d.PrepTime, validation.Min(0).Error("prep time cannot be negative")),
		validation.Field(&d.CookTime, validation.Min(0).Error("cook time cannot be negative")),
		validation.Field(&d.Servings, validation.By(atLeastOne)),
		validation.Field(&d.DifficultyLevel, validation.When(d.DifficultyLevel != nil,
			validation.Required.Error("difficulty is required"),
			validation.In(Difficulties...).Error("difficulty must be easy, medium or hard"))),
		validation.Field(&d.Category, validation.When(d.Category != nil, validation.Required.Error("category is required"))),
		validation.Field(&d.Tags, validation.When(d.Tags != nil,
			validation.Required.Error("at least one tag is required"),
			validation.Each(validation.Required.Error("tags cannot be empty")))),
	)
}

// Empty reports whether no field was supplied.
func (d UpdateRecipeData) Empty() bool {
	return len(d.Fields()) == 0
}

// Fields returns the supplied values keyed by column name.
func (d UpdateRecipeData) Fields() map[string]interface{} {
	f := map[string]interface{}{}
	if d.Title != nil {
		f["title"] = *d.Title
	}
	if d.Description != nil {
		f["description"] = *d.Description
	}
	if d.Ingredients != nil {
		f["ingredients"] = StringArray(d.Ingredients)
	}
	if d.Instructions != nil {
		f["instructions"] = StringArray(d.Instructions)
	}
	if d.PrepTime != nil {
		f["prep_time"] = *d.PrepTime
	}
	if d.CookTime != nil {
		f["cook_time"] = *d.CookTime
	}
	if d.Servings != nil {
		f["servings"] = *d.Servings
	}
	if d.DifficultyLevel != nil {
		f["difficulty_level"] = string(*d.DifficultyLevel)
	}
	if d.Category != nil {
		f["category"] = *d.Category
	}
	if d.Tags != nil {
		f["tags"] = StringArray(d.Tags)
	}
	if d.ImageURL != nil {
		f["image_url"] = *d.ImageURL
	}
	return f
}

// ProfileUpdate carries the profile fields a user may edit.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (u *ProfileUpdate) Normalize() {
	u.FirstName = trimOptional(u.FirstName)
	u.LastName = trimOptional(u.LastName)
	u.Bio = trimOptional(u.Bio)
	u.AvatarURL = trimOptional(u.AvatarURL)
}

func (u ProfileUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.FirstName, validation.When(u.FirstName != nil,
			validation.Required.Error("first name cannot be empty"), validation.Length(1, 100))),
		validation.Field(&u.LastName, validation.When(u.LastName != nil,
			validation.Required.Error("last name cannot be empty"), validation.Length(1, 100))),
		validation.Field(&u.Bio, validation.Length(0, 1000)),
	)
}

func (u ProfileUpdate) Fields() map[string]interface{} {
	f := map[string]interface{}{}
	if u.FirstName != nil {
		f["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		f["last_name"] = *u.LastName
	}
	if u.Bio != nil {
		f["bio"] = *u.Bio
	}
	if u.AvatarURL != nil {
		f["avatar_url"] = *u.AvatarURL
	}
	return f
}

// FieldErrors flattens ozzo validation errors into field name to message.
// It returns nil when err is not a field validation failure.
func FieldErrors(err error) map[string]string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return nil
	}
	out := make(map[string]string, len(errs))
	for field, fe := range errs {
		var nested validation.Errors
		if errors.As(fe, &nested) {
			// Each() reports per index; surface the first message under the list name.
			for _, ne := range nested {
				out[field] = ne.Error()
				break
			}
			continue
		}
		out[field] = fe.Error()
	}
	return out
}

func atLeastOne(value interface{}) error {
	v, _ := value.(*int)
	if v != nil && *v < 1 {
		return errors.New("servings must be at least 1")
	}
	return nil
}

func trimAll(items []string) {
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
