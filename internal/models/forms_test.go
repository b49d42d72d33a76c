package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func tacos() CreateRecipeData {
	return CreateRecipeData{
		Title:           "Tacos",
		Ingredients:     []string{"1 tortilla"},
		Instructions:    []string{"Fill it"},
		Tags:            []string{"quick"},
		DifficultyLevel: DifficultyEasy,
		Category:        "dinner",
		PrepTime:        intPtr(5),
		CookTime:        intPtr(5),
		Servings:        intPtr(1),
	}
}

func TestCreateRecipeDataValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *CreateRecipeData)
		wantField string
	}{
		{"valid", func(d *CreateRecipeData) {}, ""},
		{"empty ingredients", func(d *CreateRecipeData) { d.Ingredients = nil }, "ingredients"},
		{"blank ingredient", func(d *CreateRecipeData) { d.Ingredients = []string{"salt", "   "} }, "ingredients"},
		{"empty instructions", func(d *CreateRecipeData) { d.Instructions = []string{} }, "instructions"},
		{"zero tags", func(d *CreateRecipeData) { d.Tags = nil }, "tags"},
		{"missing title", func(d *CreateRecipeData) { d.Title = "  " }, "title"},
		{"bad difficulty", func(d *CreateRecipeData) { d.DifficultyLevel = "extreme" }, "difficulty_level"},
		{"negative prep", func(d *CreateRecipeData) { d.PrepTime = intPtr(-1) }, "prep_time"},
		{"zero servings", func(d *CreateRecipeData) { d.Servings = intPtr(0) }, "servings"},
		{"missing category", func(d *CreateRecipeData) { d.Category = "" }, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tacos()
			tt.mutate(&d)
			d.Normalize()
			err := d.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fields := FieldErrors(err)
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestCreateRecipeDataNormalize(t *testing.T) {
	d := tacos()
	d.Title = "  Tacos "
	d.DifficultyLevel = " Easy"
	d.Tags = []string{" quick "}
	d.Normalize()

	assert.Equal(t, "Tacos", d.Title)
	assert.Equal(t, DifficultyEasy, d.DifficultyLevel)
	assert.Equal(t, []string{"quick"}, d.Tags)
	assert.NoError(t, d.Validate())
}

func TestUpdateRecipeData(t *testing.T) {
	t.Run("empty update is valid and empty", func(t *testing.T) {
		var d UpdateRecipeData
		assert.NoError(t, d.Validate())
		assert.True(t, d.Empty())
	})

	t.Run("clearing ingredients is rejected", func(t *testing.T) {
		d := UpdateRecipeData{Ingredients: []string{}}
		fields := FieldErrors(d.Validate())
		assert.Contains(t, fields, "ingredients")
	})

	t.Run("fields keyed by column", func(t *testing.T) {
		title := "Better Tacos"
		d := UpdateRecipeData{Title: &title, Tags: []string{"spicy"}}
		require.NoError(t, d.Validate())
		assert.Equal(t, map[string]interface{}{
			"title": "Better Tacos",
			"tags":  StringArray{"spicy"},
		}, d.Fields())
	})
}

func TestProfileUpdate(t *testing.T) {
	blank := "  "
	u := ProfileUpdate{FirstName: &blank}
	u.Normalize()
	assert.Contains(t, FieldErrors(u.Validate()), "first_name")

	bio := "Home cook"
	u = ProfileUpdate{Bio: &bio}
	require.NoError(t, u.Validate())
	assert.Equal(t, map[string]interface{}{"bio": "Home cook"}, u.Fields())
}

func TestStringArray(t *testing.T) {
	v, err := StringArray{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	empty, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)

	var a StringArray
	require.NoError(t, a.Scan([]byte(`["x"]`)))
	assert.Equal(t, StringArray{"x"}, a)
	require.NoError(t, a.Scan(nil))
	assert.Empty(t, a)
	assert.Error(t, a.Scan(42))
}
