package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/chef-next-door/backend/internal/models"
)

func TestDatabaseSetup(t *testing.T) {
	db := NewSQLiteDB(t)
	require.NotNil(t, db)

	chef := CreateProfile(t, db, "Ada", "Lovelace")
	assert.NotEmpty(t, chef.Email)

	recipe := CreateRecipe(t, db, chef.ID, "Bread", func(r *models.Recipe) {
		r.Featured = true
	})
	assert.NotZero(t, recipe.ID)

	var stored models.Recipe
	require.NoError(t, db.First(&stored, "id = ?", recipe.ID).Error)
	assert.Equal(t, "Bread", stored.Title)
	assert.True(t, stored.Featured)
	assert.Equal(t, models.StringArray{"quick"}, stored.Tags)
}

func TestSQLiteDatabasesAreIsolated(t *testing.T) {
	first := NewSQLiteDB(t)
	second := NewSQLiteDB(t)

	CreateProfile(t, first, "Ada", "Lovelace")

	var count int64
	require.NoError(t, second.Model(&models.Profile{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTacosDataIsValid(t *testing.T) {
	data := TacosData()
	data.Normalize()
	assert.NoError(t, data.Validate())
}
