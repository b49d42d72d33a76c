package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "debug", Format: "json", Output: &buf})

	Component(logger, "RecipeService").WithField("recipe_id", "r1").Debug("created")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "RecipeService", line["component"])
	assert.Equal(t, "r1", line["recipe_id"])
	assert.Equal(t, "created", line["msg"])
}

func TestNewDefaultsToInfo(t *testing.T) {
	logger := New(Options{Level: "nonsense", Output: &bytes.Buffer{}})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
