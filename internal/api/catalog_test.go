package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram-project/backend/internal/types"
)

func TestListTags(t *testing.T) {
	env := SetupTestEnv(t)
	CreateTestTag(t, env, "Dinner", "#8775D2", "dinner")
	breakfast := CreateTestTag(t, env, "Breakfast", "#E26C2D", "breakfast")

	w := DoJSON(t, env, "GET", "/api/v1/tags", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tags []types.TagResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
	require.Len(t, tags, 2)
	// Sorted by name, not insertion order.
	assert.Equal(t, "Breakfast", tags[0].Name)
	assert.Equal(t, "Dinner", tags[1].Name)

	w = DoJSON(t, env, "GET", "/api/v1/tags/"+breakfast.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tag types.TagResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tag))
	assert.Equal(t, "breakfast", tag.Slug)
	assert.Equal(t, "#E26C2D", tag.Color)

	w = DoJSON(t, env, "GET", "/api/v1/tags/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchIngredientsByPrefix(t *testing.T) {
	env := SetupTestEnv(t)
	CreateTestIngredient(t, env, "Sugar", "g")
	CreateTestIngredient(t, env, "sunflower oil", "ml")
	CreateTestIngredient(t, env, "salt", "g")

	search := func(query string) []string {
		w := DoJSON(t, env, "GET", "/api/v1/ingredients"+query, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var items []types.IngredientLineResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		names := make([]string, len(items))
		for i, item := range items {
			names[i] = item.Name
		}
		return names
	}

	// Prefix match is case-insensitive.
	assert.ElementsMatch(t, []string{"Sugar", "sunflower oil"}, search("?name=su"))
	assert.ElementsMatch(t, []string{"Sugar"}, search("?name=SUG"))
	assert.Empty(t, search("?name=zz"))
	assert.ElementsMatch(t, []string{"Sugar", "sunflower oil", "salt"}, search(""))
}
