package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/types"
)

func TestListFiltersByTagWithoutDuplicates(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	author := newUser(t, db, "author")
	lunch := &models.Tag{Name: "Lunch", Color: "#49B64E", Slug: "lunch"}
	dinner := &models.Tag{Name: "Dinner", Color: "#8775D2", Slug: "dinner"}
	mustCreate(t, db, lunch)
	mustCreate(t, db, dinner)
	flour := &models.Ingredient{Name: "flour", MeasurementUnit: "g"}
	mustCreate(t, db, flour)

	// Stew carries both tags; the join must not count or list it twice.
	_, err := svc.Create(ctx, author.ID, &types.RecipeRequest{
		Name: "Stew", Text: "Simmer", CookingTime: 90,
		Tags:        []uuid.UUID{lunch.ID, dinner.ID},
		Ingredients: []types.IngredientLineRequest{{ID: flour.ID, Amount: 50}},
	}, "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, author.ID, &types.RecipeRequest{
		Name: "Steak", Text: "Grill", CookingTime: 20,
		Tags:        []uuid.UUID{dinner.ID},
		Ingredients: []types.IngredientLineRequest{{ID: flour.ID, Amount: 10}},
	}, "")
	require.NoError(t, err)

	page, err := svc.List(ctx, RecipeFilters{TagSlugs: []string{"lunch", "dinner"}})
	require.NoError(t, err)
	results, ok := page.Results.([]types.RecipeResponse)
	require.True(t, ok)

	assert.EqualValues(t, 2, page.Count)
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	assert.ElementsMatch(t, []string{"Stew", "Steak"}, names)

	page, err = svc.List(ctx, RecipeFilters{TagSlugs: []string{"lunch"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Count)

	page, err = svc.List(ctx, RecipeFilters{TagSlugs: []string{"nonexistent"}})
	require.NoError(t, err)
	assert.Zero(t, page.Count)
}

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 10},
		{-3, -1, 1, 10},
		{2, 50, 2, 50},
		{1, 100, 1, 100},
		{1, 500, 1, 100},
	}
	for _, tc := range cases {
		page, limit := normalizePage(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page)
		assert.Equal(t, tc.wantLimit, limit)
	}
}
