package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/types"
)

func TestSetPassword(t *testing.T) {
	env := SetupTestEnv(t)
	_, token := CreateTestUser(t, env, "someone", models.RoleUser)

	w := DoJSON(t, env, "POST", "/api/v1/users/set_password", token, map[string]interface{}{
		"current_password": "wrong-password",
		"new_password":     "brandnewpassword1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = DoJSON(t, env, "POST", "/api/v1/users/set_password", token, map[string]interface{}{
		"current_password": "testpassword123",
		"new_password":     "brandnewpassword1",
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	// The old password stops working after the change.
	w = DoJSON(t, env, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "someone@example.com",
		"password": "testpassword123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = DoJSON(t, env, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "someone@example.com",
		"password": "brandnewpassword1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscribeLifecycle(t *testing.T) {
	env := SetupTestEnv(t)
	author, _ := CreateTestUser(t, env, "author", models.RoleUser)
	follower, token := CreateTestUser(t, env, "follower", models.RoleUser)

	path := "/api/v1/users/" + author.ID.String() + "/subscribe"

	w := DoJSON(t, env, "POST", path, token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var repr types.SubscriptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &repr))
	assert.Equal(t, "author", repr.Username)
	assert.True(t, repr.IsSubscribed)

	w = DoJSON(t, env, "POST", path, token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Self-subscription is rejected.
	w = DoJSON(t, env, "POST", "/api/v1/users/"+follower.ID.String()+"/subscribe", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = DoJSON(t, env, "DELETE", path, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = DoJSON(t, env, "DELETE", path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscribeMissingAuthor(t *testing.T) {
	env := SetupTestEnv(t)
	_, token := CreateTestUser(t, env, "follower", models.RoleUser)

	w := DoJSON(t, env, "POST", "/api/v1/users/"+uuid.NewString()+"/subscribe", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscriptionsListWithRecipesLimit(t *testing.T) {
	env := SetupTestEnv(t)
	author, authorToken := CreateTestUser(t, env, "author", models.RoleUser)
	_, token := CreateTestUser(t, env, "follower", models.RoleUser)

	tag := CreateTestTag(t, env, "Lunch", "#49B64E", "lunch")
	flour := CreateTestIngredient(t, env, "flour", "g")
	for _, name := range []string{"Soup", "Bread", "Cake"} {
		w := DoJSON(t, env, "POST", "/api/v1/recipes", authorToken,
			recipePayload(name, []uuid.UUID{tag.ID}, map[uuid.UUID]int{flour.ID: 100}, 30))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := DoJSON(t, env, "POST", "/api/v1/users/"+author.ID.String()+"/subscribe", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = DoJSON(t, env, "GET", "/api/v1/users/subscriptions?recipes_limit=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page struct {
		Count   int64                        `json:"count"`
		Results []types.SubscriptionResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Results, 1)

	sub := page.Results[0]
	assert.Equal(t, "author", sub.Username)
	assert.EqualValues(t, 3, sub.RecipesCount)
	assert.Len(t, sub.Recipes, 2)
}

func TestListUsersShowsSubscriptionFlag(t *testing.T) {
	env := SetupTestEnv(t)
	author, _ := CreateTestUser(t, env, "author", models.RoleUser)
	_, token := CreateTestUser(t, env, "follower", models.RoleUser)

	w := DoJSON(t, env, "POST", "/api/v1/users/"+author.ID.String()+"/subscribe", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = DoJSON(t, env, "GET", "/api/v1/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Results []types.UserResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))

	flags := map[string]bool{}
	for _, u := range page.Results {
		flags[u.Username] = u.IsSubscribed
	}
	assert.True(t, flags["author"])
	assert.False(t, flags["follower"])

	// Anonymous requesters never see subscription flags.
	w = DoJSON(t, env, "GET", "/api/v1/users", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page.Results = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	for _, u := range page.Results {
		assert.False(t, u.IsSubscribed)
	}
}
