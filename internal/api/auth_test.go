package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram-project/backend/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	env := SetupTestEnv(t)

	w := DoJSON(t, env, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"username":   "newuser",
		"email":      "newuser@example.com",
		"first_name": "New",
		"last_name":  "User",
		"password":   "strongpassword1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "newuser", created.User.Username)

	w = DoJSON(t, env, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "newuser@example.com",
		"password": "strongpassword1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var loggedIn struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loggedIn))
	assert.NotEmpty(t, loggedIn.Token)

	w = DoJSON(t, env, "GET", "/api/v1/users/me", loggedIn.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	env := SetupTestEnv(t)
	CreateTestUser(t, env, "taken", models.RoleUser)

	w := DoJSON(t, env, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"username": "taken",
		"email":    "fresh@example.com",
		"password": "strongpassword1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = DoJSON(t, env, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"username": "fresh",
		"email":    "taken@example.com",
		"password": "strongpassword1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := SetupTestEnv(t)
	CreateTestUser(t, env, "someone", models.RoleUser)

	w := DoJSON(t, env, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "someone@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := SetupTestEnv(t)

	w := DoJSON(t, env, "GET", "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = DoJSON(t, env, "GET", "/api/v1/users/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
