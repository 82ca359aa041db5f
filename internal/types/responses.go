package types

import (
	"github.com/google/uuid"
)

// UserResponse is the public representation of a user. IsSubscribed is
// computed per requester and is always false for anonymous requests.
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

// IngredientLineResponse is one ingredient line of a recipe representation.
type IngredientLineResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// TagResponse mirrors the tag catalog row.
type TagResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
	Slug  string    `json:"slug"`
}

// RecipeResponse is the full recipe representation.
type RecipeResponse struct {
	ID                uuid.UUID                `json:"id"`
	Tags              []TagResponse            `json:"tags"`
	Author            UserResponse             `json:"author"`
	Ingredients       []IngredientLineResponse `json:"ingredients"`
	IsFavorited       bool                     `json:"is_favorited"`
	IsInShoppingCart  bool                     `json:"is_in_shopping_cart"`
	Name              string                   `json:"name"`
	Image             string                   `json:"image"`
	Text              string                   `json:"text"`
	CookingTime       int                      `json:"cooking_time"`
}

// RecipeBriefResponse is the trimmed recipe shape used in toggle responses
// and subscription feeds.
type RecipeBriefResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

// SubscriptionResponse is one followed author plus a trimmed recipe feed.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeBriefResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

// Page wraps a paginated list response.
type Page struct {
	Count   int64       `json:"count"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	Results interface{} `json:"results"`
}
