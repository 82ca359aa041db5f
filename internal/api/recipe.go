package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram-project/backend/internal/middleware"
	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/service"
	"github.com/foodgram-project/backend/internal/types"
)

// RecipeHandler serves recipe CRUD, the favorite and shopping-cart toggles
// and the shopping-list download.
type RecipeHandler struct {
	authService         *service.AuthService
	recipeService       *service.RecipeService
	membershipService   *service.MembershipService
	shoppingListService *service.ShoppingListService
	imageService        *service.ImageService
	creationLimiter     *middleware.RateLimiter
}

func NewRecipeHandler(
	authService *service.AuthService,
	recipeService *service.RecipeService,
	membershipService *service.MembershipService,
	shoppingListService *service.ShoppingListService,
	imageService *service.ImageService,
	creationLimiter *middleware.RateLimiter,
) *RecipeHandler {
	return &RecipeHandler{
		authService:         authService,
		recipeService:       recipeService,
		membershipService:   membershipService,
		shoppingListService: shoppingListService,
		imageService:        imageService,
		creationLimiter:     creationLimiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.OptionalAuthMiddleware(h.authService), h.ListRecipes)
		recipes.GET("/download_shopping_cart", middleware.AuthMiddleware(h.authService), h.DownloadShoppingCart)
		recipes.GET("/:id", middleware.OptionalAuthMiddleware(h.authService), h.GetRecipe)
		recipes.POST("", middleware.AuthMiddleware(h.authService), h.creationLimiter.RateLimitMiddleware(), h.CreateRecipe)
		recipes.PATCH("/:id", middleware.AuthMiddleware(h.authService), h.UpdateRecipe)
		recipes.DELETE("/:id", middleware.AuthMiddleware(h.authService), h.DeleteRecipe)
		recipes.POST("/:id/favorite", middleware.AuthMiddleware(h.authService), h.FavoriteRecipe)
		recipes.DELETE("/:id/favorite", middleware.AuthMiddleware(h.authService), h.UnfavoriteRecipe)
		recipes.POST("/:id/shopping_cart", middleware.AuthMiddleware(h.authService), h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", middleware.AuthMiddleware(h.authService), h.RemoveFromShoppingCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filters := service.RecipeFilters{
		TagSlugs:  c.QueryArray("tags"),
		Requester: optionalUserID(c),
	}
	filters.Page, _ = strconv.Atoi(c.Query("page"))
	filters.Limit, _ = strconv.Atoi(c.Query("limit"))

	if author := c.Query("author"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author"})
			return
		}
		filters.AuthorID = &authorID
	}
	// Membership filters apply only to authenticated requesters.
	if filters.Requester != nil {
		filters.OnlyFavorited = parseBool(c.Query("is_favorited"))
		filters.OnlyInCart = parseBool(c.Query("is_in_shopping_cart"))
	}

	result, err := h.recipeService.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := currentUserID(c)

	imageURL, err := h.imageService.StoreDataURI(c.Request.Context(), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), userID, &req, imageURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.actor(c)
	if err != nil {
		respondError(c, err)
		return
	}

	imageURL, err := h.imageService.StoreDataURI(c.Request.Context(), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), actor, id, &req, imageURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	actor, err := h.actor(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	h.addMembership(c, h.membershipService.AddFavorite)
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	h.removeMembership(c, h.membershipService.RemoveFavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addMembership(c, h.membershipService.AddToCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeMembership(c, h.membershipService.RemoveFromCart)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := currentUserID(c)

	items, err := h.shoppingListService.Aggregate(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "pdf" {
		var buf bytes.Buffer
		if err := h.shoppingListService.RenderPDF(items, &buf); err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="shoppinglist.pdf"`)
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shoppinglist.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(h.shoppingListService.RenderText(items)))
}

// addMembership runs one of the toggle-on operations and responds with the
// trimmed recipe representation.
func (h *RecipeHandler) addMembership(c *gin.Context, add func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	recipeID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := currentUserID(c)

	if err := add(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}

	brief, err := h.recipeService.Brief(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, brief)
}

// removeMembership runs one of the toggle-off operations.
func (h *RecipeHandler) removeMembership(c *gin.Context, remove func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	recipeID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := currentUserID(c)

	if err := remove(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// actor loads the acting user so ownership and role checks can run against
// the stored role.
func (h *RecipeHandler) actor(c *gin.Context) (*models.User, error) {
	userID, _ := currentUserID(c)
	return h.authService.GetUserByID(c.Request.Context(), userID)
}

func parseBool(v string) bool {
	return v == "1" || v == "true"
}
