package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/types"
)

// RecipeFilters narrows the recipe list. OnlyFavorited and OnlyInCart are
// honored only when Requester is set.
type RecipeFilters struct {
	TagSlugs      []string
	AuthorID      *uuid.UUID
	OnlyFavorited bool
	OnlyInCart    bool
	Requester     *uuid.UUID
	Page          int
	Limit         int
}

// RecipeService handles recipe CRUD and representation assembly.
type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// validateRecipeInput enforces the write-path contract: a non-empty,
// duplicate-free tag list and ingredient-line list, positive amounts and
// cooking time. Runs before any write so a failed update leaves the stored
// recipe unchanged.
func validateRecipeInput(req *types.RecipeRequest) error {
	if req.CookingTime < 1 {
		return newValidationError("cooking_time", "must be at least 1")
	}
	if len(req.Tags) == 0 {
		return newValidationError("tags", "at least one tag is required")
	}
	seenTags := make(map[uuid.UUID]bool, len(req.Tags))
	for _, id := range req.Tags {
		if seenTags[id] {
			return newValidationError("tags", "duplicate tag")
		}
		seenTags[id] = true
	}
	if len(req.Ingredients) == 0 {
		return newValidationError("ingredients", "at least one ingredient is required")
	}
	seenIngredients := make(map[uuid.UUID]bool, len(req.Ingredients))
	for _, line := range req.Ingredients {
		if seenIngredients[line.ID] {
			return newValidationError("ingredients", "duplicate ingredient")
		}
		seenIngredients[line.ID] = true
		if line.Amount < 1 {
			return newValidationError("ingredients", "amount must be at least 1")
		}
	}
	return nil
}

// resolveRefs loads the referenced tags and ingredients; a missing id is a
// NotFound, not a validation failure.
func (s *RecipeService) resolveRefs(ctx context.Context, req *types.RecipeRequest) ([]models.Tag, []models.RecipeIngredient, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", req.Tags).Find(&tags).Error; err != nil {
		return nil, nil, err
	}
	if len(tags) != len(req.Tags) {
		return nil, nil, ErrNotFound
	}

	ingredientIDs := make([]uuid.UUID, len(req.Ingredients))
	for i, line := range req.Ingredients {
		ingredientIDs[i] = line.ID
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).
		Where("id IN ?", ingredientIDs).Count(&count).Error; err != nil {
		return nil, nil, err
	}
	if int(count) != len(req.Ingredients) {
		return nil, nil, ErrNotFound
	}

	lines := make([]models.RecipeIngredient, len(req.Ingredients))
	for i, line := range req.Ingredients {
		lines[i] = models.RecipeIngredient{IngredientID: line.ID, Amount: line.Amount}
	}
	return tags, lines, nil
}

// Create persists a new recipe with its tag set and ingredient lines.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, req *types.RecipeRequest, imageURL string) (*types.RecipeResponse, error) {
	if err := validateRecipeInput(req); err != nil {
		return nil, err
	}
	tags, lines, err := s.resolveRefs(ctx, req)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		Name:        req.Name,
		Text:        req.Text,
		ImageURL:    imageURL,
		CookingTime: req.CookingTime,
		AuthorID:    authorID,
		Tags:        tags,
		Ingredients: lines,
	}
	if err := s.db.WithContext(ctx).Create(&recipe).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	return s.Get(ctx, recipe.ID, &authorID)
}

// Update replaces the recipe's fields, tag set and ingredient-line set
// (clear-then-recreate, one transaction). Only the author or a moderating
// role may mutate.
func (s *RecipeService) Update(ctx context.Context, actor *models.User, recipeID uuid.UUID, req *types.RecipeRequest, imageURL string) (*types.RecipeResponse, error) {
	recipe, err := s.load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != actor.ID && !actor.CanModerate() {
		return nil, ErrForbidden
	}

	if err := validateRecipeInput(req); err != nil {
		return nil, err
	}
	tags, lines, err := s.resolveRefs(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":         req.Name,
			"text":         req.Text,
			"cooking_time": req.CookingTime,
		}
		if imageURL != "" {
			updates["image_url"] = imageURL
		}
		if err := tx.Model(recipe).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = recipe.ID
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	return s.Get(ctx, recipeID, &actor.ID)
}

// Delete removes the recipe together with its ingredient lines, tag links
// and any favorite or cart memberships.
func (s *RecipeService) Delete(ctx context.Context, actor *models.User, recipeID uuid.UUID) error {
	recipe, err := s.load(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != actor.ID && !actor.CanModerate() {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&models.ShoppingCart{}).Error; err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
}

// Get assembles the full representation of one recipe for the requester.
func (s *RecipeService) Get(ctx context.Context, recipeID uuid.UUID, requester *uuid.UUID) (*types.RecipeResponse, error) {
	recipe, err := s.load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	responses, err := s.buildResponses(ctx, []models.Recipe{*recipe}, requester)
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// List returns a filtered, paginated recipe page, newest first.
func (s *RecipeService) List(ctx context.Context, filters RecipeFilters) (*types.Page, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if len(filters.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filters.TagSlugs)
	}
	if filters.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filters.AuthorID)
	}
	if filters.Requester != nil {
		if filters.OnlyFavorited {
			query = query.Where("recipes.id IN (?)", s.db.Model(&models.Favorite{}).
				Select("recipe_id").Where("user_id = ?", *filters.Requester))
		}
		if filters.OnlyInCart {
			query = query.Where("recipes.id IN (?)", s.db.Model(&models.ShoppingCart{}).
				Select("recipe_id").Where("user_id = ?", *filters.Requester))
		}
	}

	// The tag join can match a recipe once per tag; count and select must
	// both deduplicate, and COUNT(DISTINCT ...) needs a single column.
	countQuery := query.Session(&gorm.Session{})
	if len(filters.TagSlugs) > 0 {
		countQuery = countQuery.Distinct("recipes.id")
	}
	var count int64
	if err := countQuery.Count(&count).Error; err != nil {
		return nil, err
	}

	listQuery := query.Session(&gorm.Session{})
	if len(filters.TagSlugs) > 0 {
		listQuery = listQuery.Distinct("recipes.*")
	}

	page, limit := normalizePage(filters.Page, filters.Limit)
	var recipes []models.Recipe
	err := listQuery.
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		Order("recipes.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}

	responses, err := s.buildResponses(ctx, recipes, filters.Requester)
	if err != nil {
		return nil, err
	}

	return &types.Page{Count: count, Page: page, Limit: limit, Results: responses}, nil
}

// Brief returns the trimmed representation used by toggle responses.
func (s *RecipeService) Brief(ctx context.Context, recipeID uuid.UUID) (*types.RecipeBriefResponse, error) {
	recipe, err := s.load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return &types.RecipeBriefResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}, nil
}

func (s *RecipeService) load(ctx context.Context, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		First(&recipe, "id = ?", recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// buildResponses assembles representations with the per-requester derived
// flags. Anonymous requesters always see false flags.
func (s *RecipeService) buildResponses(ctx context.Context, recipes []models.Recipe, requester *uuid.UUID) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uuid.UUID, len(recipes))
	authorIDs := make([]uuid.UUID, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorited := map[uuid.UUID]bool{}
	inCart := map[uuid.UUID]bool{}
	subscribed := map[uuid.UUID]bool{}
	if requester != nil && len(recipes) > 0 {
		var err error
		if favorited, err = s.pairSet(ctx, &models.Favorite{}, "recipe_id", *requester, recipeIDs); err != nil {
			return nil, err
		}
		if inCart, err = s.pairSet(ctx, &models.ShoppingCart{}, "recipe_id", *requester, recipeIDs); err != nil {
			return nil, err
		}
		if subscribed, err = s.pairSet(ctx, &models.Follow{}, "author_id", *requester, authorIDs); err != nil {
			return nil, err
		}
	}

	responses := make([]types.RecipeResponse, len(recipes))
	for i, r := range recipes {
		tags := make([]types.TagResponse, len(r.Tags))
		for j, t := range r.Tags {
			tags[j] = types.TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
		}
		lines := make([]types.IngredientLineResponse, len(r.Ingredients))
		for j, line := range r.Ingredients {
			lines[j] = types.IngredientLineResponse{
				ID:     line.IngredientID,
				Amount: line.Amount,
			}
			if line.Ingredient != nil {
				lines[j].Name = line.Ingredient.Name
				lines[j].MeasurementUnit = line.Ingredient.MeasurementUnit
			}
		}
		author := types.UserResponse{ID: r.AuthorID}
		if r.Author != nil {
			author = types.UserResponse{
				ID:           r.Author.ID,
				Username:     r.Author.Username,
				Email:        r.Author.Email,
				FirstName:    r.Author.FirstName,
				LastName:     r.Author.LastName,
				IsSubscribed: subscribed[r.AuthorID],
			}
		}
		responses[i] = types.RecipeResponse{
			ID:               r.ID,
			Tags:             tags,
			Author:           author,
			Ingredients:      lines,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.ImageURL,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return responses, nil
}

// pairSet returns the subset of targetIDs the user has a membership row for.
func (s *RecipeService) pairSet(ctx context.Context, model interface{}, targetCol string, userID uuid.UUID, targetIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND "+targetCol+" IN ?", userID, targetIDs).
		Pluck(targetCol, &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
