package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/types"
)

// UserService serves user directory reads and the subscriptions feed.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// List returns a paginated user directory with is_subscribed computed for
// the requester.
func (s *UserService) List(ctx context.Context, requester *uuid.UUID, page, limit int) (*types.Page, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, err
	}

	page, limit = normalizePage(page, limit)
	var users []models.User
	err := s.db.WithContext(ctx).
		Order("username").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	responses, err := s.buildResponses(ctx, users, requester)
	if err != nil {
		return nil, err
	}
	return &types.Page{Count: count, Page: page, Limit: limit, Results: responses}, nil
}

// Get returns one user's representation for the requester.
func (s *UserService) Get(ctx context.Context, userID uuid.UUID, requester *uuid.UUID) (*types.UserResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	responses, err := s.buildResponses(ctx, []models.User{user}, requester)
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// Subscriptions lists the authors the user follows, each with a trimmed
// recipe feed (at most recipesLimit entries, 0 = all) and a total count.
func (s *UserService) Subscriptions(ctx context.Context, userID uuid.UUID, page, limit, recipesLimit int) (*types.Page, error) {
	base := s.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID)

	var count int64
	if err := base.Count(&count).Error; err != nil {
		return nil, err
	}

	page, limit = normalizePage(page, limit)
	var follows []models.Follow
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&follows).Error
	if err != nil {
		return nil, err
	}

	results := make([]types.SubscriptionResponse, 0, len(follows))
	for _, follow := range follows {
		if follow.Author == nil {
			continue
		}
		entry := types.SubscriptionResponse{
			UserResponse: types.UserResponse{
				ID:           follow.Author.ID,
				Username:     follow.Author.Username,
				Email:        follow.Author.Email,
				FirstName:    follow.Author.FirstName,
				LastName:     follow.Author.LastName,
				IsSubscribed: true,
			},
		}

		recipeQuery := s.db.WithContext(ctx).
			Where("author_id = ?", follow.AuthorID).
			Order("created_at DESC")
		if recipesLimit > 0 {
			recipeQuery = recipeQuery.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if err := recipeQuery.Find(&recipes).Error; err != nil {
			return nil, err
		}
		entry.Recipes = make([]types.RecipeBriefResponse, len(recipes))
		for i, r := range recipes {
			entry.Recipes[i] = types.RecipeBriefResponse{
				ID:          r.ID,
				Name:        r.Name,
				Image:       r.ImageURL,
				CookingTime: r.CookingTime,
			}
		}

		if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
			Where("author_id = ?", follow.AuthorID).
			Count(&entry.RecipesCount).Error; err != nil {
			return nil, err
		}

		results = append(results, entry)
	}

	return &types.Page{Count: count, Page: page, Limit: limit, Results: results}, nil
}

func (s *UserService) buildResponses(ctx context.Context, users []models.User, requester *uuid.UUID) ([]types.UserResponse, error) {
	subscribed := map[uuid.UUID]bool{}
	if requester != nil && len(users) > 0 {
		ids := make([]uuid.UUID, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		var followed []uuid.UUID
		err := s.db.WithContext(ctx).Model(&models.Follow{}).
			Where("user_id = ? AND author_id IN ?", *requester, ids).
			Pluck("author_id", &followed).Error
		if err != nil {
			return nil, err
		}
		for _, id := range followed {
			subscribed[id] = true
		}
	}

	responses := make([]types.UserResponse, len(users))
	for i, u := range users {
		responses[i] = types.UserResponse{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			IsSubscribed: subscribed[u.ID],
		}
	}
	return responses, nil
}
