package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
)

// membership is the one implementation behind the favorite, shopping-cart
// and follow toggles: a uniqueness-constrained pair table expressing set
// membership. Add conflicts on an existing pair, Remove fails on a missing
// one; the unique index resolves concurrent adds.
type membership[T any] struct {
	db        *gorm.DB
	userCol   string
	targetCol string
	newRow    func(userID, targetID uuid.UUID) *T
}

func (m *membership[T]) pair(ctx context.Context, userID, targetID uuid.UUID) *gorm.DB {
	return m.db.WithContext(ctx).
		Where(m.userCol+" = ? AND "+m.targetCol+" = ?", userID, targetID)
}

// Add inserts the membership row, returning ErrAlreadyExists when the pair
// is already present (checked up front, and again via the unique index for
// the concurrent case).
func (m *membership[T]) Add(ctx context.Context, userID, targetID uuid.UUID) (*T, error) {
	var existing T
	err := m.pair(ctx, userID, targetID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row := m.newRow(userID, targetID)
	if err := m.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return row, nil
}

// Remove deletes the membership row, returning ErrNotFound when absent.
func (m *membership[T]) Remove(ctx context.Context, userID, targetID uuid.UUID) error {
	res := m.pair(ctx, userID, targetID).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports current membership of the pair.
func (m *membership[T]) Exists(ctx context.Context, userID, targetID uuid.UUID) (bool, error) {
	var count int64
	if err := m.pair(ctx, userID, targetID).Model(new(T)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MembershipService exposes the three concrete membership relations.
type MembershipService struct {
	db        *gorm.DB
	favorites *membership[models.Favorite]
	cart      *membership[models.ShoppingCart]
	follows   *membership[models.Follow]
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{
		db: db,
		favorites: &membership[models.Favorite]{
			db:        db,
			userCol:   "user_id",
			targetCol: "recipe_id",
			newRow: func(userID, recipeID uuid.UUID) *models.Favorite {
				return &models.Favorite{UserID: userID, RecipeID: recipeID}
			},
		},
		cart: &membership[models.ShoppingCart]{
			db:        db,
			userCol:   "user_id",
			targetCol: "recipe_id",
			newRow: func(userID, recipeID uuid.UUID) *models.ShoppingCart {
				return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
			},
		},
		follows: &membership[models.Follow]{
			db:        db,
			userCol:   "user_id",
			targetCol: "author_id",
			newRow: func(userID, authorID uuid.UUID) *models.Follow {
				return &models.Follow{UserID: userID, AuthorID: authorID}
			},
		},
	}
}

func (s *MembershipService) recipeExists(ctx context.Context, recipeID uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFavorite marks the recipe as a favorite of the user.
func (s *MembershipService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	if err := s.recipeExists(ctx, recipeID); err != nil {
		return err
	}
	_, err := s.favorites.Add(ctx, userID, recipeID)
	return err
}

// RemoveFavorite clears the favorite mark.
func (s *MembershipService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.favorites.Remove(ctx, userID, recipeID)
}

// IsFavorited reports whether the user favorited the recipe.
func (s *MembershipService) IsFavorited(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	return s.favorites.Exists(ctx, userID, recipeID)
}

// AddToCart puts the recipe in the user's shopping cart.
func (s *MembershipService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	if err := s.recipeExists(ctx, recipeID); err != nil {
		return err
	}
	_, err := s.cart.Add(ctx, userID, recipeID)
	return err
}

// RemoveFromCart takes the recipe out of the user's shopping cart.
func (s *MembershipService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.cart.Remove(ctx, userID, recipeID)
}

// IsInCart reports whether the recipe is in the user's shopping cart.
func (s *MembershipService) IsInCart(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	return s.cart.Exists(ctx, userID, recipeID)
}

// Subscribe makes the user follow the author's recipe feed. Following
// yourself is a conflict regardless of prior state.
func (s *MembershipService) Subscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	if userID == authorID {
		return ErrSelfFollow
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", authorID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	_, err := s.follows.Add(ctx, userID, authorID)
	return err
}

// Unsubscribe removes the follow relation.
func (s *MembershipService) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	if userID == authorID {
		return ErrSelfFollow
	}
	return s.follows.Remove(ctx, userID, authorID)
}

// IsSubscribed reports whether user follows author.
func (s *MembershipService) IsSubscribed(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	return s.follows.Exists(ctx, userID, authorID)
}
