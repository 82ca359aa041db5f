package database

import (
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
)

// RunMigrations brings the schema up to date for every model in the app.
// GORM auto-migration covers both PostgreSQL and the SQLite test databases.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingCart{},
	)
}
