package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/foodgram-project/backend/internal/database"
	"github.com/foodgram-project/backend/internal/middleware"
	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/service"
)

// TestEnv bundles the wired router and backing database for handler tests.
type TestEnv struct {
	Router      *gin.Engine
	DB          *gorm.DB
	AuthService *service.AuthService
}

// SetupTestEnv builds a fully wired engine backed by an in-memory SQLite
// database, mirroring the production route layout.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A single connection keeps every session on the same in-memory DB.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	authService := service.NewAuthService(db, "test-secret")
	userService := service.NewUserService(db)
	catalogService := service.NewCatalogService(db)
	recipeService := service.NewRecipeService(db)
	membershipService := service.NewMembershipService(db)
	shoppingListService := service.NewShoppingListService(db)
	imageService := service.NewImageService(nil)

	var creationLimiter *middleware.RateLimiter

	engine := gin.New()
	NewHealthHandler(nil).RegisterRoutes(engine)

	v1 := engine.Group("/api/v1")
	NewAuthHandler(authService).RegisterRoutes(v1)
	NewUserHandler(authService, userService, membershipService).RegisterRoutes(v1)
	NewCatalogHandler(catalogService).RegisterRoutes(v1)
	NewRecipeHandler(authService, recipeService, membershipService, shoppingListService, imageService, creationLimiter).RegisterRoutes(v1)

	return &TestEnv{
		Router:      engine,
		DB:          db,
		AuthService: authService,
	}
}

// CreateTestUser inserts a user with the given role and returns it with a
// valid token.
func CreateTestUser(t *testing.T, env *TestEnv, username string, role models.Role) (*models.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("testpassword123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: string(hashed),
		Role:         role,
	}
	if err := env.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	token, err := env.AuthService.GenerateToken(&user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return &user, token
}

// CreateTestTag inserts a tag row.
func CreateTestTag(t *testing.T, env *TestEnv, name, color, slug string) *models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Color: color, Slug: slug}
	if err := env.DB.Create(&tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return &tag
}

// CreateTestIngredient inserts an ingredient row.
func CreateTestIngredient(t *testing.T, env *TestEnv, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := env.DB.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}
	return &ingredient
}

// DoJSON performs a request with an optional JSON body and bearer token.
func DoJSON(t *testing.T, env *TestEnv, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

// recipePayload builds a valid recipe request body for the given refs.
func recipePayload(name string, tagIDs []uuid.UUID, lines map[uuid.UUID]int, cookingTime int) map[string]interface{} {
	ingredients := make([]map[string]interface{}, 0, len(lines))
	for id, amount := range lines {
		ingredients = append(ingredients, map[string]interface{}{
			"id":     id.String(),
			"amount": amount,
		})
	}
	tags := make([]string, len(tagIDs))
	for i, id := range tagIDs {
		tags[i] = id.String()
	}
	return map[string]interface{}{
		"name":         name,
		"text":         "Test instructions for " + name,
		"cooking_time": cookingTime,
		"tags":         tags,
		"ingredients":  ingredients,
	}
}
