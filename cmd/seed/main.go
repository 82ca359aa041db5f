package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/config"
	"github.com/foodgram-project/backend/internal/database"
	"github.com/foodgram-project/backend/internal/models"
)

// Seeds the reference catalogs and an initial admin account. The ingredient
// CSV rows are "name,measurement_unit", the tag CSV rows "name,color,slug".
func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.csv", "ingredient catalog CSV")
	tagsPath := flag.String("tags", "data/tags.csv", "tag catalog CSV")
	adminEmail := flag.String("admin-email", "", "create an admin account with this email")
	adminPassword := flag.String("admin-password", "", "password for the admin account")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	n, err := seedIngredients(db, *ingredientsPath)
	if err != nil {
		log.Fatalf("failed to seed ingredients: %v", err)
	}
	log.Printf("Seeded %d ingredients", n)

	n, err = seedTags(db, *tagsPath)
	if err != nil {
		log.Fatalf("failed to seed tags: %v", err)
	}
	log.Printf("Seeded %d tags", n)

	if *adminEmail != "" {
		if err := seedAdmin(db, *adminEmail, *adminPassword); err != nil {
			log.Fatalf("failed to seed admin: %v", err)
		}
		log.Printf("Admin account ready: %s", *adminEmail)
	}
}

func readCSV(path string, fn func(record []string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if err := fn(record); err != nil {
			return count, err
		}
		count++
	}
}

func seedIngredients(db *gorm.DB, path string) (int, error) {
	return readCSV(path, func(record []string) error {
		if len(record) < 2 {
			return nil
		}
		ingredient := models.Ingredient{Name: record[0], MeasurementUnit: record[1]}
		// Re-running the seed must not duplicate the catalog.
		return db.Where("name = ?", ingredient.Name).
			FirstOrCreate(&ingredient).Error
	})
}

func seedTags(db *gorm.DB, path string) (int, error) {
	return readCSV(path, func(record []string) error {
		if len(record) < 3 {
			return nil
		}
		tag := models.Tag{Name: record[0], Color: record[1], Slug: record[2]}
		return db.Where("slug = ?", tag.Slug).
			FirstOrCreate(&tag).Error
	})
}

func seedAdmin(db *gorm.DB, email, password string) error {
	if password == "" {
		return errors.New("admin-password is required when admin-email is set")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Username:     "admin",
		Email:        email,
		PasswordHash: string(hashed),
		Role:         models.RoleAdmin,
	}
	return db.Where("email = ?", email).FirstOrCreate(&admin).Error
}
