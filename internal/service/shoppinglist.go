package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
)

// ShoppingItem is one aggregated line of a shopping list: all cart recipes'
// amounts of one (name, unit) ingredient summed up.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Total           int    `json:"total"`
}

// ShoppingListService computes and renders aggregated shopping lists.
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Aggregate sums ingredient amounts across every recipe in the user's cart.
// The grouping key is the (name, measurement unit) pair so same-named
// ingredients with different units stay distinct; output is ordered by name
// for stable rendering. An empty cart yields an empty slice, not an error.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uuid.UUID) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.WithContext(ctx).
		Model(&models.ShoppingCart{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_carts.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// RenderText renders the numbered plain-text document.
func (s *ShoppingListService) RenderText(items []ShoppingItem) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s - %d %s\n", i+1, item.Name, item.Total, item.MeasurementUnit)
	}
	return b.String()
}

// RenderPDF writes a single-page PDF with the same numbered list.
func (s *ShoppingListService) RenderPDF(items []ShoppingItem, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Shopping list", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	for i, item := range items {
		line := fmt.Sprintf("%d. %s - %d %s", i+1, item.Name, item.Total, item.MeasurementUnit)
		pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
