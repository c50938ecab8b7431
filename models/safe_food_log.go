package models

import (
	"time"

	"gorm.io/gorm"
)

// A food consumed with no adverse reaction. Ingredients recorded here are
// excluded from allergen consideration entirely.
type SafeFoodLog struct {
	gorm.Model
	UserID     uint      `gorm:"index;not null"`
	OccurredAt time.Time `gorm:"index;not null"`
	Products   []SafeFoodProduct
}

type SafeFoodProduct struct {
	gorm.Model
	SafeFoodLogID uint `gorm:"index;not null"`
	Name          string
	ExposureType  string `gorm:"size:40"`   // "Food"|"Beverage"|"Snack"|"Others"
	Ingredients   string `gorm:"type:text"` // comma-joined, normalized before persistence
	Barcode       string `gorm:"size:64"`
}

func (p *SafeFoodProduct) IngredientList() []string { return splitJoined(p.Ingredients) }

func (p *SafeFoodProduct) SetIngredients(ingredients []string) {
	p.Ingredients = joinList(ingredients)
}
