package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// One reported allergic event. Immutable once created, except AIAnalysis
// which caches the generated analysis of the log.
type ReactionLog struct {
	gorm.Model
	UserID             uint      `gorm:"index;not null"`
	OccurredAt         time.Time `gorm:"index;not null"`
	Severity           float64   // 1–10, newer clients submit 1–5 with decimals
	Symptoms           string    `gorm:"type:text"` // comma-joined labels
	SymptomDescription string    `gorm:"type:text"`
	EnvironmentalCause string    `gorm:"type:text"`
	AIAnalysis         string    `gorm:"type:text"`
	Products           []ReactionProduct
}

// One product the user was exposed to within a log.
type ReactionProduct struct {
	gorm.Model
	ReactionLogID uint `gorm:"index;not null"`
	Name          string
	ExposureType  string `gorm:"size:40"`   // "Food"|"Cosmetics"|"Medication"|"Seasonal Allergens"|"Others"
	Ingredients   string `gorm:"type:text"` // comma-joined, normalized before persistence
	Barcode       string `gorm:"size:64"`
}

func (l *ReactionLog) SymptomList() []string { return splitJoined(l.Symptoms) }

func (l *ReactionLog) SetSymptoms(symptoms []string) { l.Symptoms = joinList(symptoms) }

func (p *ReactionProduct) IngredientList() []string { return splitJoined(p.Ingredients) }

func (p *ReactionProduct) SetIngredients(ingredients []string) {
	p.Ingredients = joinList(ingredients)
}

func joinList(items []string) string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ",")
}

func splitJoined(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
