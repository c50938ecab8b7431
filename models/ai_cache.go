package models

import "gorm.io/gorm"

// Cached AI-derived risk score for one ingredient, keyed per user so a
// fallback written once is not re-fetched every load.
type RiskScore struct {
	gorm.Model
	UserID     uint    `gorm:"uniqueIndex:idx_risk_user_ingredient;not null"`
	Ingredient string  `gorm:"uniqueIndex:idx_risk_user_ingredient;size:255;not null"`
	Score      float64 // clamped to [0,100] on write
}

// Cached per-ingredient AI analysis prose.
type IngredientAnalysis struct {
	gorm.Model
	UserID     uint   `gorm:"uniqueIndex:idx_analysis_user_ingredient;not null"`
	Ingredient string `gorm:"uniqueIndex:idx_analysis_user_ingredient;size:255;not null"`
	Analysis   string `gorm:"type:text"`
}

// Artifact kinds for GeneratedArtifact.Kind.
const (
	ArtifactOverallSummary     = "overall_summary"
	ArtifactTestKitSuggestions = "test_kit_suggestions"
)

// A per-user generated text artifact (overall summary, test kit
// suggestions). Fully overwritten on save, last writer wins.
type GeneratedArtifact struct {
	gorm.Model
	UserID  uint   `gorm:"uniqueIndex:idx_artifact_user_kind;not null"`
	Kind    string `gorm:"uniqueIndex:idx_artifact_user_kind;size:40;not null"`
	Content string `gorm:"type:text"`
}
