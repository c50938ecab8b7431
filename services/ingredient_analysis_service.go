package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/phoebezhou222/AllerGEN-AI/config"
	"github.com/phoebezhou222/AllerGEN-AI/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientAnalysisService caches AI prose about individual ranked
// allergens. Error text is persisted too, so a broken call isn't retried on
// every page load.
type IngredientAnalysisService struct {
	db *gorm.DB
	ai Completer
}

func NewIngredientAnalysisService(db *gorm.DB, ai Completer) *IngredientAnalysisService {
	return &IngredientAnalysisService{db: db, ai: ai}
}

// Analyze returns the cached analysis for an ingredient, generating it on
// first request.
func (s *IngredientAnalysisService) Analyze(ctx context.Context, userID uint, ingredient string) (string, error) {
	ingredient = NormalizeIngredient(ingredient)
	if ingredient == "" {
		return "", fmt.Errorf("empty ingredient")
	}

	var row models.IngredientAnalysis
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND ingredient = ?", userID, ingredient).
		First(&row).Error
	if err == nil && strings.TrimSpace(row.Analysis) != "" {
		return row.Analysis, nil
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return "", err
	}

	prompt := fmt.Sprintf("Analyze the ingredient: %s as a potential allergen. Provide a brief analysis.", ingredient)
	analysis, aiErr := s.ai.Complete(ctx, prompt)
	if aiErr != nil || strings.TrimSpace(analysis) == "" {
		if aiErr == nil {
			aiErr = fmt.Errorf("empty response from API")
		}
		analysis = "Error: " + aiErr.Error()
	}

	s.persist(ctx, userID, ingredient, analysis)
	return analysis, nil
}

// All returns the cached analyses keyed by ingredient.
func (s *IngredientAnalysisService) All(ctx context.Context, userID uint) (map[string]string, error) {
	var rows []models.IngredientAnalysis
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Ingredient] = row.Analysis
	}
	return out, nil
}

func (s *IngredientAnalysisService) persist(ctx context.Context, userID uint, ingredient, analysis string) {
	row := models.IngredientAnalysis{UserID: userID, Ingredient: ingredient, Analysis: analysis}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "ingredient"}},
			DoUpdates: clause.AssignmentColumns([]string{"analysis", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		config.Log.Warnw("failed to persist ingredient analysis", "ingredient", ingredient, "error", err)
	}
}
