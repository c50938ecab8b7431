package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phoebezhou222/AllerGEN-AI/config"
	"github.com/phoebezhou222/AllerGEN-AI/models"

	"gorm.io/gorm"
)

// Delete failures are surfaced distinctly because they affect data the user
// directly controls.
var (
	ErrLogNotFound = errors.New("log not found")
	ErrNotOwner    = errors.New("log belongs to another user")
)

type ProductInput struct {
	Name         string   `json:"name"`
	ExposureType string   `json:"exposure_type"`
	Ingredients  []string `json:"ingredients"`
	Barcode      string   `json:"barcode"`
}

type ReactionLogInput struct {
	OccurredAt         time.Time      `json:"occurred_at" binding:"required"`
	Severity           float64        `json:"severity"`
	Symptoms           []string       `json:"symptoms"`
	SymptomDescription string         `json:"symptom_description"`
	EnvironmentalCause string         `json:"environmental_cause"`
	Products           []ProductInput `json:"products"`
}

type LogService struct {
	db *gorm.DB
	ai Completer
}

func NewLogService(db *gorm.DB, ai Completer) *LogService {
	return &LogService{db: db, ai: ai}
}

// CreateReactionLog persists a new reaction log. Every ingredient is
// normalized (trimmed, lowercased, deduplicated per product) before it hits
// the store, so aggregation never sees raw input. A brief AI analysis of the
// log is attached best-effort.
func (s *LogService) CreateReactionLog(ctx context.Context, userID uint, input ReactionLogInput) (*models.ReactionLog, error) {
	log := &models.ReactionLog{
		UserID:             userID,
		OccurredAt:         input.OccurredAt,
		Severity:           input.Severity,
		SymptomDescription: input.SymptomDescription,
		EnvironmentalCause: input.EnvironmentalCause,
	}
	log.SetSymptoms(input.Symptoms)
	for _, p := range input.Products {
		product := models.ReactionProduct{
			Name:         p.Name,
			ExposureType: p.ExposureType,
			Barcode:      p.Barcode,
		}
		product.SetIngredients(dedupeNormalized(p.Ingredients))
		log.Products = append(log.Products, product)
	}

	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return nil, err
	}

	if analysis := s.analyzeLog(ctx, log, input.Symptoms); analysis != "" {
		log.AIAnalysis = analysis
		if err := s.db.WithContext(ctx).Model(log).Update("ai_analysis", analysis).Error; err != nil {
			config.Log.Warnw("failed to cache log analysis", "log_id", log.ID, "error", err)
		}
	}
	return log, nil
}

func (s *LogService) ListReactionLogs(ctx context.Context, userID uint) ([]models.ReactionLog, error) {
	var logs []models.ReactionLog
	err := s.db.WithContext(ctx).
		Preload("Products").
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Find(&logs).Error
	return logs, err
}

// DeleteReactionLog removes a log after verifying it exists and belongs to
// the caller, so the API can answer with the precise failure.
func (s *LogService) DeleteReactionLog(ctx context.Context, userID, logID uint) error {
	var log models.ReactionLog
	if err := s.db.WithContext(ctx).First(&log, logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLogNotFound
		}
		return err
	}
	if log.UserID != userID {
		return ErrNotOwner
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reaction_log_id = ?", log.ID).
			Delete(&models.ReactionProduct{}).Error; err != nil {
			return err
		}
		return tx.Delete(&log).Error
	})
}

// analyzeLog asks the model for a short take on the log's ingredients and
// symptoms. Failure just means no cached analysis; the log itself stands.
func (s *LogService) analyzeLog(ctx context.Context, log *models.ReactionLog, symptoms []string) string {
	var ingredients []string
	for i := range log.Products {
		ingredients = append(ingredients, log.Products[i].IngredientList()...)
	}
	if len(ingredients) == 0 {
		return ""
	}

	prompt := fmt.Sprintf("Analyze these ingredients: %s in relation to symptoms: %s",
		strings.Join(ingredients, ", "), strings.Join(symptoms, ", "))
	if log.Severity > 0 {
		prompt += fmt.Sprintf(" with severity %g", log.Severity)
	}
	if strings.TrimSpace(log.EnvironmentalCause) != "" {
		prompt += " and environmental cause: " + log.EnvironmentalCause
	}
	prompt += ". Provide a brief analysis."

	analysis, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		config.Log.Warnw("log analysis failed", "log_id", log.ID, "error", err)
		return ""
	}
	return analysis
}
