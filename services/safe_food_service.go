package services

import (
	"context"
	"errors"
	"time"

	"github.com/phoebezhou222/AllerGEN-AI/models"

	"gorm.io/gorm"
)

type SafeFoodLogInput struct {
	OccurredAt time.Time      `json:"occurred_at" binding:"required"`
	Products   []ProductInput `json:"products"`
}

type SafeFoodService struct {
	db *gorm.DB
}

func NewSafeFoodService(db *gorm.DB) *SafeFoodService {
	return &SafeFoodService{db: db}
}

// CreateSafeFoodLog records food consumed without a reaction. Ingredients
// are normalized on the way in, same as reaction logs, so the exclusion set
// matches by key.
func (s *SafeFoodService) CreateSafeFoodLog(ctx context.Context, userID uint, input SafeFoodLogInput) (*models.SafeFoodLog, error) {
	log := &models.SafeFoodLog{
		UserID:     userID,
		OccurredAt: input.OccurredAt,
	}
	for _, p := range input.Products {
		product := models.SafeFoodProduct{
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
	return log, nil
}

func (s *SafeFoodService) ListSafeFoodLogs(ctx context.Context, userID uint) ([]models.SafeFoodLog, error) {
	var logs []models.SafeFoodLog
	err := s.db.WithContext(ctx).
		Preload("Products").
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Find(&logs).Error
	return logs, err
}

func (s *SafeFoodService) DeleteSafeFoodLog(ctx context.Context, userID, logID uint) error {
	var log models.SafeFoodLog
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
		if err := tx.Where("safe_food_log_id = ?", log.ID).
			Delete(&models.SafeFoodProduct{}).Error; err != nil {
			return err
		}
		return tx.Delete(&log).Error
	})
}
