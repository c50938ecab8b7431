package services

import (
	"context"
	"fmt"
	"time"

	"github.com/phoebezhou222/AllerGEN-AI/config"
	"github.com/phoebezhou222/AllerGEN-AI/models"
	"github.com/phoebezhou222/AllerGEN-AI/utils"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RiskService fetches AI risk scores for ranked allergens and caches them
// per user. Scoring never blocks the ranking: callers render the aggregate
// with default scores and results land asynchronously.
type RiskService struct {
	db    *gorm.DB
	ai    Completer
	hub   *AnalysisHub // optional
	group singleflight.Group
}

func NewRiskService(db *gorm.DB, ai Completer, hub *AnalysisHub) *RiskService {
	return &RiskService{db: db, ai: ai, hub: hub}
}

// ClampScore bounds a parsed risk score to [0,100].
func ClampScore(n int) float64 {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return float64(n)
}

// EnrichAsync kicks off scoring for the top-K aggregate entries that have
// no cached score yet and returns immediately. The singleflight group keeps
// at most one request in flight per (user, ingredient), so re-entering the
// analysis page does not double-fire.
func (s *RiskService) EnrichAsync(userID uint, aggregates []AllergenAggregate) {
	for _, agg := range TopAllergens(aggregates, RankingSize) {
		if agg.RiskCached {
			continue
		}
		ingredient := agg.Ingredient
		key := fmt.Sprintf("%d:%s", userID, ingredient)
		go func() {
			_, _, _ = s.group.Do(key, func() (interface{}, error) {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				score := s.scoreIngredient(ctx, ingredient)
				s.persistScore(ctx, userID, ingredient, score)
				return score, nil
			})
		}()
	}
}

// ScoreNow scores one ingredient synchronously, still deduplicated against
// any in-flight request for the same key.
func (s *RiskService) ScoreNow(ctx context.Context, userID uint, ingredient string) (float64, error) {
	ingredient = NormalizeIngredient(ingredient)
	if ingredient == "" {
		return 0, fmt.Errorf("empty ingredient")
	}
	key := fmt.Sprintf("%d:%s", userID, ingredient)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		score := s.scoreIngredient(ctx, ingredient)
		s.persistScore(ctx, userID, ingredient, score)
		return score, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// scoreIngredient asks the model for a 0–100 number and recovers locally on
// every failure mode: adapter error or unparseable prose both fall back to
// the default score, which still gets persisted so it is not retried every
// load.
func (s *RiskService) scoreIngredient(ctx context.Context, ingredient string) float64 {
	prompt := fmt.Sprintf(
		"Analyze the allergy risk level for ingredient: %s. Return only a number between 0-100 where 0-30 is Low, 31-70 is Medium, and 71-100 is High.",
		ingredient,
	)
	reply, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		config.Log.Warnw("risk scoring failed, using default", "ingredient", ingredient, "error", err)
		return DefaultRiskScore
	}
	n, ok := utils.FirstInt(reply)
	if !ok {
		config.Log.Warnw("no score in risk reply, using default", "ingredient", ingredient)
		return DefaultRiskScore
	}
	return ClampScore(n)
}

func (s *RiskService) persistScore(ctx context.Context, userID uint, ingredient string, score float64) {
	row := models.RiskScore{UserID: userID, Ingredient: ingredient, Score: score}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "ingredient"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		// cache write failures don't block the in-memory result
		config.Log.Warnw("failed to persist risk score", "ingredient", ingredient, "error", err)
	}
	if s.hub != nil {
		s.hub.Broadcast(userID, map[string]any{
			"kind":       "risk.updated",
			"ingredient": ingredient,
			"risk_level": score,
			"category":   RiskCategory(score),
		})
	}
}
