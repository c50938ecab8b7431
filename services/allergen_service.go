package services

import (
	"context"
	"sort"
	"strings"

	"github.com/phoebezhou222/AllerGEN-AI/models"

	"gorm.io/gorm"
)

// Risk score assumed for an ingredient until the AI has scored it (or when
// scoring failed and the fallback was cached).
const DefaultRiskScore = 50

// How many ranked allergens are shown, and how many feed summary and
// test-kit generation.
const (
	RankingSize    = 10
	SummaryTopSize = 5
)

// AllergenAggregate holds the derived per-ingredient statistics folded out
// of the reaction logs. It is recomputed on every read, never authoritative.
type AllergenAggregate struct {
	Ingredient         string   `json:"ingredient"`
	Frequency          int      `json:"frequency"`
	AverageSeverity    float64  `json:"average_severity"`
	Symptoms           []string `json:"symptoms"`
	EnvironmentalNotes []string `json:"environmental_notes"`
	RiskLevel          float64  `json:"risk_level"`
	RiskCategory       string   `json:"risk_category"`
	RiskCached         bool     `json:"risk_cached"`

	totalSeverity float64
	symptomSeen   map[string]struct{}
	envSeen       map[string]struct{}
}

// NormalizeIngredient lowercases and trims an ingredient so matching is
// case/whitespace insensitive. Idempotent.
func NormalizeIngredient(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// RiskCategory maps a 0–100 risk score to its display bucket.
func RiskCategory(level float64) string {
	switch {
	case level >= 80:
		return "Very High"
	case level >= 60:
		return "High"
	case level >= 40:
		return "Moderate"
	case level >= 20:
		return "Low"
	default:
		return "Very Low"
	}
}

// SafeFoodSet collects every normalized ingredient across all safe-food
// logs. Anything in this set is excluded from aggregation entirely.
func SafeFoodSet(logs []models.SafeFoodLog) map[string]struct{} {
	set := make(map[string]struct{})
	for _, log := range logs {
		for _, product := range log.Products {
			for _, ing := range product.IngredientList() {
				if key := NormalizeIngredient(ing); key != "" {
					set[key] = struct{}{}
				}
			}
		}
	}
	return set
}

// AggregateAllergens folds the reaction logs into per-ingredient statistics,
// skipping anything in the safe-food set. Frequency counts ingredient
// occurrences across products — an ingredient listed in two products of one
// log counts twice. Output is sorted by frequency descending; ties keep
// encounter order.
func AggregateAllergens(logs []models.ReactionLog, safe map[string]struct{}) []AllergenAggregate {
	index := make(map[string]*AllergenAggregate)
	var order []*AllergenAggregate

	for li := range logs {
		log := &logs[li]
		for pi := range log.Products {
			for _, ing := range log.Products[pi].IngredientList() {
				key := NormalizeIngredient(ing)
				if key == "" {
					continue
				}
				if _, isSafe := safe[key]; isSafe {
					continue
				}
				agg := index[key]
				if agg == nil {
					agg = &AllergenAggregate{
						Ingredient:  key,
						symptomSeen: make(map[string]struct{}),
						envSeen:     make(map[string]struct{}),
					}
					index[key] = agg
					order = append(order, agg)
				}
				agg.Frequency++
				agg.totalSeverity += log.Severity
				for _, sym := range log.SymptomList() {
					if _, seen := agg.symptomSeen[sym]; !seen {
						agg.symptomSeen[sym] = struct{}{}
						agg.Symptoms = append(agg.Symptoms, sym)
					}
				}
				if cause := strings.TrimSpace(log.EnvironmentalCause); cause != "" {
					if _, seen := agg.envSeen[cause]; !seen {
						agg.envSeen[cause] = struct{}{}
						agg.EnvironmentalNotes = append(agg.EnvironmentalNotes, cause)
					}
				}
			}
		}
	}

	out := make([]AllergenAggregate, len(order))
	for i, agg := range order {
		agg.AverageSeverity = agg.totalSeverity / float64(agg.Frequency)
		agg.RiskLevel = DefaultRiskScore
		agg.RiskCategory = RiskCategory(agg.RiskLevel)
		out[i] = *agg
	}

	// stable: ties keep encounter order
	sort.SliceStable(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })
	return out
}

// MergeRiskScores overlays cached scores onto the aggregate by ingredient
// key. Entries without a cached score keep the default.
func MergeRiskScores(aggregates []AllergenAggregate, scores map[string]float64) {
	for i := range aggregates {
		if score, ok := scores[aggregates[i].Ingredient]; ok {
			aggregates[i].RiskLevel = score
			aggregates[i].RiskCategory = RiskCategory(score)
			aggregates[i].RiskCached = true
		}
	}
}

// TopAllergens truncates a ranked aggregate to its first n entries.
func TopAllergens(aggregates []AllergenAggregate, n int) []AllergenAggregate {
	if len(aggregates) <= n {
		return aggregates
	}
	return aggregates[:n]
}

type AllergenService struct {
	db *gorm.DB
}

func NewAllergenService(db *gorm.DB) *AllergenService {
	return &AllergenService{db: db}
}

// Ranking computes the full ranked aggregate for a user from one complete
// snapshot of their logs, with cached risk scores merged in. The result is
// always renderable: missing scores fall back to the default.
func (s *AllergenService) Ranking(ctx context.Context, userID uint) ([]AllergenAggregate, error) {
	var logs []models.ReactionLog
	if err := s.db.WithContext(ctx).
		Preload("Products").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}

	var safeLogs []models.SafeFoodLog
	if err := s.db.WithContext(ctx).
		Preload("Products").
		Where("user_id = ?", userID).
		Find(&safeLogs).Error; err != nil {
		return nil, err
	}

	aggregates := AggregateAllergens(logs, SafeFoodSet(safeLogs))

	scores, err := s.cachedScores(ctx, userID)
	if err != nil {
		return nil, err
	}
	MergeRiskScores(aggregates, scores)
	return aggregates, nil
}

// LogCount reports how many reaction logs the user has; summary and chat
// prompts mention it.
func (s *AllergenService) LogCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ReactionLog{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (s *AllergenService) cachedScores(ctx context.Context, userID uint) (map[string]float64, error) {
	var rows []models.RiskScore
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(rows))
	for _, row := range rows {
		scores[row.Ingredient] = row.Score
	}
	return scores, nil
}
