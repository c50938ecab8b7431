package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/phoebezhou222/AllerGEN-AI/config"
	"github.com/phoebezhou222/AllerGEN-AI/models"
	"github.com/phoebezhou222/AllerGEN-AI/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fixed user-facing fallbacks. Persisted like real results so there is no
// silent empty state and no retry storm on the next load.
const (
	RateLimitMessage    = "API rate limit exceeded. Please try again later."
	SummaryUnavailable  = "Unable to generate summary at this time."
	TestKitsUnavailable = "Unable to generate test kit recommendations at this time."
)

// ArtifactState tracks each derived artifact through its lifecycle instead
// of inferring "generate or not" from absence of a value.
type ArtifactState int

const (
	ArtifactUnloaded ArtifactState = iota
	ArtifactLoading
	ArtifactCached
	ArtifactStale
)

// SummaryService owns the overall-summary and test-kit-suggestion
// artifacts: generated at most once per state, regenerable on demand.
type SummaryService struct {
	db  *gorm.DB
	ai  Completer
	hub *AnalysisHub // optional

	mu     sync.Mutex
	states map[string]ArtifactState // "<userID>:<kind>"
}

func NewSummaryService(db *gorm.DB, ai Completer, hub *AnalysisHub) *SummaryService {
	return &SummaryService{db: db, ai: ai, hub: hub, states: make(map[string]ArtifactState)}
}

// OverallSummary returns the cached summary, generating it first if the
// top aggregate is non-empty and nothing is cached yet.
func (s *SummaryService) OverallSummary(ctx context.Context, userID uint, top []AllergenAggregate, logCount int64) (string, error) {
	return s.artifact(ctx, userID, models.ArtifactOverallSummary, top, logCount, false)
}

// RegenerateOverallSummary clears the cached summary and generates a fresh
// one.
func (s *SummaryService) RegenerateOverallSummary(ctx context.Context, userID uint, top []AllergenAggregate, logCount int64) (string, error) {
	return s.artifact(ctx, userID, models.ArtifactOverallSummary, top, logCount, true)
}

// TestKitSuggestions returns the cached suggestion text, generating it
// first when needed.
func (s *SummaryService) TestKitSuggestions(ctx context.Context, userID uint, top []AllergenAggregate) (string, error) {
	return s.artifact(ctx, userID, models.ArtifactTestKitSuggestions, top, 0, false)
}

// RegenerateTestKitSuggestions clears and regenerates the suggestion text.
func (s *SummaryService) RegenerateTestKitSuggestions(ctx context.Context, userID uint, top []AllergenAggregate) (string, error) {
	return s.artifact(ctx, userID, models.ArtifactTestKitSuggestions, top, 0, true)
}

// CachedOverallSummary returns the stored summary without triggering
// generation. Empty when nothing has been generated yet.
func (s *SummaryService) CachedOverallSummary(ctx context.Context, userID uint) (string, error) {
	return s.load(ctx, userID, models.ArtifactOverallSummary)
}

// CachedTestKitSuggestions returns the stored suggestion text without
// triggering generation.
func (s *SummaryService) CachedTestKitSuggestions(ctx context.Context, userID uint) (string, error) {
	return s.load(ctx, userID, models.ArtifactTestKitSuggestions)
}

// ParseTestKits splits suggestion text into its numbered items.
func ParseTestKits(content string) []string {
	return utils.NumberedItems(content)
}

func (s *SummaryService) artifact(ctx context.Context, userID uint, kind string, top []AllergenAggregate, logCount int64, regenerate bool) (string, error) {
	key := fmt.Sprintf("%d:%s", userID, kind)

	s.mu.Lock()
	state := s.states[key]
	if state == ArtifactLoading {
		// a generation is already running for this state; serve the cache
		s.mu.Unlock()
		return s.load(ctx, userID, kind)
	}
	if regenerate {
		s.states[key] = ArtifactStale
	}
	s.mu.Unlock()

	if regenerate {
		if err := s.clear(ctx, userID, kind); err != nil {
			return "", err
		}
	} else {
		cached, err := s.load(ctx, userID, kind)
		if err != nil {
			return "", err
		}
		if cached != "" {
			s.setState(key, ArtifactCached)
			return cached, nil
		}
	}

	// nothing to summarize yet: stay Unloaded rather than caching noise
	if len(top) == 0 {
		s.setState(key, ArtifactUnloaded)
		return "", nil
	}

	s.setState(key, ArtifactLoading)
	content := s.generate(ctx, kind, top, logCount)
	s.save(ctx, userID, kind, content)
	s.setState(key, ArtifactCached)

	if s.hub != nil {
		s.hub.Broadcast(userID, map[string]any{"kind": kind + ".updated", "content": content})
	}
	return content, nil
}

func (s *SummaryService) generate(ctx context.Context, kind string, top []AllergenAggregate, logCount int64) string {
	names := make([]string, len(top))
	for i, agg := range top {
		names[i] = agg.Ingredient
	}

	var prompt, fallback string
	switch kind {
	case models.ArtifactTestKitSuggestions:
		prompt = fmt.Sprintf("Suggest allergy test kits for these allergens: %s. Return a numbered list.", strings.Join(names, ", "))
		fallback = TestKitsUnavailable
	default:
		prompt = fmt.Sprintf("Generate an overall allergy summary based on %d logs and top allergens: %s.", logCount, strings.Join(names, ", "))
		fallback = SummaryUnavailable
	}

	reply, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		config.Log.Warnw("artifact generation failed", "kind", kind, "error", err)
		if strings.Contains(err.Error(), "rate limit") {
			return RateLimitMessage
		}
		return fallback
	}
	if strings.TrimSpace(reply) == "" {
		return fallback
	}
	return strings.TrimSpace(reply)
}

func (s *SummaryService) load(ctx context.Context, userID uint, kind string) (string, error) {
	var row models.GeneratedArtifact
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, kind).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return row.Content, nil
}

func (s *SummaryService) save(ctx context.Context, userID uint, kind, content string) {
	row := models.GeneratedArtifact{UserID: userID, Kind: kind, Content: content}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		// keep serving the in-memory value this session
		config.Log.Warnw("failed to persist artifact", "kind", kind, "error", err)
	}
}

func (s *SummaryService) clear(ctx context.Context, userID uint, kind string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, kind).
		Delete(&models.GeneratedArtifact{}).Error
}

func (s *SummaryService) setState(key string, state ArtifactState) {
	s.mu.Lock()
	s.states[key] = state
	s.mu.Unlock()
}
