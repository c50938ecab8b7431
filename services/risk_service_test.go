package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phoebezhou222/AllerGEN-AI/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubCompleter is the in-memory stand-in for the model across service
// tests.
type stubCompleter struct {
	reply string
	err   error
	calls int
	fn    func(prompt string) (string, error)
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(prompt)
	}
	return s.reply, s.err
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   int
		want float64
	}{
		{-5, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{150, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampScore(tt.in), "input %d", tt.in)
	}
}

func TestScoreIngredient(t *testing.T) {
	ctx := context.Background()

	t.Run("plain number", func(t *testing.T) {
		svc := &RiskService{ai: &stubCompleter{reply: "85"}}
		assert.Equal(t, 85.0, svc.scoreIngredient(ctx, "peanuts"))
	})

	t.Run("number buried in prose", func(t *testing.T) {
		svc := &RiskService{ai: &stubCompleter{reply: "The risk level for peanuts is 72 out of 100."}}
		assert.Equal(t, 72.0, svc.scoreIngredient(ctx, "peanuts"))
	})

	t.Run("out of range clamps", func(t *testing.T) {
		svc := &RiskService{ai: &stubCompleter{reply: "150"}}
		assert.Equal(t, 100.0, svc.scoreIngredient(ctx, "peanuts"))

		svc = &RiskService{ai: &stubCompleter{reply: "-5"}}
		assert.Equal(t, 0.0, svc.scoreIngredient(ctx, "peanuts"))
	})

	t.Run("adapter error falls back", func(t *testing.T) {
		svc := &RiskService{ai: &stubCompleter{err: errors.New("groq api error (500): boom")}}
		assert.Equal(t, float64(DefaultRiskScore), svc.scoreIngredient(ctx, "peanuts"))
	})

	t.Run("no number falls back", func(t *testing.T) {
		svc := &RiskService{ai: &stubCompleter{reply: "high risk, avoid entirely"}}
		assert.Equal(t, float64(DefaultRiskScore), svc.scoreIngredient(ctx, "peanuts"))
	})
}

func TestScoreNowPersistsScore(t *testing.T) {
	db := newTestDB(t)
	svc := NewRiskService(db, &stubCompleter{reply: "85"}, nil)

	score, err := svc.ScoreNow(context.Background(), 1, " Peanuts ")
	require.NoError(t, err)
	assert.Equal(t, 85.0, score)

	var row models.RiskScore
	require.NoError(t, db.Where("user_id = ? AND ingredient = ?", 1, "peanuts").First(&row).Error)
	assert.Equal(t, 85.0, row.Score)
}

func TestScoreNowPersistsFallbackOnError(t *testing.T) {
	db := newTestDB(t)
	svc := NewRiskService(db, &stubCompleter{err: errors.New("groq api error (500): boom")}, nil)

	score, err := svc.ScoreNow(context.Background(), 1, "milk")
	require.NoError(t, err)
	assert.Equal(t, float64(DefaultRiskScore), score)

	// the fallback is cached like a real score, not left unset
	var row models.RiskScore
	require.NoError(t, db.Where("user_id = ? AND ingredient = ?", 1, "milk").First(&row).Error)
	assert.Equal(t, float64(DefaultRiskScore), row.Score)
}

func TestScoreNowUpsertsExistingRow(t *testing.T) {
	db := newTestDB(t)

	_, err := NewRiskService(db, &stubCompleter{reply: "40"}, nil).ScoreNow(context.Background(), 1, "soy")
	require.NoError(t, err)
	_, err = NewRiskService(db, &stubCompleter{reply: "90"}, nil).ScoreNow(context.Background(), 1, "soy")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.RiskScore{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var row models.RiskScore
	require.NoError(t, db.Where("user_id = ? AND ingredient = ?", 1, "soy").First(&row).Error)
	assert.Equal(t, 90.0, row.Score)
}

func TestEnrichAsyncScoresOnlyUncached(t *testing.T) {
	db := newTestDB(t)
	svc := NewRiskService(db, &stubCompleter{reply: "70"}, nil)

	svc.EnrichAsync(1, []AllergenAggregate{
		{Ingredient: "peanuts", Frequency: 3},
		{Ingredient: "milk", Frequency: 2, RiskCached: true},
	})

	require.Eventually(t, func() bool {
		var count int64
		db.Model(&models.RiskScore{}).Where("user_id = ?", 1).Count(&count)
		return count == 1
	}, 2*time.Second, 20*time.Millisecond)

	var row models.RiskScore
	require.NoError(t, db.Where("user_id = ? AND ingredient = ?", 1, "peanuts").First(&row).Error)
	assert.Equal(t, 70.0, row.Score)

	err := db.Where("user_id = ? AND ingredient = ?", 1, "milk").First(&models.RiskScore{}).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestScoreNowDeduplicatesConcurrentRequests(t *testing.T) {
	db := newTestDB(t)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	stub := &stubCompleter{fn: func(string) (string, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return "85", nil
	}}
	svc := NewRiskService(db, stub, nil)

	var wg sync.WaitGroup
	scores := make([]float64, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		scores[0], _ = svc.ScoreNow(context.Background(), 1, "peanuts")
	}()
	<-entered

	// second request for the same key joins the in-flight one
	wg.Add(1)
	go func() {
		defer wg.Done()
		scores[1], _ = svc.ScoreNow(context.Background(), 1, "peanuts")
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, []float64{85, 85}, scores)
}
