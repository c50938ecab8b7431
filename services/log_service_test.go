package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phoebezhou222/AllerGEN-AI/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReactionLogNormalizesIngredients(t *testing.T) {
	db := newTestDB(t)
	svc := NewLogService(db, &stubCompleter{reply: "Likely dairy."})

	log, err := svc.CreateReactionLog(context.Background(), 1, ReactionLogInput{
		OccurredAt: time.Now(),
		Severity:   3,
		Symptoms:   []string{"Hives"},
		Products: []ProductInput{{
			Name:        "Chocolate bar",
			Ingredients: []string{"Milk", "milk", " Soy Lecithin "},
		}},
	})
	require.NoError(t, err)
	require.Len(t, log.Products, 1)
	assert.Equal(t, "milk,soy lecithin", log.Products[0].Ingredients)
	assert.Equal(t, "Likely dairy.", log.AIAnalysis)
}

func TestCreateReactionLogSurvivesAnalysisFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewLogService(db, &stubCompleter{err: errors.New("groq api error (500): boom")})

	log, err := svc.CreateReactionLog(context.Background(), 1, ReactionLogInput{
		OccurredAt: time.Now(),
		Products:   []ProductInput{{Ingredients: []string{"egg"}}},
	})
	require.NoError(t, err)
	assert.Empty(t, log.AIAnalysis)
}

func TestDeleteReactionLogRemovesChildren(t *testing.T) {
	db := newTestDB(t)
	svc := NewLogService(db, &stubCompleter{reply: "ok"})
	ctx := context.Background()

	log, err := svc.CreateReactionLog(ctx, 1, ReactionLogInput{
		OccurredAt: time.Now(),
		Products: []ProductInput{
			{Name: "Bar", Ingredients: []string{"milk"}},
			{Name: "Cream", Ingredients: []string{"milk", "soy"}},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteReactionLog(ctx, 1, log.ID))

	var logCount, productCount int64
	require.NoError(t, db.Model(&models.ReactionLog{}).Count(&logCount).Error)
	require.NoError(t, db.Model(&models.ReactionProduct{}).Count(&productCount).Error)
	assert.Zero(t, logCount)
	assert.Zero(t, productCount)
}

func TestDeleteReactionLogOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewLogService(db, &stubCompleter{reply: "ok"})
	ctx := context.Background()

	log, err := svc.CreateReactionLog(ctx, 1, ReactionLogInput{
		OccurredAt: time.Now(),
		Products:   []ProductInput{{Ingredients: []string{"egg"}}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteReactionLog(ctx, 2, log.ID), ErrNotOwner)
	assert.ErrorIs(t, svc.DeleteReactionLog(ctx, 1, 9999), ErrLogNotFound)

	// the log is untouched
	var count int64
	require.NoError(t, db.Model(&models.ReactionLog{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteSafeFoodLogRemovesChildren(t *testing.T) {
	db := newTestDB(t)
	svc := NewSafeFoodService(db)
	ctx := context.Background()

	log, err := svc.CreateSafeFoodLog(ctx, 1, SafeFoodLogInput{
		OccurredAt: time.Now(),
		Products:   []ProductInput{{Name: "Rice cakes", Ingredients: []string{"Rice", "salt"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "rice,salt", log.Products[0].Ingredients)

	require.NoError(t, svc.DeleteSafeFoodLog(ctx, 1, log.ID))

	var logCount, productCount int64
	require.NoError(t, db.Model(&models.SafeFoodLog{}).Count(&logCount).Error)
	require.NoError(t, db.Model(&models.SafeFoodProduct{}).Count(&productCount).Error)
	assert.Zero(t, logCount)
	assert.Zero(t, productCount)
}
