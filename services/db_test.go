package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/phoebezhou222/AllerGEN-AI/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database migrated to the full
// schema. Named per test so parallel tests don't share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ReactionLog{},
		&models.ReactionProduct{},
		&models.SafeFoodLog{},
		&models.SafeFoodProduct{},
		&models.RiskScore{},
		&models.IngredientAnalysis{},
		&models.GeneratedArtifact{},
	))
	return db
}
