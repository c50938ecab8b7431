package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromText(t *testing.T) {
	ctx := context.Background()

	t.Run("parses comma-separated reply", func(t *testing.T) {
		svc := NewIngredientService(&stubCompleter{reply: "**Milk**, Soy Lecithin, milk, Wheat Flour"})
		got, err := svc.ExtractFromText(ctx, "MILK, SOY LECITHIN, WHEAT FLOUR")
		require.NoError(t, err)
		assert.Equal(t, []string{"milk", "soy lecithin", "wheat flour"}, got)
	})

	t.Run("model error keeps raw text", func(t *testing.T) {
		svc := NewIngredientService(&stubCompleter{err: errors.New("groq api error (500): boom")})
		got, err := svc.ExtractFromText(ctx, "  Peanut Butter ")
		require.NoError(t, err)
		assert.Equal(t, []string{"peanut butter"}, got)
	})

	t.Run("unparseable reply keeps raw text", func(t *testing.T) {
		svc := NewIngredientService(&stubCompleter{reply: "  "})
		got, err := svc.ExtractFromText(ctx, "Tahini")
		require.NoError(t, err)
		assert.Equal(t, []string{"tahini"}, got)
	})

	t.Run("empty input is an error", func(t *testing.T) {
		svc := NewIngredientService(&stubCompleter{reply: "milk"})
		_, err := svc.ExtractFromText(ctx, "   ")
		assert.Error(t, err)
	})
}

func TestMergeAllergenTags(t *testing.T) {
	got := MergeAllergenTags([]string{"rice", "Milk"}, []string{"milk", "gluten"})
	assert.Equal(t, []string{"rice", "milk", "gluten"}, got)

	assert.Equal(t, []string{"gluten"}, MergeAllergenTags(nil, []string{"gluten"}))
	assert.Nil(t, MergeAllergenTags(nil, nil))
}
