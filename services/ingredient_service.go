package services

import (
	"context"
	"fmt"

	"github.com/phoebezhou222/AllerGEN-AI/config"
	"github.com/phoebezhou222/AllerGEN-AI/utils"
)

// IngredientService turns raw text (OCR output, a database ingredients
// blurb) into a normalized ingredient list via AI extraction.
type IngredientService struct {
	ai Completer
}

func NewIngredientService(ai Completer) *IngredientService {
	return &IngredientService{ai: ai}
}

// ExtractFromText asks the model to list the ingredients in free text and
// parses the comma-separated reply. When nothing parseable comes back, the
// whole input is kept as a single normalized ingredient rather than losing
// the scan.
func (s *IngredientService) ExtractFromText(ctx context.Context, text string) ([]string, error) {
	if NormalizeIngredient(text) == "" {
		return nil, fmt.Errorf("empty ingredient text")
	}

	prompt := fmt.Sprintf(
		"Extract and list all ingredients from this text: %q. Return only the ingredient names, separated by commas.",
		text,
	)
	reply, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		config.Log.Warnw("ingredient extraction failed, keeping raw text", "error", err)
		return []string{NormalizeIngredient(text)}, nil
	}

	items := utils.SplitCommaList(reply)
	if len(items) == 0 {
		return []string{NormalizeIngredient(text)}, nil
	}
	return dedupeNormalized(items), nil
}

// MergeAllergenTags appends database allergen tags not already present in
// the extracted list, comparing case-insensitively.
func MergeAllergenTags(ingredients, tags []string) []string {
	return dedupeNormalized(append(append([]string{}, ingredients...), tags...))
}

func dedupeNormalized(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		key := NormalizeIngredient(item)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
