package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

// BarcodeProduct is what the open food database knows about a scanned
// product.
type BarcodeProduct struct {
	Name            string   `json:"name"`
	IngredientsText string   `json:"ingredients_text"`
	AllergenTags    []string `json:"allergen_tags"`
}

// BarcodeService looks products up in OpenFoodFacts.
type BarcodeService struct {
	client  *http.Client
	baseURL string
}

func NewBarcodeService() *BarcodeService {
	baseURL := os.Getenv("OPENFOODFACTS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://world.openfoodfacts.org"
	}
	return &BarcodeService{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type offResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName     string   `json:"product_name"`
		IngredientsText string   `json:"ingredients_text"`
		AllergensTags   []string `json:"allergens_tags"`
	} `json:"product"`
}

// Lookup fetches a product by barcode. Allergen tags come back like
// "en:milk" and are normalized to plain lowercase words here.
func (s *BarcodeService) Lookup(ctx context.Context, barcode string) (*BarcodeProduct, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("empty barcode")
	}

	u := fmt.Sprintf("%s/api/v0/product/%s.json", s.baseURL, barcode)
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create barcode request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenFoodFacts: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenFoodFacts response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openfoodfacts API error %d: %s", resp.StatusCode, string(body))
	}

	var off offResponse
	if err := json.Unmarshal(body, &off); err != nil {
		return nil, fmt.Errorf("failed to parse OpenFoodFacts JSON: %w", err)
	}
	if off.Status != 1 {
		return nil, ErrProductNotFound
	}

	return &BarcodeProduct{
		Name:            off.Product.ProductName,
		IngredientsText: off.Product.IngredientsText,
		AllergenTags:    normalizeAllergenTags(off.Product.AllergensTags),
	}, nil
}

// normalizeAllergenTags strips the language prefix, replaces underscores and
// lowercases, deduplicating along the way.
func normalizeAllergenTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, tag := range tags {
		if idx := strings.Index(tag, ":"); idx >= 0 {
			tag = tag[idx+1:]
		}
		tag = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(tag, "_", " ")))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
