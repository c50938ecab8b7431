package controllers

import (
	"errors"
	"net/http"

	"github.com/phoebezhou222/AllerGEN-AI/services"

	"github.com/gin-gonic/gin"
)

type BarcodeController struct {
	barcodes    *services.BarcodeService
	ingredients *services.IngredientService
}

func NewBarcodeController(barcodes *services.BarcodeService, ingredients *services.IngredientService) *BarcodeController {
	return &BarcodeController{barcodes: barcodes, ingredients: ingredients}
}

func (bc *BarcodeController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/:barcode", bc.Lookup)
}

// Lookup resolves a barcode to a product and its normalized ingredient list.
// Database allergen tags are folded into the extracted ingredients so a
// product whose ingredient blurb omits "milk" still surfaces it.
func (bc *BarcodeController) Lookup(c *gin.Context) {
	product, err := bc.barcodes.Lookup(c.Request.Context(), c.Param("barcode"))
	if errors.Is(err, services.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	var ingredients []string
	if product.IngredientsText != "" {
		ingredients, err = bc.ingredients.ExtractFromText(c.Request.Context(), product.IngredientsText)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	ingredients = services.MergeAllergenTags(ingredients, product.AllergenTags)

	c.JSON(http.StatusOK, gin.H{
		"product":     product,
		"ingredients": ingredients,
	})
}
