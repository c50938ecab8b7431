package controllers

import (
	"net/http"

	"github.com/phoebezhou222/AllerGEN-AI/config"
	"github.com/phoebezhou222/AllerGEN-AI/services"
	"github.com/phoebezhou222/AllerGEN-AI/utils"

	"github.com/gin-gonic/gin"
)

type ScanController struct {
	ocr         *services.OCRService
	ingredients *services.IngredientService
}

func NewScanController(ocr *services.OCRService, ingredients *services.IngredientService) *ScanController {
	return &ScanController{ocr: ocr, ingredients: ingredients}
}

func (sc *ScanController) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/label", sc.ScanLabel)
}

// ScanLabel OCRs a product-label photo and extracts an ingredient list from
// the recognized text. The original photo is archived to S3 best effort.
func (sc *ScanController) ScanLabel(c *gin.Context) {
	var body struct {
		Image string `json:"image" binding:"required"` // base64 data URI
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetUint("userID")

	imageKey, err := utils.UploadLabelImage(body.Image, userID)
	if err != nil {
		config.Log.Warnw("label image archival failed", "userID", userID, "error", err)
	}

	text, err := sc.ocr.DetectLabelText(c.Request.Context(), body.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if text == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no text detected in image"})
		return
	}

	ingredients, err := sc.ingredients.ExtractFromText(c.Request.Context(), text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":        text,
		"ingredients": ingredients,
		"image_key":   imageKey,
	})
}
