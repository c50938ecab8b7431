package routes

import (
	"github.com/phoebezhou222/AllerGEN-AI/config"
	"github.com/phoebezhou222/AllerGEN-AI/controllers"
	"github.com/phoebezhou222/AllerGEN-AI/middlewares"
	"github.com/phoebezhou222/AllerGEN-AI/services"

	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	hub := services.NewAnalysisHub()
	ai := services.NewGroqService()

	allergens := services.NewAllergenService(config.DB)
	risks := services.NewRiskService(config.DB, ai, hub)
	summaries := services.NewSummaryService(config.DB, ai, hub)
	analyses := services.NewIngredientAnalysisService(config.DB, ai)
	logs := services.NewLogService(config.DB, ai)
	safeFoods := services.NewSafeFoodService(config.DB)
	ingredients := services.NewIngredientService(ai)
	chat := services.NewChatService(ai, hub)
	barcodes := services.NewBarcodeService()

	ocr, err := services.NewOCRService()
	if err != nil {
		config.Log.Fatalw("failed to initialize OCR client", "error", err)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	{
		controllers.NewLogController(logs).RegisterRoutes(api.Group("/logs"))
		controllers.NewSafeFoodController(safeFoods).RegisterRoutes(api.Group("/safe-foods"))
		controllers.NewAnalysisController(allergens, risks, summaries, analyses).RegisterRoutes(api.Group("/analysis"))
		controllers.NewChatController(chat, allergens, summaries, hub).RegisterRoutes(api.Group("/chat"))
		controllers.NewScanController(ocr, ingredients).RegisterRoutes(api.Group("/scan"))
		controllers.NewBarcodeController(barcodes, ingredients).RegisterRoutes(api.Group("/barcode"))
	}

	return r
}
