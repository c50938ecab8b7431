package controllers

import (
	"net/http"

	"github.com/phoebezhou222/AllerGEN-AI/services"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	allergens *services.AllergenService
	risks     *services.RiskService
	summaries *services.SummaryService
	analyses  *services.IngredientAnalysisService
}

func NewAnalysisController(
	allergens *services.AllergenService,
	risks *services.RiskService,
	summaries *services.SummaryService,
	analyses *services.IngredientAnalysisService,
) *AnalysisController {
	return &AnalysisController{allergens: allergens, risks: risks, summaries: summaries, analyses: analyses}
}

func (ac *AnalysisController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/allergens", ac.Allergens)
	r.GET("/summary", ac.Summary)
	r.POST("/summary/regenerate", ac.RegenerateSummary)
	r.GET("/test-kits", ac.TestKits)
	r.POST("/test-kits/regenerate", ac.RegenerateTestKits)
	r.GET("/ingredients/:ingredient", ac.IngredientAnalysis)
	r.POST("/risks/:ingredient", ac.RescoreIngredient)
}

// Allergens returns the ranked aggregate, truncated for display, and kicks
// off risk enrichment for unscored entries. The response never waits on the
// model: unscored entries carry the default risk level.
func (ac *AnalysisController) Allergens(c *gin.Context) {
	userID := c.GetUint("userID")
	ranking, err := ac.allergens.Ranking(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ac.risks.EnrichAsync(userID, ranking)

	analyses, err := ac.analyses.All(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allergens": services.TopAllergens(ranking, services.RankingSize),
		"analyses":  analyses,
		"total":     len(ranking),
	})
}

// RescoreIngredient forces a synchronous risk score for one ingredient,
// bypassing the cache. Deduplicated against any enrichment already in
// flight for the same ingredient.
func (ac *AnalysisController) RescoreIngredient(c *gin.Context) {
	score, err := ac.risks.ScoreNow(c.Request.Context(), c.GetUint("userID"), c.Param("ingredient"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredient": services.NormalizeIngredient(c.Param("ingredient")),
		"risk_level": score,
		"category":   services.RiskCategory(score),
	})
}

func (ac *AnalysisController) Summary(c *gin.Context) {
	ac.summary(c, false)
}

func (ac *AnalysisController) RegenerateSummary(c *gin.Context) {
	ac.summary(c, true)
}

func (ac *AnalysisController) summary(c *gin.Context, regenerate bool) {
	userID := c.GetUint("userID")
	top, logCount, err := ac.topForGeneration(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var summary string
	if regenerate {
		summary, err = ac.summaries.RegenerateOverallSummary(c.Request.Context(), userID, top, logCount)
	} else {
		summary, err = ac.summaries.OverallSummary(c.Request.Context(), userID, top, logCount)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (ac *AnalysisController) TestKits(c *gin.Context) {
	ac.testKits(c, false)
}

func (ac *AnalysisController) RegenerateTestKits(c *gin.Context) {
	ac.testKits(c, true)
}

func (ac *AnalysisController) testKits(c *gin.Context, regenerate bool) {
	userID := c.GetUint("userID")
	top, _, err := ac.topForGeneration(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var content string
	if regenerate {
		content, err = ac.summaries.RegenerateTestKitSuggestions(c.Request.Context(), userID, top)
	} else {
		content, err = ac.summaries.TestKitSuggestions(c.Request.Context(), userID, top)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"suggestions": content,
		"items":       services.ParseTestKits(content),
	})
}

func (ac *AnalysisController) IngredientAnalysis(c *gin.Context) {
	analysis, err := ac.analyses.Analyze(c.Request.Context(), c.GetUint("userID"), c.Param("ingredient"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

func (ac *AnalysisController) topForGeneration(c *gin.Context) ([]services.AllergenAggregate, int64, error) {
	userID := c.GetUint("userID")
	ranking, err := ac.allergens.Ranking(c.Request.Context(), userID)
	if err != nil {
		return nil, 0, err
	}
	logCount, err := ac.allergens.LogCount(c.Request.Context(), userID)
	if err != nil {
		return nil, 0, err
	}
	return services.TopAllergens(ranking, services.SummaryTopSize), logCount, nil
}
