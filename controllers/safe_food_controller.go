package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/phoebezhou222/AllerGEN-AI/services"

	"github.com/gin-gonic/gin"
)

type SafeFoodController struct {
	safeFoods *services.SafeFoodService
}

func NewSafeFoodController(safeFoods *services.SafeFoodService) *SafeFoodController {
	return &SafeFoodController{safeFoods: safeFoods}
}

func (sc *SafeFoodController) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", sc.Create)
	r.GET("", sc.List)
	r.DELETE("/:id", sc.Delete)
}

func (sc *SafeFoodController) Create(c *gin.Context) {
	var input services.SafeFoodLogInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log, err := sc.safeFoods.CreateSafeFoodLog(c.Request.Context(), c.GetUint("userID"), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, log)
}

func (sc *SafeFoodController) List(c *gin.Context) {
	logs, err := sc.safeFoods.ListSafeFoodLogs(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (sc *SafeFoodController) Delete(c *gin.Context) {
	logID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log id"})
		return
	}

	err = sc.safeFoods.DeleteSafeFoodLog(c.Request.Context(), c.GetUint("userID"), uint(logID))
	switch {
	case errors.Is(err, services.ErrLogNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "safe food log not found"})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have permission to delete this safe food log"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete safe food log"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "safe food log deleted"})
	}
}
