package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/phoebezhou222/AllerGEN-AI/services"

	"github.com/gin-gonic/gin"
)

type LogController struct {
	logs *services.LogService
}

func NewLogController(logs *services.LogService) *LogController {
	return &LogController{logs: logs}
}

func (lc *LogController) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", lc.Create)
	r.GET("", lc.List)
	r.DELETE("/:id", lc.Delete)
}

func (lc *LogController) Create(c *gin.Context) {
	var input services.ReactionLogInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log, err := lc.logs.CreateReactionLog(c.Request.Context(), c.GetUint("userID"), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, log)
}

func (lc *LogController) List(c *gin.Context) {
	logs, err := lc.logs.ListReactionLogs(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (lc *LogController) Delete(c *gin.Context) {
	logID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log id"})
		return
	}

	err = lc.logs.DeleteReactionLog(c.Request.Context(), c.GetUint("userID"), uint(logID))
	switch {
	case errors.Is(err, services.ErrLogNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "log not found"})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have permission to delete this log"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete log"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "log deleted"})
	}
}
