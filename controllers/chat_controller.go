package controllers

import (
	"net/http"

	"github.com/phoebezhou222/AllerGEN-AI/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type ChatController struct {
	chat      *services.ChatService
	allergens *services.AllergenService
	summaries *services.SummaryService
	hub       *services.AnalysisHub
}

func NewChatController(
	chat *services.ChatService,
	allergens *services.AllergenService,
	summaries *services.SummaryService,
	hub *services.AnalysisHub,
) *ChatController {
	return &ChatController{chat: chat, allergens: allergens, summaries: summaries, hub: hub}
}

func (cc *ChatController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/history", cc.History)
	r.POST("/message", cc.Send)
	r.POST("/reset", cc.Reset)
	r.GET("/ws", cc.EventsWS)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (cc *ChatController) History(c *gin.Context) {
	userID := c.GetUint("userID")
	logCount, err := cc.allergens.LogCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": cc.chat.History(userID, logCount)})
}

func (cc *ChatController) Reset(c *gin.Context) {
	userID := c.GetUint("userID")
	logCount, err := cc.allergens.LogCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": cc.chat.Reset(userID, logCount)})
}

func (cc *ChatController) Send(c *gin.Context) {
	var body struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetUint("userID")
	ctx := c.Request.Context()

	// context for the model: current top allergens plus whatever artifacts
	// are already cached. A chat turn never triggers artifact generation.
	ranking, err := cc.allergens.Ranking(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summary, _ := cc.summaries.CachedOverallSummary(ctx, userID)
	testKits, _ := cc.summaries.CachedTestKitSuggestions(ctx, userID)

	reply, err := cc.chat.Send(ctx, userID, body.Message, services.TopAllergens(ranking, services.RankingSize), summary, testKits)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": reply})
}

// EventsWS upgrades the request and hands the socket to the hub, which owns
// all writes from then on.
func (cc *ChatController) EventsWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cc.hub.ServeWS(c.GetUint("userID"), conn)
}
