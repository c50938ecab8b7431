package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/phoebezhou222/AllerGEN-AI/config"

	"github.com/google/uuid"
)

const chatApology = "Sorry, I encountered an error while processing your message. Please try again."

type ChatMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"` // "user" | "bot"
	Timestamp time.Time `json:"timestamp"`
}

// ChatService is a pass-through to the model: each turn packages the user's
// message with the current aggregate and cached artifacts as context.
// History lives in memory only and is gone when the process restarts.
type ChatService struct {
	ai  Completer
	hub *AnalysisHub // optional

	mu        sync.Mutex
	histories map[uint][]ChatMessage
	awaiting  map[uint]bool
}

func NewChatService(ai Completer, hub *AnalysisHub) *ChatService {
	return &ChatService{
		ai:        ai,
		hub:       hub,
		histories: make(map[uint][]ChatMessage),
		awaiting:  make(map[uint]bool),
	}
}

// History returns the user's messages, seeding the welcome message on first
// access.
func (s *ChatService) History(userID uint, logCount int64) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.histories[userID]) == 0 {
		s.histories[userID] = []ChatMessage{welcomeMessage(logCount)}
	}
	out := make([]ChatMessage, len(s.histories[userID]))
	copy(out, s.histories[userID])
	return out
}

// Reset clears the history back to a fresh welcome message.
func (s *ChatService) Reset(userID uint, logCount int64) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[userID] = []ChatMessage{welcomeMessage(logCount)}
	out := make([]ChatMessage, 1)
	copy(out, s.histories[userID])
	return out
}

// Send appends the user message, asks the model, and appends its reply. A
// failed call substitutes one fixed apology message instead of surfacing an
// error. Only one turn may be awaiting a response at a time per user.
func (s *ChatService) Send(ctx context.Context, userID uint, message string, allergens []AllergenAggregate, summary, testKits string) (ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatMessage{}, fmt.Errorf("empty message")
	}

	s.mu.Lock()
	if s.awaiting[userID] {
		s.mu.Unlock()
		return ChatMessage{}, fmt.Errorf("a response is already in progress")
	}
	s.awaiting[userID] = true
	s.histories[userID] = append(s.histories[userID], ChatMessage{
		ID:        uuid.NewString(),
		Content:   message,
		Sender:    "user",
		Timestamp: time.Now(),
	})
	s.mu.Unlock()

	reply, err := s.ai.Complete(ctx, s.buildPrompt(message, allergens, summary, testKits))
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			config.Log.Warnw("chatbot response failed", "error", err)
		}
		reply = chatApology
	}

	bot := ChatMessage{
		ID:        uuid.NewString(),
		Content:   reply,
		Sender:    "bot",
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	s.histories[userID] = append(s.histories[userID], bot)
	s.awaiting[userID] = false
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.Broadcast(userID, map[string]any{"kind": "chat.reply", "message": bot})
	}
	return bot, nil
}

func (s *ChatService) buildPrompt(message string, allergens []AllergenAggregate, summary, testKits string) string {
	names := make([]string, len(allergens))
	for i, agg := range allergens {
		names[i] = agg.Ingredient
	}
	prompt := fmt.Sprintf("Respond to user question: %q based on their allergy logs and allergens: %s", message, strings.Join(names, ", "))
	if summary != "" {
		prompt += ", overall summary: " + summary
	}
	if testKits != "" {
		prompt += ", and test kit suggestions: " + testKits
	}
	return prompt + "."
}

func welcomeMessage(logCount int64) ChatMessage {
	return ChatMessage{
		ID:     "welcome",
		Sender: "bot",
		Content: fmt.Sprintf(
			"Hello! I'm your AI allergy assistant. I have access to your allergy data including %d logs and can help you understand your patterns, answer questions about your allergies, and provide insights. What would you like to know?",
			logCount,
		),
		Timestamp: time.Now(),
	}
}
