package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Completer is the single operation the pipeline needs from the language
// model. Everything downstream (risk scores, summaries, chat, extraction)
// tolerates free-form prose and parses what it needs out of the reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type GroqService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewGroqService() *GroqService {
	baseURL := os.Getenv("GROQ_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1/chat/completions"
	}
	return &GroqService{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		apiKey:  os.Getenv("GROQ_API_KEY"),
		model:   "llama3-8b-8192",
	}
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *GroqService) Complete(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("GROQ_API_KEY not set")
	}

	body := groqRequest{
		Model:       g.model,
		Messages:    []groqMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   200,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal groq payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("failed to create groq request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read groq response error: %w", err)
	}

	// Non-200 => surface the exact error body; callers match on its text
	// (e.g. "rate limit") to pick a fallback message.
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBytes, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("groq api error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("groq api error (%d): %s", resp.StatusCode, string(respBytes))
	}

	var out groqResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		bodyPreview := string(respBytes)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		return "", fmt.Errorf("decode groq response error: %v | body: %s", err, bodyPreview)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("empty completion from groq")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
