// Package gateway is the boundary to the external language model. The
// contract is one reply per call, no streaming: prompt in, text out.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"trendle/internal/config"
)

// Client produces one conversational reply for a system prompt plus
// user text. sessionKey identifies the conversation for providers that
// track usage per session; no chat state is held on this side.
type Client interface {
	Chat(ctx context.Context, systemPrompt, sessionKey, userText string) (string, error)
}

// HTTP talks to an OpenAI-style chat-completions endpoint.
type HTTP struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

func NewHTTP(cfg *config.Config) *HTTP {
	return &HTTP{
		baseURL:     cfg.Gateway.BaseURL,
		model:       cfg.Gateway.Model,
		apiKey:      os.Getenv(cfg.Gateway.APIKeyEnv),
		temperature: cfg.Gateway.Temperature,
		maxTokens:   cfg.Gateway.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.GatewayTimeout()},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	User        string        `json:"user,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (h *HTTP) Chat(ctx context.Context, systemPrompt, sessionKey, userText string) (string, error) {
	if h.apiKey == "" {
		return "", fmt.Errorf("gateway api key not set")
	}
	reqBody := chatRequest{
		Model: h.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
		Temperature: h.temperature,
		MaxTokens:   h.maxTokens,
		User:        sessionKey,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed chatResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("parse gateway response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gateway error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("gateway returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Static returns a fixed reply. Used by tests and offline runs.
type Static struct {
	Reply string
	Err   error
	// Calls records the user texts received, in order.
	Calls []string
	// Delay simulates a slow provider for timeout tests.
	Delay time.Duration
}

func (s *Static) Chat(ctx context.Context, systemPrompt, sessionKey, userText string) (string, error) {
	s.Calls = append(s.Calls, userText)
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	if s.Reply == "" {
		return "Got it. Tell me more about your goals.", nil
	}
	return s.Reply, nil
}
