package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// Completion carries the generated text plus the token count the ledger
// records against the caller's quota.
type Completion struct {
	Text       string
	TokensUsed int
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends one prompt pair and returns the completion.
//
// Transient failures (network errors, 429, 5xx) are retried up to three
// times with exponential backoff (1s, 2s, 4s). A timeout is not transient:
// when the context deadline fires the call fails immediately so the caller
// is not stuck behind a dead provider.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error) {
	if c.apiKey == "" {
		return Completion{}, fmt.Errorf("ai: API key not configured")
	}

	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   4096,
		Temperature: 0.3,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("ai: marshal request: %w", err)
	}

	const maxRetries = 3
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s, 4s
			select {
			case <-time.After(time.Duration(1<<uint(i-1)) * time.Second):
			case <-ctx.Done():
				return Completion{}, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return Completion{}, fmt.Errorf("ai: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return Completion{}, fmt.Errorf("ai: request timed out: %w", err)
			}
			lastErr = fmt.Errorf("ai: request failed: %w", err)
			continue
		}

		raw, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("ai: read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("ai: provider returned %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return Completion{}, fmt.Errorf("ai: provider returned %d: %s", resp.StatusCode, string(raw))
		}

		var parsed chatResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return Completion{}, fmt.Errorf("ai: parse response: %w", err)
		}
		if parsed.Error != nil {
			return Completion{}, fmt.Errorf("ai: provider error: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return Completion{}, fmt.Errorf("ai: no completion returned")
		}

		return Completion{
			Text:       strings.TrimSpace(parsed.Choices[0].Message.Content),
			TokensUsed: parsed.Usage.TotalTokens,
		}, nil
	}

	return Completion{}, fmt.Errorf("ai: max retries exceeded: %w", lastErr)
}
