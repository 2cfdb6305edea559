package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaChat calls the Ollama /api/chat endpoint for generative responses.
type OllamaChat struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaChat creates a chat client targeting the given Ollama instance and model.
func NewOllamaChat(baseURL, model string) *OllamaChat {
	return &OllamaChat{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *OllamaChat) Name() string { return "ollama:" + c.model }

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

// Generate sends a conversation to Ollama and returns the assistant's response.
func (c *OllamaChat) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	creq := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	}
	if opts.Temperature != nil {
		creq.Options = map[string]any{"temperature": *opts.Temperature}
	}
	body, err := json.Marshal(creq)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama chat returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}

	return result.Message.Content, nil
}
