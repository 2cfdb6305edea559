// Package llm talks to the chat models used for code generation.
package llm

import (
	"context"
	"fmt"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes one generation. A nil Temperature keeps the model default.
type Options struct {
	Temperature *float64
}

// Temperature returns Options with t set.
func Temperature(t float64) Options { return Options{Temperature: &t} }

// Provider generates an assistant reply for a conversation.
type Provider interface {
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
	Name() string
}

// Settings selects and configures a provider.
type Settings struct {
	Provider     string // "ollama" or "gemini"
	OllamaURL    string
	OllamaModel  string
	GeminiModel  string
	GeminiAPIKey string
}

// New builds the configured provider. Gemini fails here when no API key is
// set, so callers should only build a provider once generation is needed.
func New(ctx context.Context, s Settings) (Provider, error) {
	switch s.Provider {
	case "", "ollama":
		return NewOllamaChat(s.OllamaURL, s.OllamaModel), nil
	case "gemini":
		return NewGeminiChat(ctx, s.GeminiAPIKey, s.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
	}
}
