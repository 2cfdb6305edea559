package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// ErrMissingAPIKey is returned when Gemini is selected without GEMINI_API_KEY.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set; export it or add it to .env")

// GeminiChat generates with the Gemini API.
type GeminiChat struct {
	cli   *genai.Client
	model string
}

// NewGeminiChat creates a Gemini client for model.
func NewGeminiChat(ctx context.Context, apiKey, model string) (*GeminiChat, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiChat{cli: cli, model: model}, nil
}

func (g *GeminiChat) Name() string { return "gemini:" + g.model }

// Generate sends system messages as the system instruction and the rest as
// the conversation.
func (g *GeminiChat) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	system, contents := toGeminiContents(messages)
	cfg := &genai.GenerateContentConfig{SystemInstruction: system}
	if opts.Temperature != nil {
		t := float32(*opts.Temperature)
		cfg.Temperature = &t
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content) {
	var systemParts []*genai.Part
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, &genai.Part{Text: m.Content})
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(systemParts) == 0 {
		return nil, contents
	}
	return &genai.Content{Parts: systemParts}, contents
}
