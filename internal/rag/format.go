package rag

import (
	"errors"
	"fmt"
	"strings"

	"melechmcp/internal/index"
)

const (
	MsgNoDocs         = "No relevant documentation found."
	MsgNoResults      = "No results from JUCE RAG store."
	MsgNoUsable       = "No usable content in results."
	MsgServerDownHint = "Error: cannot connect to RAG HTTP server. Start: melechmcp rag serve"

	// AnswerChars bounds each segment of an agent answer.
	AnswerChars = 900
)

// FormatBridge renders results as source-headed blocks separated by blank
// lines. Results with blank content are dropped.
func FormatBridge(results []Result) string {
	var blocks []string
	for _, r := range results {
		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}
		source := r.Source
		if source == "" {
			source = "Unknown"
		}
		blocks = append(blocks, fmt.Sprintf("--- SOURCE: %s ---\n%s", source, content))
	}
	if len(blocks) == 0 {
		return MsgNoDocs
	}
	return strings.Join(blocks, "\n\n")
}

// BridgeError turns a Client.Search failure into the text shown to the
// assistant.
func BridgeError(err error) string {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("RAG server error %d: %s", statusErr.Code, statusErr.Body)
	case errors.Is(err, ErrUnavailable):
		return MsgServerDownHint
	default:
		return fmt.Sprintf("Error searching docs: %v", err)
	}
}

// Answer renders the first max(1, topK) results as a compact grounded
// answer and returns the origins of the segments it used.
func Answer(results []Result, topK int) (string, []string) {
	if len(results) == 0 {
		return MsgNoResults, nil
	}
	n := min(max(1, topK), len(results))

	var chunks []string
	var hits []string
	for _, r := range results[:n] {
		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}
		src := r.Origin()
		chunks = append(chunks, fmt.Sprintf("Source: %s\n%s", src, index.Truncate(content, AnswerChars)))
		hits = append(hits, src)
	}
	if len(chunks) == 0 {
		return MsgNoUsable, hits
	}
	return strings.Join(chunks, "\n\n---\n\n"), hits
}

// FormatContext renders results as documentation segments for a prompt.
// It returns "" when there is nothing to show.
func FormatContext(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	segments := make([]string, 0, len(results))
	for _, r := range results {
		segments = append(segments, "--- DOCUMENTATION SEGMENT ---\n"+r.Content)
	}
	return strings.Join(segments, "\n\n")
}
