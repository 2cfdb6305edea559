// Package rag implements the documentation search collaborators: the JSON
// /search endpoint, a client for it, the answer formats used by the MCP
// bridge and the agent, and a local SQLite-backed search backend.
package rag

import "strings"

const (
	// DefaultK is used when a request omits k.
	DefaultK = 5
	// MaxK bounds k on the server.
	MaxK = 20
)

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// SearchResponse is the body of a successful /search reply.
type SearchResponse struct {
	Results []Result `json:"results"`
}

// Result is one retrieved document segment. Servers other than ours may
// name the origin file or path instead of source.
type Result struct {
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
	File    string `json:"file,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Origin returns the first non-empty of source, file and path, or "unknown".
func (r Result) Origin() string {
	for _, s := range []string{r.Source, r.File, r.Path} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return "unknown"
}

// ClampK applies the server's k policy: 0 means DefaultK, and the result
// lies in [1, MaxK].
func ClampK(k int) int {
	if k == 0 {
		k = DefaultK
	}
	return max(1, min(k, MaxK))
}
