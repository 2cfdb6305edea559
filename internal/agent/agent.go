// Package agent answers JUCE questions from the documentation search server
// and generates code grounded in what it retrieves.
package agent

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"melechmcp/internal/llm"
	"melechmcp/internal/rag"
)

const (
	// CodeContextDocs is how many segments ground a code generation.
	CodeContextDocs = 5
	// CodeTemperature keeps generations close to the documentation.
	CodeTemperature = 0.1
	// MaxHistory is the number of messages kept between REPL turns.
	MaxHistory = 20
)

const codeSystemPrompt = `You are an expert C++ Audio Developer specializing in the JUCE framework.
Your goal is to write production-ready, real-time safe C++ code using the provided context.

### CRITICAL INSTRUCTION: STRICT CONTEXT ADHERENCE
You must ONLY use classes, functions, and method signatures found in the "DOCUMENTATION CONTEXT" provided below.
- If a function is not in the context, DO NOT assume it exists.
- DO NOT use deprecated classes (e.g., ScopedPointer, AudioProcessorGraph::Node).
- If the context is insufficient to answer the request, state exactly what is missing rather than inventing code.

### DOCUMENTATION CONTEXT (Immutable Truth):
`

// Searcher is the documentation search the agent reads from.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]rag.Result, error)
	URL() string
}

// ProviderFactory builds the chat model on first use.
type ProviderFactory func(ctx context.Context) (llm.Provider, error)

// Sources describes where an answer came from.
type Sources struct {
	RAGURL string   `json:"rag_url"`
	Hits   []string `json:"hits,omitempty"`
}

// Agent combines retrieval with an optional chat model.
type Agent struct {
	docs   Searcher
	newLLM ProviderFactory
	log    *zap.Logger

	mu       sync.Mutex
	provider llm.Provider
}

// New creates an agent. newLLM is only called by GenerateCode, so retrieval
// works without any model credentials.
func New(docs Searcher, newLLM ProviderFactory, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{docs: docs, newLLM: newLLM, log: log}
}

// RetrieveDocs returns up to k segments for query. Search failures are
// logged and yield no results.
func (a *Agent) RetrieveDocs(ctx context.Context, query string, k int) []rag.Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	results, err := a.docs.Search(ctx, query, k)
	if err != nil {
		a.log.Warn("RAG connection error", zap.String("url", a.docs.URL()), zap.Error(err))
		return nil
	}
	return results
}

// QueryDocs answers query with the top topK segments.
func (a *Agent) QueryDocs(ctx context.Context, query string, topK int) (string, Sources) {
	sources := Sources{RAGURL: a.docs.URL()}
	results := a.RetrieveDocs(ctx, query, topK)
	answer, hits := rag.Answer(results, topK)
	sources.Hits = hits
	return answer, sources
}

// GenerateCode retrieves documentation for prompt and asks the model for
// code that only uses what the documentation shows. history holds earlier
// turns of the same conversation.
func (a *Agent) GenerateCode(ctx context.Context, prompt string, history []llm.Message) (string, error) {
	provider, err := a.llm(ctx)
	if err != nil {
		return "", err
	}

	a.log.Info("searching docs", zap.String("query", prompt))
	docs := rag.FormatContext(a.RetrieveDocs(ctx, prompt, CodeContextDocs))
	if docs == "" {
		a.log.Warn("no documentation found, the model may hallucinate")
	}

	return provider.Generate(ctx, BuildCodeMessages(docs, history, prompt), llm.Temperature(CodeTemperature))
}

func (a *Agent) llm(ctx context.Context) (llm.Provider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.provider != nil {
		return a.provider, nil
	}
	if a.newLLM == nil {
		return nil, errors.New("no chat model configured")
	}
	p, err := a.newLLM(ctx)
	if err != nil {
		return nil, err
	}
	a.provider = p
	return p, nil
}

// BuildCodeMessages assembles the strict system prompt, prior turns and the
// request.
func BuildCodeMessages(docs string, history []llm.Message, prompt string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: codeSystemPrompt + docs})
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: prompt})
	return msgs
}

// TrimHistory keeps the last MaxHistory messages.
func TrimHistory(history []llm.Message) []llm.Message {
	if len(history) > MaxHistory {
		return history[len(history)-MaxHistory:]
	}
	return history
}
