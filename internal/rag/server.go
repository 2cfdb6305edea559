package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MsgNoBackend is the detail returned when the server has nothing to search.
const MsgNoBackend = "RAG backend not configured. Build a local store with `melechmcp rag index <dir>` " +
	"or point JUCE_RAG_LOCAL_DIR at one."

// Backend answers a search with at most k results.
type Backend interface {
	Search(ctx context.Context, query string, k int) ([]Result, error)
}

// ServerOptions tunes the HTTP server.
type ServerOptions struct {
	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int
}

// Server serves POST /search and GET /healthz.
type Server struct {
	backend Backend
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewServer builds a server. A nil backend is allowed; every search then
// fails with MsgNoBackend.
func NewServer(backend Backend, opts ServerOptions, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = max(1, int(opts.RateLimit))
	}
	return &Server{
		backend: backend,
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, errorBody{Detail: "rate limit exceeded"})
		return
	}

	req := SearchRequest{K: DefaultK}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "invalid request body: " + err.Error()})
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "query is required"})
		return
	}
	k := ClampK(req.K)

	if s.backend == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: MsgNoBackend})
		return
	}

	start := time.Now()
	results, err := s.backend.Search(r.Context(), query, k)
	if err != nil {
		s.log.Error("search failed", zap.String("query", query), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "search failed: " + err.Error()})
		return
	}
	if results == nil {
		results = []Result{}
	}
	s.log.Debug("search", zap.String("query", query), zap.Int("k", k),
		zap.Int("results", len(results)), zap.Duration("took", time.Since(start)))
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"backend": s.backend != nil,
	})
}
