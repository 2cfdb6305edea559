package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeBackend struct {
	results []Result
	err     error
	gotK    int
	gotQ    string
}

func (f *fakeBackend) Search(_ context.Context, q string, k int) ([]Result, error) {
	f.gotQ, f.gotK = q, k
	return f.results, f.err
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestServerSearch(t *testing.T) {
	backend := &fakeBackend{results: []Result{{Content: "class AudioBuffer", Source: "juce_AudioBuffer.h"}}}
	h := NewServer(backend, ServerOptions{}, zaptest.NewLogger(t)).Handler()

	rec := post(t, h, `{"query": "  AudioBuffer ", "k": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, backend.results, resp.Results)
	assert.Equal(t, "AudioBuffer", backend.gotQ)
	assert.Equal(t, 3, backend.gotK)
}

func TestServerClampsK(t *testing.T) {
	backend := &fakeBackend{}
	h := NewServer(backend, ServerOptions{}, nil).Handler()

	for body, want := range map[string]int{
		`{"query":"x"}`:         DefaultK,
		`{"query":"x","k":0}`:   DefaultK,
		`{"query":"x","k":-4}`:  1,
		`{"query":"x","k":500}`: MaxK,
	} {
		rec := post(t, h, body)
		require.Equal(t, http.StatusOK, rec.Code, body)
		assert.Equal(t, want, backend.gotK, body)
		assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
	}
}

func TestServerErrors(t *testing.T) {
	h := NewServer(&fakeBackend{}, ServerOptions{}, nil).Handler()
	rec := post(t, h, `{"query": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "query is required", detail(t, rec))

	rec = post(t, h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewServer(nil, ServerOptions{}, nil).Handler()
	rec = post(t, h, `{"query": "x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, detail(t, rec), "RAG backend not configured")

	h = NewServer(&fakeBackend{err: errors.New("ollama down")}, ServerOptions{}, zaptest.NewLogger(t)).Handler()
	rec = post(t, h, `{"query": "x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, detail(t, rec), "ollama down")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerRateLimit(t *testing.T) {
	h := NewServer(&fakeBackend{}, ServerOptions{RateLimit: 0.001, Burst: 2}, nil).Handler()
	assert.Equal(t, http.StatusOK, post(t, h, `{"query":"a"}`).Code)
	assert.Equal(t, http.StatusOK, post(t, h, `{"query":"b"}`).Code)
	rec := post(t, h, `{"query":"c"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestServerHealth(t *testing.T) {
	h := NewServer(nil, ServerOptions{}, nil).Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","backend":false}`, rec.Body.String())
}

func TestClientAgainstServer(t *testing.T) {
	backend := &fakeBackend{results: []Result{{Content: "c", Source: "s"}}}
	srv := httptest.NewServer(NewServer(backend, ServerOptions{}, nil).Handler())
	defer srv.Close()

	c := NewClient(srv.URL+"/search", 0)
	results, err := c.Search(context.Background(), "AudioProcessor", 4)
	require.NoError(t, err)
	assert.Equal(t, backend.results, results)
	assert.Equal(t, 4, backend.gotK)

	_, err = c.Search(context.Background(), "", 4)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, `RAG server error 400: {"detail":"query is required"}`, BridgeError(err))
}

func TestClientUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewClient("http://"+addr+"/search", 0).Search(context.Background(), "x", 5)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, MsgServerDownHint, BridgeError(err))
	assert.Equal(t, "Error searching docs: boom", BridgeError(errors.New("boom")))
}

func TestFormatBridge(t *testing.T) {
	got := FormatBridge([]Result{
		{Content: "  class AudioBuffer  ", Source: "a.h"},
		{Content: "   "},
		{Content: "class Slider"},
	})
	assert.Equal(t, "--- SOURCE: a.h ---\nclass AudioBuffer\n\n--- SOURCE: Unknown ---\nclass Slider", got)
	assert.Equal(t, MsgNoDocs, FormatBridge(nil))
	assert.Equal(t, MsgNoDocs, FormatBridge([]Result{{Content: " "}}))
}

func TestAnswer(t *testing.T) {
	results := []Result{
		{Content: strings.Repeat("x", 1000), Source: "a.h"},
		{Content: "b", File: "b.h"},
		{Content: "c", Path: "docs/c.md"},
		{Content: "d"},
	}
	got, hits := Answer(results, 3)
	parts := strings.Split(got, "\n\n---\n\n")
	require.Len(t, parts, 3)
	assert.Equal(t, "Source: a.h\n"+strings.Repeat("x", AnswerChars), parts[0])
	assert.Equal(t, "Source: b.h\nb", parts[1])
	assert.Equal(t, []string{"a.h", "b.h", "docs/c.md"}, hits)

	got, hits = Answer(results[3:], 0)
	assert.Equal(t, "Source: unknown\nd", got)
	assert.Equal(t, []string{"unknown"}, hits)

	got, _ = Answer(nil, 3)
	assert.Equal(t, MsgNoResults, got)
	got, _ = Answer([]Result{{Content: ""}}, 3)
	assert.Equal(t, MsgNoUsable, got)
}

func TestFormatContext(t *testing.T) {
	assert.Empty(t, FormatContext(nil))
	got := FormatContext([]Result{{Content: "one"}, {Content: "two"}})
	assert.Equal(t, "--- DOCUMENTATION SEGMENT ---\none\n\n--- DOCUMENTATION SEGMENT ---\ntwo", got)
}

func TestClampK(t *testing.T) {
	for in, want := range map[int]int{0: 5, 1: 1, 20: 20, 21: 20, -1: 1} {
		assert.Equal(t, want, ClampK(in), fmt.Sprint(in))
	}
}
