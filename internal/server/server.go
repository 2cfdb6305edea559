// Package server builds the MCP tool servers over the loaded indexes and
// the documentation search.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"melechmcp/internal/index"
)

// Version is reported by every server's version tool.
const Version = "melechdsp-mcp v1.0"

// Server names, also used in health replies.
const (
	NameDSP      = "DSP Algorithms"
	NameJUCE     = "JUCE API Docs"
	NameMelech   = "MelechDSP Server"
	NameBridge   = "JUCE RAG"
	NameTemplate = "MelechDSP MCP Server"
)

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

// newServer returns an MCP server with the health and version tools.
func newServer(name string) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(name, Version, mcpserver.WithToolCapabilities(false))
	s.AddTool(healthTool(), makeHealthHandler(name))
	s.AddTool(versionTool(), versionHandler)
	return s
}

// NewTemplate is the bare server with only health and version.
func NewTemplate() *mcpserver.MCPServer {
	return newServer(NameTemplate)
}

func healthTool() mcp.Tool {
	return mcp.NewTool("health",
		mcp.WithDescription("Health check for MCP clients."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func versionTool() mcp.Tool {
	return mcp.NewTool("version",
		mcp.WithDescription("Returns the server version string."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func makeHealthHandler(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(name + " OK"), nil
	}
}

func versionHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(Version), nil
}

// Serve runs s on stdio, or on streamable HTTP when httpAddr is set, until
// ctx is cancelled or the client goes away.
func Serve(ctx context.Context, s *mcpserver.MCPServer, httpAddr string) error {
	if httpAddr == "" {
		return mcpserver.ServeStdio(s)
	}

	h := mcpserver.NewStreamableHTTPServer(s)
	errCh := make(chan error, 1)
	go func() { errCh <- h.Start(httpAddr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.Shutdown(shutdownCtx)
	}
}

// WatchSnapshot reloads snap whenever its file is rewritten. A failed
// reload keeps the records already loaded. It blocks until ctx is done.
func WatchSnapshot[T any](ctx context.Context, snap *index.Snapshot[T], log *zap.Logger) error {
	if snap.Path() == "" {
		return fmt.Errorf("snapshot has no backing file")
	}
	return index.Watch(ctx, snap.Path(), index.DefaultDebounce, func() {
		if err := snap.Reload(); err != nil {
			log.Warn("index reload failed, keeping previous records",
				zap.String("path", snap.Path()), zap.Error(err))
			return
		}
		log.Info("index reloaded", zap.String("path", snap.Path()), zap.Int("records", snap.Len()))
	})
}
