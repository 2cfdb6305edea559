package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"melechmcp/internal/agent"
	"melechmcp/internal/index"
	"melechmcp/internal/llm"
	"melechmcp/internal/rag"
	"melechmcp/internal/server"
)

var (
	flagIndexPath string
	flagWatch     bool
	flagHTTP      string
)

var serveCmd = &cobra.Command{
	Use:       "serve dsp|juce|melech|bridge|template",
	Short:     "Start an MCP tool server (stdio unless --http is given)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"dsp", "juce", "melech", "bridge", "template"},
	RunE:      runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := newLogger(args[0] + "-mcp")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		s    *mcpserver.MCPServer
		name string
	)
	switch args[0] {
	case "dsp":
		snap := openSnapshot[index.FileRecord](ctx, index.DSPIndexFile, log)
		s, name = server.NewDSP(snap), server.NameDSP
	case "juce":
		snap := openSnapshot[index.ClassRecord](ctx, index.JUCEIndexFile, log)
		s, name = server.NewJUCE(snap), server.NameJUCE
	case "melech":
		snap := openSnapshot[index.ProjectFileRecord](ctx, index.ProjectIndexFile, log)
		s, name = server.NewMelech(snap), server.NameMelech
	case "bridge":
		client := rag.NewClient(cfg.RAG.URL, time.Duration(cfg.RAG.TimeoutSecs)*time.Second)
		ag := agent.New(client, providerFactory(), log)
		s, name = server.NewBridge(client, ag), server.NameBridge
		log.Info("RAG search endpoint", zap.String("url", client.URL()))
	case "template":
		s, name = server.NewTemplate(), server.NameTemplate
	default:
		return fmt.Errorf("unknown server %q (want dsp, juce, melech, bridge or template)", args[0])
	}

	log.Info("secrets", zap.String("summary", cfg.SecretsSummary()))
	if flagHTTP != "" {
		log.Info(name+" running (streamable HTTP)", zap.String("addr", flagHTTP))
	} else {
		log.Info(name + " running (stdio). Waiting for client...")
	}
	return server.Serve(ctx, s, flagHTTP)
}

// openSnapshot loads the index named file. A missing or malformed index
// leaves the server running with no records.
func openSnapshot[T any](ctx context.Context, file string, log *zap.Logger) *index.Snapshot[T] {
	path := flagIndexPath
	if path == "" {
		path = cfg.ReadIndexPath(file)
	}
	snap := index.Open[T](path)
	if err := snap.Err(); err != nil {
		log.Warn("index not loaded", zap.String("path", path), zap.Error(err))
	} else {
		log.Info("index loaded", zap.String("path", path),
			zap.Stringer("state", snap.State()), zap.Int("records", snap.Len()))
	}

	if flagWatch {
		go func() {
			if err := server.WatchSnapshot(ctx, snap, log); err != nil && ctx.Err() == nil {
				log.Warn("index watch stopped", zap.String("path", path), zap.Error(err))
			}
		}()
	}
	return snap
}

// providerFactory builds the configured chat model on first use.
func providerFactory() agent.ProviderFactory {
	settings := llm.Settings{
		Provider:     cfg.LLM.Provider,
		OllamaURL:    cfg.Ollama.URL,
		OllamaModel:  cfg.Ollama.ChatModel,
		GeminiModel:  cfg.LLM.GeminiModel,
		GeminiAPIKey: cfg.LLM.GeminiAPIKey,
	}
	return func(ctx context.Context) (llm.Provider, error) {
		return llm.New(ctx, settings)
	}
}

func init() {
	serveCmd.Flags().StringVar(&flagIndexPath, "index", "", "index file (default <index_dir>/<name>.json or next to the executable)")
	serveCmd.Flags().BoolVar(&flagWatch, "watch", false, "reload the index when the file changes")
	serveCmd.Flags().StringVar(&flagHTTP, "http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(serveCmd)
}
