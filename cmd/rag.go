package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"melechmcp/internal/chunker"
	"melechmcp/internal/chunker/languages"
	"melechmcp/internal/embedder"
	"melechmcp/internal/rag"
	"melechmcp/internal/store"
)

// queryCacheSize bounds the query-embedding cache of rag serve.
const queryCacheSize = 512

var (
	flagRAGDB   string
	flagWorkers int
	flagDims    int
	flagRAGHost string
	flagRAGPort int
)

var ragCmd = &cobra.Command{
	Use:   "rag",
	Short: "Build and serve the local JUCE documentation search",
}

var ragIndexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Chunk, embed and store a documentation tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		log, err := newLogger("rag-index")
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		dbPath := ragDBPath()
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
		st, err := store.Open(dbPath, flagDims)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		reg := chunker.NewRegistry()
		languages.RegisterCPP(reg)
		emb := embedder.NewOllamaEmbedder(cfg.Ollama.URL, cfg.Ollama.EmbedModel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Printf("Indexing %s -> %s\n", root, dbPath)
		start := time.Now()

		stats, err := rag.NewIndexer(st, reg, emb, flagWorkers, log).
			WithProgress(func(path string, indexed int) {
				fmt.Printf("\r  %d files stored", indexed)
			}).
			Index(ctx, root)
		if stats != nil {
			fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
			fmt.Printf("  Files:   %d total, %d indexed, %d unchanged, %d failed\n",
				stats.FilesTotal, stats.FilesIndexed, stats.FilesUnchanged, stats.FilesFailed)
			fmt.Printf("  Chunks:  %d\n", stats.ChunksTotal)
		}
		return err
	},
}

var ragServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /search over the local documentation store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger("juce-rag-http")
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		host, port := cfg.RAG.Host, cfg.RAG.Port
		if cmd.Flags().Changed("host") {
			host = flagRAGHost
		}
		if cmd.Flags().Changed("port") {
			port = flagRAGPort
		}

		var backend rag.Backend
		dbPath := ragDBPath()
		if _, err := os.Stat(dbPath); err == nil {
			st, err := store.Open(dbPath, flagDims)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			emb := embedder.NewCached(embedder.NewOllamaEmbedder(cfg.Ollama.URL, cfg.Ollama.EmbedModel), queryCacheSize)
			backend = rag.NewLocalBackend(st, emb)
			log.Info("local store opened", zap.String("path", dbPath))
		} else {
			log.Warn("no local store, /search will report the backend as missing", zap.String("path", dbPath))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := rag.NewServer(backend, rag.ServerOptions{RateLimit: cfg.RAG.RateLimit, Burst: cfg.RAG.Burst}, log)
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		log.Info("JUCE RAG HTTP server listening", zap.String("addr", addr))
		return srv.ListenAndServe(ctx, addr)
	},
}

func ragDBPath() string {
	if flagRAGDB != "" {
		return flagRAGDB
	}
	return cfg.RAGStorePath()
}

func init() {
	ragCmd.PersistentFlags().StringVar(&flagRAGDB, "db", "", "local store path (default from config)")
	ragCmd.PersistentFlags().IntVar(&flagDims, "dims", store.DefaultDimensions, "embedding dimensions")
	ragIndexCmd.Flags().IntVar(&flagWorkers, "workers", runtime.NumCPU(), "parallel workers")
	ragServeCmd.Flags().StringVar(&flagRAGHost, "host", "", "listen host (default from config)")
	ragServeCmd.Flags().IntVar(&flagRAGPort, "port", 0, "listen port (default from config)")
	ragCmd.AddCommand(ragIndexCmd, ragServeCmd)
	rootCmd.AddCommand(ragCmd)
}
