package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"melechmcp/internal/ingest"
)

var (
	flagRoots  []string
	flagOutDir string
)

var ingestCmd = &cobra.Command{
	Use:       "ingest dsp|juce|projects",
	Short:     "Scan source trees and write a JSON index",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"dsp", "juce", "projects"},
	RunE:      runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	kind, err := ingest.ParseKind(args[0])
	if err != nil {
		return err
	}
	if flagOutDir != "" {
		cfg.IndexDir = flagOutDir
	}

	src := ingest.Sources{
		DSPRoot:      cfg.DSP.SourceDir,
		JUCERoot:     cfg.JUCE.ModulesDir,
		ModulePrefix: cfg.JUCE.ModulePrefix,
		ProjectRoots: cfg.Projects.Paths,
	}
	if len(flagRoots) > 0 {
		switch kind {
		case ingest.KindDSP:
			src.DSPRoot = flagRoots[0]
		case ingest.KindJUCE:
			src.JUCERoot = flagRoots[0]
		case ingest.KindProjects:
			src.ProjectRoots = flagRoots
		}
	}

	log, err := newLogger("ingest-" + string(kind))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outPath := cfg.WriteIndexPath(kind.FileName())
	fmt.Printf("Building %s index -> %s\n", kind, outPath)
	start := time.Now()

	stats, err := ingest.New(log).Build(ctx, kind, src, outPath)
	if errors.Is(err, ingest.ErrMissingRoot) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Files:   %d total, %d indexed, %d skipped\n",
		stats.FilesTotal, stats.FilesIndexed, stats.FilesSkipped)
	fmt.Printf("  Records: %d\n", stats.Records)
	return nil
}

func init() {
	ingestCmd.Flags().StringSliceVar(&flagRoots, "root", nil, "scan root (repeat for projects; default from config)")
	ingestCmd.Flags().StringVar(&flagOutDir, "out-dir", "", "directory for the index file (default working directory)")
	rootCmd.AddCommand(ingestCmd)
}
