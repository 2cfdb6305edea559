package cmd

import (
	"github.com/spf13/cobra"

	"melechmcp/internal/ingest"
	"melechmcp/internal/logging"
	"melechmcp/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the DSP, JUCE and project indexes in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse()
	},
}

func runBrowse() error {
	// Log lines would corrupt the alternate screen, so only errors are kept.
	log, err := logging.New("browse", "error")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	paths := make(map[ingest.Kind]string, len(ingest.Kinds))
	for _, k := range ingest.Kinds {
		paths[k] = cfg.ReadIndexPath(k.FileName())
	}

	return tui.Run(tui.Config{
		Paths: paths,
		Sources: ingest.Sources{
			DSPRoot:      cfg.DSP.SourceDir,
			JUCERoot:     cfg.JUCE.ModulesDir,
			ModulePrefix: cfg.JUCE.ModulePrefix,
			ProjectRoots: cfg.Projects.Paths,
		},
		Log: log,
	})
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
