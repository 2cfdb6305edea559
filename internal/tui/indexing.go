package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"melechmcp/internal/ingest"
)

type indexingModel struct {
	kind           ingest.Kind
	spinner        spinner.Model
	phase          string
	filesProcessed int
	done           bool
	stats          ingest.Stats
	err            error
}

func newIndexingModel(kind ingest.Kind) indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return indexingModel{
		kind:    kind,
		spinner: sp,
		phase:   "Scanning files...",
	}
}

// indexDoneMsg is sent when an ingest run completes.
type indexDoneMsg struct {
	stats ingest.Stats
	err   error
}

// indexProgressMsg is sent for every file scanned.
type indexProgressMsg struct {
	phase          string
	filesProcessed int
}

func runIngest(cfg Config, kind ingest.Kind, ix indexes) tea.Cmd {
	return func() tea.Msg {
		scanner := ingest.New(cfg.Log).WithProgress(func(message string, current, total int) {
			if cfg.program != nil && cfg.program.p != nil {
				cfg.program.p.Send(indexProgressMsg{phase: message, filesProcessed: current})
			}
		})

		stats, err := scanner.Build(context.Background(), kind, cfg.Sources, cfg.Paths[kind])
		if err != nil {
			return indexDoneMsg{stats: stats, err: err}
		}
		if err := ix.reload(kind); err != nil {
			return indexDoneMsg{stats: stats, err: fmt.Errorf("reload index: %w", err)}
		}
		return indexDoneMsg{stats: stats}
	}
}

func (m indexingModel) Update(msg tea.Msg) (indexingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case indexDoneMsg:
		m.done = true
		m.stats = msg.stats
		m.err = msg.err
		return m, nil
	case indexProgressMsg:
		m.phase = msg.phase
		m.filesProcessed = msg.filesProcessed
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m indexingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Building "+kindTitle(m.kind)) + "\n\n"

	if m.done {
		if m.err != nil {
			if errors.Is(m.err, ingest.ErrMissingRoot) {
				s += warnStyle.Render(fmt.Sprintf("  %v", m.err)) + "\n"
				s += dimStyle.Render("  Set the source path in config/local_paths.toml or the environment.") + "\n\n"
			} else {
				s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			}
			s += dimStyle.Render("  Press Enter to search anyway, or q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Index built!") + "\n\n"
		s += fmt.Sprintf("  Files: %d total, %d indexed, %d skipped\n",
			m.stats.FilesTotal, m.stats.FilesIndexed, m.stats.FilesSkipped)
		s += fmt.Sprintf("  Records: %d\n", m.stats.Records)
		s += "\n"
		s += dimStyle.Render("  Press Enter to start searching") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.phase)
	if m.filesProcessed > 0 {
		s += fmt.Sprintf("  %d files scanned\n", m.filesProcessed)
	}
	s += "\n"
	s += dimStyle.Render("  Large source trees can take a while...") + "\n"
	return s
}
