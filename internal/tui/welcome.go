package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"melechmcp/internal/index"
	"melechmcp/internal/ingest"
)

type welcomeModel struct {
	ix    indexes
	ready bool // true once the indexes have been read
}

// loadIndexesMsg is sent after the index files have been read.
type loadIndexesMsg struct {
	ix indexes
}

func loadIndexes(cfg Config) tea.Cmd {
	return func() tea.Msg {
		return loadIndexesMsg{ix: openIndexes(cfg.Paths)}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loadIndexesMsg:
		m.ix = msg.ix
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ MelechDSP") + "\n"
	s += subtitleStyle.Render("  DSP, JUCE and project indexes") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Reading indexes...") + "\n"
		return s
	}

	for _, k := range ingest.Kinds {
		sum := m.ix.summary(k)
		line := fmt.Sprintf("%-14s %d records", kindTitle(k), sum.Records)
		switch sum.State {
		case index.StateLoaded:
			if sum.Records > 0 {
				s += successStyle.Render("  ✓ "+line) + "\n"
			} else {
				s += warnStyle.Render("  ⚠ "+line) + "\n"
			}
		default:
			s += warnStyle.Render(fmt.Sprintf("  ✗ %-14s %s", kindTitle(k), sum.State)) + "\n"
		}
		s += dimStyle.Render("    "+sum.Path) + "\n"
	}

	s += "\n"
	s += dimStyle.Render("  Press Enter to continue") + "\n"
	return s
}
