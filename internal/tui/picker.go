package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"melechmcp/internal/ingest"
)

type pickerModel struct {
	cursor int
}

func (m pickerModel) Update(msg tea.Msg) (pickerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(ingest.Kinds)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m pickerModel) selected() ingest.Kind {
	return ingest.Kinds[m.cursor]
}

func (m pickerModel) View(ix indexes) string {
	s := "\n"
	s += titleStyle.Render("  Select Index") + "\n"
	s += dimStyle.Render("  Empty indexes are built before searching") + "\n\n"

	for i, k := range ingest.Kinds {
		cursor := "  "
		style := listItemStyle
		if i == m.cursor {
			cursor = "▸ "
			style = selectedStyle
		}
		note := fmt.Sprintf("%d records", ix.summary(k).Records)
		if ix.empty(k) {
			note = "not built"
		}
		s += fmt.Sprintf("  %s%s\n", cursor, style.Render(fmt.Sprintf("%s (%s)", kindTitle(k), note)))
	}
	s += "\n"
	s += helpStyle.Render("  ↑/↓ navigate • Enter select • q quit") + "\n"
	return s
}
