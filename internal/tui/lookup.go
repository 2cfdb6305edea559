package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"melechmcp/internal/ingest"
)

type lookupModel struct {
	kind        ingest.Kind
	ix          indexes
	viewport    viewport.Model
	input       textinput.Model
	renderer    *glamour.TermRenderer
	entries     []lookupEntry
	width       int
	height      int
	initialized bool
}

type lookupEntry struct {
	query  string
	result string
}

func newLookupModel(kind ingest.Kind, ix indexes) lookupModel {
	ti := textinput.New()
	ti.Placeholder = kindPrompt(kind)
	ti.CharLimit = 200
	ti.Focus()

	return lookupModel{kind: kind, ix: ix, input: ti}
}

func (m *lookupModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// Layout: viewport + status bar (1 line) + input (1 line) + gap (1 line).
	vpHeight := max(height-3, 5)
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(m.renderEntries())

	m.input.Width = width - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
}

func (m lookupModel) Update(msg tea.Msg) (lookupModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.input.Reset()
			if q == "/clear" {
				m.entries = nil
			} else {
				m.entries = append(m.entries, lookupEntry{query: q, result: m.ix.lookup(m.kind, q)})
			}
			m.viewport.SetContent(m.renderEntries())
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// markdown renders one lookup as a heading and a preformatted block.
func (e lookupEntry) markdown() string {
	fence := codeFence(e.result)
	return fmt.Sprintf("### %s\n\n%s\n%s\n%s\n", e.query, fence, e.result, fence)
}

// codeFence returns a backtick fence longer than any backtick run in s,
// and at least three long.
func codeFence(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

func (m lookupModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return resultStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return resultStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m lookupModel) renderEntries() string {
	if len(m.entries) == 0 {
		return dimStyle.Render(fmt.Sprintf("Search %s. Esc goes back, /clear empties the results.", strings.ToLower(kindTitle(m.kind))))
	}
	var sb strings.Builder
	for _, e := range m.entries {
		sb.WriteString(queryStyle.Render("> "+e.query) + "\n")
		sb.WriteString(m.renderMarkdown(e.markdown()) + "\n\n")
	}
	return sb.String()
}

func (m lookupModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	sum := m.ix.summary(m.kind)
	statusBar := statusBarStyle.
		Width(m.width).
		Render(fmt.Sprintf(" %s • %s • %d records", kindTitle(m.kind), sum.State, sum.Records))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}
