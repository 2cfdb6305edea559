// Package tui is the terminal browser over the three JSON indexes.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"melechmcp/internal/ingest"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewPicker
	ViewIndexing
	ViewLookup
)

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

// Config holds configuration passed from the CLI layer.
type Config struct {
	// Paths is the index file read, and rebuilt when empty, per kind.
	Paths   map[ingest.Kind]string
	Sources ingest.Sources
	Log     *zap.Logger

	// program is set internally so background goroutines can send messages.
	program *programRef
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	welcome  welcomeModel
	picker   pickerModel
	indexing indexingModel
	lookup   lookupModel
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return Model{
		state:  ViewWelcome,
		config: cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return loadIndexes(m.config)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewLookup {
			var c tea.Cmd
			m.lookup, c = m.lookup.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		// Global quit.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewLookup {
				return m, tea.Quit
			}
		case "esc":
			if m.state == ViewLookup {
				m.state = ViewPicker
				return m, nil
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.welcome.ready {
			m.state = ViewPicker
		}

	case ViewPicker:
		m.picker, cmd = m.picker.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
			kind := m.picker.selected()
			if m.welcome.ix.empty(kind) {
				m.state = ViewIndexing
				m.indexing = newIndexingModel(kind)
				return m, tea.Batch(m.indexing.spinner.Tick, runIngest(m.config, kind, m.welcome.ix))
			}
			m.transitionToLookup(kind)
		}

	case ViewIndexing:
		m.indexing, cmd = m.indexing.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.indexing.done {
			m.transitionToLookup(m.indexing.kind)
		}

	case ViewLookup:
		m.lookup, cmd = m.lookup.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) transitionToLookup(kind ingest.Kind) {
	m.lookup = newLookupModel(kind, m.welcome.ix)
	m.lookup.initViewport(m.width, m.height)
	m.state = ViewLookup
}

func (m Model) View() string {
	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewPicker:
		return m.picker.View(m.welcome.ix)
	case ViewIndexing:
		return m.indexing.View(m.width, m.height)
	case ViewLookup:
		return m.lookup.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program.
func Run(cfg Config) error {
	ref := &programRef{}
	cfg.program = ref
	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.p = p
	_, err := p.Run()
	return err
}
