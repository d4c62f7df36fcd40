// Package tui renders the damage detection pipeline as a live terminal
// diagram using bubbletea.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/damageflow/internal/controller"
	"github.com/npratt/damageflow/internal/events"
	"github.com/npratt/damageflow/internal/stage"
)

// Engine is the part of the controller the TUI reads and drives.
type Engine interface {
	State() controller.RunState
	Catalog() *stage.Catalog
	Toggle()
	Reset()
	SelectBranch(id stage.BranchID)
}

// TUI is the terminal diagram for a running controller.
type TUI struct {
	eventChan <-chan events.Event
	engine    Engine
	onQuit    func()
	showAll   bool
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a TUI that redraws whenever eventChan delivers. The channel is
// normally a controller subscription; closing it ends the program.
func New(eventChan <-chan events.Event, engine Engine, opts ...Option) *TUI {
	t := &TUI{
		eventChan: eventChan,
		engine:    engine,
		showAll:   true,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithOnQuit sets the callback invoked when the user presses 'q'.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithAllMarkers controls whether every branch gets its own marker while the
// branches run, or only the selected one.
func WithAllMarkers(show bool) Option {
	return func(t *TUI) {
		t.showAll = show
	}
}

// Run starts the TUI and blocks until it exits.
func (t *TUI) Run() error {
	m := newModel(t.eventChan, t.engine, t.onQuit, t.showAll)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
