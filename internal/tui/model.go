package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/damageflow/internal/controller"
	"github.com/npratt/damageflow/internal/events"
	"github.com/npratt/damageflow/internal/stage"
)

// maxRecent is how many formatted transitions are kept for display.
const maxRecent = 5

// model is the bubbletea model for the TUI.
type model struct {
	// Event source
	eventChan <-chan events.Event
	engine    Engine

	// Static diagram data
	catalog *stage.Catalog
	layout  *stage.Layout

	// State
	state  controller.RunState
	recent []string

	// UI state
	width   int
	height  int
	showAll bool
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	onQuit func()
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg events.Event

// newModel creates a model for engine. The first state is read eagerly so the
// initial frame is correct before any event arrives.
func newModel(eventChan <-chan events.Event, engine Engine, onQuit func(), showAll bool) model {
	catalog := engine.Catalog()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StatusRunning

	return model{
		eventChan: eventChan,
		engine:    engine,
		catalog:   catalog,
		layout:    stage.NewLayout(catalog),
		state:     engine.State(),
		showAll:   showAll,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		onQuit:    onQuit,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.eventChan), m.spinner.Tick)
}

// refresh re-reads the controller state after an event or a local action.
func (m *model) refresh() {
	m.state = m.engine.State()
}

// record keeps the formatted event in the recent transitions list.
func (m *model) record(event events.Event) {
	line := events.Format(event)
	if line == "" {
		return
	}
	m.recent = append(m.recent, line)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[len(m.recent)-maxRecent:]
	}
}

// nextBranch cycles none -> first -> ... -> last -> none.
func nextBranch(current stage.BranchID) stage.BranchID {
	for i, b := range stage.Branches {
		if b == current {
			if i+1 < len(stage.Branches) {
				return stage.Branches[i+1]
			}
			return stage.NoBranch
		}
	}
	return stage.Branches[0]
}
