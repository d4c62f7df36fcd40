package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/damageflow/internal/events"
	"github.com/npratt/damageflow/internal/stage"
)

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// waitForEvent creates a command that waits for the next event from the channel.
// Returns channelClosedMsg if the channel is closed.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(event)
	}
}

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.handleEvent(events.Event(msg))
		return m, waitForEvent(m.eventChan)

	case channelClosedMsg:
		// Controller closed - clean exit
		slog.Info("event channel closed, exiting TUI")
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey processes keyboard input and returns the updated model and command.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		m.engine.Toggle()

	case key.Matches(msg, m.keys.Reset):
		m.engine.Reset()

	case key.Matches(msg, m.keys.Select):
		id, err := stage.ParseBranchID(msg.String())
		if err != nil {
			return m, nil
		}
		m.engine.SelectBranch(id)

	case key.Matches(msg, m.keys.Cycle):
		m.engine.SelectBranch(nextBranch(m.state.Selected))

	case key.Matches(msg, m.keys.Clear):
		m.engine.SelectBranch(stage.NoBranch)

	case key.Matches(msg, m.keys.Markers):
		m.showAll = !m.showAll
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	default:
		return m, nil
	}

	m.refresh()
	return m, nil
}

// handleEvent records a controller event and picks up the new state.
func (m *model) handleEvent(event events.Event) {
	if event == nil {
		return
	}
	if _, ok := event.(*events.StateChangedEvent); ok {
		m.refresh()
	}
	m.record(event)
}
