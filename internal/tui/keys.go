package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding the diagram reacts to.
type keyMap struct {
	Toggle  key.Binding
	Reset   key.Binding
	Select  key.Binding
	Cycle   key.Binding
	Clear   key.Binding
	Markers key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "pause/resume"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Select: key.NewBinding(
			key.WithKeys("1", "2", "3"),
			key.WithHelp("1-3", "select outcome"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next outcome"),
		),
		Clear: key.NewBinding(
			key.WithKeys("0", "esc"),
			key.WithHelp("0", "clear"),
		),
		Markers: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "all markers"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reset, k.Select, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Reset},
		{k.Select, k.Cycle, k.Clear},
		{k.Markers, k.Help, k.Quit},
	}
}
