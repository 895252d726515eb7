package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the console.
type KeyMap struct {
	Start       key.Binding
	Stop        key.Binding
	Charts      key.Binding
	Suggestions key.Binding
	State       key.Binding
	Summary     key.Binding
	Stats       key.Binding
	Recent      key.Binding
	Export      key.Binding
	Clear       key.Binding
	Confirm     key.Binding
	Up          key.Binding
	Down        key.Binding
	Escape      key.Binding
	Debug       key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop"),
		),
		Charts: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh charts"),
		),
		Suggestions: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "suggestions"),
		),
		State: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "state"),
		),
		Summary: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "summary"),
		),
		Stats: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "detection stats"),
		),
		Recent: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "recent"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export"),
		),
		Clear: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear data"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Debug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "event log"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
