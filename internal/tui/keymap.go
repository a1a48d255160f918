package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard key bindings.
type KeyMap struct {
	Serial   key.Binding
	Parallel key.Binding
	Both     key.Binding
	Reset    key.Binding
	Clear    key.Binding
	Up       key.Binding
	Down     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Serial: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "serial"),
		),
		Parallel: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "parallel"),
		),
		Both: key.NewBinding(
			key.WithKeys("b", "enter"),
			key.WithHelp("b", "both"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear batch"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Serial, k.Parallel, k.Both, k.Reset, k.Clear, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Serial, k.Parallel, k.Both},
		{k.Reset, k.Clear},
		{k.Up, k.Down, k.Quit},
	}
}
