package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all board client key bindings with built-in help text.
type KeyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Escape    key.Binding

	// Navigation
	Next key.Binding
	Prev key.Binding

	// Actions
	Activate key.Binding
	Connect  key.Binding
	Load     key.Binding
	Submit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?/h", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("escape", "esc"),
			key.WithHelp("esc", "close/cancel"),
		),

		Next: key.NewBinding(
			key.WithKeys("tab", "right", "down", "j"),
			key.WithHelp("tab/→/↓", "next input"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "left", "up", "k"),
			key.WithHelp("shift+tab/←/↑", "prev input"),
		),

		Activate: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space/enter", "toggle switch or press button"),
		),
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "connect/disconnect"),
		),
		Load: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "load board"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "load"),
		),
	}
}

// ShortHelp lists the bindings shown in the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Activate, k.Connect, k.Load, k.Help, k.Quit}
}

// FullHelp lists the bindings shown on the help page.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Activate},
		{k.Connect, k.Load, k.Escape},
		{k.Help, k.Quit, k.ForceQuit},
	}
}
