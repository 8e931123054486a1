// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the viewer.
type KeyMap struct {
	// Scrolling
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	// Pane and file navigation
	FocusPane key.Binding
	NextFile  key.Binding
	PrevFile  key.Binding
	FileList  key.Binding
	NextHunk  key.Binding
	PrevHunk  key.Binding

	// Search
	Search       key.Binding
	SearchScope  key.Binding
	NextMatch    key.Binding
	PrevMatch    key.Binding
	ExpandFile   key.Binding
	CollapseFile key.Binding

	// General
	ToggleConnectors key.Binding
	ToggleLog        key.Binding
	Help             key.Binding
	Escape           key.Binding
	Quit             key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "scroll left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "scroll right"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "go to bottom"),
		),

		FocusPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		NextFile: key.NewBinding(
			key.WithKeys("J", "ctrl+n"),
			key.WithHelp("J", "next file"),
		),
		PrevFile: key.NewBinding(
			key.WithKeys("K", "ctrl+p"),
			key.WithHelp("K", "previous file"),
		),
		FileList: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle file list"),
		),
		NextHunk: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next change"),
		),
		PrevHunk: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous change"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		SearchScope: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "toggle search scope"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "previous match"),
		),
		ExpandFile: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "show more matches"),
		),
		CollapseFile: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "show fewer matches"),
		),

		ToggleConnectors: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle connectors"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "toggle log overlay"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close/cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
