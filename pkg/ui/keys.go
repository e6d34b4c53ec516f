// Package ui renders the terminal dashboard for the detection engine.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the dashboard keybindings.
type KeyMap struct {
	Quit          key.Binding
	Pause         key.Binding
	Clear         key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
	DismissErrors key.Binding
}

// DefaultKeyMap returns the bindings the dashboard ships with.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		DismissErrors: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "dismiss errors"),
		),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Clear, k.Pause, k.ScrollUp, k.ScrollDown}
}

// FullHelp lists every binding for an expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Pause, k.Clear},
		{k.ScrollUp, k.ScrollDown, k.DismissErrors},
	}
}

// FooterHelp renders the short help line shown under the dashboard.
func (k KeyMap) FooterHelp() string {
	parts := make([]string, 0, len(k.ShortHelp()))
	for _, b := range k.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
