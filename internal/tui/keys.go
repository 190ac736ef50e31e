package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines key bindings
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	New     key.Binding
	Edit    key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	Summary key.Binding
	Theme   key.Binding
	Refresh key.Binding
	Filter  key.Binding
	Logout  key.Binding
	Help    key.Binding
	Quit    key.Binding

	// Forms
	NextField  key.Binding
	PrevField  key.Binding
	Submit     key.Binding
	Back       key.Binding
	DeleteEdit key.Binding
	CycleLeft  key.Binding
	CycleRight key.Binding
	Check      key.Binding

	// Dialogs
	Confirm key.Binding
	Cancel  key.Binding
	Dismiss key.Binding
}

// DefaultKeyMap returns default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e/enter", "edit task"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("c", " "),
			key.WithHelp("c/space", "mark done"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete task"),
		),
		Summary: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "AI summary"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle theme"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "all/pending/done"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		DeleteEdit: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "delete"),
		),
		CycleLeft: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "lower priority"),
		),
		CycleRight: key.NewBinding(
			key.WithKeys("right", "l", " "),
			key.WithHelp("→", "higher priority"),
		),
		Check: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc", "enter", "q"),
			key.WithHelp("esc", "close"),
		),
	}
}

// HelpLines lists the dashboard and form bindings for the help overlay
func (k KeyMap) HelpLines() []string {
	bindings := []key.Binding{
		k.Up, k.Down, k.New, k.Edit, k.Toggle, k.Delete, k.Summary,
		k.Theme, k.Refresh, k.Filter, k.Logout, k.Help, k.Quit,
		k.NextField, k.Submit, k.Back, k.DeleteEdit,
	}
	lines := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("%-10s %s", h.Key, h.Desc))
	}
	return lines
}

// shortHelp is the footer for a screen
func shortHelp(bindings ...key.Binding) string {
	var out string
	for i, b := range bindings {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += h.Key + ": " + h.Desc
	}
	return out
}
