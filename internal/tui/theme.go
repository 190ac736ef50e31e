package tui

import (
	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/taskstore"
)

// palette holds the colors of one theme
type palette struct {
	text    lipgloss.Color
	muted   lipgloss.Color
	accent  lipgloss.Color
	border  lipgloss.Color
	danger  lipgloss.Color
	high    lipgloss.Color
	normal  lipgloss.Color
	done    lipgloss.Color
	statusB lipgloss.Color
}

var (
	darkPalette = palette{
		text:    lipgloss.Color("252"),
		muted:   lipgloss.Color("243"),
		accent:  lipgloss.Color("212"),
		border:  lipgloss.Color("240"),
		danger:  lipgloss.Color("203"),
		high:    lipgloss.Color("196"),
		normal:  lipgloss.Color("62"),
		done:    lipgloss.Color("42"),
		statusB: lipgloss.Color("236"),
	}
	lightPalette = palette{
		text:    lipgloss.Color("235"),
		muted:   lipgloss.Color("245"),
		accent:  lipgloss.Color("125"),
		border:  lipgloss.Color("250"),
		danger:  lipgloss.Color("160"),
		high:    lipgloss.Color("160"),
		normal:  lipgloss.Color("25"),
		done:    lipgloss.Color("28"),
		statusB: lipgloss.Color("254"),
	}
)

// Styles are the lipgloss styles for one theme
type Styles struct {
	Header    lipgloss.Style
	Greeting  lipgloss.Style
	Card      lipgloss.Style
	Selected  lipgloss.Style
	Title     lipgloss.Style
	Text      lipgloss.Style
	Muted     lipgloss.Style
	Strike    lipgloss.Style
	BadgeHigh lipgloss.Style
	Badge     lipgloss.Style
	BadgeDone lipgloss.Style
	Label     lipgloss.Style
	Focused   lipgloss.Style
	Button    lipgloss.Style
	Busy      lipgloss.Style
	Error     lipgloss.Style
	StatusBar lipgloss.Style
	Dialog    lipgloss.Style
	Help      lipgloss.Style
}

// NewStyles builds the styles for theme
func NewStyles(theme taskstore.Theme) Styles {
	p := darkPalette
	if theme == taskstore.ThemeLight {
		p = lightPalette
	}

	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent),
		Greeting: lipgloss.NewStyle().
			Foreground(p.text),
		Card: lipgloss.NewStyle().
			PaddingLeft(2),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.text),
		Text: lipgloss.NewStyle().
			Foreground(p.text),
		Muted: lipgloss.NewStyle().
			Foreground(p.muted),
		Strike: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(p.muted),
		BadgeHigh: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.high),
		Badge: lipgloss.NewStyle().
			Foreground(p.normal),
		BadgeDone: lipgloss.NewStyle().
			Foreground(p.done),
		Label: lipgloss.NewStyle().
			Width(13).
			Foreground(p.muted),
		Focused: lipgloss.NewStyle().
			Width(13).
			Bold(true).
			Foreground(p.accent),
		Button: lipgloss.NewStyle().
			Foreground(p.accent),
		Busy: lipgloss.NewStyle().
			Italic(true).
			Foreground(p.muted),
		Error: lipgloss.NewStyle().
			Foreground(p.danger),
		StatusBar: lipgloss.NewStyle().
			Background(p.statusB).
			Foreground(p.text).
			Padding(0, 1),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(1, 2),
		Help: lipgloss.NewStyle().
			Foreground(p.muted),
	}
}
