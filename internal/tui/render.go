package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/taskstore"
	"taskboard/internal/view"
)

// render draws a view tree with the current theme
func (m *Model) render(root *view.Node) string {
	var b strings.Builder

	var overlay *view.Node
	for _, n := range root.Children {
		switch n.Kind {
		case view.KindHeader:
			b.WriteString(m.renderHeader(n))
			b.WriteString("\n\n")
		case view.KindList:
			b.WriteString(m.renderList(n))
		case view.KindForm:
			b.WriteString(m.renderForm(n))
		case view.KindStatus:
			b.WriteString("\n")
			if n.Has(view.AttrError) {
				b.WriteString(m.styles.Error.Render(n.Text))
			} else {
				b.WriteString(m.styles.Muted.Render(n.Text))
			}
			b.WriteString("\n")
		case view.KindOverlay:
			overlay = n
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	if overlay != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderOverlay(overlay))
	}
	return b.String()
}

func (m *Model) renderHeader(n *view.Node) string {
	parts := []string{m.styles.Header.Render(n.Text)}
	for _, c := range n.Children {
		switch c.Kind {
		case view.KindGreeting:
			parts = append(parts, m.styles.Greeting.Render(c.Text))
		case view.KindText:
			if c.Has(view.AttrBusy) {
				parts = append(parts, m.styles.Busy.Render(m.spinner.View()+c.Text))
			}
		}
	}
	if m.state.Screen == taskstore.ScreenDashboard {
		parts = append(parts, m.styles.Muted.Render("["+filterLabel(m.state.Filter)+"]"))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderList(n *view.Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		switch c.Kind {
		case view.KindPlaceholder:
			b.WriteString(m.styles.Muted.Italic(true).Render(c.Text))
			b.WriteString("\n")
		case view.KindCard:
			b.WriteString(m.renderCard(c))
		}
	}
	return b.String()
}

func (m *Model) renderCard(card *view.Node) string {
	selected := card.Has(view.AttrSelected)

	cursor := "  "
	if selected {
		cursor = m.styles.Selected.Render("> ")
	}

	var line, details []string
	var actions []string
	for _, c := range card.Children {
		switch c.Kind {
		case view.KindHeading:
			style := m.styles.Title
			if c.Has(view.AttrStrike) {
				style = m.styles.Strike
			} else if selected {
				style = m.styles.Selected
			}
			line = append(line, style.Render(c.Text))
		case view.KindBadge:
			line = append(line, m.renderBadge(c))
		case view.KindText:
			if c.Text == "" {
				continue
			}
			style := m.styles.Text
			switch {
			case c.Has(view.AttrStrike):
				style = m.styles.Strike
			case c.Has(view.AttrMuted):
				style = m.styles.Muted
			}
			details = append(details, style.Render(c.Text))
		case view.KindAction:
			actions = append(actions, actionHint(c))
		}
	}

	var b strings.Builder
	b.WriteString(cursor + strings.Join(line, " ") + "\n")
	for _, d := range details {
		b.WriteString(m.styles.Card.Render("  "+d) + "\n")
	}
	if selected && len(actions) > 0 {
		b.WriteString(m.styles.Card.Render("  "+m.styles.Help.Render(strings.Join(actions, " · "))) + "\n")
	}
	return b.String()
}

func (m *Model) renderBadge(n *view.Node) string {
	switch {
	case n.Has(view.AttrBadgeHigh):
		return m.styles.BadgeHigh.Render("[" + n.Text + "]")
	case n.Has(view.AttrBadgeDone):
		return m.styles.BadgeDone.Render("✓ " + n.Text)
	}
	return m.styles.Badge.Render("[" + n.Text + "]")
}

// actionHint names the key for a card action
func actionHint(n *view.Node) string {
	switch {
	case view.IsMarkDone(n):
		return "c " + strings.ToLower(n.Text)
	case strings.HasPrefix(n.ID, view.ActionEdit+"-"):
		return "e " + strings.ToLower(n.Text)
	case strings.HasPrefix(n.ID, view.ActionDelete+"-"):
		return "d " + strings.ToLower(n.Text)
	}
	return n.Text
}

func (m *Model) renderForm(form *view.Node) string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(form.Text))
	b.WriteString("\n\n")

	var buttons []string
	for _, c := range form.Children {
		switch c.Kind {
		case view.KindField:
			b.WriteString(m.renderField(c))
			b.WriteString("\n")
		case view.KindAction:
			if c.Has(view.AttrBusy) {
				buttons = append(buttons, m.styles.Busy.Render(m.spinner.View()+c.Text))
				continue
			}
			buttons = append(buttons, m.styles.Button.Render("["+c.Text+"]"))
		case view.KindText:
			if c.Has(view.AttrError) {
				b.WriteString("\n" + m.styles.Error.Render(c.Text) + "\n")
			}
		}
	}
	b.WriteString("\n")
	b.WriteString(strings.Join(buttons, " "))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderField(f *view.Node) string {
	label := m.styles.Label.Render(f.Text)
	if f.Has(view.AttrFocused) {
		label = m.styles.Focused.Render(f.Text)
	}

	var value string
	if len(f.Children) > 0 {
		value = f.Children[0].Text
	}

	switch f.ID {
	case view.FieldPriority:
		value = "‹ " + value + " ›"
	case view.FieldCompleted:
		if value == "yes" {
			value = "[x]"
		} else {
			value = "[ ]"
		}
	default:
		if in, ok := m.inputs[f.ID]; ok {
			value = in.View()
		}
	}
	return label + " " + value
}

func (m *Model) renderOverlay(n *view.Node) string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(n.Text))
	b.WriteString("\n\n")

	var buttons []string
	for _, c := range n.Children {
		switch c.Kind {
		case view.KindText:
			switch {
			case c.ID == "summary":
				if c.Has(view.AttrBusy) {
					b.WriteString(m.styles.Busy.Render(m.spinner.View() + c.Text))
				} else {
					b.WriteString(m.summary.View())
				}
			case c.Has(view.AttrError):
				b.WriteString(m.styles.Error.Render(c.Text))
			default:
				b.WriteString(m.styles.Text.Render(c.Text))
			}
			b.WriteString("\n")
		case view.KindAction:
			if c.Has(view.AttrBusy) {
				buttons = append(buttons, m.styles.Busy.Render(m.spinner.View()+c.Text))
				continue
			}
			buttons = append(buttons, m.styles.Button.Render("["+c.Text+"]"))
		}
	}

	if len(buttons) > 0 {
		b.WriteString("\n" + strings.Join(buttons, " "))
	}
	b.WriteString("\n\n" + m.styles.Help.Render(m.overlayHelp()))
	return m.styles.Dialog.Render(b.String())
}

func (m *Model) overlayHelp() string {
	switch m.state.Overlay {
	case taskstore.OverlayConfirmDelete:
		return shortHelp(m.keys.Confirm, m.keys.Cancel)
	case taskstore.OverlaySummary:
		return "↑/↓: scroll  " + shortHelp(m.keys.Dismiss)
	case taskstore.OverlayAlert:
		return "enter: OK"
	}
	return "press any key to close"
}

func (m *Model) renderFooter() string {
	var help string
	switch m.state.Screen {
	case taskstore.ScreenDashboard:
		help = shortHelp(m.keys.New, m.keys.Toggle, m.keys.Delete, m.keys.Summary, m.keys.Help, m.keys.Quit)
	case taskstore.ScreenCreate:
		help = shortHelp(m.keys.NextField, m.keys.Submit, m.keys.Back)
	case taskstore.ScreenEdit:
		help = shortHelp(m.keys.NextField, m.keys.Submit, m.keys.DeleteEdit, m.keys.Back)
	case taskstore.ScreenLogin:
		help = "tab: next field  enter: sign in  esc: quit"
	}
	return m.styles.StatusBar.Render(help)
}
