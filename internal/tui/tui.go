// Package tui provides a terminal user interface for task management.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/backend"
	"taskboard/internal/taskstore"
	"taskboard/internal/view"
)

// Config wires the model to the rest of the application
type Config struct {
	State   taskstore.State
	Runner  *taskstore.Runner
	Context context.Context
}

// Model represents the TUI state. Everything the user sees comes from
// taskstore.State; the model only adds cursor, focus and widget state.
type Model struct {
	state  taskstore.State
	runner *taskstore.Runner
	ctx    context.Context

	keys   KeyMap
	styles Styles
	theme  taskstore.Theme

	// Selection
	selected int
	focus    int

	// Widgets
	inputs   map[string]*textinput.Model
	spinner  spinner.Model
	ticking  bool
	summary  viewport.Model
	shownSum string

	// UI dimensions
	width  int
	height int
}

// New creates a new TUI model
func New(cfg Config) *Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		state:   cfg.State,
		runner:  cfg.Runner,
		ctx:     ctx,
		keys:    DefaultKeyMap(),
		inputs:  make(map[string]*textinput.Model),
		spinner: s,
		summary: viewport.New(60, 10),
		width:   80,
		height:  24,
	}

	for _, id := range []string{view.FieldTitle, view.FieldDescription, view.FieldDueDate, view.FieldUsername, view.FieldPassword} {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Prompt = ""
		m.inputs[id] = &ti
	}
	m.inputs[view.FieldTitle].Placeholder = "What needs doing?"
	m.inputs[view.FieldDescription].Placeholder = "Optional details"
	m.inputs[view.FieldDueDate].Placeholder = "YYYY-MM-DD, today, +3d"
	m.inputs[view.FieldPassword].EchoMode = textinput.EchoPassword
	m.inputs[view.FieldPassword].EchoCharacter = '•'

	m.applyTheme()
	m.syncInputs()
	return m
}

// State returns the application state as last rendered
func (m *Model) State() taskstore.State {
	return m.state
}

// Init loads the task list, or shows the login screen
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.dispatch(taskstore.Start{}), textinput.Blink)
}

// dispatch runs the reducer and turns its effects into commands. It is only
// called from Update, so State has a single writer.
func (m *Model) dispatch(msg taskstore.Msg) tea.Cmd {
	prevScreen, wasAuthenticated := m.state.Screen, m.state.Authenticated

	var effects []taskstore.Effect
	m.state, effects = taskstore.Update(m.state, msg)

	cmds := make([]tea.Cmd, 0, len(effects)+1)
	for _, eff := range effects {
		cmds = append(cmds, m.run(eff))
	}

	if m.state.Screen != prevScreen {
		m.focus = 0
	}
	if m.state.Authenticated != wasAuthenticated {
		m.inputs[view.FieldPassword].Reset()
	}
	m.afterUpdate()

	if m.spinning() && !m.ticking {
		m.ticking = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) run(eff taskstore.Effect) tea.Cmd {
	runner, ctx := m.runner, m.ctx
	return func() tea.Msg {
		return runner.Run(ctx, eff)
	}
}

func (m *Model) spinning() bool {
	return m.state.Busy != taskstore.BusyNone || m.state.SummaryLoading
}

// afterUpdate brings widgets in line with the new state
func (m *Model) afterUpdate() {
	if m.state.Theme != m.theme {
		m.applyTheme()
	}

	if n := len(m.state.Tasks); m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}

	if m.state.Summary != m.shownSum {
		m.shownSum = m.state.Summary
		m.summary.SetContent(m.styles.Text.Width(m.summary.Width).Render(m.state.Summary))
		m.summary.GotoTop()
	}

	m.syncInputs()
}

func (m *Model) applyTheme() {
	m.theme = m.state.Theme
	m.styles = NewStyles(m.theme)
}

// fields returns the focusable fields of the current screen
func (m *Model) fields() []string {
	switch m.state.Screen {
	case taskstore.ScreenCreate:
		return view.TaskFields
	case taskstore.ScreenEdit:
		return view.EditFields
	case taskstore.ScreenLogin:
		return view.LoginFields
	}
	return nil
}

func (m *Model) focusedField() string {
	fields := m.fields()
	if len(fields) == 0 {
		return ""
	}
	if m.focus >= len(fields) {
		m.focus = len(fields) - 1
	}
	return fields[m.focus]
}

func (m *Model) currentForm() taskstore.Form {
	if m.state.Screen == taskstore.ScreenEdit {
		return m.state.EditForm
	}
	return m.state.CreateForm
}

// syncInputs copies form values into the text inputs when the reducer
// changed them (a reset after create, a pre-fill on edit) and moves the
// cursor focus.
func (m *Model) syncInputs() {
	if m.state.Screen == taskstore.ScreenCreate || m.state.Screen == taskstore.ScreenEdit {
		f := m.currentForm()
		for id, value := range map[string]string{
			view.FieldTitle:       f.Title,
			view.FieldDescription: f.Description,
			view.FieldDueDate:     f.DueDate,
		} {
			if in := m.inputs[id]; in.Value() != value {
				in.SetValue(value)
			}
		}
	}

	focused := m.focusedField()
	for id, in := range m.inputs {
		if id == focused {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

// formFromInputs reads the text inputs back into a form
func (m *Model) formFromInputs() taskstore.Form {
	f := m.currentForm()
	f.Title = m.inputs[view.FieldTitle].Value()
	f.Description = m.inputs[view.FieldDescription].Value()
	f.DueDate = m.inputs[view.FieldDueDate].Value()
	return f
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.summary.Width = min(msg.Width-8, 80)
		m.summary.Height = max(msg.Height-10, 3)
		m.shownSum = ""
		m.afterUpdate()
		return m, nil

	case spinner.TickMsg:
		if !m.spinning() {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case taskstore.Result:
		return m, m.dispatch(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state.Overlay != taskstore.OverlayNone {
			return m.handleOverlayKey(msg)
		}
		switch m.state.Screen {
		case taskstore.ScreenDashboard:
			return m.handleDashboardKey(msg)
		case taskstore.ScreenCreate, taskstore.ScreenEdit:
			return m.handleFormKey(msg)
		case taskstore.ScreenLogin:
			return m.handleLoginKey(msg)
		}
	}

	return m, nil
}

func (m *Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state.Overlay {
	case taskstore.OverlayConfirmDelete:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m, m.dispatch(taskstore.ConfirmDelete{})
		case key.Matches(msg, m.keys.Cancel):
			return m, m.dispatch(taskstore.CancelDelete{})
		}
		return m, nil

	case taskstore.OverlaySummary:
		if key.Matches(msg, m.keys.Dismiss) {
			return m, m.dispatch(taskstore.DismissOverlay{})
		}
		var cmd tea.Cmd
		m.summary, cmd = m.summary.Update(msg)
		return m, cmd

	case taskstore.OverlayAlert:
		if key.Matches(msg, m.keys.Dismiss) {
			return m, m.dispatch(taskstore.DismissOverlay{})
		}
		return m, nil
	}

	// help closes on any key
	return m, m.dispatch(taskstore.DismissOverlay{})
}

func (m *Model) selectedTask() *backend.Task {
	if m.selected < 0 || m.selected >= len(m.state.Tasks) {
		return nil
	}
	return &m.state.Tasks[m.selected]
}

func (m *Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.state.Tasks)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		return m, m.dispatch(taskstore.Navigate{To: taskstore.ScreenCreate})

	case key.Matches(msg, m.keys.Edit):
		if t := m.selectedTask(); t != nil {
			return m, m.dispatch(taskstore.OpenEdit{ID: t.ID})
		}

	case key.Matches(msg, m.keys.Toggle):
		// completed cards have no mark-done action; reopen from the edit form
		if t := m.selectedTask(); t != nil && !t.Completed {
			return m, m.dispatch(taskstore.ToggleCompleted{ID: t.ID})
		}

	case key.Matches(msg, m.keys.Delete):
		if t := m.selectedTask(); t != nil {
			return m, m.dispatch(taskstore.RequestDelete{ID: t.ID})
		}

	case key.Matches(msg, m.keys.Summary):
		return m, m.dispatch(taskstore.RequestSummary{})

	case key.Matches(msg, m.keys.Theme):
		return m, m.dispatch(taskstore.ToggleTheme{})

	case key.Matches(msg, m.keys.Refresh):
		return m, m.dispatch(taskstore.Refresh{})

	case key.Matches(msg, m.keys.Filter):
		return m, m.dispatch(taskstore.RefreshFiltered{Filter: nextFilter(m.state.Filter)})

	case key.Matches(msg, m.keys.Logout):
		return m, m.dispatch(taskstore.Logout{})

	case key.Matches(msg, m.keys.Help):
		return m, m.dispatch(taskstore.ShowHelp{})
	}
	return m, nil
}

// nextFilter cycles all -> pending -> completed -> all
func nextFilter(f backend.Filter) backend.Filter {
	switch {
	case f.Completed == nil:
		pending := false
		return backend.Filter{Completed: &pending}
	case !*f.Completed:
		done := true
		return backend.Filter{Completed: &done}
	}
	return backend.Filter{}
}

func filterLabel(f backend.Filter) string {
	switch {
	case f.Completed == nil:
		return "all"
	case *f.Completed:
		return "completed"
	}
	return "pending"
}

func (m *Model) moveFocus(delta int) {
	n := len(m.fields())
	if n == 0 {
		return
	}
	m.focus = (m.focus + delta + n) % n
	m.syncInputs()
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	field := m.focusedField()

	switch {
	case key.Matches(msg, m.keys.Submit):
		form := m.formFromInputs()
		if m.state.Screen == taskstore.ScreenEdit {
			return m, m.dispatch(taskstore.SubmitEdit{Form: form})
		}
		return m, m.dispatch(taskstore.SubmitCreate{Form: form})

	case key.Matches(msg, m.keys.Back):
		return m, m.dispatch(taskstore.Navigate{To: taskstore.ScreenDashboard})

	case key.Matches(msg, m.keys.DeleteEdit) && m.state.Screen == taskstore.ScreenEdit:
		return m, m.dispatch(taskstore.RequestDeleteEditing{})

	case key.Matches(msg, m.keys.NextField), msg.Type == tea.KeyEnter:
		m.moveFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.moveFocus(-1)
		return m, nil
	}

	switch field {
	case view.FieldPriority:
		form := m.formFromInputs()
		p, err := backend.ParsePriority(form.Priority)
		if err != nil {
			p = backend.PriorityMedium
		}
		switch {
		case key.Matches(msg, m.keys.CycleLeft):
			p = p.Prev()
		case key.Matches(msg, m.keys.CycleRight):
			p = p.Next()
		default:
			return m, nil
		}
		form.Priority = string(p)
		return m, m.dispatch(taskstore.FormChanged{Form: form})

	case view.FieldCompleted:
		if key.Matches(msg, m.keys.Check) {
			form := m.formFromInputs()
			form.Completed = !form.Completed
			return m, m.dispatch(taskstore.FormChanged{Form: form})
		}
		return m, nil
	}

	in, ok := m.inputs[field]
	if !ok {
		return m, nil
	}
	updated, cmd := in.Update(msg)
	*in = updated
	return m, tea.Batch(cmd, m.dispatch(taskstore.FormChanged{Form: m.formFromInputs()}))
}

func (m *Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	field := m.focusedField()

	switch {
	case key.Matches(msg, m.keys.Submit),
		msg.Type == tea.KeyEnter && field == view.FieldPassword:
		return m, m.dispatch(taskstore.SubmitLogin{
			Username: m.inputs[view.FieldUsername].Value(),
			Password: m.inputs[view.FieldPassword].Value(),
		})

	case key.Matches(msg, m.keys.NextField), msg.Type == tea.KeyEnter:
		m.moveFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.moveFocus(-1)
		return m, nil

	case msg.Type == tea.KeyEsc:
		return m, tea.Quit
	}

	in := m.inputs[field]
	updated, cmd := in.Update(msg)
	*in = updated
	return m, cmd
}

// View renders the TUI
func (m *Model) View() string {
	tree := view.Screen(m.state, view.Options{
		Selected: m.selected,
		Focus:    m.focusedField(),
		Username: m.inputs[view.FieldUsername].Value(),
		Help:     m.keys.HelpLines(),
	})
	return m.render(tree)
}
