// Package taskstore keeps the client-side task cache consistent with the
// remote service and holds the view state derived from it.
//
// All transitions go through Update, a pure function from (State, Msg) to
// (State, []Effect). Effects describe network work; a Runner executes them
// and returns result messages that are fed back into Update. Nothing else
// writes State.
package taskstore

import (
	"taskboard/backend"
)

// Screen is the visible panel. The zero value means "unchanged" when used
// as a navigation target.
type Screen int

const (
	ScreenDashboard Screen = iota + 1
	ScreenCreate
	ScreenEdit
	ScreenLogin
)

func (s Screen) String() string {
	switch s {
	case ScreenDashboard:
		return "dashboard"
	case ScreenCreate:
		return "create"
	case ScreenEdit:
		return "edit"
	case ScreenLogin:
		return "login"
	}
	return "none"
}

// Overlay is a dialog drawn over the current screen
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayConfirmDelete
	OverlaySummary
	OverlayAlert
	OverlayHelp
)

func (o Overlay) String() string {
	switch o {
	case OverlayConfirmDelete:
		return "confirm-delete"
	case OverlaySummary:
		return "summary"
	case OverlayAlert:
		return "alert"
	case OverlayHelp:
		return "help"
	}
	return "none"
}

// Busy is the kind of mutating call in flight. It only changes labels and
// suppresses repeats of the same action; other actions stay available.
type Busy int

const (
	BusyNone Busy = iota
	BusySaving
	BusyUpdating
	BusyDeleting
	BusySigningIn
)

// Label is the progress text shown in place of the triggering button
func (b Busy) Label() string {
	switch b {
	case BusySaving:
		return "Saving..."
	case BusyUpdating:
		return "Updating..."
	case BusyDeleting:
		return "Deleting..."
	case BusySigningIn:
		return "Signing in..."
	}
	return ""
}

// Theme is the color scheme preference
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle flips between light and dark
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Messages shown to the user
const (
	MsgTitleRequired    = "Please enter a Task Title!"
	MsgInvalidDueDate   = "Please enter a valid due date (YYYY-MM-DD)!"
	MsgInvalidPriority  = "Please choose a priority: LOW, MEDIUM or HIGH!"
	MsgCreateFailed     = "Failed to create task."
	MsgUpdateFailed     = "Failed to update task."
	MsgDeleteFailed     = "Failed to delete task."
	MsgLoadFailed       = "Failed to load tasks."
	MsgSummaryLoading   = "Generating your personalized AI summary... Please wait"
	MsgSummaryFailed    = "Failed to fetch AI summary."
	MsgSummaryNoService = "Error connecting to AI service."
	MsgSessionExpired   = "Session expired. Please log in again."
	MsgLoggedOut        = "You have been logged out."
	MsgLoginMissing     = "Please enter your username and password."
	MsgLoginRejected    = "Invalid username or password."
	MsgLoginUnreachable = "Could not reach the server. Try again later."
	MsgThemeNotSaved    = "Theme changed but could not be saved."
)

// State is everything the UI shows. It is a value: Update returns a new one.
type State struct {
	// Tasks is the result of the most recent successful list fetch.
	// It is replaced wholesale and never edited in place.
	Tasks  []backend.Task
	Loaded bool
	Filter backend.Filter

	Screen  Screen
	Overlay Overlay

	CreateForm Form
	EditForm   Form
	// EditingID is the task open on the edit screen, 0 when none
	EditingID int64
	// PendingDeleteID is the task awaiting delete confirmation, 0 when none
	PendingDeleteID int64

	Busy  Busy
	Alert string
	// Status is a non-blocking message line; StatusIsError colors it
	Status        string
	StatusIsError bool

	Summary        string
	SummaryLoading bool

	Authenticated bool
	User          string
	LoginError    string
	Theme         Theme
	DefaultTheme  Theme

	// Err is the failure caused by the most recent intent, if any.
	// It is reset whenever a new intent is dispatched.
	Err error
}

// Options seed the initial state from the local session
type Options struct {
	Authenticated bool
	User          string
	Theme         Theme
	DefaultTheme  Theme
}

// New returns the state before Start is dispatched
func New(opts Options) State {
	def := opts.DefaultTheme
	if def != ThemeLight {
		def = ThemeDark
	}
	theme := opts.Theme
	if theme != ThemeLight && theme != ThemeDark {
		theme = def
	}

	screen := ScreenDashboard
	if !opts.Authenticated {
		screen = ScreenLogin
	}

	return State{
		Screen:        screen,
		CreateForm:    NewForm(),
		EditForm:      NewForm(),
		Authenticated: opts.Authenticated,
		User:          opts.User,
		Theme:         theme,
		DefaultTheme:  def,
	}
}

// EditingTask returns the cached task open on the edit screen, or nil
func (s State) EditingTask() *backend.Task {
	if s.EditingID == 0 {
		return nil
	}
	return backend.FindTask(s.Tasks, s.EditingID)
}

// PendingDeleteTask returns the cached task awaiting confirmation, or nil
func (s State) PendingDeleteTask() *backend.Task {
	if s.PendingDeleteID == 0 {
		return nil
	}
	return backend.FindTask(s.Tasks, s.PendingDeleteID)
}
