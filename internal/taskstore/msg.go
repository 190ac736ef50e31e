package taskstore

import "taskboard/backend"

// Msg is anything Update understands: an Intent or a Result
type Msg interface{}

// Intent is a user action
type Intent interface {
	isIntent()
}

// Result reports the completion of an Effect
type Result interface {
	isResult()
}

// =============================================================================
// Intents
// =============================================================================

type (
	// Start loads the task list, or shows the login screen without a session
	Start struct{}
	// Refresh reloads the task list with the current filter
	Refresh struct{}
	// RefreshFiltered replaces the filter and reloads
	RefreshFiltered struct{ Filter backend.Filter }
	// Navigate switches screens
	Navigate struct{ To Screen }
	// FormChanged replaces the form of the current screen
	FormChanged struct{ Form Form }
	// SubmitCreate validates and submits a new task
	SubmitCreate struct{ Form Form }
	// ToggleCompleted flips the completed flag of a cached task
	ToggleCompleted struct{ ID int64 }
	// OpenEdit opens the edit screen pre-filled from the cache
	OpenEdit struct{ ID int64 }
	// SubmitEdit validates and submits the task being edited
	SubmitEdit struct{ Form Form }
	// RequestDelete asks for confirmation before deleting
	RequestDelete struct{ ID int64 }
	// RequestDeleteEditing asks to delete the task on the edit screen
	RequestDeleteEditing struct{}
	// ConfirmDelete deletes the task awaiting confirmation
	ConfirmDelete struct{}
	// CancelDelete drops the pending delete without any request
	CancelDelete struct{}
	// RequestSummary opens the summary overlay and fetches the text
	RequestSummary struct{}
	// ShowHelp opens the key help overlay
	ShowHelp struct{}
	// DismissOverlay closes the current overlay
	DismissOverlay struct{}
	// SubmitLogin exchanges credentials for a session
	SubmitLogin struct{ Username, Password string }
	// Logout clears the session
	Logout struct{}
	// ToggleTheme flips light/dark and persists it
	ToggleTheme struct{}
	// SetTheme selects a theme and persists it
	SetTheme struct{ Theme Theme }
)

func (Start) isIntent()                {}
func (Refresh) isIntent()              {}
func (RefreshFiltered) isIntent()      {}
func (Navigate) isIntent()             {}
func (FormChanged) isIntent()          {}
func (SubmitCreate) isIntent()         {}
func (ToggleCompleted) isIntent()      {}
func (OpenEdit) isIntent()             {}
func (SubmitEdit) isIntent()           {}
func (RequestDelete) isIntent()        {}
func (RequestDeleteEditing) isIntent() {}
func (ConfirmDelete) isIntent()        {}
func (CancelDelete) isIntent()         {}
func (RequestSummary) isIntent()       {}
func (ShowHelp) isIntent()             {}
func (DismissOverlay) isIntent()       {}
func (SubmitLogin) isIntent()          {}
func (Logout) isIntent()               {}
func (ToggleTheme) isIntent()          {}
func (SetTheme) isIntent()             {}

// =============================================================================
// Results
// =============================================================================

// UpdateKind distinguishes the two update call sites
type UpdateKind int

const (
	UpdateToggle UpdateKind = iota
	UpdateEdit
)

type (
	// TasksLoaded carries a list fetch outcome and what to do after it
	TasksLoaded struct {
		Tasks    []backend.Task
		Err      error
		Navigate Screen
		Settle   Busy
	}
	// TaskCreated reports a create request
	TaskCreated struct{ Err error }
	// TaskUpdated reports an update request
	TaskUpdated struct {
		ID   int64
		Kind UpdateKind
		Err  error
	}
	// TaskDeleted reports a delete request
	TaskDeleted struct {
		ID  int64
		Err error
	}
	// SummaryLoaded carries the summary text
	SummaryLoaded struct {
		Text string
		Err  error
	}
	// LoggedIn reports a login attempt; the session is already stored on success
	LoggedIn struct {
		Username string
		Err      error
	}
	// SessionCleared reports the local session wipe
	SessionCleared struct{ Err error }
	// ThemeSaved reports persisting the theme
	ThemeSaved struct{ Err error }
)

func (TasksLoaded) isResult()    {}
func (TaskCreated) isResult()    {}
func (TaskUpdated) isResult()    {}
func (TaskDeleted) isResult()    {}
func (SummaryLoaded) isResult()  {}
func (LoggedIn) isResult()       {}
func (SessionCleared) isResult() {}
func (ThemeSaved) isResult()     {}

// =============================================================================
// Effects
// =============================================================================

// Effect describes work for the Runner
type Effect interface {
	isEffect()
}

type (
	// FetchTasks lists tasks, then navigates and settles Busy
	FetchTasks struct {
		Filter   backend.Filter
		Navigate Screen
		Settle   Busy
	}
	// CreateTask submits a new task
	CreateTask struct{ Task backend.Task }
	// UpdateTask submits a patch
	UpdateTask struct {
		Patch backend.TaskPatch
		Kind  UpdateKind
	}
	// DeleteTask deletes by id
	DeleteTask struct{ ID int64 }
	// FetchSummary asks for the summary text
	FetchSummary struct{}
	// Login exchanges credentials and stores the session
	Login struct{ Username, Password string }
	// ClearSession wipes token, display name and theme
	ClearSession struct{}
	// SaveTheme persists the theme preference
	SaveTheme struct{ Theme Theme }
)

func (FetchTasks) isEffect()   {}
func (CreateTask) isEffect()   {}
func (UpdateTask) isEffect()   {}
func (DeleteTask) isEffect()   {}
func (FetchSummary) isEffect() {}
func (Login) isEffect()        {}
func (ClearSession) isEffect() {}
func (SaveTheme) isEffect()    {}
