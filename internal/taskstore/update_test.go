package taskstore

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/backend"
	"taskboard/internal/utils"
)

func signedIn(tasks ...backend.Task) State {
	s := New(Options{Authenticated: true, User: "alice", Theme: ThemeLight})
	s.Tasks = tasks
	s.Loaded = true
	return s
}

func sampleTasks() []backend.Task {
	return []backend.Task{
		{ID: 2, Title: "Write report", Priority: backend.PriorityHigh},
		{ID: 1, Title: "Buy milk", Priority: backend.PriorityLow, Completed: true},
	}
}

func unauthorized() error {
	return &backend.StatusError{Op: "list tasks", Code: http.StatusUnauthorized}
}

func TestNew(t *testing.T) {
	s := New(Options{})
	assert.Equal(t, ScreenLogin, s.Screen)
	assert.Equal(t, ThemeDark, s.Theme)
	assert.Equal(t, string(backend.PriorityMedium), s.CreateForm.Priority)

	s = New(Options{Authenticated: true, Theme: "purple", DefaultTheme: ThemeLight})
	assert.Equal(t, ScreenDashboard, s.Screen)
	assert.Equal(t, ThemeLight, s.Theme)
}

func TestStartWithoutSession(t *testing.T) {
	s, effects := Update(New(Options{}), Start{})
	assert.Empty(t, effects)
	assert.Equal(t, ScreenLogin, s.Screen)
	assert.True(t, backend.IsUnauthorized(s.Err))
}

func TestStartFetches(t *testing.T) {
	_, effects := Update(signedIn(), Start{})
	require.Len(t, effects, 1)
	assert.Equal(t, FetchTasks{}, effects[0])
}

func TestSubmitCreateRejectsBlankTitle(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		s := signedIn()
		s.Screen = ScreenCreate

		s, effects := Update(s, SubmitCreate{Form: Form{Title: title, Description: "x"}})
		assert.Empty(t, effects, "title %q", title)
		assert.Equal(t, MsgTitleRequired, s.Alert)
		assert.Equal(t, OverlayAlert, s.Overlay)
		assert.Equal(t, ScreenCreate, s.Screen)
		assert.Equal(t, "x", s.CreateForm.Description, "form kept")
		assert.True(t, utils.IsValidation(s.Err))
	}
}

func TestSubmitCreateRejectsBadFields(t *testing.T) {
	s := signedIn()
	s, effects := Update(s, SubmitCreate{Form: Form{Title: "a", DueDate: "31/12/2026"}})
	assert.Empty(t, effects)
	assert.Equal(t, MsgInvalidDueDate, s.Alert)

	s, effects = Update(s, SubmitCreate{Form: Form{Title: "a", Priority: "urgent"}})
	assert.Empty(t, effects)
	assert.Equal(t, MsgInvalidPriority, s.Alert)
}

func TestSubmitCreateBuildsTask(t *testing.T) {
	s := signedIn()
	s.Screen = ScreenCreate

	s, effects := Update(s, SubmitCreate{Form: Form{
		Title:       "  Buy milk ",
		Description: "2 litres",
		DueDate:     "2026-11-01",
		Priority:    "high",
	}})
	require.Len(t, effects, 1)
	create, ok := effects[0].(CreateTask)
	require.True(t, ok)
	assert.Equal(t, "Buy milk", create.Task.Title)
	assert.Equal(t, "2 litres", create.Task.Description)
	assert.Equal(t, backend.PriorityHigh, create.Task.Priority)
	require.NotNil(t, create.Task.DueDate)
	assert.Equal(t, "2026-11-01", create.Task.DueDate.String())
	assert.False(t, create.Task.Completed)
	assert.Equal(t, BusySaving, s.Busy)
	assert.Equal(t, "Saving...", s.Busy.Label())

	// a second submit while saving is ignored
	_, effects = Update(s, SubmitCreate{Form: s.CreateForm})
	assert.Empty(t, effects)
}

func TestCreateSuccessRefreshesThenNavigates(t *testing.T) {
	s := signedIn()
	s.Screen = ScreenCreate
	s.Busy = BusySaving
	s.CreateForm.Title = "Buy milk"

	s, effects := Update(s, TaskCreated{})
	require.Equal(t, []Effect{FetchTasks{Navigate: ScreenDashboard, Settle: BusySaving}}, effects)
	assert.Equal(t, NewForm(), s.CreateForm)
	assert.Equal(t, ScreenCreate, s.Screen, "navigation waits for the refresh")
	assert.Equal(t, BusySaving, s.Busy)

	s, effects = Update(s, TasksLoaded{Tasks: sampleTasks(), Navigate: ScreenDashboard, Settle: BusySaving})
	assert.Empty(t, effects)
	assert.Equal(t, ScreenDashboard, s.Screen)
	assert.Equal(t, BusyNone, s.Busy)
	assert.Len(t, s.Tasks, 2)
}

func TestCreateFailureKeepsForm(t *testing.T) {
	s := signedIn()
	s.Screen = ScreenCreate
	s.Busy = BusySaving
	s.CreateForm.Title = "Buy milk"

	s, effects := Update(s, TaskCreated{Err: &backend.StatusError{Op: "create task", Code: 500}})
	assert.Empty(t, effects)
	assert.Equal(t, MsgCreateFailed, s.Alert)
	assert.Equal(t, OverlayAlert, s.Overlay)
	assert.Equal(t, BusyNone, s.Busy)
	assert.Equal(t, "Buy milk", s.CreateForm.Title)
	assert.Equal(t, ScreenCreate, s.Screen)
	require.Error(t, s.Err)

	s, _ = Update(s, DismissOverlay{})
	assert.Empty(t, s.Alert)
	assert.Equal(t, OverlayNone, s.Overlay)
}

func TestToggleCompleted(t *testing.T) {
	s := signedIn(sampleTasks()...)

	_, effects := Update(s, ToggleCompleted{ID: 2})
	require.Len(t, effects, 1)
	upd := effects[0].(UpdateTask)
	assert.Equal(t, UpdateToggle, upd.Kind)
	assert.Equal(t, int64(2), upd.Patch.ID)
	require.NotNil(t, upd.Patch.Completed)
	assert.True(t, *upd.Patch.Completed)
	assert.Nil(t, upd.Patch.Title)

	_, effects = Update(s, ToggleCompleted{ID: 1})
	assert.False(t, *effects[0].(UpdateTask).Patch.Completed)

	s, effects = Update(s, ToggleCompleted{ID: 99})
	assert.Empty(t, effects)
	assert.Error(t, s.Err)
}

func TestToggleResultRefreshesWithoutNavigating(t *testing.T) {
	s := signedIn(sampleTasks()...)
	s, effects := Update(s, TaskUpdated{ID: 2, Kind: UpdateToggle})
	assert.Equal(t, []Effect{FetchTasks{}}, effects)
	assert.Equal(t, ScreenDashboard, s.Screen)

	s, _ = Update(s, TaskUpdated{ID: 2, Kind: UpdateToggle, Err: errors.New("boom")})
	assert.Equal(t, MsgUpdateFailed, s.Alert)
}

func TestOpenEditPrefills(t *testing.T) {
	due, err := backend.ParseDate("2026-12-24")
	require.NoError(t, err)
	tasks := []backend.Task{{ID: 5, Title: "Wrap gifts", Description: "all of them", DueDate: &due, Completed: true}}
	s := signedIn(tasks...)

	s, effects := Update(s, OpenEdit{ID: 5})
	assert.Empty(t, effects)
	assert.Equal(t, ScreenEdit, s.Screen)
	assert.Equal(t, int64(5), s.EditingID)
	assert.Equal(t, Form{
		Title:       "Wrap gifts",
		Description: "all of them",
		DueDate:     "2026-12-24",
		Priority:    "MEDIUM",
		Completed:   true,
	}, s.EditForm)
}

func TestSubmitEditSendsEveryField(t *testing.T) {
	s := signedIn(sampleTasks()...)
	s, _ = Update(s, OpenEdit{ID: 2})

	form := s.EditForm
	form.Title = "Write final report"
	form.Completed = true
	s, effects := Update(s, SubmitEdit{Form: form})
	require.Len(t, effects, 1)
	upd := effects[0].(UpdateTask)
	assert.Equal(t, UpdateEdit, upd.Kind)
	assert.Equal(t, "Write final report", *upd.Patch.Title)
	assert.Equal(t, "", *upd.Patch.Description)
	assert.Equal(t, backend.PriorityHigh, *upd.Patch.Priority)
	assert.True(t, *upd.Patch.Completed)
	assert.Nil(t, upd.Patch.DueDate)
	assert.Equal(t, "Updating...", s.Busy.Label())

	s, effects = Update(s, TaskUpdated{ID: 2, Kind: UpdateEdit})
	assert.Equal(t, []Effect{FetchTasks{Navigate: ScreenDashboard, Settle: BusyUpdating}}, effects)
	assert.Zero(t, s.EditingID)
}

func TestNavigateToEditRequiresOpenEdit(t *testing.T) {
	s := signedIn(sampleTasks()...)
	s, _ = Update(s, Navigate{To: ScreenEdit})
	assert.Equal(t, ScreenDashboard, s.Screen)

	s, _ = Update(s, OpenEdit{ID: 1})
	s, _ = Update(s, Navigate{To: ScreenDashboard})
	assert.Zero(t, s.EditingID, "leaving edit forgets the task")
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	s := signedIn(sampleTasks()...)

	s, effects := Update(s, RequestDelete{ID: 2})
	assert.Empty(t, effects)
	assert.Equal(t, OverlayConfirmDelete, s.Overlay)
	assert.Equal(t, int64(2), s.PendingDeleteID)

	s, effects = Update(s, CancelDelete{})
	assert.Empty(t, effects)
	assert.Zero(t, s.PendingDeleteID)
	assert.Equal(t, OverlayNone, s.Overlay)

	s, _ = Update(s, RequestDelete{ID: 2})
	s, effects = Update(s, DismissOverlay{})
	assert.Empty(t, effects)
	assert.Zero(t, s.PendingDeleteID)

	s, _ = Update(s, RequestDelete{ID: 2})
	s, effects = Update(s, ConfirmDelete{})
	assert.Equal(t, []Effect{DeleteTask{ID: 2}}, effects)
	assert.Equal(t, "Deleting...", s.Busy.Label())

	_, effects = Update(s, ConfirmDelete{})
	assert.Empty(t, effects, "repeat while deleting")
}

func TestConfirmDeleteWithoutPendingIsNoop(t *testing.T) {
	_, effects := Update(signedIn(sampleTasks()...), ConfirmDelete{})
	assert.Empty(t, effects)
}

func TestDeleteFromEditScreen(t *testing.T) {
	s := signedIn(sampleTasks()...)
	s, _ = Update(s, OpenEdit{ID: 1})
	s, _ = Update(s, RequestDeleteEditing{})
	assert.Equal(t, int64(1), s.PendingDeleteID)

	s, _ = Update(s, ConfirmDelete{})
	s, effects := Update(s, TaskDeleted{ID: 1})
	assert.Equal(t, []Effect{FetchTasks{Navigate: ScreenDashboard, Settle: BusyDeleting}}, effects)
	assert.Zero(t, s.EditingID)
	assert.Equal(t, OverlayNone, s.Overlay)

	s, _ = Update(s, TasksLoaded{Tasks: sampleTasks()[:1], Navigate: ScreenDashboard, Settle: BusyDeleting})
	assert.Equal(t, ScreenDashboard, s.Screen)
	assert.Equal(t, BusyNone, s.Busy)
}

func TestDeleteFailureShowsAlert(t *testing.T) {
	s := signedIn(sampleTasks()...)
	s, _ = Update(s, RequestDelete{ID: 2})
	s, _ = Update(s, ConfirmDelete{})
	s, effects := Update(s, TaskDeleted{ID: 2, Err: &backend.StatusError{Op: "delete task", Code: 404}})
	assert.Empty(t, effects)
	assert.Equal(t, MsgDeleteFailed, s.Alert)
	assert.Equal(t, OverlayAlert, s.Overlay)
	assert.Equal(t, BusyNone, s.Busy)
	assert.Len(t, s.Tasks, 2)
}

func TestUnauthorizedResultSignsOut(t *testing.T) {
	results := map[string]Msg{
		"list":    TasksLoaded{Err: unauthorized()},
		"create":  TaskCreated{Err: unauthorized()},
		"toggle":  TaskUpdated{ID: 1, Kind: UpdateToggle, Err: unauthorized()},
		"edit":    TaskUpdated{ID: 1, Kind: UpdateEdit, Err: unauthorized()},
		"delete":  TaskDeleted{ID: 1, Err: unauthorized()},
		"summary": SummaryLoaded{Err: &backend.StatusError{Op: "summary", Code: http.StatusForbidden}},
	}

	for name, msg := range results {
		t.Run(name, func(t *testing.T) {
			s := signedIn(sampleTasks()...)
			s, _ = Update(s, OpenEdit{ID: 1})
			s.Busy = BusyUpdating

			s, effects := Update(s, msg)
			assert.Equal(t, []Effect{ClearSession{}}, effects)
			assert.Equal(t, ScreenLogin, s.Screen)
			assert.False(t, s.Authenticated)
			assert.Empty(t, s.Tasks)
			assert.Empty(t, s.User)
			assert.Zero(t, s.EditingID)
			assert.Equal(t, BusyNone, s.Busy)
			assert.Equal(t, MsgSessionExpired, s.Status)
			assert.Equal(t, ThemeDark, s.Theme, "theme resets to default")
			assert.True(t, backend.IsUnauthorized(s.Err))

			// late results from requests already in flight are dropped
			s, effects = Update(s, TasksLoaded{Tasks: sampleTasks()})
			assert.Empty(t, effects)
			assert.Empty(t, s.Tasks)
			_, effects = Update(s, TaskCreated{Err: unauthorized()})
			assert.Empty(t, effects)
		})
	}
}

func TestLoadFailureKeepsCache(t *testing.T) {
	s := signedIn(sampleTasks()...)
	s, _ = Update(s, TasksLoaded{Err: errors.New("connection refused")})
	assert.Len(t, s.Tasks, 2)
	assert.Equal(t, MsgLoadFailed, s.Status)
	assert.True(t, s.StatusIsError)
	assert.Equal(t, OverlayNone, s.Overlay, "list failures do not block")

	s, _ = Update(s, TasksLoaded{Tasks: []backend.Task{}})
	assert.Empty(t, s.Status)
	assert.Empty(t, s.Tasks)
}

func TestSummaryTexts(t *testing.T) {
	s := signedIn()
	s, effects := Update(s, RequestSummary{})
	assert.Equal(t, []Effect{FetchSummary{}}, effects)
	assert.Equal(t, OverlaySummary, s.Overlay)
	assert.Equal(t, MsgSummaryLoading, s.Summary)
	assert.True(t, s.SummaryLoading)

	got, _ := Update(s, SummaryLoaded{Text: "**Well done** <script>"})
	assert.Equal(t, "**Well done** <script>", got.Summary)
	assert.False(t, got.SummaryLoading)

	got, _ = Update(s, SummaryLoaded{Err: &backend.StatusError{Op: "summary", Code: 500}})
	assert.Equal(t, MsgSummaryFailed, got.Summary)

	got, _ = Update(s, SummaryLoaded{Err: errors.New("dial tcp: connection refused")})
	assert.Equal(t, MsgSummaryNoService, got.Summary)
}

func TestLogin(t *testing.T) {
	s := New(Options{})

	s, effects := Update(s, SubmitLogin{Username: " ", Password: "x"})
	assert.Empty(t, effects)
	assert.Equal(t, MsgLoginMissing, s.LoginError)

	s, effects = Update(s, SubmitLogin{Username: " alice ", Password: "secret"})
	assert.Equal(t, []Effect{Login{Username: "alice", Password: "secret"}}, effects)
	assert.Equal(t, BusySigningIn, s.Busy)

	rejected, effects := Update(s, LoggedIn{Username: "alice", Err: &backend.StatusError{Op: "login", Code: 401}})
	assert.Empty(t, effects, "a rejected login is not a session expiry")
	assert.Equal(t, MsgLoginRejected, rejected.LoginError)
	assert.Equal(t, ScreenLogin, rejected.Screen)
	assert.Equal(t, BusyNone, rejected.Busy)

	offline, _ := Update(s, LoggedIn{Username: "alice", Err: errors.New("connection refused")})
	assert.Equal(t, MsgLoginUnreachable, offline.LoginError)

	s, effects = Update(s, LoggedIn{Username: "alice"})
	assert.Equal(t, []Effect{FetchTasks{}}, effects)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "alice", s.User)
	assert.Equal(t, ScreenDashboard, s.Screen)
}

func TestLogout(t *testing.T) {
	s := signedIn(sampleTasks()...)
	s, effects := Update(s, Logout{})
	assert.Equal(t, []Effect{ClearSession{}}, effects)
	assert.Equal(t, ScreenLogin, s.Screen)
	assert.Empty(t, s.Tasks)
	assert.Equal(t, MsgLoggedOut, s.Status)
	assert.NoError(t, s.Err)
}

func TestTheme(t *testing.T) {
	s := signedIn()
	s, effects := Update(s, ToggleTheme{})
	assert.Equal(t, ThemeDark, s.Theme)
	assert.Equal(t, []Effect{SaveTheme{Theme: ThemeDark}}, effects)

	s, effects = Update(s, SetTheme{Theme: "sepia"})
	assert.Empty(t, effects)
	assert.True(t, utils.IsValidation(s.Err))

	s, _ = Update(s, ThemeSaved{Err: errors.New("read-only")})
	assert.Equal(t, MsgThemeNotSaved, s.Status)
	assert.ErrorContains(t, s.Err, "read-only")
}

func TestSessionClearFailureIsReported(t *testing.T) {
	s := signedIn()
	s, _ = Update(s, Logout{})
	s, _ = Update(s, SessionCleared{Err: errors.New("keyring locked")})
	assert.ErrorContains(t, s.Err, "keyring locked")

	s = signedIn()
	s, _ = Update(s, TasksLoaded{Err: &backend.StatusError{Op: "list tasks", Code: 401}})
	s, _ = Update(s, SessionCleared{Err: errors.New("keyring locked")})
	assert.True(t, backend.IsUnauthorized(s.Err), "expiry stays the reported error")
}

func TestFormChangedFollowsScreen(t *testing.T) {
	s := signedIn(sampleTasks()...)
	s, _ = Update(s, Navigate{To: ScreenCreate})
	s, _ = Update(s, FormChanged{Form: Form{Title: "draft"}})
	assert.Equal(t, "draft", s.CreateForm.Title)

	s, _ = Update(s, OpenEdit{ID: 1})
	s, _ = Update(s, FormChanged{Form: Form{Title: "renamed"}})
	assert.Equal(t, "renamed", s.EditForm.Title)
	assert.Equal(t, "draft", s.CreateForm.Title)
}
