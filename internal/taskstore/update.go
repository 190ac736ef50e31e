package taskstore

import (
	"errors"
	"fmt"
	"strings"

	"taskboard/backend"
	"taskboard/internal/utils"
)

// Update applies msg to s and returns the new state plus the effects to run.
// It performs no I/O.
func Update(s State, msg Msg) (State, []Effect) {
	if _, ok := msg.(Intent); ok {
		s.Err = nil
	}

	switch m := msg.(type) {

	// Intents

	case Start:
		if !s.Authenticated {
			s.Screen = ScreenLogin
			s.Err = utils.ErrNotLoggedIn()
			return s, nil
		}
		return s, []Effect{FetchTasks{Filter: s.Filter}}

	case Refresh:
		if !s.Authenticated {
			return s, nil
		}
		return s, []Effect{FetchTasks{Filter: s.Filter}}

	case RefreshFiltered:
		s.Filter = m.Filter
		if !s.Authenticated {
			return s, nil
		}
		return s, []Effect{FetchTasks{Filter: s.Filter}}

	case Navigate:
		return navigate(s, m.To), nil

	case FormChanged:
		switch s.Screen {
		case ScreenCreate:
			s.CreateForm = m.Form
		case ScreenEdit:
			s.EditForm = m.Form
		}
		return s, nil

	case SubmitCreate:
		if !s.Authenticated {
			return s, nil
		}
		s.CreateForm = m.Form
		if s.Busy == BusySaving {
			return s, nil
		}
		v, alert, err := m.Form.validate()
		if err != nil {
			return showAlert(s, alert, err), nil
		}
		s.Busy = BusySaving
		return s, []Effect{CreateTask{Task: v.newTask()}}

	case ToggleCompleted:
		t := backend.FindTask(s.Tasks, m.ID)
		if t == nil || !s.Authenticated {
			s.Err = utils.ErrTaskNotFound(m.ID)
			return s, nil
		}
		completed := !t.Completed
		return s, []Effect{UpdateTask{
			Patch: backend.TaskPatch{ID: t.ID, Completed: &completed},
			Kind:  UpdateToggle,
		}}

	case OpenEdit:
		t := backend.FindTask(s.Tasks, m.ID)
		if t == nil {
			s.Err = utils.ErrTaskNotFound(m.ID)
			return s, nil
		}
		s.EditingID = t.ID
		s.EditForm = FormFromTask(*t)
		s.Screen = ScreenEdit
		s.Overlay = OverlayNone
		return s, nil

	case SubmitEdit:
		if s.EditingID == 0 || !s.Authenticated {
			return s, nil
		}
		s.EditForm = m.Form
		if s.Busy == BusyUpdating {
			return s, nil
		}
		v, alert, err := m.Form.validate()
		if err != nil {
			return showAlert(s, alert, err), nil
		}
		s.Busy = BusyUpdating
		return s, []Effect{UpdateTask{
			Patch: v.patch(s.EditingID, m.Form.Completed),
			Kind:  UpdateEdit,
		}}

	case RequestDelete:
		if backend.FindTask(s.Tasks, m.ID) == nil {
			s.Err = utils.ErrTaskNotFound(m.ID)
			return s, nil
		}
		s.PendingDeleteID = m.ID
		s.Overlay = OverlayConfirmDelete
		return s, nil

	case RequestDeleteEditing:
		if s.EditingID == 0 {
			return s, nil
		}
		return Update(s, RequestDelete{ID: s.EditingID})

	case ConfirmDelete:
		if s.PendingDeleteID == 0 || s.Busy == BusyDeleting || !s.Authenticated {
			return s, nil
		}
		s.Busy = BusyDeleting
		return s, []Effect{DeleteTask{ID: s.PendingDeleteID}}

	case CancelDelete:
		if s.Busy == BusyDeleting {
			return s, nil
		}
		s.PendingDeleteID = 0
		if s.Overlay == OverlayConfirmDelete {
			s.Overlay = OverlayNone
		}
		return s, nil

	case RequestSummary:
		if !s.Authenticated {
			return s, nil
		}
		s.Overlay = OverlaySummary
		s.Summary = MsgSummaryLoading
		s.SummaryLoading = true
		return s, []Effect{FetchSummary{}}

	case ShowHelp:
		s.Overlay = OverlayHelp
		return s, nil

	case DismissOverlay:
		switch s.Overlay {
		case OverlayConfirmDelete:
			return Update(s, CancelDelete{})
		case OverlayAlert:
			s.Alert = ""
		}
		s.Overlay = OverlayNone
		return s, nil

	case SubmitLogin:
		if s.Busy == BusySigningIn {
			return s, nil
		}
		username := strings.TrimSpace(m.Username)
		if username == "" || m.Password == "" {
			s.LoginError = MsgLoginMissing
			s.Err = fmt.Errorf("%w: username and password are required", backend.ErrValidation)
			return s, nil
		}
		s.LoginError = ""
		s.Busy = BusySigningIn
		return s, []Effect{Login{Username: username, Password: m.Password}}

	case Logout:
		s = signOut(s)
		s.Status = MsgLoggedOut
		s.StatusIsError = false
		return s, []Effect{ClearSession{}}

	case ToggleTheme:
		s.Theme = s.Theme.Toggle()
		return s, []Effect{SaveTheme{Theme: s.Theme}}

	case SetTheme:
		if m.Theme != ThemeLight && m.Theme != ThemeDark {
			s.Err = utils.ErrInvalidTheme(string(m.Theme))
			return s, nil
		}
		s.Theme = m.Theme
		return s, []Effect{SaveTheme{Theme: s.Theme}}

	// Results

	case TasksLoaded:
		if backend.IsUnauthorized(m.Err) {
			return expire(s)
		}
		if !s.Authenticated {
			return s, nil
		}
		if m.Settle != BusyNone && s.Busy == m.Settle {
			s.Busy = BusyNone
		}
		if m.Err != nil {
			s.Status = MsgLoadFailed
			s.StatusIsError = true
			s.Err = fmt.Errorf("%s %w", MsgLoadFailed, m.Err)
		} else {
			s.Tasks = m.Tasks
			s.Loaded = true
			if s.StatusIsError {
				s.Status = ""
				s.StatusIsError = false
			}
		}
		if m.Navigate != 0 {
			s = navigate(s, m.Navigate)
		}
		if s.EditingID != 0 && s.EditingTask() == nil && s.Screen == ScreenEdit {
			// edited task vanished from the server
			s = navigate(s, ScreenDashboard)
		}
		return s, nil

	case TaskCreated:
		if backend.IsUnauthorized(m.Err) {
			return expire(s)
		}
		if m.Err != nil {
			s.Busy = BusyNone
			return showAlert(s, MsgCreateFailed, m.Err), nil
		}
		s.CreateForm = NewForm()
		return s, []Effect{FetchTasks{Filter: s.Filter, Navigate: ScreenDashboard, Settle: BusySaving}}

	case TaskUpdated:
		if backend.IsUnauthorized(m.Err) {
			return expire(s)
		}
		if m.Err != nil {
			if m.Kind == UpdateEdit {
				s.Busy = BusyNone
			}
			return showAlert(s, MsgUpdateFailed, m.Err), nil
		}
		if m.Kind == UpdateToggle {
			return s, []Effect{FetchTasks{Filter: s.Filter}}
		}
		if s.EditingID == m.ID {
			s.EditingID = 0
		}
		return s, []Effect{FetchTasks{Filter: s.Filter, Navigate: ScreenDashboard, Settle: BusyUpdating}}

	case TaskDeleted:
		if backend.IsUnauthorized(m.Err) {
			return expire(s)
		}
		if s.Overlay == OverlayConfirmDelete {
			s.Overlay = OverlayNone
		}
		s.PendingDeleteID = 0
		if m.Err != nil {
			s.Busy = BusyNone
			return showAlert(s, MsgDeleteFailed, m.Err), nil
		}
		if s.EditingID == m.ID {
			s.EditingID = 0
		}
		return s, []Effect{FetchTasks{Filter: s.Filter, Navigate: ScreenDashboard, Settle: BusyDeleting}}

	case SummaryLoaded:
		if backend.IsUnauthorized(m.Err) {
			return expire(s)
		}
		s.SummaryLoading = false
		var statusErr *backend.StatusError
		switch {
		case m.Err == nil:
			s.Summary = m.Text
		case errors.As(m.Err, &statusErr):
			s.Summary = MsgSummaryFailed
			s.Err = fmt.Errorf("%s %w", MsgSummaryFailed, m.Err)
		default:
			s.Summary = MsgSummaryNoService
			s.Err = fmt.Errorf("%s %w", MsgSummaryNoService, m.Err)
		}
		return s, nil

	case LoggedIn:
		if s.Busy == BusySigningIn {
			s.Busy = BusyNone
		}
		if m.Err != nil {
			var statusErr *backend.StatusError
			if errors.As(m.Err, &statusErr) {
				s.LoginError = MsgLoginRejected
				s.Err = utils.ErrAuthenticationFailed(m.Username)
			} else {
				s.LoginError = MsgLoginUnreachable
				s.Err = fmt.Errorf("%s %w", MsgLoginUnreachable, m.Err)
			}
			return s, nil
		}
		s.Authenticated = true
		s.User = m.Username
		s.LoginError = ""
		s.Status = ""
		s.StatusIsError = false
		s.Screen = ScreenDashboard
		return s, []Effect{FetchTasks{Filter: s.Filter}}

	case SessionCleared:
		if m.Err != nil && s.Err == nil {
			s.Err = m.Err
		}
		return s, nil

	case ThemeSaved:
		if m.Err != nil {
			s.Status = MsgThemeNotSaved
			s.StatusIsError = true
			s.Err = fmt.Errorf("%s %w", MsgThemeNotSaved, m.Err)
		}
		return s, nil
	}

	return s, nil
}

// navigate switches screens. Leaving the edit screen forgets the task being
// edited; the edit screen is only reachable through OpenEdit.
func navigate(s State, to Screen) State {
	switch to {
	case ScreenDashboard, ScreenCreate:
		if !s.Authenticated {
			return s
		}
	case ScreenEdit:
		if s.EditingID == 0 || !s.Authenticated {
			return s
		}
	case ScreenLogin:
		if s.Authenticated {
			return s
		}
	default:
		return s
	}

	if s.Screen == ScreenEdit && to != ScreenEdit {
		s.EditingID = 0
		s.EditForm = NewForm()
	}
	s.Screen = to
	if s.Overlay == OverlayHelp || s.Overlay == OverlaySummary {
		s.Overlay = OverlayNone
	}
	return s
}

// showAlert opens a blocking alert for a failed action
func showAlert(s State, alert string, err error) State {
	s.Alert = alert
	s.Overlay = OverlayAlert
	if utils.IsValidation(err) {
		s.Err = err
	} else {
		s.Err = fmt.Errorf("%s %w", alert, err)
	}
	return s
}

// signOut drops everything tied to the signed-in user
func signOut(s State) State {
	return State{
		Screen:       ScreenLogin,
		Overlay:      OverlayNone,
		CreateForm:   NewForm(),
		EditForm:     NewForm(),
		Theme:        s.DefaultTheme,
		DefaultTheme: s.DefaultTheme,
	}
}

// expire handles a rejected session on any operation. Once signed out,
// further rejections from calls that were already in flight do nothing.
func expire(s State) (State, []Effect) {
	if !s.Authenticated {
		return s, nil
	}
	s = signOut(s)
	s.Status = MsgSessionExpired
	s.StatusIsError = true
	s.Err = utils.ErrSessionExpired()
	return s, []Effect{ClearSession{}}
}
