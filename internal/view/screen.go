package view

import (
	"fmt"
	"strings"

	"taskboard/internal/taskstore"
)

// Field ids of the task and login forms
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldDueDate     = "due"
	FieldPriority    = "priority"
	FieldCompleted   = "completed"
	FieldUsername    = "username"
	FieldPassword    = "password"
)

// TaskFields lists the create form fields in focus order
var TaskFields = []string{FieldTitle, FieldDescription, FieldDueDate, FieldPriority}

// EditFields lists the edit form fields in focus order
var EditFields = []string{FieldTitle, FieldDescription, FieldDueDate, FieldPriority, FieldCompleted}

// LoginFields lists the login form fields in focus order
var LoginFields = []string{FieldUsername, FieldPassword}

var fieldLabels = map[string]string{
	FieldTitle:       "Title",
	FieldDescription: "Description",
	FieldDueDate:     "Due date",
	FieldPriority:    "Priority",
	FieldCompleted:   "Completed",
	FieldUsername:    "Username",
	FieldPassword:    "Password",
}

// Options carries presentation details that are not part of State
type Options struct {
	// Selected is the index of the highlighted card
	Selected int
	// Focus is the field id with keyboard focus on a form screen
	Focus string
	// Username is the value typed on the login screen
	Username string
	// Help lines for the help overlay
	Help []string
}

// Screen renders the full screen for s
func Screen(s taskstore.State, opts Options) *Node {
	root := newNode(KindScreen, "").withID(s.Screen.String())
	if s.Theme == taskstore.ThemeLight {
		root.set(AttrThemeLight, true)
	} else {
		root.set(AttrThemeDark, true)
	}

	root.add(header(s))

	switch s.Screen {
	case taskstore.ScreenDashboard:
		list := Dashboard(s.Tasks)
		if len(s.Tasks) > 0 && opts.Selected >= 0 && opts.Selected < len(list.Children) {
			list.Children[opts.Selected].set(AttrSelected, true)
		}
		root.add(list)
	case taskstore.ScreenCreate:
		root.add(taskForm("create", "New Task", s.CreateForm, TaskFields, opts.Focus, s.Busy))
	case taskstore.ScreenEdit:
		root.add(taskForm("edit", "Edit Task", s.EditForm, EditFields, opts.Focus, s.Busy))
	case taskstore.ScreenLogin:
		root.add(loginForm(s, opts))
	}

	if s.Status != "" {
		status := newNode(KindStatus, s.Status)
		status.set(AttrError, s.StatusIsError)
		root.add(status)
	}

	if o := overlay(s, opts); o != nil {
		root.add(o)
	}
	return root
}

func header(s taskstore.State) *Node {
	h := newNode(KindHeader, "Task Dashboard")
	if !s.Authenticated {
		return h
	}
	greeting := "Hello"
	if s.User != "" {
		greeting = "Hello, " + s.User
	}
	h.add(newNode(KindGreeting, greeting))
	if s.Busy != taskstore.BusyNone {
		h.add(newNode(KindText, s.Busy.Label(), AttrBusy).withID("busy"))
	}
	return h
}

func field(id, value, focus string) *Node {
	f := newNode(KindField, fieldLabels[id]).withID(id)
	f.set(AttrFocused, id == focus)
	return f.add(newNode(KindText, value))
}

func taskForm(id, title string, f taskstore.Form, fields []string, focus string, busy taskstore.Busy) *Node {
	form := newNode(KindForm, title).withID(id)
	for _, name := range fields {
		var value string
		switch name {
		case FieldTitle:
			value = f.Title
		case FieldDescription:
			value = f.Description
		case FieldDueDate:
			value = f.DueDate
		case FieldPriority:
			value = strings.ToUpper(f.Priority)
		case FieldCompleted:
			value = "no"
			if f.Completed {
				value = "yes"
			}
		}
		form.add(field(name, value, focus))
	}

	label, busyKind := "Save Task", taskstore.BusySaving
	if id == "edit" {
		label, busyKind = "Update Task", taskstore.BusyUpdating
	}
	save := newNode(KindAction, label).withID(ActionSave)
	if busy == busyKind {
		save.Text = busy.Label()
		save.set(AttrBusy, true)
		save.set(AttrDisabled, true)
	}
	form.add(save)
	if id == "edit" {
		form.add(newNode(KindAction, "Delete").withID(ActionDelete))
	}
	return form.add(newNode(KindAction, "Cancel").withID(ActionCancel))
}

func loginForm(s taskstore.State, opts Options) *Node {
	form := newNode(KindForm, "Sign in").withID("login")
	form.add(field(FieldUsername, opts.Username, opts.Focus))
	pw := field(FieldPassword, "", opts.Focus)
	pw.set(AttrSecret, true)
	form.add(pw)

	submit := newNode(KindAction, "Sign in").withID(ActionLogin)
	if s.Busy == taskstore.BusySigningIn {
		submit.Text = s.Busy.Label()
		submit.set(AttrBusy, true)
		submit.set(AttrDisabled, true)
	}
	form.add(submit)

	if s.LoginError != "" {
		form.add(newNode(KindText, s.LoginError, AttrError).withID("login-error"))
	}
	return form
}

func overlay(s taskstore.State, opts Options) *Node {
	switch s.Overlay {
	case taskstore.OverlayConfirmDelete:
		o := newNode(KindOverlay, "Delete Task").withID(s.Overlay.String())
		question := "Are you sure you want to delete this task?"
		if t := s.PendingDeleteTask(); t != nil {
			question = fmt.Sprintf("Are you sure you want to delete %q?", t.Title)
		}
		o.add(newNode(KindText, question))
		confirm := newNode(KindAction, "Delete").withID(ActionConfirm)
		if s.Busy == taskstore.BusyDeleting {
			confirm.Text = s.Busy.Label()
			confirm.set(AttrBusy, true)
			confirm.set(AttrDisabled, true)
		}
		return o.add(confirm, newNode(KindAction, "Cancel").withID(ActionCancel))

	case taskstore.OverlaySummary:
		o := newNode(KindOverlay, "AI Summary").withID(s.Overlay.String())
		text := newNode(KindText, s.Summary).withID("summary")
		text.set(AttrBusy, s.SummaryLoading)
		return o.add(text)

	case taskstore.OverlayAlert:
		o := newNode(KindOverlay, "Error").withID(s.Overlay.String())
		return o.add(newNode(KindText, s.Alert, AttrError), newNode(KindAction, "OK").withID(ActionCancel))

	case taskstore.OverlayHelp:
		o := newNode(KindOverlay, "Keys").withID(s.Overlay.String())
		for _, line := range opts.Help {
			o.add(newNode(KindText, line))
		}
		return o
	}
	return nil
}
