package taskstore

import (
	"strings"

	"taskboard/backend"
	"taskboard/internal/utils"
)

// Form holds the raw field values of the create and edit screens
type Form struct {
	Title       string
	Description string
	DueDate     string
	Priority    string
	Completed   bool // edit only
}

// NewForm returns an empty form with the default priority
func NewForm() Form {
	return Form{Priority: string(backend.PriorityMedium)}
}

// FormFromTask pre-fills a form from a cached task
func FormFromTask(t backend.Task) Form {
	f := Form{
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Completed:   t.Completed,
	}
	if t.DueDate != nil {
		f.DueDate = t.DueDate.String()
	}
	if f.Priority == "" {
		f.Priority = string(backend.PriorityMedium)
	}
	return f
}

// validFields is a form after trimming, parsing and normalization
type validFields struct {
	title       string
	description string
	dueDate     *backend.Date
	priority    backend.Priority
}

// validate returns the normalized fields, or the alert to show and the
// underlying validation error.
func (f Form) validate() (validFields, string, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return validFields{}, MsgTitleRequired, utils.ErrTitleRequired()
	}

	due, err := utils.ParseDateFlag(f.DueDate)
	if err != nil {
		return validFields{}, MsgInvalidDueDate, err
	}

	priority, err := utils.ParsePriorityFlag(f.Priority, backend.PriorityMedium)
	if err != nil {
		return validFields{}, MsgInvalidPriority, err
	}

	return validFields{
		title:       title,
		description: strings.TrimSpace(f.Description),
		dueDate:     due,
		priority:    priority,
	}, "", nil
}

// newTask builds the create request. New tasks are never completed.
func (v validFields) newTask() backend.Task {
	return backend.Task{
		Title:       v.title,
		Description: v.description,
		DueDate:     v.dueDate,
		Priority:    v.priority,
		Completed:   false,
	}
}

// patch builds a full-edit update carrying every mutable field
func (v validFields) patch(id int64, completed bool) backend.TaskPatch {
	return backend.TaskPatch{
		ID:          id,
		Title:       &v.title,
		Description: &v.description,
		DueDate:     v.dueDate,
		Priority:    &v.priority,
		Completed:   &completed,
	}
}
