package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/evanschultz/taskboard/internal/domain"
)

// DueDateLayout is the date-only form used by editor inputs.
const DueDateLayout = "2006-01-02"

// EditorState identifies the editor lifecycle position.
type EditorState int

const (
	EditorClosed EditorState = iota
	EditorOpenCreate
	EditorOpenEdit
)

// String returns a readable state name.
func (s EditorState) String() string {
	switch s {
	case EditorOpenCreate:
		return "open-create"
	case EditorOpenEdit:
		return "open-edit"
	default:
		return "closed"
	}
}

// TaskForm holds editor inputs exactly as a user typed them.
type TaskForm struct {
	Title          string
	Description    string
	Status         domain.Status
	Priority       domain.Priority
	ClientID       string
	AssignedTo     string
	DueDate        string
	EstimatedHours string
	Tags           []string
}

// Editor is the create/edit form state machine.
type Editor struct {
	state           EditorState
	targetID        string
	form            TaskForm
	defaultStatus   domain.Status
	defaultPriority domain.Priority
}

// NewEditor returns a closed editor. Empty defaults fall back to todo and medium.
func NewEditor(defaultStatus domain.Status, defaultPriority domain.Priority) *Editor {
	if !domain.IsValidStatus(defaultStatus) {
		defaultStatus = domain.StatusTodo
	}
	if !domain.IsValidPriority(defaultPriority) {
		defaultPriority = domain.PriorityMedium
	}
	e := &Editor{defaultStatus: defaultStatus, defaultPriority: defaultPriority}
	e.reset()
	return e
}

// State returns the current lifecycle position.
func (e *Editor) State() EditorState {
	return e.state
}

// IsOpen reports whether a form is being edited.
func (e *Editor) IsOpen() bool {
	return e.state != EditorClosed
}

// TargetID returns the id of the task under edit, or "" when creating.
func (e *Editor) TargetID() string {
	return e.targetID
}

// Form returns a copy of the current inputs.
func (e *Editor) Form() TaskForm {
	out := e.form
	out.Tags = slices.Clone(e.form.Tags)
	return out
}

// SetForm replaces the inputs of an open editor.
func (e *Editor) SetForm(form TaskForm) error {
	if !e.IsOpen() {
		return ErrEditorClosed
	}
	form.Tags = slices.Clone(form.Tags)
	e.form = form
	return nil
}

// OpenCreate opens an empty form for a new task.
func (e *Editor) OpenCreate() error {
	if e.IsOpen() {
		return ErrEditorBusy
	}
	e.reset()
	e.state = EditorOpenCreate
	return nil
}

// OpenEdit opens the form populated from an existing task.
func (e *Editor) OpenEdit(task domain.Task) error {
	if e.IsOpen() {
		return ErrEditorBusy
	}
	e.reset()
	e.state = EditorOpenEdit
	e.targetID = task.ID
	e.form = FormFromTask(task)
	return nil
}

// AddTag appends a trimmed tag. Blank input is ignored; duplicates are kept.
func (e *Editor) AddTag(raw string) bool {
	tag := strings.TrimSpace(raw)
	if !e.IsOpen() || tag == "" {
		return false
	}
	e.form.Tags = append(e.form.Tags, tag)
	return true
}

// RemoveTag drops the tag at idx.
func (e *Editor) RemoveTag(idx int) bool {
	if !e.IsOpen() || idx < 0 || idx >= len(e.form.Tags) {
		return false
	}
	e.form.Tags = slices.Delete(e.form.Tags, idx, idx+1)
	return true
}

// Cancel discards the form without touching the store.
func (e *Editor) Cancel() {
	e.reset()
}

// Submit commits the form. On a validation failure the editor stays open with
// its inputs untouched. A vanished edit target closes the editor.
func (e *Editor) Submit(ctx context.Context, store TaskWriter) (domain.Task, error) {
	if !e.IsOpen() {
		return domain.Task{}, ErrEditorClosed
	}
	draft, err := e.form.Draft()
	if err != nil {
		return domain.Task{}, err
	}

	var task domain.Task
	switch e.state {
	case EditorOpenEdit:
		task, err = store.UpdateTask(ctx, e.targetID, draft)
	default:
		task, err = store.CreateTask(ctx, draft)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.reset()
		}
		return domain.Task{}, err
	}
	e.reset()
	return task, nil
}

func (e *Editor) reset() {
	e.state = EditorClosed
	e.targetID = ""
	e.form = TaskForm{Status: e.defaultStatus, Priority: e.defaultPriority}
}

// FormFromTask converts a task into editor inputs.
func FormFromTask(task domain.Task) TaskForm {
	form := TaskForm{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		ClientID:    task.ClientID,
		AssignedTo:  task.AssignedTo,
		Tags:        slices.Clone(task.Tags),
	}
	if task.DueDate != nil {
		form.DueDate = task.DueDate.UTC().Format(DueDateLayout)
	}
	if task.EstimatedHours != nil {
		form.EstimatedHours = strconv.FormatFloat(*task.EstimatedHours, 'f', -1, 64)
	}
	return form
}

// Draft parses the form into a store draft.
func (f TaskForm) Draft() (TaskDraft, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return TaskDraft{}, fmt.Errorf("%w: %w", ErrValidation, domain.ErrInvalidTitle)
	}
	clientID := strings.TrimSpace(f.ClientID)
	if clientID == "" {
		return TaskDraft{}, fmt.Errorf("%w: %w", ErrValidation, domain.ErrInvalidClientID)
	}
	draft := TaskDraft{
		Title:       title,
		Description: f.Description,
		Status:      f.Status,
		Priority:    f.Priority,
		ClientID:    clientID,
		AssignedTo:  f.AssignedTo,
		Tags:        slices.Clone(f.Tags),
	}
	if raw := strings.TrimSpace(f.DueDate); raw != "" {
		due, err := time.Parse(DueDateLayout, raw)
		if err != nil {
			return TaskDraft{}, fmt.Errorf("%w: due date %q: %w", ErrValidation, raw, err)
		}
		draft.DueDate = &due
	}
	if raw := strings.TrimSpace(f.EstimatedHours); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return TaskDraft{}, fmt.Errorf("%w: estimated hours %q: %w", ErrValidation, raw, domain.ErrInvalidHours)
		}
		draft.EstimatedHours = &hours
	}
	return draft, nil
}
