package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

// Status is the lifecycle position of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

var validStatuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Statuses returns every status in board order.
func Statuses() []Status {
	return slices.Clone(validStatuses)
}

// Priorities returns every priority from lowest to highest.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// IsValidStatus reports whether s is one of the known statuses.
func IsValidStatus(s Status) bool {
	return slices.Contains(validStatuses, s)
}

// IsValidPriority reports whether p is one of the known priorities.
func IsValidPriority(p Priority) bool {
	return slices.Contains(validPriorities, p)
}

type Task struct {
	ID             string
	Title          string
	Description    string
	Status         Status
	Priority       Priority
	ClientID       string
	AssignedTo     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DueDate        *time.Time
	EstimatedHours *float64
	ActualHours    *float64
	Tags           []string
}

// TaskDetails holds the fields a full edit replaces.
type TaskDetails struct {
	Title          string
	Description    string
	Status         Status
	Priority       Priority
	ClientID       string
	AssignedTo     string
	DueDate        *time.Time
	EstimatedHours *float64
	Tags           []string
}

type TaskInput struct {
	ID          string
	ActualHours *float64
	TaskDetails
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	details, err := normalizeDetails(in.TaskDetails)
	if err != nil {
		return Task{}, err
	}
	if !validHours(in.ActualHours) {
		return Task{}, ErrInvalidHours
	}

	ts := now.UTC()
	task := Task{
		ID:          in.ID,
		ActualHours: copyFloat(in.ActualHours),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	task.apply(details)
	return task, nil
}

// UpdateDetails replaces every editable field. CreatedAt and ActualHours are kept.
func (t *Task) UpdateDetails(in TaskDetails, now time.Time) error {
	details, err := normalizeDetails(in)
	if err != nil {
		return err
	}
	t.apply(details)
	t.touch(now)
	return nil
}

// SetStatus changes the status without touching any other editable field.
func (t *Task) SetStatus(status Status, now time.Time) error {
	if !IsValidStatus(status) {
		return ErrInvalidStatus
	}
	t.Status = status
	t.touch(now)
	return nil
}

// Details returns the editable fields of the task.
func (t Task) Details() TaskDetails {
	return TaskDetails{
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status,
		Priority:       t.Priority,
		ClientID:       t.ClientID,
		AssignedTo:     t.AssignedTo,
		DueDate:        copyTime(t.DueDate),
		EstimatedHours: copyFloat(t.EstimatedHours),
		Tags:           slices.Clone(t.Tags),
	}
}

// Clone returns a deep copy so callers never share pointer fields with a store.
func (t Task) Clone() Task {
	out := t
	out.DueDate = copyTime(t.DueDate)
	out.EstimatedHours = copyFloat(t.EstimatedHours)
	out.ActualHours = copyFloat(t.ActualHours)
	out.Tags = slices.Clone(t.Tags)
	return out
}

func (t *Task) apply(d TaskDetails) {
	t.Title = d.Title
	t.Description = d.Description
	t.Status = d.Status
	t.Priority = d.Priority
	t.ClientID = d.ClientID
	t.AssignedTo = d.AssignedTo
	t.DueDate = d.DueDate
	t.EstimatedHours = d.EstimatedHours
	t.Tags = d.Tags
}

// touch stamps UpdatedAt, never letting it fall behind CreatedAt.
func (t *Task) touch(now time.Time) {
	ts := now.UTC()
	if ts.Before(t.CreatedAt) {
		ts = t.CreatedAt
	}
	t.UpdatedAt = ts
}

func normalizeDetails(in TaskDetails) (TaskDetails, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)

	if in.Title == "" {
		return TaskDetails{}, ErrInvalidTitle
	}
	if in.ClientID == "" {
		return TaskDetails{}, ErrInvalidClientID
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if !IsValidStatus(in.Status) {
		return TaskDetails{}, ErrInvalidStatus
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !IsValidPriority(in.Priority) {
		return TaskDetails{}, ErrInvalidPriority
	}
	if !validHours(in.EstimatedHours) {
		return TaskDetails{}, ErrInvalidHours
	}

	in.DueDate = NormalizeDueDate(in.DueDate)
	in.EstimatedHours = copyFloat(in.EstimatedHours)
	// Tags are kept verbatim, including duplicates.
	in.Tags = slices.Clone(in.Tags)
	if len(in.Tags) == 0 {
		in.Tags = nil
	}
	return in, nil
}

// NormalizeDueDate truncates a due date to its UTC calendar day.
func NormalizeDueDate(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	y, m, d := due.Date()
	ts := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &ts
}

func validHours(v *float64) bool {
	if v == nil {
		return true
	}
	return !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v >= 0
}

func copyTime(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	ts := *in
	return &ts
}

func copyFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
