package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/taskboard/internal/app"
	"github.com/evanschultz/taskboard/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// ListTasks returns the filtered view in store order.
func (a *AppServiceAdapter) ListTasks(ctx context.Context, in ListTasksRequest) ([]Task, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	query, err := app.ParseQuery(in.Query, in.Status, in.Priority)
	if err != nil {
		return nil, mapAppError("list tasks", err)
	}
	tasks, err := a.service.VisibleTasks(ctx, query)
	if err != nil {
		return nil, mapAppError("list tasks", err)
	}
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, a.taskFromDomain(task))
	}
	return out, nil
}

// GetTask returns one task.
func (a *AppServiceAdapter) GetTask(ctx context.Context, id string) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.GetTask(ctx, id)
	if err != nil {
		return Task{}, mapAppError("get task", err)
	}
	return a.taskFromDomain(task), nil
}

// CreateTask creates one task.
func (a *AppServiceAdapter) CreateTask(ctx context.Context, in TaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	draft, err := draftFromRequest(in)
	if err != nil {
		return Task{}, err
	}
	task, err := a.service.CreateTask(ctx, draft)
	if err != nil {
		return Task{}, mapAppError("create task", err)
	}
	return a.taskFromDomain(task), nil
}

// UpdateTask replaces every editable field of one task.
func (a *AppServiceAdapter) UpdateTask(ctx context.Context, id string, in TaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	draft, err := draftFromRequest(in)
	if err != nil {
		return Task{}, err
	}
	task, err := a.service.UpdateTask(ctx, id, draft)
	if err != nil {
		return Task{}, mapAppError("update task", err)
	}
	return a.taskFromDomain(task), nil
}

// SetTaskStatus changes one task's status.
func (a *AppServiceAdapter) SetTaskStatus(ctx context.Context, id, status string) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return Task{}, fmt.Errorf("status is required: %w", ErrInvalidRequest)
	}
	task, err := a.service.SetTaskStatus(ctx, id, domain.Status(status))
	if err != nil {
		return Task{}, mapAppError("set task status", err)
	}
	return a.taskFromDomain(task), nil
}

// DeleteTask removes one task. Unknown ids succeed.
func (a *AppServiceAdapter) DeleteTask(ctx context.Context, id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return mapAppError("delete task", a.service.DeleteTask(ctx, id))
}

// Statistics summarizes the full board.
func (a *AppServiceAdapter) Statistics(ctx context.Context) (Statistics, error) {
	if err := a.ready(); err != nil {
		return Statistics{}, err
	}
	stats, err := a.service.Statistics(ctx)
	if err != nil {
		return Statistics{}, mapAppError("statistics", err)
	}
	return Statistics(stats), nil
}

// ListClients returns the client directory.
func (a *AppServiceAdapter) ListClients(ctx context.Context) ([]Client, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	clients, err := a.service.ListClients(ctx)
	if err != nil {
		return nil, mapAppError("list clients", err)
	}
	out := make([]Client, 0, len(clients))
	for _, c := range clients {
		out = append(out, Client(c))
	}
	return out, nil
}

// ListActivity returns recent ledger entries.
func (a *AppServiceAdapter) ListActivity(ctx context.Context, limit int) ([]ChangeEvent, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	events, err := a.service.ListChangeEvents(ctx, limit)
	if err != nil {
		return nil, mapAppError("list activity", err)
	}
	out := make([]ChangeEvent, 0, len(events))
	for _, event := range events {
		out = append(out, ChangeEvent{
			ID:         event.ID,
			TaskID:     event.TaskID,
			Operation:  string(event.Operation),
			Metadata:   event.Metadata,
			OccurredAt: event.OccurredAt,
		})
	}
	return out, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

func (a *AppServiceAdapter) taskFromDomain(t domain.Task) Task {
	out := Task{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		ClientID:       t.ClientID,
		ClientName:     a.service.ClientName(t.ClientID),
		AssignedTo:     t.AssignedTo,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		Tags:           append([]string{}, t.Tags...),
	}
	if t.DueDate != nil {
		out.DueDate = t.DueDate.UTC().Format(app.DueDateLayout)
	}
	return out
}

// draftFromRequest converts transport input, rejecting malformed dates.
func draftFromRequest(in TaskRequest) (app.TaskDraft, error) {
	draft := app.TaskDraft{
		Title:          in.Title,
		Description:    in.Description,
		Status:         domain.Status(strings.ToLower(strings.TrimSpace(in.Status))),
		Priority:       domain.Priority(strings.ToLower(strings.TrimSpace(in.Priority))),
		ClientID:       in.ClientID,
		AssignedTo:     in.AssignedTo,
		EstimatedHours: in.EstimatedHours,
		Tags:           in.Tags,
	}
	if raw := strings.TrimSpace(in.DueDate); raw != "" {
		due, err := time.Parse(app.DueDateLayout, raw)
		if err != nil {
			return app.TaskDraft{}, fmt.Errorf("due_date must be YYYY-MM-DD: %w", errors.Join(ErrInvalidRequest, err))
		}
		draft.DueDate = &due
	}
	return draft, nil
}

// mapAppError wraps app errors with the transport sentinel callers switch on.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrValidation):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrValidation, err))
	case errors.Is(err, app.ErrInvalidFilter):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
