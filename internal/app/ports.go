package app

import (
	"context"
	"time"

	"github.com/evanschultz/taskboard/internal/domain"
)

// Repository stores tasks in insertion order.
type Repository interface {
	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(context.Context) ([]domain.Task, error)
	// DeleteTask removes a task, stamping its delete event with at.
	DeleteTask(ctx context.Context, id string, at time.Time) error
	ListChangeEvents(context.Context, int) ([]domain.ChangeEvent, error)
}

// ClientDirectory resolves client ids to display data.
type ClientDirectory interface {
	List() []domain.Client
	Lookup(string) (domain.Client, bool)
}

// TaskWriter is the part of the store the editor commits through.
type TaskWriter interface {
	CreateTask(context.Context, TaskDraft) (domain.Task, error)
	UpdateTask(context.Context, string, TaskDraft) (domain.Task, error)
}
