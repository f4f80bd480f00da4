// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrValidation reports task fields the store rejected.
var ErrValidation = errors.New("validation failed")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// Task is the transport shape of one task.
type Task struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	ClientID       string    `json:"client_id"`
	ClientName     string    `json:"client_name"`
	AssignedTo     string    `json:"assigned_to,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	DueDate        string    `json:"due_date,omitempty"`
	EstimatedHours *float64  `json:"estimated_hours,omitempty"`
	ActualHours    *float64  `json:"actual_hours,omitempty"`
	Tags           []string  `json:"tags"`
}

// Client is the transport shape of one directory entry.
type Client struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Statistics summarizes the whole board.
type Statistics struct {
	Todo           int `json:"todo"`
	InProgress     int `json:"in_progress"`
	Done           int `json:"done"`
	Total          int `json:"total"`
	CompletionRate int `json:"completion_rate"`
}

// ChangeEvent is one activity-ledger entry.
type ChangeEvent struct {
	ID         int64             `json:"id"`
	TaskID     string            `json:"task_id"`
	Operation  string            `json:"operation"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// ListTasksRequest carries the view filter for task listings.
type ListTasksRequest struct {
	Query    string
	Status   string
	Priority string
}

// TaskRequest carries every editable field for create and full update.
type TaskRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Status         string   `json:"status,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	ClientID       string   `json:"client_id"`
	AssignedTo     string   `json:"assigned_to,omitempty"`
	DueDate        string   `json:"due_date,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// StatusRequest carries a status change.
type StatusRequest struct {
	Status string `json:"status"`
}

// BoardService is the board surface shared by HTTP and MCP transports.
type BoardService interface {
	ListTasks(context.Context, ListTasksRequest) ([]Task, error)
	GetTask(context.Context, string) (Task, error)
	CreateTask(context.Context, TaskRequest) (Task, error)
	UpdateTask(context.Context, string, TaskRequest) (Task, error)
	SetTaskStatus(context.Context, string, string) (Task, error)
	DeleteTask(context.Context, string) error
	Statistics(context.Context) (Statistics, error)
	ListClients(context.Context) ([]Client, error)
	ListActivity(context.Context, int) ([]ChangeEvent, error)
}
