package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/taskboard/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "taskboard.snapshot.v1"

// Snapshot is a versioned export of the whole board.
type Snapshot struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Clients    []SnapshotClient `json:"clients"`
	Tasks      []SnapshotTask   `json:"tasks"`
	Statistics Statistics       `json:"statistics"`
}

// SnapshotClient represents snapshot client data used by this package.
type SnapshotClient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Status         domain.Status   `json:"status"`
	Priority       domain.Priority `json:"priority"`
	ClientID       string          `json:"client_id"`
	ClientName     string          `json:"client_name"`
	AssignedTo     string          `json:"assigned_to,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DueDate        string          `json:"due_date,omitempty"`
	EstimatedHours *float64        `json:"estimated_hours,omitempty"`
	ActualHours    *float64        `json:"actual_hours,omitempty"`
	Tags           []string        `json:"tags"`
}

// ExportSnapshot captures every client and task in store order.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	clients := s.clients.List()

	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Clients:    make([]SnapshotClient, 0, len(clients)),
		Tasks:      make([]SnapshotTask, 0, len(tasks)),
		Statistics: ComputeStatistics(tasks),
	}
	for _, c := range clients {
		snap.Clients = append(snap.Clients, SnapshotClient(c))
	}
	for _, task := range tasks {
		snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task, s.ClientName(task.ClientID)))
	}
	return snap, nil
}

// Validate checks a snapshot for internal consistency.
func (s *Snapshot) Validate() error {
	if strings.TrimSpace(s.Version) != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %q", s.Version)
	}
	var errs []error
	seen := make(map[string]struct{}, len(s.Tasks))
	for i, task := range s.Tasks {
		id := strings.TrimSpace(task.ID)
		if id == "" {
			errs = append(errs, fmt.Errorf("tasks[%d]: %w", i, domain.ErrInvalidID))
			continue
		}
		if _, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("tasks[%d]: duplicate id %q", i, id))
		}
		seen[id] = struct{}{}
		if !domain.IsValidStatus(task.Status) {
			errs = append(errs, fmt.Errorf("tasks[%d]: %w", i, domain.ErrInvalidStatus))
		}
		if !domain.IsValidPriority(task.Priority) {
			errs = append(errs, fmt.Errorf("tasks[%d]: %w", i, domain.ErrInvalidPriority))
		}
		if task.UpdatedAt.Before(task.CreatedAt) {
			errs = append(errs, fmt.Errorf("tasks[%d]: updated_at before created_at", i))
		}
	}
	return errors.Join(errs...)
}

func snapshotTaskFromDomain(t domain.Task, clientName string) SnapshotTask {
	out := SnapshotTask{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status,
		Priority:       t.Priority,
		ClientID:       t.ClientID,
		ClientName:     clientName,
		AssignedTo:     t.AssignedTo,
		CreatedAt:      t.CreatedAt.UTC(),
		UpdatedAt:      t.UpdatedAt.UTC(),
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		Tags:           append([]string{}, t.Tags...),
	}
	if t.DueDate != nil {
		out.DueDate = t.DueDate.UTC().Format(DueDateLayout)
	}
	return out
}
