package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/evanschultz/taskboard/internal/app"
	"github.com/evanschultz/taskboard/internal/domain"
)

// Repository keeps tasks in an ordered slice guarded by a mutex.
type Repository struct {
	mu     sync.RWMutex
	tasks  []domain.Task
	index  map[string]int
	events []domain.ChangeEvent
	nextID int64
}

// New returns an empty repository.
func New() *Repository {
	return &Repository{index: map[string]int{}}
}

// CreateTask appends a task.
func (r *Repository) CreateTask(_ context.Context, t domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[t.ID]; ok {
		return fmt.Errorf("task %q: %w", t.ID, app.ErrAlreadyExists)
	}
	r.index[t.ID] = len(r.tasks)
	r.tasks = append(r.tasks, t.Clone())
	r.record(t.ID, domain.ChangeOperationCreate, map[string]string{
		"title":     t.Title,
		"client_id": t.ClientID,
		"status":    string(t.Status),
	}, t.CreatedAt)
	return nil
}

// UpdateTask replaces a task in place, keeping its position.
func (r *Repository) UpdateTask(_ context.Context, t domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.index[t.ID]
	if !ok {
		return app.ErrNotFound
	}
	op, metadata := domain.ClassifyTaskChange(r.tasks[idx], t)
	r.tasks[idx] = t.Clone()
	r.record(t.ID, op, metadata, t.UpdatedAt)
	return nil
}

// GetTask returns the requested task.
func (r *Repository) GetTask(_ context.Context, id string) (domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.index[id]
	if !ok {
		return domain.Task{}, app.ErrNotFound
	}
	return r.tasks[idx].Clone(), nil
}

// ListTasks returns every task in insertion order.
func (r *Repository) ListTasks(context.Context) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t.Clone())
	}
	return out, nil
}

// DeleteTask removes a task and closes the gap it leaves.
func (r *Repository) DeleteTask(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.index[id]
	if !ok {
		return app.ErrNotFound
	}
	task := r.tasks[idx]
	r.tasks = slices.Delete(r.tasks, idx, idx+1)
	delete(r.index, id)
	for i := idx; i < len(r.tasks); i++ {
		r.index[r.tasks[i].ID] = i
	}
	r.record(id, domain.ChangeOperationDelete, map[string]string{
		"title":  task.Title,
		"status": string(task.Status),
	}, at)
	return nil
}

// ListChangeEvents returns ledger entries, most recently recorded first.
func (r *Repository) ListChangeEvents(_ context.Context, limit int) ([]domain.ChangeEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.events) {
		limit = len(r.events)
	}
	out := make([]domain.ChangeEvent, 0, limit)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}

func (r *Repository) record(taskID string, op domain.ChangeOperation, metadata map[string]string, at time.Time) {
	r.nextID++
	r.events = append(r.events, domain.ChangeEvent{
		ID:         r.nextID,
		TaskID:     taskID,
		Operation:  op,
		Metadata:   metadata,
		OccurredAt: at.UTC(),
	})
}
