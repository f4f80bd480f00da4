package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/evanschultz/taskboard/internal/app"
	"github.com/evanschultz/taskboard/internal/domain"
)

func mustTask(t *testing.T, id string) domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.TaskInput{
		ID:          id,
		TaskDetails: domain.TaskDetails{Title: "task " + id, ClientID: "c1", Tags: []string{"x"}},
	}, time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	return task
}

func TestRepositoryOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := New()
	for _, id := range []string{"c", "a", "b", "d"} {
		if err := repo.CreateTask(ctx, mustTask(t, id)); err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
	}
	if err := repo.CreateTask(ctx, mustTask(t, "a")); !errors.Is(err, app.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	deletedAt := time.Date(2026, 2, 21, 13, 0, 0, 0, time.UTC)
	if err := repo.DeleteTask(ctx, "a", deletedAt); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if err := repo.DeleteTask(ctx, "a", deletedAt); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	updated := mustTask(t, "d")
	updated.Title = "renamed"
	if err := repo.UpdateTask(ctx, updated); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	tasks, err := repo.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 3 || tasks[0].ID != "c" || tasks[1].ID != "b" || tasks[2].Title != "renamed" {
		t.Fatalf("unexpected tasks %#v", tasks)
	}
	if got, err := repo.GetTask(ctx, "d"); err != nil || got.Title != "renamed" {
		t.Fatalf("GetTask() = %#v, %v", got, err)
	}
}

func TestRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := New()
	if err := repo.CreateTask(ctx, mustTask(t, "t1")); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	got, _ := repo.GetTask(ctx, "t1")
	got.Tags[0] = "mutated"
	again, _ := repo.GetTask(ctx, "t1")
	if again.Tags[0] != "x" {
		t.Fatalf("repository shares tag storage: %#v", again.Tags)
	}
}

func TestRepositoryChangeEvents(t *testing.T) {
	ctx := context.Background()
	repo := New()
	task := mustTask(t, "t1")
	_ = repo.CreateTask(ctx, task)
	if err := task.SetStatus(domain.StatusInProgress, task.CreatedAt.Add(time.Minute)); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	_ = repo.UpdateTask(ctx, task)
	deletedAt := task.CreatedAt.Add(2 * time.Minute)
	_ = repo.DeleteTask(ctx, "t1", deletedAt)

	events, err := repo.ListChangeEvents(ctx, 2)
	if err != nil {
		t.Fatalf("ListChangeEvents() error = %v", err)
	}
	if len(events) != 2 || events[0].Operation != domain.ChangeOperationDelete || events[1].Operation != domain.ChangeOperationStatus {
		t.Fatalf("unexpected events %#v", events)
	}
	if !events[0].OccurredAt.Equal(deletedAt) {
		t.Fatalf("delete event at %v, want %v", events[0].OccurredAt, deletedAt)
	}
}

func TestRepositoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := New()
	tasks := make([]domain.Task, 0, 20)
	for i := range 20 {
		tasks = append(tasks, mustTask(t, string(rune('a'+i))))
	}
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.CreateTask(ctx, task)
			_, _ = repo.ListTasks(ctx)
		}()
	}
	wg.Wait()
	stored, _ := repo.ListTasks(ctx)
	if len(stored) != 20 {
		t.Fatalf("expected 20 tasks, got %d", len(stored))
	}
}
