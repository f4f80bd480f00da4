package seed

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/evanschultz/taskboard/internal/domain"
)

func TestDefaultSeedIsValid(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	data, err := Default(now)
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if len(data.Clients) == 0 || len(data.Tasks) == 0 {
		t.Fatalf("expected demo data, got %d clients %d tasks", len(data.Clients), len(data.Tasks))
	}
	dir, err := domain.NewClientDirectory(data.Clients)
	if err != nil {
		t.Fatalf("NewClientDirectory() error = %v", err)
	}
	for _, task := range data.Tasks {
		if _, ok := dir.Lookup(task.ClientID); !ok {
			t.Fatalf("task %q references unknown client %q", task.ID, task.ClientID)
		}
		if task.UpdatedAt.Before(task.CreatedAt) {
			t.Fatalf("task %q updated before created", task.ID)
		}
	}
}

func TestLoadFromFilesystem(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `
clients:
  - id: c1
    name: Acme
tasks:
  - id: t1
    title: "  Fix footer  "
    status: DONE
    client_id: c1
    created_at: 2026-01-02T03:04:05Z
    updated_at: 2026-01-01T00:00:00Z
    due_date: "2026-02-03"
    estimated_hours: 2.5
    tags: [a, a]
  - id: t2
    title: No timestamps
    client_id: c1
`
	if err := afero.WriteFile(fs, "/seed/board.yaml", []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	data, err := Load(fs, "/seed/board.yaml", now)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(data.Clients) != 1 || len(data.Tasks) != 2 {
		t.Fatalf("unexpected sizes %d/%d", len(data.Clients), len(data.Tasks))
	}
	first := data.Tasks[0]
	if first.Title != "Fix footer" || first.Status != domain.StatusDone || first.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected first task %#v", first)
	}
	if !first.UpdatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected stale updated_at to clamp to created_at, got %v", first.UpdatedAt)
	}
	if first.DueDate == nil || first.DueDate.Format(DueDateLayout) != "2026-02-03" {
		t.Fatalf("unexpected due date %v", first.DueDate)
	}
	if len(first.Tags) != 2 {
		t.Fatalf("expected duplicate tags preserved, got %#v", first.Tags)
	}
	if !data.Tasks[1].CreatedAt.Equal(now) {
		t.Fatalf("expected missing created_at to use now, got %v", data.Tasks[1].CreatedAt)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	data, err := Load(afero.NewMemMapFs(), "  ", time.Now())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(data.Tasks) == 0 {
		t.Fatal("expected default tasks")
	}
}

func TestLoadReportsInvalidRecords(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `
clients:
  - id: c1
tasks:
  - id: t1
    title: ""
    client_id: c1
  - id: t2
    title: ok
    client_id: c1
    due_date: soon
  - id: t3
    title: ok
    client_id: c1
  - id: t3
    title: again
    client_id: c1
`
	_ = afero.WriteFile(fs, "bad.yaml", []byte(content), 0o644)
	_, err := Load(fs, "bad.yaml", time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrInvalidName) || !errors.Is(err, domain.ErrInvalidTitle) {
		t.Fatalf("expected joined domain errors, got %v", err)
	}
	for _, want := range []string{"due_date", "duplicate id"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
	if _, err := Load(fs, "missing.yaml", time.Now()); err == nil {
		t.Fatal("expected missing file error")
	}
}
