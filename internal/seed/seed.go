// Package seed loads the clients and tasks a board starts with.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/evanschultz/taskboard/internal/domain"
)

//go:embed default_seed.yaml
var defaultSeed []byte

// DueDateLayout is the calendar-date form used for due dates in seed files.
const DueDateLayout = "2006-01-02"

// Data is the parsed content of a seed file.
type Data struct {
	Clients []domain.Client
	Tasks   []domain.Task
}

// File mirrors the YAML layout of a seed file.
type File struct {
	Clients []ClientRecord `yaml:"clients"`
	Tasks   []TaskRecord   `yaml:"tasks"`
}

// ClientRecord is one client entry in a seed file.
type ClientRecord struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Phone  string `yaml:"phone"`
	Avatar string `yaml:"avatar"`
}

// TaskRecord is one task entry in a seed file.
type TaskRecord struct {
	ID             string    `yaml:"id"`
	Title          string    `yaml:"title"`
	Description    string    `yaml:"description"`
	Status         string    `yaml:"status"`
	Priority       string    `yaml:"priority"`
	ClientID       string    `yaml:"client_id"`
	AssignedTo     string    `yaml:"assigned_to"`
	CreatedAt      time.Time `yaml:"created_at"`
	UpdatedAt      time.Time `yaml:"updated_at"`
	DueDate        string    `yaml:"due_date"`
	EstimatedHours *float64  `yaml:"estimated_hours"`
	ActualHours    *float64  `yaml:"actual_hours"`
	Tags           []string  `yaml:"tags"`
}

// Default returns the built-in demo board.
func Default(now time.Time) (Data, error) {
	return Parse(defaultSeed, now)
}

// Load reads a seed file from fs. An empty path selects the built-in board.
func Load(fs afero.Fs, path string, now time.Time) (Data, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(now)
	}
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return Data{}, fmt.Errorf("read seed file %q: %w", path, err)
	}
	data, err := Parse(content, now)
	if err != nil {
		return Data{}, fmt.Errorf("seed file %q: %w", path, err)
	}
	return data, nil
}

// Parse decodes YAML seed content. Records without a created_at are stamped with now.
func Parse(content []byte, now time.Time) (Data, error) {
	var file File
	if err := yaml.Unmarshal(content, &file); err != nil {
		return Data{}, fmt.Errorf("decode seed yaml: %w", err)
	}
	return file.Build(now)
}

// Build validates the records and converts them to domain values.
func (f File) Build(now time.Time) (Data, error) {
	out := Data{
		Clients: make([]domain.Client, 0, len(f.Clients)),
		Tasks:   make([]domain.Task, 0, len(f.Tasks)),
	}
	var errs []error
	for i, rec := range f.Clients {
		client, err := domain.NewClient(domain.Client(rec))
		if err != nil {
			errs = append(errs, fmt.Errorf("clients[%d]: %w", i, err))
			continue
		}
		out.Clients = append(out.Clients, client)
	}

	seen := make(map[string]struct{}, len(f.Tasks))
	for i, rec := range f.Tasks {
		task, err := rec.toDomain(now)
		if err != nil {
			errs = append(errs, fmt.Errorf("tasks[%d]: %w", i, err))
			continue
		}
		if _, ok := seen[task.ID]; ok {
			errs = append(errs, fmt.Errorf("tasks[%d]: duplicate id %q", i, task.ID))
			continue
		}
		seen[task.ID] = struct{}{}
		out.Tasks = append(out.Tasks, task)
	}
	if err := errors.Join(errs...); err != nil {
		return Data{}, err
	}
	return out, nil
}

func (r TaskRecord) toDomain(now time.Time) (domain.Task, error) {
	created := r.CreatedAt
	if created.IsZero() {
		created = now
	}
	var due *time.Time
	if raw := strings.TrimSpace(r.DueDate); raw != "" {
		parsed, err := time.Parse(DueDateLayout, raw)
		if err != nil {
			return domain.Task{}, fmt.Errorf("due_date %q: %w", raw, err)
		}
		due = &parsed
	}

	task, err := domain.NewTask(domain.TaskInput{
		ID:          r.ID,
		ActualHours: r.ActualHours,
		TaskDetails: domain.TaskDetails{
			Title:          r.Title,
			Description:    r.Description,
			Status:         domain.Status(strings.ToLower(strings.TrimSpace(r.Status))),
			Priority:       domain.Priority(strings.ToLower(strings.TrimSpace(r.Priority))),
			ClientID:       r.ClientID,
			AssignedTo:     r.AssignedTo,
			DueDate:        due,
			EstimatedHours: r.EstimatedHours,
			Tags:           r.Tags,
		},
	}, created)
	if err != nil {
		return domain.Task{}, err
	}
	if r.UpdatedAt.After(task.CreatedAt) {
		task.UpdatedAt = r.UpdatedAt.UTC()
	}
	return task, nil
}
