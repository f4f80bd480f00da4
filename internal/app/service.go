package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evanschultz/taskboard/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	DefaultStatus   domain.Status
	DefaultPriority domain.Priority
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service is the task store: every read and mutation of the board goes through it.
type Service struct {
	mu              sync.Mutex
	repo            Repository
	clients         ClientDirectory
	idGen           IDGenerator
	clock           Clock
	validate        *validator.Validate
	defaultStatus   domain.Status
	defaultPriority domain.Priority
}

// NewService constructs a new value for this package.
func NewService(repo Repository, clients ClientDirectory, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if !domain.IsValidStatus(cfg.DefaultStatus) {
		cfg.DefaultStatus = domain.StatusTodo
	}
	if !domain.IsValidPriority(cfg.DefaultPriority) {
		cfg.DefaultPriority = domain.PriorityMedium
	}
	if clients == nil {
		clients = emptyDirectory{}
	}
	return &Service{
		repo:            repo,
		clients:         clients,
		idGen:           idGen,
		clock:           clock,
		validate:        newDraftValidator(),
		defaultStatus:   cfg.DefaultStatus,
		defaultPriority: cfg.DefaultPriority,
	}
}

// Defaults returns the status and priority new tasks start with.
func (s *Service) Defaults() (domain.Status, domain.Priority) {
	return s.defaultStatus, s.defaultPriority
}

// Seed installs tasks provided by the host at startup, keeping their timestamps.
func (s *Service) Seed(ctx context.Context, tasks []domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range tasks {
		if err := s.repo.CreateTask(ctx, task.Clone()); err != nil {
			return fmt.Errorf("seed task %q: %w", task.ID, err)
		}
	}
	return nil
}

// ListTasks returns every task in store order.
func (s *Service) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx)
}

// GetTask returns one task by id.
func (s *Service) GetTask(ctx context.Context, id string) (domain.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Task{}, ErrNotFound
	}
	return s.repo.GetTask(ctx, id)
}

// CreateTask validates the draft and appends a new task with a fresh id.
func (s *Service) CreateTask(ctx context.Context, draft TaskDraft) (domain.Task, error) {
	draft, err := s.validateDraft(draft)
	if err != nil {
		return domain.Task{}, err
	}
	if draft.Status == "" {
		draft.Status = s.defaultStatus
	}
	if draft.Priority == "" {
		draft.Priority = s.defaultPriority
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := domain.NewTask(domain.TaskInput{
		ID:          s.idGen(),
		TaskDetails: draft.details(),
	}, s.clock())
	if err != nil {
		return domain.Task{}, asValidation(err)
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTask replaces every editable field of an existing task.
func (s *Service) UpdateTask(ctx context.Context, id string, draft TaskDraft) (domain.Task, error) {
	draft, err := s.validateDraft(draft)
	if err != nil {
		return domain.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if draft.Status == "" {
		draft.Status = task.Status
	}
	if draft.Priority == "" {
		draft.Priority = task.Priority
	}
	if err := task.UpdateDetails(draft.details(), s.clock()); err != nil {
		return domain.Task{}, asValidation(err)
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// SetTaskStatus changes only the status of a task.
func (s *Service) SetTaskStatus(ctx context.Context, id string, status domain.Status) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.SetStatus(status, s.clock()); err != nil {
		return domain.Task{}, asValidation(err)
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task. Deleting an unknown id is a no-op.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteTask(ctx, id, s.clock()); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// VisibleTasks returns the filtered view of the current store.
func (s *Service) VisibleTasks(ctx context.Context, query Query) ([]domain.Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return VisibleTasks(tasks, query, s.clients), nil
}

// Statistics aggregates the full store, ignoring any filter.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return Statistics{}, err
	}
	return ComputeStatistics(tasks), nil
}

// ListClients returns the client directory in its original order.
func (s *Service) ListClients(context.Context) ([]domain.Client, error) {
	return s.clients.List(), nil
}

// ClientName resolves the display name for a client id.
func (s *Service) ClientName(id string) string {
	if c, ok := s.clients.Lookup(id); ok {
		return c.Name
	}
	return domain.UnknownClientName
}

// ListChangeEvents returns the newest activity entries first.
func (s *Service) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListChangeEvents(ctx, limit)
}

type emptyDirectory struct{}

func (emptyDirectory) List() []domain.Client { return nil }

func (emptyDirectory) Lookup(string) (domain.Client, bool) { return domain.Client{}, false }
