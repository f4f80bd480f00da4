package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evanschultz/taskboard/internal/domain"
)

// TaskDraft holds the editable fields of a create or full update.
type TaskDraft struct {
	Title          string          `validate:"required"`
	Description    string          `validate:"-"`
	Status         domain.Status   `validate:"omitempty,oneof=todo in-progress done"`
	Priority       domain.Priority `validate:"omitempty,oneof=low medium high urgent"`
	ClientID       string          `validate:"required"`
	AssignedTo     string          `validate:"-"`
	DueDate        *time.Time      `validate:"-"`
	EstimatedHours *float64        `validate:"omitempty,gte=0"`
	Tags           []string        `validate:"-"`
}

// DraftFromTask returns a draft that reproduces the task's editable fields.
func DraftFromTask(t domain.Task) TaskDraft {
	d := t.Details()
	return TaskDraft{
		Title:          d.Title,
		Description:    d.Description,
		Status:         d.Status,
		Priority:       d.Priority,
		ClientID:       d.ClientID,
		AssignedTo:     d.AssignedTo,
		DueDate:        d.DueDate,
		EstimatedHours: d.EstimatedHours,
		Tags:           d.Tags,
	}
}

func (d TaskDraft) details() domain.TaskDetails {
	return domain.TaskDetails{
		Title:          d.Title,
		Description:    d.Description,
		Status:         d.Status,
		Priority:       d.Priority,
		ClientID:       d.ClientID,
		AssignedTo:     d.AssignedTo,
		DueDate:        d.DueDate,
		EstimatedHours: d.EstimatedHours,
		Tags:           d.Tags,
	}
}

var draftFieldErrors = map[string]error{
	"Title":          domain.ErrInvalidTitle,
	"ClientID":       domain.ErrInvalidClientID,
	"Status":         domain.ErrInvalidStatus,
	"Priority":       domain.ErrInvalidPriority,
	"EstimatedHours": domain.ErrInvalidHours,
}

func newDraftValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validateDraft trims text fields and checks the draft before any store access.
func (s *Service) validateDraft(d TaskDraft) (TaskDraft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.ClientID = strings.TrimSpace(d.ClientID)
	if err := s.validate.Struct(d); err != nil {
		return TaskDraft{}, validationError(err)
	}
	return d, nil
}

// validationError maps validator output onto domain sentinels wrapped in ErrValidation.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	mapped := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if sentinel, ok := draftFieldErrors[fe.StructField()]; ok {
			mapped = append(mapped, sentinel)
			continue
		}
		mapped = append(mapped, fmt.Errorf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %w", ErrValidation, errors.Join(mapped...))
}

// asValidation tags domain constructor errors as validation failures.
func asValidation(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidClientID),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidHours):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	default:
		return err
	}
}
