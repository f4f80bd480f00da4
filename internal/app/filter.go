package app

import (
	"fmt"
	"strings"

	"github.com/evanschultz/taskboard/internal/domain"
)

// FilterAll matches every value of an enum filter.
const FilterAll = "all"

// Query is the user's current view filter.
type Query struct {
	Text     string
	Status   string
	Priority string
}

// DefaultQuery returns the pass-through filter.
func DefaultQuery() Query {
	return Query{Status: FilterAll, Priority: FilterAll}
}

// Cleared resets every criterion in one step.
func (Query) Cleared() Query {
	return DefaultQuery()
}

// IsZero reports whether the query lets every task through.
func (q Query) IsZero() bool {
	return q.Text == "" && isAll(q.Status) && isAll(q.Priority)
}

// ParseQuery validates raw filter input. Empty enum values mean all.
func ParseQuery(text, status, priority string) (Query, error) {
	q := Query{
		Text:     text,
		Status:   strings.ToLower(strings.TrimSpace(status)),
		Priority: strings.ToLower(strings.TrimSpace(priority)),
	}
	if q.Status == "" {
		q.Status = FilterAll
	}
	if q.Priority == "" {
		q.Priority = FilterAll
	}
	if !isAll(q.Status) && !domain.IsValidStatus(domain.Status(q.Status)) {
		return Query{}, fmt.Errorf("%w: status %q", ErrInvalidFilter, status)
	}
	if !isAll(q.Priority) && !domain.IsValidPriority(domain.Priority(q.Priority)) {
		return Query{}, fmt.Errorf("%w: priority %q", ErrInvalidFilter, priority)
	}
	return q, nil
}

// VisibleTasks returns the tasks matching every criterion, in store order.
func VisibleTasks(tasks []domain.Task, q Query, clients ClientDirectory) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	needle := strings.ToLower(q.Text)
	for _, task := range tasks {
		if !isAll(q.Status) && string(task.Status) != q.Status {
			continue
		}
		if !isAll(q.Priority) && string(task.Priority) != q.Priority {
			continue
		}
		if needle != "" && !matchesText(task, needle, clients) {
			continue
		}
		out = append(out, task)
	}
	return out
}

// matchesText checks title, description, and the resolved client name.
// A client missing from the directory has no searchable name.
func matchesText(task domain.Task, needle string, clients ClientDirectory) bool {
	if strings.Contains(strings.ToLower(task.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(task.Description), needle) {
		return true
	}
	if clients == nil {
		return false
	}
	client, ok := clients.Lookup(task.ClientID)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(client.Name), needle)
}

func isAll(v string) bool {
	return v == "" || v == FilterAll
}
