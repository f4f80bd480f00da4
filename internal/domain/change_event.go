package domain

import (
	"slices"
	"strings"
	"time"
)

// ChangeOperation describes a recorded activity operation for a task.
type ChangeOperation string

// ChangeOperation values used by the activity ledger.
const (
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationUpdate ChangeOperation = "update"
	ChangeOperationStatus ChangeOperation = "status"
	ChangeOperationDelete ChangeOperation = "delete"
)

// ChangeEvent represents a single activity-log entry for a task.
type ChangeEvent struct {
	ID         int64
	TaskID     string
	Operation  ChangeOperation
	Metadata   map[string]string
	OccurredAt time.Time
}

// ClassifyTaskChange names the operation that turns prev into next and
// returns ledger metadata describing it.
func ClassifyTaskChange(prev, next Task) (ChangeOperation, map[string]string) {
	fields := ChangedTaskFields(prev, next)
	if len(fields) == 1 && fields[0] == "status" {
		return ChangeOperationStatus, map[string]string{
			"from_status": string(prev.Status),
			"to_status":   string(next.Status),
		}
	}
	metadata := map[string]string{}
	if len(fields) > 0 {
		metadata["changed_fields"] = strings.Join(fields, ",")
	}
	return ChangeOperationUpdate, metadata
}

// ChangedTaskFields lists the editable fields that differ between two tasks.
func ChangedTaskFields(prev, next Task) []string {
	changed := make([]string, 0)
	if prev.Title != next.Title {
		changed = append(changed, "title")
	}
	if prev.Description != next.Description {
		changed = append(changed, "description")
	}
	if prev.Status != next.Status {
		changed = append(changed, "status")
	}
	if prev.Priority != next.Priority {
		changed = append(changed, "priority")
	}
	if prev.ClientID != next.ClientID {
		changed = append(changed, "client_id")
	}
	if prev.AssignedTo != next.AssignedTo {
		changed = append(changed, "assigned_to")
	}
	if !equalTimes(prev.DueDate, next.DueDate) {
		changed = append(changed, "due_date")
	}
	if !equalFloats(prev.EstimatedHours, next.EstimatedHours) {
		changed = append(changed, "estimated_hours")
	}
	if !equalFloats(prev.ActualHours, next.ActualHours) {
		changed = append(changed, "actual_hours")
	}
	if !slices.Equal(prev.Tags, next.Tags) {
		changed = append(changed, "tags")
	}
	return changed
}

func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalFloats(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
