package app

import "github.com/evanschultz/taskboard/internal/domain"

// Statistics summarizes the whole store by status.
type Statistics struct {
	Todo           int `json:"todo"`
	InProgress     int `json:"in_progress"`
	Done           int `json:"done"`
	Total          int `json:"total"`
	CompletionRate int `json:"completion_rate"`
}

// ComputeStatistics counts tasks per status. The completion rate is the done
// share as a whole percentage rounded half up, or 0 for an empty list.
func ComputeStatistics(tasks []domain.Task) Statistics {
	var out Statistics
	for _, task := range tasks {
		switch task.Status {
		case domain.StatusTodo:
			out.Todo++
		case domain.StatusInProgress:
			out.InProgress++
		case domain.StatusDone:
			out.Done++
		}
	}
	out.Total = len(tasks)
	if out.Total > 0 {
		out.CompletionRate = (out.Done*200 + out.Total) / (2 * out.Total)
	}
	return out
}
