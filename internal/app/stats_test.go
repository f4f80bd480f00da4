package app

import (
	"testing"

	"github.com/evanschultz/taskboard/internal/domain"
)

func tasksWithStatuses(statuses ...domain.Status) []domain.Task {
	out := make([]domain.Task, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, domain.Task{Status: status})
	}
	return out
}

func TestComputeStatisticsRoundsHalfUp(t *testing.T) {
	got := ComputeStatistics(tasksWithStatuses(domain.StatusTodo, domain.StatusDone, domain.StatusDone))
	want := Statistics{Todo: 1, Done: 2, Total: 3, CompletionRate: 67}
	if got != want {
		t.Fatalf("ComputeStatistics() = %#v, want %#v", got, want)
	}

	eighth := tasksWithStatuses(domain.StatusDone)
	for range 7 {
		eighth = append(eighth, domain.Task{Status: domain.StatusInProgress})
	}
	if got := ComputeStatistics(eighth).CompletionRate; got != 13 {
		t.Fatalf("expected 12.5%% to round to 13, got %d", got)
	}
	if got := ComputeStatistics(tasksWithStatuses(domain.StatusTodo, domain.StatusTodo, domain.StatusDone)).CompletionRate; got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
}

func TestComputeStatisticsEmptyStore(t *testing.T) {
	if got := ComputeStatistics(nil); got != (Statistics{}) {
		t.Fatalf("ComputeStatistics(nil) = %#v", got)
	}
}

func TestComputeStatisticsCountsSumToTotal(t *testing.T) {
	got := ComputeStatistics(tasksWithStatuses(domain.StatusTodo, domain.StatusInProgress, domain.StatusInProgress, domain.StatusDone))
	if got.Todo+got.InProgress+got.Done != got.Total {
		t.Fatalf("counts do not sum to total: %#v", got)
	}
	if got.CompletionRate < 0 || got.CompletionRate > 100 {
		t.Fatalf("completion rate out of range: %d", got.CompletionRate)
	}
	if got := ComputeStatistics(tasksWithStatuses(domain.StatusDone, domain.StatusDone)).CompletionRate; got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}
