package projects

import (
	"testing"
	"time"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func strp(s string) *string { return &s }

func TestTaskChanges_CompletionStamps(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	got := TaskChanges(models.Task{Status: models.TaskInProgress}, UpdateTaskRequest{Status: strp("completed")}, now)
	if got["status"] != models.TaskCompleted || got["completed_at"] != now {
		t.Fatalf("completing should stamp completed_at, got %v", got)
	}

	got = TaskChanges(models.Task{Status: models.TaskCompleted, CompletedAt: &now}, UpdateTaskRequest{Status: strp("todo")}, now)
	if v, ok := got["completed_at"]; !ok || v != nil {
		t.Fatalf("reopening should clear completed_at, got %v", got)
	}

	got = TaskChanges(models.Task{Status: models.TaskCompleted}, UpdateTaskRequest{Status: strp("completed")}, now)
	if len(got) != 0 {
		t.Fatalf("same status must change nothing, got %v", got)
	}
}

func TestTaskChanges_TitleAndDueDate(t *testing.T) {
	got := TaskChanges(models.Task{}, UpdateTaskRequest{Title: strp("  Revisar  "), DueDate: strp("2024-04-02")}, time.Now())
	if got["title"] != "Revisar" {
		t.Fatalf("title should be trimmed, got %v", got["title"])
	}
	due, ok := got["due_date"].(*time.Time)
	if !ok || due == nil || due.Format(dateLayout) != "2024-04-02" {
		t.Fatalf("unexpected due date %v", got["due_date"])
	}
}
