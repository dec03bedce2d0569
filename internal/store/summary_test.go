package store

import (
	"context"
	"testing"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

func TestSummarizeCountsGroupsTasksAndStatuses(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	g := mustGroup(t, s)

	a := &models.Task{GroupID: g.ID, Sequence: 1, Title: "a", Status: models.TaskStatusPending}
	b := &models.Task{GroupID: g.ID, Sequence: 2, Title: "b", Status: models.TaskStatusCompleted}
	for _, task := range []*models.Task{a, b} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("failed to seed task: %v", err)
		}
	}

	summary, err := s.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.GroupCount != 1 {
		t.Errorf("expected 1 group, got %d", summary.GroupCount)
	}
	if summary.TaskCount != 2 {
		t.Errorf("expected 2 tasks, got %d", summary.TaskCount)
	}
	if summary.ByStatus[models.TaskStatusPending] != 1 || summary.ByStatus[models.TaskStatusCompleted] != 1 {
		t.Errorf("expected one pending and one completed, got %+v", summary.ByStatus)
	}
}
