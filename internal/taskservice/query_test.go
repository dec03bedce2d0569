package taskservice

import (
	"context"
	"testing"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

func TestListTasksReportsCanStartOnlyForPending(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateTasks(ctx, CreateTasksInput{
		Group: GroupMeta{Title: "Blog"},
		Tasks: []TaskInput{
			{Title: "DB Schema"},
			{Title: "CRUD API", DependsOn: []int{1}},
		},
	}); err != nil {
		t.Fatalf("CreateTasks failed: %v", err)
	}

	result, err := svc.ListTasks(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if result.Counts.Total != 2 || result.Counts.Pending != 1 || result.Counts.Blocked != 1 {
		t.Fatalf("unexpected counts: %+v", result.Counts)
	}

	for _, s := range result.Tasks {
		switch s.Task.Title {
		case "DB Schema":
			if !s.CanStart {
				t.Errorf("expected DB Schema to be startable, got %+v", s)
			}
		case "CRUD API":
			if s.CanStart {
				t.Errorf("expected CRUD API to not be startable while blocked, got %+v", s)
			}
			if len(s.DependsOn) != 1 || s.DependsOn[0] != 1 {
				t.Errorf("expected CRUD API to report depending on sequence 1, got %v", s.DependsOn)
			}
		}
	}
}

func TestListTasksFiltersByStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateTasks(ctx, CreateTasksInput{
		Group: GroupMeta{Title: "Batch"},
		Tasks: []TaskInput{{Title: "A"}, {Title: "B", DependsOn: []int{1}}},
	}); err != nil {
		t.Fatalf("CreateTasks failed: %v", err)
	}

	result, err := svc.ListTasks(ctx, ListFilter{Status: map[models.TaskStatus]bool{models.TaskStatusBlocked: true}})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].Task.Title != "B" {
		t.Fatalf("expected only the blocked task, got %+v", result.Tasks)
	}
}

func TestGetTaskIncludesDependenciesOwnershipAndProgress(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTasks(ctx, CreateTasksInput{
		Group: GroupMeta{Title: "Blog"},
		Tasks: []TaskInput{
			{Title: "DB Schema", FilePatterns: []FilePatternInput{{Pattern: "src/db/**", Type: models.OwnershipExclusive}}},
			{Title: "CRUD API", DependsOn: []int{1}},
		},
	})
	if err != nil {
		t.Fatalf("CreateTasks failed: %v", err)
	}

	result, err := svc.GetTask(ctx, created.Tasks[1].Task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if len(result.Dependencies) != 1 || result.Dependencies[0].Title != "DB Schema" {
		t.Fatalf("expected a dependency ref naming DB Schema, got %+v", result.Dependencies)
	}

	schemaResult, err := svc.GetTask(ctx, created.Tasks[0].Task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if len(schemaResult.FileOwnership) != 1 || schemaResult.FileOwnership[0].FilePattern != "src/db/**" {
		t.Fatalf("expected the declared file pattern to round-trip, got %+v", schemaResult.FileOwnership)
	}
}

func TestGetTaskMissingReturnsPreconditionError(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetTask(ctx, "does-not-exist"); err == nil {
		t.Fatalf("expected an error for a missing task")
	} else if _, ok := err.(*PreconditionError); !ok {
		t.Fatalf("expected a *PreconditionError, got %T: %v", err, err)
	}
}
