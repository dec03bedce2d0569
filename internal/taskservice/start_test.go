package taskservice

import (
	"context"
	"testing"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

func TestStartTaskCreatesWorktreeAndBranch(t *testing.T) {
	svc, st, git := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTasks(ctx, CreateTasksInput{
		Group: GroupMeta{Title: "Blog"},
		Tasks: []TaskInput{{Title: "DB Schema"}},
	})
	if err != nil {
		t.Fatalf("CreateTasks failed: %v", err)
	}
	id := created.Tasks[0].Task.ID

	if r, err := svc.ClaimTask(ctx, id, nil); err != nil || !r.Success {
		t.Fatalf("claim failed: err=%v result=%+v", err, r)
	}

	result, err := svc.StartTask(ctx, id)
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}
	if result.Task.Status != models.TaskStatusInProgress {
		t.Fatalf("expected status in_progress, got %s", result.Task.Status)
	}
	if result.Task.BranchName == nil || result.Task.WorktreePath == nil {
		t.Fatalf("expected branch and worktree to be recorded, got %+v", result.Task)
	}
	if !git.worktrees[*result.Task.WorktreePath] {
		t.Fatalf("expected the fake driver to have created the worktree")
	}
	if !git.branches[*result.Task.BranchName] {
		t.Fatalf("expected the fake driver to have created the branch")
	}

	final, err := st.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if final.StartedAt == nil {
		t.Fatalf("expected started_at to be set")
	}
}

func TestStartTaskRejectsNonAssignedStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTasks(ctx, CreateTasksInput{
		Group: GroupMeta{Title: "Blog"},
		Tasks: []TaskInput{{Title: "DB Schema"}},
	})
	if err != nil {
		t.Fatalf("CreateTasks failed: %v", err)
	}

	if _, err := svc.StartTask(ctx, created.Tasks[0].Task.ID); err == nil {
		t.Fatalf("expected StartTask to reject a still-pending task")
	} else if _, ok := err.(*PreconditionError); !ok {
		t.Fatalf("expected a *PreconditionError, got %T: %v", err, err)
	}
}

func TestStartTaskReportsCompletedPrereqRefs(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTasks(ctx, CreateTasksInput{
		Group: GroupMeta{Title: "Blog"},
		Tasks: []TaskInput{
			{Title: "DB Schema"},
			{Title: "CRUD API", DependsOn: []int{1}},
		},
	})
	if err != nil {
		t.Fatalf("CreateTasks failed: %v", err)
	}
	schemaID, apiID := created.Tasks[0].Task.ID, created.Tasks[1].Task.ID

	claimStartCompleteMerge(t, svc, schemaID)

	if r, err := svc.ClaimTask(ctx, apiID, nil); err != nil || !r.Success {
		t.Fatalf("claim failed: err=%v result=%+v", err, r)
	}
	result, err := svc.StartTask(ctx, apiID)
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}
	if len(result.CompletedPrereqRefs) != 1 || result.CompletedPrereqRefs[0].Title != "DB Schema" {
		t.Fatalf("expected a completed-prereq ref naming DB Schema, got %+v", result.CompletedPrereqRefs)
	}
}

func TestStartTaskReportsDeclaredFilePatterns(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTasks(ctx, CreateTasksInput{
		Group: GroupMeta{Title: "Blog"},
		Tasks: []TaskInput{
			{
				Title:        "DB Schema",
				FilePatterns: []FilePatternInput{{Pattern: "src/db/**", Type: models.OwnershipExclusive}},
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateTasks failed: %v", err)
	}
	id := created.Tasks[0].Task.ID

	if r, err := svc.ClaimTask(ctx, id, nil); err != nil || !r.Success {
		t.Fatalf("claim failed: err=%v result=%+v", err, r)
	}
	result, err := svc.StartTask(ctx, id)
	if err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}
	if len(result.FilePatterns) != 1 || result.FilePatterns[0].FilePattern != "src/db/**" {
		t.Fatalf("expected the declared file pattern to be reported, got %+v", result.FilePatterns)
	}
}
