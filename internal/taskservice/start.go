package taskservice

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrel-dev/taskmesh/internal/store"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// StartTask guards the assigned->in_progress transition, creating the
// task's worktree and branch. A Git driver failure leaves the task
// untouched at assigned.
func (s *Service) StartTask(ctx context.Context, id string) (*StartTaskResult, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, preconditionf("task %s not found", id)
	}
	if task.Status != models.TaskStatusAssigned {
		return nil, preconditionf("task is %s, not assigned", task.Status)
	}

	trunk, err := s.git.TrunkBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trunk branch: %w", err)
	}

	branch := branchName(task.Sequence, task.Title)
	wtPath := worktreePath(s.repoRoot, task.Sequence, task.Title)

	if err := s.git.CreateWorktree(ctx, wtPath, branch, trunk); err != nil {
		return nil, fmt.Errorf("failed to create worktree: %w", err)
	}

	now := time.Now().UTC()
	status := models.TaskStatusInProgress
	branchPtr := &branch
	wtPathPtr := &wtPath
	startedAt := store.TimeValue(now)

	updated, err := s.store.UpdateTask(ctx, id, store.TaskUpdate{
		Status:       &status,
		BranchName:   &branchPtr,
		WorktreePath: &wtPathPtr,
		StartedAt:    startedAt.Ptr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update task after worktree creation: %w", err)
	}

	if err := s.store.AppendProgress(ctx, &models.ProgressLog{
		TaskID:  id,
		Event:   models.ProgressEventStarted,
		Message: "worktree and branch created",
		Metadata: map[string]interface{}{
			"branch_name":   branch,
			"worktree_path": wtPath,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to log start: %w", err)
	}

	deps, err := s.store.GetDependencies(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	var refs []CompletedPrereqRef
	for _, d := range deps {
		if d.Status == models.TaskStatusCompleted && d.BranchName != nil {
			refs = append(refs, CompletedPrereqRef{Title: d.Title, BranchName: *d.BranchName})
		}
	}

	patterns, err := s.store.GetFileOwnership(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load file ownership: %w", err)
	}

	return &StartTaskResult{Task: updated, FilePatterns: patterns, CompletedPrereqRefs: refs}, nil
}
