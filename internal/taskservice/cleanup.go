package taskservice

import (
	"context"
	"fmt"

	"github.com/kestrel-dev/taskmesh/internal/store"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// CleanupTask is a terminal transition from any non-terminal state to
// failed. Worktree/branch removal is best-effort: failures are
// reported in the result rather than aborting the transition.
func (s *Service) CleanupTask(ctx context.Context, id, reason string) (*CleanupTaskResult, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, preconditionf("task %s not found", id)
	}

	var outcome CleanupOutcome

	if task.WorktreePath != nil {
		if err := s.git.RemoveWorktree(ctx, *task.WorktreePath, true); err != nil {
			outcome.WorktreeError = err.Error()
		} else {
			outcome.WorktreeRemoved = true
		}
	}
	if task.BranchName != nil {
		if err := s.git.DeleteBranch(ctx, *task.BranchName, true); err != nil {
			outcome.BranchError = err.Error()
		} else {
			outcome.BranchDeleted = true
		}
	}

	status := models.TaskStatusFailed
	updated, err := s.store.UpdateTask(ctx, id, store.TaskUpdate{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to mark task failed: %w", err)
	}

	metadata := map[string]interface{}{
		"reason":           reason,
		"worktree_removed": outcome.WorktreeRemoved,
		"branch_deleted":   outcome.BranchDeleted,
	}
	if err := s.store.AppendProgress(ctx, &models.ProgressLog{
		TaskID:   id,
		Event:    models.ProgressEventFailed,
		Message:  reason,
		Metadata: metadata,
	}); err != nil {
		return nil, fmt.Errorf("failed to log cleanup: %w", err)
	}

	return &CleanupTaskResult{Task: updated, Cleaned: outcome}, nil
}
