package taskservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kestrel-dev/taskmesh/internal/gitdriver"
	"github.com/kestrel-dev/taskmesh/internal/store"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// MergeTask guards the in_review->completed transition. The caller's
// checkout of the coordinator's repository must already be on trunk;
// this method does not switch branches on the caller's behalf.
func (s *Service) MergeTask(ctx context.Context, id string, strategy gitdriver.MergeStrategy) (*MergeTaskResult, error) {
	if strategy == "" {
		strategy = gitdriver.MergeStrategySquash
	}

	trunk, err := s.git.TrunkBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trunk branch: %w", err)
	}
	onTrunk, err := s.git.OnTrunk(ctx, s.repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to check trunk checkout: %w", err)
	}
	if !onTrunk {
		current, err := s.git.CurrentBranch(ctx, s.repoRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve current branch: %w", err)
		}
		return nil, preconditionf("repository must be checked out to %s before merge_task; currently on %s", trunk, current)
	}

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, preconditionf("task %s not found", id)
	}
	if task.Status != models.TaskStatusInReview {
		return nil, preconditionf("task is %s, not in_review", task.Status)
	}
	if task.BranchName == nil {
		return nil, preconditionf("task has no branch to merge")
	}

	mergeErr := s.git.Merge(ctx, s.repoRoot, trunk, *task.BranchName, strategy)
	if mergeErr != nil {
		if errors.Is(mergeErr, gitdriver.ErrMergeConflict) {
			return s.reportMergeConflict(ctx, task)
		}
		return nil, fmt.Errorf("merge failed: %w", mergeErr)
	}

	now := time.Now().UTC()
	status := models.TaskStatusCompleted
	mergedAt := store.TimeValue(now)

	updated, err := s.store.UpdateTask(ctx, id, store.TaskUpdate{
		Status:   &status,
		MergedAt: mergedAt.Ptr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark task completed: %w", err)
	}

	// Best-effort cleanup: failures here are tolerated, not fatal.
	if task.WorktreePath != nil {
		_ = s.git.RemoveWorktree(ctx, *task.WorktreePath, true)
	}
	_ = s.git.DeleteBranch(ctx, *task.BranchName, true)

	unlocked, err := s.unlockDependents(ctx, task.GroupID, id, []models.TaskStatus{models.TaskStatusCompleted})
	if err != nil {
		return nil, err
	}

	if err := s.store.AppendProgress(ctx, &models.ProgressLog{
		TaskID:  id,
		Event:   models.ProgressEventMerged,
		Message: fmt.Sprintf("merged into %s via %s", trunk, strategy),
	}); err != nil {
		return nil, fmt.Errorf("failed to log merge: %w", err)
	}

	return &MergeTaskResult{Task: updated, Result: MergeResultClean, Unlocked: unlocked}, nil
}

// reportMergeConflict leaves the task at in_review and the repository
// with unmerged paths; the caller is responsible for aborting the merge
// out-of-band before retrying.
func (s *Service) reportMergeConflict(ctx context.Context, task *models.Task) (*MergeTaskResult, error) {
	paths, err := s.git.ConflictedPaths(ctx, s.repoRoot)
	if err != nil {
		paths = nil
	}

	conflicts := make([]ConflictedPath, len(paths))
	for i, p := range paths {
		conflicts[i] = ConflictedPath{
			Path:           p,
			Description:    "merge produced conflicting changes in this file",
			Suggestion:     "resolve manually or abort the merge and rebase the task branch",
			AutoResolvable: false,
		}
	}

	if err := s.store.AppendProgress(ctx, &models.ProgressLog{
		TaskID:  task.ID,
		Event:   models.ProgressEventConflictDetected,
		Message: "merge produced conflicts",
		Metadata: map[string]interface{}{
			"conflicted_paths": paths,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to log conflict: %w", err)
	}

	return &MergeTaskResult{Task: task, Result: MergeResultConflict, Conflicts: conflicts}, nil
}
