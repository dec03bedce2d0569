package taskservice

import (
	"context"
	"fmt"

	"github.com/kestrel-dev/taskmesh/internal/ownership"
	"github.com/kestrel-dev/taskmesh/internal/store"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// UpdateProgress is a non-transitioning update: it never changes
// status, even when progress reaches 100 (that requires CompleteTask).
func (s *Service) UpdateProgress(ctx context.Context, id string, progress int, note string, filesChanged []string) (*UpdateProgressResult, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, preconditionf("task %s not found", id)
	}

	notePtr := &note
	updated, err := s.store.UpdateTask(ctx, id, store.TaskUpdate{
		Progress:     &progress,
		ProgressNote: &notePtr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	var warnings []ConflictWarning
	if len(filesChanged) > 0 {
		warnings, err = s.fileConflictWarnings(ctx, task, filesChanged)
		if err != nil {
			return nil, err
		}
	}

	rebaseRecommended := false
	if updated.BranchName != nil {
		trunk, trunkErr := s.git.TrunkBranch(ctx)
		if trunkErr == nil {
			// Best-effort: rebase recommendation is advisory, so git
			// failures here are swallowed rather than surfaced.
			if ahead, aheadErr := s.git.TrunkAheadOf(ctx, trunk, *updated.BranchName); aheadErr == nil {
				rebaseRecommended = ahead
			}
		}
	}

	metadata := map[string]interface{}{"progress": progress}
	if len(filesChanged) > 0 {
		metadata["files_changed"] = filesChanged
	}
	if err := s.store.AppendProgress(ctx, &models.ProgressLog{
		TaskID:   id,
		Event:    models.ProgressEventProgressUpdate,
		Message:  note,
		Metadata: metadata,
	}); err != nil {
		return nil, fmt.Errorf("failed to log progress: %w", err)
	}

	return &UpdateProgressResult{
		Task:              updated,
		ConflictWarnings:  warnings,
		RebaseRecommended: rebaseRecommended,
	}, nil
}

// fileConflictWarnings scans filesChanged against the exclusive
// patterns of other in-progress tasks in the same group.
func (s *Service) fileConflictWarnings(ctx context.Context, task *models.Task, filesChanged []string) ([]ConflictWarning, error) {
	others, err := s.store.GetGroupFileOwnership(ctx, task.GroupID, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group file ownership: %w", err)
	}

	inProgress, err := s.store.ListTasks(ctx, store.TaskFilter{
		GroupID: &task.GroupID,
		Status:  map[models.TaskStatus]bool{models.TaskStatusInProgress: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list in-progress tasks: %w", err)
	}
	inProgressIDs := make(map[string]bool, len(inProgress))
	for _, t := range inProgress {
		inProgressIDs[t.ID] = true
	}

	declared := make([]ownership.Declared, 0, len(others))
	for _, o := range others {
		if !inProgressIDs[o.TaskID] {
			continue
		}
		if o.OwnershipType != models.OwnershipExclusive {
			continue
		}
		declared = append(declared, ownership.Declared{
			TaskID:  o.TaskID,
			Pattern: o.FilePattern,
			Type:    ownership.Exclusive,
		})
	}

	found := ownership.CheckFileConflicts(filesChanged, declared)
	warnings := make([]ConflictWarning, len(found))
	for i, w := range found {
		warnings[i] = ConflictWarning{File: w.File, TaskID: w.TaskID, Message: w.Message}
	}
	return warnings, nil
}
