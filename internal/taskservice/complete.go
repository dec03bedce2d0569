package taskservice

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrel-dev/taskmesh/internal/dag"
	"github.com/kestrel-dev/taskmesh/internal/store"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// CompleteTask guards the in_progress->in_review transition and
// propagates unblocking to the group's blocked tasks. Tasks currently
// in_review count as completed for unblocking purposes, since
// downstream work may start in its own worktree before this branch
// merges to trunk.
func (s *Service) CompleteTask(ctx context.Context, id, summary string, filesChanged []string) (*CompleteTaskResult, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, preconditionf("task %s not found", id)
	}
	if task.Status != models.TaskStatusInProgress {
		return nil, preconditionf("task is %s, not in_progress", task.Status)
	}

	now := time.Now().UTC()
	status := models.TaskStatusInReview
	progress := 100
	notePtr := &summary
	completedAt := store.TimeValue(now)

	updated, err := s.store.UpdateTask(ctx, id, store.TaskUpdate{
		Status:       &status,
		Progress:     &progress,
		ProgressNote: &notePtr,
		CompletedAt:  completedAt.Ptr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	unlocked, err := s.unlockDependents(ctx, task.GroupID, id, []models.TaskStatus{
		models.TaskStatusCompleted, models.TaskStatusInReview,
	})
	if err != nil {
		return nil, err
	}

	metadata := map[string]interface{}{"files_changed": filesChanged}
	if len(unlocked) > 0 {
		titles := make([]string, len(unlocked))
		for i, u := range unlocked {
			titles[i] = u.Task.Title
		}
		metadata["unlocked"] = titles
	}
	if err := s.store.AppendProgress(ctx, &models.ProgressLog{
		TaskID:   id,
		Event:    models.ProgressEventCompleted,
		Message:  summary,
		Metadata: metadata,
	}); err != nil {
		return nil, fmt.Errorf("failed to log completion: %w", err)
	}

	return &CompleteTaskResult{Task: updated, Unlocked: unlocked}, nil
}

// unlockDependents recomputes the group's dependency map, builds a
// completed set from countAsCompleted statuses plus justCompletedID,
// and transitions any newly-unlocked blocked task to pending.
func (s *Service) unlockDependents(ctx context.Context, groupID, justCompletedID string, countAsCompleted []models.TaskStatus) ([]*models.TaskSummary, error) {
	deps, err := s.store.GetGroupDependencyMap(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group dependency map: %w", err)
	}

	statusSet := make(map[models.TaskStatus]bool, len(countAsCompleted))
	for _, st := range countAsCompleted {
		statusSet[st] = true
	}
	statusSet[models.TaskStatusCompleted] = true // completed always counts

	groupTasks, err := s.store.ListTasks(ctx, store.TaskFilter{GroupID: &groupID})
	if err != nil {
		return nil, fmt.Errorf("failed to list group tasks: %w", err)
	}

	completed := make(map[string]bool, len(groupTasks))
	for _, t := range groupTasks {
		if statusSet[t.Status] {
			completed[t.ID] = true
		}
	}

	candidateIDs := dag.UnlockedBy(justCompletedID, deps, completed)

	var unlocked []*models.TaskSummary
	for _, candidateID := range candidateIDs {
		t, err := s.store.GetTask(ctx, candidateID)
		if err != nil {
			return nil, fmt.Errorf("failed to load candidate task: %w", err)
		}
		if t == nil || t.Status != models.TaskStatusBlocked {
			continue
		}
		newStatus := models.TaskStatusPending
		updated, err := s.store.UpdateTask(ctx, candidateID, store.TaskUpdate{Status: &newStatus})
		if err != nil {
			return nil, fmt.Errorf("failed to unblock task: %w", err)
		}
		unlocked = append(unlocked, &models.TaskSummary{Task: updated, CanStart: true})
	}
	return unlocked, nil
}
