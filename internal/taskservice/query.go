package taskservice

import (
	"context"
	"fmt"

	"github.com/kestrel-dev/taskmesh/internal/dag"
	"github.com/kestrel-dev/taskmesh/internal/store"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// ListTasks returns matching tasks enriched with can_start (reported
// only for pending tasks) plus a status tally.
func (s *Service) ListTasks(ctx context.Context, filter ListFilter) (*ListTasksResult, error) {
	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{GroupID: filter.GroupID, Status: filter.Status})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	counts := StatusCounts{}
	summaries := make([]*models.TaskSummary, 0, len(tasks))

	for _, t := range tasks {
		counts.Total++
		switch t.Status {
		case models.TaskStatusPending:
			counts.Pending++
		case models.TaskStatusInProgress:
			counts.InProgress++
		case models.TaskStatusInReview:
			counts.InReview++
		case models.TaskStatusCompleted:
			counts.Completed++
		case models.TaskStatusBlocked:
			counts.Blocked++
		}

		deps, err := s.store.GetDependencies(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load dependencies for task %s: %w", t.ID, err)
		}
		var dependsOn []int
		completed := map[string]bool{}
		for _, d := range deps {
			dependsOn = append(dependsOn, d.Sequence)
			if d.Status == models.TaskStatusCompleted {
				completed[d.ID] = true
			}
		}

		canStart := false
		if t.Status == models.TaskStatusPending {
			depIDs := make([]string, len(deps))
			for i, d := range deps {
				depIDs[i] = d.ID
			}
			depMap := dag.DependencyMap{t.ID: depIDs}
			canStart = dag.CanStart(t.ID, depMap, completed)
		}

		summaries = append(summaries, &models.TaskSummary{
			Task:      t,
			CanStart:  canStart,
			DependsOn: dependsOn,
		})
	}

	return &ListTasksResult{Tasks: summaries, Counts: counts}, nil
}

// GetTask returns a task plus its dependency projection, file
// ownership, and progress log.
func (s *Service) GetTask(ctx context.Context, id string) (*GetTaskResult, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, preconditionf("task %s not found", id)
	}

	deps, err := s.store.GetDependencies(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	refs := make([]DependencyRef, len(deps))
	for i, d := range deps {
		refs[i] = DependencyRef{Sequence: d.Sequence, Title: d.Title, Status: d.Status}
	}

	ownership, err := s.store.GetFileOwnership(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load file ownership: %w", err)
	}

	logs, err := s.store.ListProgress(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress log: %w", err)
	}

	return &GetTaskResult{
		Task:          task,
		Dependencies:  refs,
		FileOwnership: ownership,
		ProgressLog:   logs,
	}, nil
}
