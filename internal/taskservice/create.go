package taskservice

import (
	"context"
	"fmt"

	"github.com/kestrel-dev/taskmesh/internal/dag"
	"github.com/kestrel-dev/taskmesh/internal/ownership"
	"github.com/kestrel-dev/taskmesh/internal/store"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// CreateTasks atomically constructs a group, its tasks, their
// dependency edges, and their file-ownership declarations. Cycles and
// pattern overlaps are reported as warnings; the group is still
// created either way (see the cycle-handling design note).
func (s *Service) CreateTasks(ctx context.Context, input CreateTasksInput) (*CreateTasksResult, error) {
	group := &models.TaskGroup{
		Title:       input.Group.Title,
		Description: input.Group.Description,
	}

	taskIDs := make([]string, len(input.Tasks))
	var warnings []string
	deps := make(dag.DependencyMap, len(input.Tasks))

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.CreateGroup(ctx, group); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		for i, ti := range input.Tasks {
			priority := ti.Priority
			if priority == "" {
				priority = models.TaskPriorityMedium
			}
			task := &models.Task{
				GroupID:     group.ID,
				Sequence:    i + 1,
				Title:       ti.Title,
				Description: ti.Description,
				Status:      models.TaskStatusPending,
				Priority:    priority,
			}
			if err := tx.CreateTask(ctx, task); err != nil {
				return fmt.Errorf("failed to create task %q: %w", ti.Title, err)
			}
			taskIDs[i] = task.ID
		}

		// Materialize dependency edges, translating 1-based sequence
		// references into task ids. An unknown sequence is a dropped
		// edge plus a warning, not a fatal error.
		for i, ti := range input.Tasks {
			taskID := taskIDs[i]
			for _, seq := range ti.DependsOn {
				if seq < 1 || seq > len(taskIDs) {
					warnings = append(warnings, fmt.Sprintf(
						"task %q references unknown dependency sequence %d; edge dropped", ti.Title, seq))
					continue
				}
				prereqID := taskIDs[seq-1]
				if err := tx.AddDependency(ctx, taskID, prereqID); err != nil {
					return fmt.Errorf("failed to add dependency: %w", err)
				}
				deps[taskID] = append(deps[taskID], prereqID)
			}
		}

		for i, ti := range input.Tasks {
			for _, fp := range ti.FilePatterns {
				o := &models.TaskFileOwnership{
					TaskID:        taskIDs[i],
					FilePattern:   fp.Pattern,
					OwnershipType: fp.Type,
				}
				if err := tx.AddFileOwnership(ctx, o); err != nil {
					return fmt.Errorf("failed to add file ownership: %w", err)
				}
			}
		}

		if cycleResult := dag.ValidateNoCycles(deps); !cycleResult.Valid {
			warnings = append(warnings, fmt.Sprintf(
				"dependency graph contains a cycle: %v; affected tasks will never become startable", cycleResult.Cycle))
		}

		warnings = append(warnings, patternOverlapWarnings(input.Tasks)...)

		// A task starts blocked only if it has at least one real
		// (materialized) prerequisite edge; an unknown-sequence
		// reference was already dropped above and must not leave the
		// task permanently blocked with nothing left to unlock it.
		for _, taskID := range taskIDs {
			if len(deps[taskID]) == 0 {
				continue
			}
			status := models.TaskStatusBlocked
			if _, err := tx.UpdateTask(ctx, taskID, store.TaskUpdate{Status: &status}); err != nil {
				return fmt.Errorf("failed to block task: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.TaskSummary, len(taskIDs))
	for i, taskID := range taskIDs {
		task, err := s.store.GetTask(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload created task: %w", err)
		}
		summaries[i] = &models.TaskSummary{
			Task:      task,
			CanStart:  len(deps[taskID]) == 0,
			DependsOn: input.Tasks[i].DependsOn,
		}
	}

	return &CreateTasksResult{Group: group, Tasks: summaries, Warnings: warnings}, nil
}

// patternOverlapWarnings runs a pairwise overlap check across the
// batch's declared patterns, flagging any pair where at least one side
// is exclusive.
func patternOverlapWarnings(tasks []TaskInput) []string {
	var warnings []string
	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			for _, a := range tasks[i].FilePatterns {
				for _, b := range tasks[j].FilePatterns {
					if !ownership.PatternsOverlap(a.Pattern, b.Pattern) {
						continue
					}
					if a.Type != models.OwnershipExclusive && b.Type != models.OwnershipExclusive {
						continue
					}
					warnings = append(warnings, fmt.Sprintf(
						"tasks %q and %q both declare overlapping pattern %q",
						tasks[i].Title, tasks[j].Title, a.Pattern))
				}
			}
		}
	}
	return warnings
}
