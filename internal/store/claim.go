package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// ClaimResult reports the outcome of the atomic pending->assigned
// transition attempted by ClaimTask.
type ClaimResult struct {
	// NotFound is set when no task with the given id exists.
	NotFound bool
	// Claimed is true iff this call performed the transition.
	Claimed bool
	// Task is the task's state as observed inside the transaction: the
	// pre-transition state if Claimed is false, the post-transition
	// state if Claimed is true.
	Task *models.Task
}

// ClaimTask attempts the pending->assigned transition for taskID inside
// a single write transaction, appending a claimed progress entry on
// success. Two concurrent ClaimTask calls on the same task linearize:
// exactly one observes status=pending and performs the transition, the
// other observes the post-write state and reports Claimed=false.
func (s *Store) ClaimTask(ctx context.Context, taskID, agentID string) (ClaimResult, error) {
	var result ClaimResult

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := getTask(ctx, tx, taskID)
		if err != nil {
			return fmt.Errorf("failed to load task: %w", err)
		}
		if t == nil {
			result = ClaimResult{NotFound: true}
			return nil
		}
		if t.Status != models.TaskStatusPending {
			result = ClaimResult{Task: t}
			return nil
		}

		status := models.TaskStatusAssigned
		assignedTo := &agentID
		updated, err := updateTask(ctx, tx, taskID, TaskUpdate{
			Status:     &status,
			AssignedTo: &assignedTo,
		})
		if err != nil {
			return fmt.Errorf("failed to assign task: %w", err)
		}

		if err := appendProgress(ctx, tx, &models.ProgressLog{
			TaskID:  taskID,
			Event:   models.ProgressEventClaimed,
			Message: fmt.Sprintf("claimed by %s", agentID),
		}); err != nil {
			return fmt.Errorf("failed to log claim: %w", err)
		}

		result = ClaimResult{Claimed: true, Task: updated}
		return nil
	})
	if err != nil {
		return ClaimResult{}, err
	}
	return result, nil
}
