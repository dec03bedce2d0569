package store

import (
	"context"
	"fmt"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// Summary is the aggregate view the status CLI and watch dashboard poll.
type Summary struct {
	GroupCount int
	TaskCount  int
	ByStatus   map[models.TaskStatus]int
	Order      []models.TaskStatus
}

var statusOrder = []models.TaskStatus{
	models.TaskStatusPending,
	models.TaskStatusBlocked,
	models.TaskStatusAssigned,
	models.TaskStatusInProgress,
	models.TaskStatusInReview,
	models.TaskStatusCompleted,
	models.TaskStatusFailed,
}

// Summarize counts groups and tasks by status.
func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	sum := &Summary{ByStatus: make(map[models.TaskStatus]int), Order: statusOrder}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM task_groups").Scan(&sum.GroupCount); err != nil {
		return nil, fmt.Errorf("failed to count groups: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&sum.TaskCount); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to tally task status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status tally: %w", err)
		}
		sum.ByStatus[status] = count
	}
	return sum, rows.Err()
}
