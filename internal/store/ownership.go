package store

import (
	"context"
	"fmt"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// AddFileOwnership declares a file pattern for a task. A repeated
// declaration of the same pattern replaces its ownership type.
func (s *Store) AddFileOwnership(ctx context.Context, o *models.TaskFileOwnership) error {
	return addFileOwnership(ctx, s.db, o)
}

func addFileOwnership(ctx context.Context, exec executor, o *models.TaskFileOwnership) error {
	query := `
		INSERT INTO task_file_ownership (task_id, file_pattern, ownership_type)
		VALUES (?, ?, ?)
		ON CONFLICT (task_id, file_pattern) DO UPDATE SET ownership_type = excluded.ownership_type
	`
	if _, err := exec.ExecContext(ctx, query, o.TaskID, o.FilePattern, o.OwnershipType); err != nil {
		return fmt.Errorf("failed to add file ownership: %w", err)
	}
	return nil
}

// GetFileOwnership returns every pattern a task has declared.
func (s *Store) GetFileOwnership(ctx context.Context, taskID string) ([]models.TaskFileOwnership, error) {
	query := `SELECT task_id, file_pattern, ownership_type FROM task_file_ownership WHERE task_id = ?`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file ownership: %w", err)
	}
	defer rows.Close()

	var out []models.TaskFileOwnership
	for rows.Next() {
		var o models.TaskFileOwnership
		if err := rows.Scan(&o.TaskID, &o.FilePattern, &o.OwnershipType); err != nil {
			return nil, fmt.Errorf("failed to scan file ownership: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// GetGroupFileOwnership returns every declared pattern across a group,
// excluding a given task, in the shape the Ownership engine expects for
// cross-task conflict checks.
func (s *Store) GetGroupFileOwnership(ctx context.Context, groupID, excludeTaskID string) ([]models.TaskFileOwnership, error) {
	query := `
		SELECT o.task_id, o.file_pattern, o.ownership_type
		FROM task_file_ownership o
		JOIN tasks t ON t.id = o.task_id
		WHERE t.group_id = ? AND o.task_id != ?
	`
	rows, err := s.db.QueryContext(ctx, query, groupID, excludeTaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group file ownership: %w", err)
	}
	defer rows.Close()

	var out []models.TaskFileOwnership
	for rows.Next() {
		var o models.TaskFileOwnership
		if err := rows.Scan(&o.TaskID, &o.FilePattern, &o.OwnershipType); err != nil {
			return nil, fmt.Errorf("failed to scan file ownership: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
