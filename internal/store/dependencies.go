package store

import (
	"context"
	"fmt"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// AddDependency idempotently inserts an edge; a duplicate edge collapses
// into the existing row.
func (s *Store) AddDependency(ctx context.Context, taskID, dependsOn string) error {
	return addDependency(ctx, s.db, taskID, dependsOn)
}

func addDependency(ctx context.Context, exec executor, taskID, dependsOn string) error {
	query := `INSERT INTO task_dependencies (task_id, depends_on) VALUES (?, ?)
		ON CONFLICT (task_id, depends_on) DO NOTHING`
	if _, err := exec.ExecContext(ctx, query, taskID, dependsOn); err != nil {
		return fmt.Errorf("failed to add dependency: %w", err)
	}
	return nil
}

// GetDependencies returns the full task records this task depends on,
// ordered by sequence.
func (s *Store) GetDependencies(ctx context.Context, taskID string) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		JOIN task_dependencies d ON t.id = d.depends_on
		WHERE d.task_id = ?
		ORDER BY t.sequence ASC
	`
	return s.queryTasks(ctx, query, taskID)
}

// GetDependents returns the full task records that depend on this task,
// ordered by sequence.
func (s *Store) GetDependents(ctx context.Context, taskID string) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		JOIN task_dependencies d ON t.id = d.task_id
		WHERE d.depends_on = ?
		ORDER BY t.sequence ASC
	`
	return s.queryTasks(ctx, query, taskID)
}

// GetGroupDependencyMap returns the full task -> []prerequisite map for
// every task in a group, in the shape the DAG engine expects.
func (s *Store) GetGroupDependencyMap(ctx context.Context, groupID string) (map[string][]string, error) {
	query := `
		SELECT d.task_id, d.depends_on
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.task_id
		WHERE t.group_id = ?
	`
	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group dependency map: %w", err)
	}
	defer rows.Close()

	deps := make(map[string][]string)
	for rows.Next() {
		var taskID, dependsOn string
		if err := rows.Scan(&taskID, &dependsOn); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		deps[taskID] = append(deps[taskID], dependsOn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	// Ensure every task in the group appears, even with no prerequisites,
	// so the DAG engine sees isolated nodes.
	taskRows, err := s.db.QueryContext(ctx, `SELECT id FROM tasks WHERE group_id = ?`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group task ids: %w", err)
	}
	defer taskRows.Close()
	for taskRows.Next() {
		var id string
		if err := taskRows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan task id: %w", err)
		}
		if _, ok := deps[id]; !ok {
			deps[id] = nil
		}
	}
	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return deps, nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tasks, nil
}
