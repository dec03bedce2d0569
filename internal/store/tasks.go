package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// CreateTask inserts a new task. If t.ID is empty a UUID is generated.
// Rejects a duplicate id or a sequence collision within the group via
// the schema's PRIMARY KEY / UNIQUE constraints.
func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	return createTask(ctx, s.db, t)
}

func createTask(ctx context.Context, exec executor, t *models.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = models.TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = models.TaskPriorityMedium
	}

	query := `
		INSERT INTO tasks (id, group_id, sequence, title, description, status, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at
	`
	err := exec.QueryRowContext(ctx, query,
		t.ID, t.GroupID, t.Sequence, t.Title, t.Description, t.Status, t.Priority,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

const taskColumns = `
	id, group_id, sequence, title, description, status, priority,
	assigned_to, branch_name, worktree_path, progress, progress_note,
	created_at, started_at, completed_at, merged_at
`

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	t := &models.Task{}
	err := row.Scan(
		&t.ID, &t.GroupID, &t.Sequence, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.AssignedTo, &t.BranchName, &t.WorktreePath, &t.Progress, &t.ProgressNote,
		&t.CreatedAt, &t.StartedAt, &t.CompletedAt, &t.MergedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTask retrieves a task by id, returning (nil, nil) if absent.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return getTask(ctx, s.db, id)
}

func getTask(ctx context.Context, exec executor, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	t, err := scanTask(exec.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// GetTaskByGroupSequence retrieves a task by its 1-based sequence within
// a group.
func (s *Store) GetTaskByGroupSequence(ctx context.Context, groupID string, sequence int) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE group_id = ? AND sequence = ?`
	t, err := scanTask(s.db.QueryRowContext(ctx, query, groupID, sequence))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task by sequence: %w", err)
	}
	return t, nil
}

// TaskFilter narrows ListTasks. A nil field means "no filter on that
// dimension".
type TaskFilter struct {
	GroupID *string
	Status  map[models.TaskStatus]bool
}

// ListTasks returns matching tasks ordered by sequence ascending.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any

	if filter.GroupID != nil {
		query += ` AND group_id = ?`
		args = append(args, *filter.GroupID)
	}
	if len(filter.Status) > 0 {
		query += ` AND status IN (`
		first := true
		for st := range filter.Status {
			if !first {
				query += `,`
			}
			first = false
			query += `?`
			args = append(args, st)
		}
		query += `)`
	}
	query += ` ORDER BY sequence ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
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

// TaskUpdate is a sparse field set for UpdateTask. Nil pointer fields
// are left unmodified; an entirely nil TaskUpdate is a no-op that
// returns the current state unchanged.
type TaskUpdate struct {
	Status       *models.TaskStatus
	AssignedTo   **string
	BranchName   **string
	WorktreePath **string
	Progress     *int
	ProgressNote **string
	StartedAt    **sqlNullTime
	CompletedAt  **sqlNullTime
	MergedAt     **sqlNullTime
}

// sqlNullTime is a small helper so TaskUpdate can express "set to this
// time" without importing database/sql's NullTime awkwardness into
// callers; store code unwraps it before hitting SQL.
type sqlNullTime = timeValue

// UpdateTask applies only the provided fields. A no-op call (all fields
// nil) returns the current state unchanged.
func (s *Store) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*models.Task, error) {
	return updateTask(ctx, s.db, id, upd)
}

func updateTask(ctx context.Context, exec executor, id string, upd TaskUpdate) (*models.Task, error) {
	sets := []string{}
	var args []any

	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *upd.AssignedTo)
	}
	if upd.BranchName != nil {
		sets = append(sets, "branch_name = ?")
		args = append(args, *upd.BranchName)
	}
	if upd.WorktreePath != nil {
		sets = append(sets, "worktree_path = ?")
		args = append(args, *upd.WorktreePath)
	}
	if upd.Progress != nil {
		sets = append(sets, "progress = ?")
		args = append(args, *upd.Progress)
	}
	if upd.ProgressNote != nil {
		sets = append(sets, "progress_note = ?")
		args = append(args, *upd.ProgressNote)
	}
	if upd.StartedAt != nil {
		sets = append(sets, "started_at = ?")
		args = append(args, (*upd.StartedAt).sqlValue())
	}
	if upd.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, (*upd.CompletedAt).sqlValue())
	}
	if upd.MergedAt != nil {
		sets = append(sets, "merged_at = ?")
		args = append(args, (*upd.MergedAt).sqlValue())
	}

	if len(sets) == 0 {
		return getTask(ctx, exec, id)
	}

	query := "UPDATE tasks SET " + joinComma(sets) + " WHERE id = ?"
	args = append(args, id)

	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return getTask(ctx, exec, id)
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// FindOwnershipConflicts returns every (other_task_id, pattern,
// ownership_type) where pattern is held identically by taskID and by
// some other task currently in_progress. Non-identical overlap is the
// Ownership engine's concern, not the Store's.
func (s *Store) FindOwnershipConflicts(ctx context.Context, taskID string) ([]models.OwnershipConflict, error) {
	query := `
		SELECT o2.task_id, o2.file_pattern, o2.ownership_type
		FROM task_file_ownership o1
		JOIN task_file_ownership o2 ON o1.file_pattern = o2.file_pattern AND o1.task_id != o2.task_id
		JOIN tasks t ON t.id = o2.task_id
		WHERE o1.task_id = ? AND t.status = 'in_progress'
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find ownership conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []models.OwnershipConflict
	for rows.Next() {
		var c models.OwnershipConflict
		if err := rows.Scan(&c.OtherTaskID, &c.Pattern, &c.OwnershipType); err != nil {
			return nil, fmt.Errorf("failed to scan ownership conflict: %w", err)
		}
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return conflicts, nil
}
