package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// CreateGroup inserts a new task group. If g.ID is empty a UUID is
// generated. Status defaults to active.
func (s *Store) CreateGroup(ctx context.Context, g *models.TaskGroup) error {
	return createGroup(ctx, s.db, g)
}

func createGroup(ctx context.Context, exec executor, g *models.TaskGroup) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.Status == "" {
		g.Status = models.TaskGroupStatusActive
	}

	query := `
		INSERT INTO task_groups (id, title, description, status)
		VALUES (?, ?, ?, ?)
		RETURNING created_at
	`
	err := exec.QueryRowContext(ctx, query, g.ID, g.Title, g.Description, g.Status).Scan(&g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by id, returning (nil, nil) if absent.
func (s *Store) GetGroup(ctx context.Context, id string) (*models.TaskGroup, error) {
	query := `SELECT id, title, description, status, created_at FROM task_groups WHERE id = ?`
	g := &models.TaskGroup{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.Title, &g.Description, &g.Status, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}
