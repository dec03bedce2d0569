package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// AppendProgress inserts a progress log entry. If p.ID is empty a UUID
// is generated. Metadata is round-tripped through JSON text.
func (s *Store) AppendProgress(ctx context.Context, p *models.ProgressLog) error {
	return appendProgress(ctx, s.db, p)
}

func appendProgress(ctx context.Context, exec executor, p *models.ProgressLog) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	var metadataJSON any
	if p.Metadata != nil {
		b, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal progress metadata: %w", err)
		}
		metadataJSON = string(b)
	}

	query := `
		INSERT INTO progress_logs (id, task_id, event, message, metadata)
		VALUES (?, ?, ?, ?, ?)
		RETURNING timestamp
	`
	err := exec.QueryRowContext(ctx, query, p.ID, p.TaskID, p.Event, p.Message, metadataJSON).Scan(&p.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append progress: %w", err)
	}
	return nil
}

// ListProgress returns every log entry for a task, oldest first.
func (s *Store) ListProgress(ctx context.Context, taskID string) ([]*models.ProgressLog, error) {
	query := `
		SELECT id, task_id, timestamp, event, message, metadata
		FROM progress_logs
		WHERE task_id = ?
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	var out []*models.ProgressLog
	for rows.Next() {
		p := &models.ProgressLog{}
		var metadataJSON sql.NullString
		if err := rows.Scan(&p.ID, &p.TaskID, &p.Timestamp, &p.Event, &p.Message, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan progress log: %w", err)
		}
		if metadataJSON.Valid {
			if err := json.Unmarshal([]byte(metadataJSON.String), &p.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal progress metadata: %w", err)
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
