package store

import (
	"context"
	"database/sql"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// Tx exposes the same record operations as Store but runs them against
// an open transaction, letting the Task service compose several writes
// into one atomic unit (e.g. create_tasks materializing a group, its
// tasks, dependencies and file patterns together).
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a BEGIN IMMEDIATE write transaction. A returned
// error rolls back; otherwise the transaction commits.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	return s.withTx(ctx, func(sqlTx *sql.Tx) error {
		return fn(&Tx{tx: sqlTx})
	})
}

func (t *Tx) CreateGroup(ctx context.Context, g *models.TaskGroup) error {
	return createGroup(ctx, t.tx, g)
}

func (t *Tx) CreateTask(ctx context.Context, task *models.Task) error {
	return createTask(ctx, t.tx, task)
}

func (t *Tx) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return getTask(ctx, t.tx, id)
}

func (t *Tx) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*models.Task, error) {
	return updateTask(ctx, t.tx, id, upd)
}

func (t *Tx) AddDependency(ctx context.Context, taskID, dependsOn string) error {
	return addDependency(ctx, t.tx, taskID, dependsOn)
}

func (t *Tx) AddFileOwnership(ctx context.Context, o *models.TaskFileOwnership) error {
	return addFileOwnership(ctx, t.tx, o)
}

func (t *Tx) AppendProgress(ctx context.Context, p *models.ProgressLog) error {
	return appendProgress(ctx, t.tx, p)
}
