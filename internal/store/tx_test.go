package store

import (
	"context"
	"errors"
	"testing"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

func TestWithTxCommitsOnSuccess(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var groupID string
	err := s.WithTx(ctx, func(tx *Tx) error {
		g := &models.TaskGroup{Title: "batch"}
		if err := tx.CreateGroup(ctx, g); err != nil {
			return err
		}
		groupID = g.ID

		task := &models.Task{GroupID: g.ID, Sequence: 1, Title: "a"}
		return tx.CreateTask(ctx, task)
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	got, err := s.GetGroup(ctx, groupID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got == nil {
		t.Fatalf("expected the group to be committed")
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var groupID string
	sentinel := errors.New("boom")
	err := s.WithTx(ctx, func(tx *Tx) error {
		g := &models.TaskGroup{Title: "batch"}
		if err := tx.CreateGroup(ctx, g); err != nil {
			return err
		}
		groupID = g.ID
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the sentinel error, got %v", err)
	}

	got, err := s.GetGroup(ctx, groupID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected the group to be rolled back, got %+v", got)
	}
}

func TestTxComposesDependencyAndOwnershipWrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var aID, bID string
	err := s.WithTx(ctx, func(tx *Tx) error {
		g := &models.TaskGroup{Title: "batch"}
		if err := tx.CreateGroup(ctx, g); err != nil {
			return err
		}
		a := &models.Task{GroupID: g.ID, Sequence: 1, Title: "a"}
		b := &models.Task{GroupID: g.ID, Sequence: 2, Title: "b"}
		if err := tx.CreateTask(ctx, a); err != nil {
			return err
		}
		if err := tx.CreateTask(ctx, b); err != nil {
			return err
		}
		aID, bID = a.ID, b.ID
		if err := tx.AddDependency(ctx, b.ID, a.ID); err != nil {
			return err
		}
		return tx.AddFileOwnership(ctx, &models.TaskFileOwnership{
			TaskID: a.ID, FilePattern: "src/**", OwnershipType: models.OwnershipExclusive,
		})
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	deps, err := s.GetDependencies(ctx, bID)
	if err != nil {
		t.Fatalf("GetDependencies failed: %v", err)
	}
	if len(deps) != 1 || deps[0].ID != aID {
		t.Fatalf("expected b to depend on a, got %+v", deps)
	}

	ownership, err := s.GetFileOwnership(ctx, aID)
	if err != nil {
		t.Fatalf("GetFileOwnership failed: %v", err)
	}
	if len(ownership) != 1 {
		t.Fatalf("expected one ownership record, got %+v", ownership)
	}
}
