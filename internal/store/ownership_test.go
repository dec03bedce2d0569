package store

import (
	"context"
	"testing"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

func TestAddFileOwnershipUpsertsType(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	g := mustGroup(t, s)
	task := &models.Task{GroupID: g.ID, Sequence: 1, Title: "a"}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}

	if err := s.AddFileOwnership(ctx, &models.TaskFileOwnership{
		TaskID: task.ID, FilePattern: "src/api/**", OwnershipType: models.OwnershipShared,
	}); err != nil {
		t.Fatalf("AddFileOwnership failed: %v", err)
	}
	if err := s.AddFileOwnership(ctx, &models.TaskFileOwnership{
		TaskID: task.ID, FilePattern: "src/api/**", OwnershipType: models.OwnershipExclusive,
	}); err != nil {
		t.Fatalf("AddFileOwnership upsert failed: %v", err)
	}

	got, err := s.GetFileOwnership(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetFileOwnership failed: %v", err)
	}
	if len(got) != 1 || got[0].OwnershipType != models.OwnershipExclusive {
		t.Fatalf("expected exactly one upserted exclusive pattern, got %+v", got)
	}
}

func TestGetGroupFileOwnershipExcludesGivenTask(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	g := mustGroup(t, s)
	a := &models.Task{GroupID: g.ID, Sequence: 1, Title: "a"}
	b := &models.Task{GroupID: g.ID, Sequence: 2, Title: "b"}
	if err := s.CreateTask(ctx, a); err != nil {
		t.Fatalf("failed to seed a: %v", err)
	}
	if err := s.CreateTask(ctx, b); err != nil {
		t.Fatalf("failed to seed b: %v", err)
	}
	if err := s.AddFileOwnership(ctx, &models.TaskFileOwnership{TaskID: a.ID, FilePattern: "src/a/**", OwnershipType: models.OwnershipExclusive}); err != nil {
		t.Fatalf("failed to seed ownership: %v", err)
	}
	if err := s.AddFileOwnership(ctx, &models.TaskFileOwnership{TaskID: b.ID, FilePattern: "src/b/**", OwnershipType: models.OwnershipExclusive}); err != nil {
		t.Fatalf("failed to seed ownership: %v", err)
	}

	got, err := s.GetGroupFileOwnership(ctx, g.ID, a.ID)
	if err != nil {
		t.Fatalf("GetGroupFileOwnership failed: %v", err)
	}
	if len(got) != 1 || got[0].TaskID != b.ID {
		t.Fatalf("expected only b's ownership, got %+v", got)
	}
}
