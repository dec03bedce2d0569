package store

import (
	"context"
	"testing"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

func TestAddDependencyIsIdempotent(t *testing.T) {
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

	for i := 0; i < 3; i++ {
		if err := s.AddDependency(ctx, b.ID, a.ID); err != nil {
			t.Fatalf("AddDependency call %d failed: %v", i, err)
		}
	}

	deps, err := s.GetDependencies(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetDependencies failed: %v", err)
	}
	if len(deps) != 1 || deps[0].ID != a.ID {
		t.Fatalf("expected exactly one dependency on a, got %+v", deps)
	}
}

func TestGetDependentsReverseDirection(t *testing.T) {
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
	if err := s.AddDependency(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}

	dependents, err := s.GetDependents(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetDependents failed: %v", err)
	}
	if len(dependents) != 1 || dependents[0].ID != b.ID {
		t.Fatalf("expected b to depend on a, got %+v", dependents)
	}
}

func TestGetGroupDependencyMapIncludesIsolatedNodes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	g := mustGroup(t, s)
	a := &models.Task{GroupID: g.ID, Sequence: 1, Title: "a"}
	b := &models.Task{GroupID: g.ID, Sequence: 2, Title: "b"}
	c := &models.Task{GroupID: g.ID, Sequence: 3, Title: "c"}
	for _, task := range []*models.Task{a, b, c} {
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("failed to seed task: %v", err)
		}
	}
	if err := s.AddDependency(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}

	deps, err := s.GetGroupDependencyMap(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGroupDependencyMap failed: %v", err)
	}
	if len(deps) != 3 {
		t.Fatalf("expected all 3 tasks represented, got %d", len(deps))
	}
	if _, ok := deps[c.ID]; !ok {
		t.Fatalf("expected isolated task c to appear with no prerequisites")
	}
	if len(deps[b.ID]) != 1 || deps[b.ID][0] != a.ID {
		t.Fatalf("expected b to depend on a, got %v", deps[b.ID])
	}
}
