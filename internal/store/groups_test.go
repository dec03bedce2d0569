package store

import (
	"context"
	"testing"

	"github.com/kestrel-dev/taskmesh/pkg/models"
)

func TestCreateGroupGeneratesIDAndDefaults(t *testing.T) {
	s := openTestStore(t)
	g := &models.TaskGroup{Title: "auth rework", Description: "split auth into tasks"}

	if err := s.CreateGroup(context.Background(), g); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if g.ID == "" {
		t.Fatalf("expected an ID to be generated")
	}
	if g.Status != models.TaskGroupStatusActive {
		t.Errorf("expected default status active, got %s", g.Status)
	}
	if g.CreatedAt.IsZero() {
		t.Errorf("expected created_at to be populated")
	}
}

func TestGetGroupRoundTrip(t *testing.T) {
	s := openTestStore(t)
	g := &models.TaskGroup{Title: "auth rework", Description: "desc"}
	if err := s.CreateGroup(context.Background(), g); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	got, err := s.GetGroup(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got == nil || got.Title != g.Title {
		t.Fatalf("expected round-tripped group %+v, got %+v", g, got)
	}
}

func TestGetGroupMissingReturnsNilNil(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetGroup(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("expected no error for a missing group, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for a missing group, got %+v", got)
	}
}
