package taskservice

import (
	"context"
	"testing"

	"github.com/kestrel-dev/taskmesh/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store, *fakeGit) {
	t.Helper()
	st, err := store.OpenForTest()
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	git := newFakeGit()
	svc := New(st, git, "/repo")
	return svc, st, git
}
