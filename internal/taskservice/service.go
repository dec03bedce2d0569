// Package taskservice implements the task state machine: the nine
// operations a client session invokes, each composing the Store, the
// DAG engine, the Ownership engine, and the Git driver into one
// coherent transition.
package taskservice

import (
	"context"
	"fmt"

	"github.com/kestrel-dev/taskmesh/internal/gitdriver"
	"github.com/kestrel-dev/taskmesh/internal/store"
)

// GitDriver is the subset of *gitdriver.Driver the service depends on.
// Tests substitute a fake to avoid shelling out to a real git binary.
type GitDriver interface {
	CreateWorktree(ctx context.Context, path, branch, trunk string) error
	RemoveWorktree(ctx context.Context, path string, force bool) error
	WorktreeExists(ctx context.Context, path string) (bool, error)
	DeleteBranch(ctx context.Context, branch string, force bool) error
	CurrentBranch(ctx context.Context, dir string) (string, error)
	TrunkBranch(ctx context.Context) (string, error)
	OnTrunk(ctx context.Context, dir string) (bool, error)
	TrunkAheadOf(ctx context.Context, trunk, branch string) (bool, error)
	Merge(ctx context.Context, dir, trunk, branch string, strategy gitdriver.MergeStrategy) error
	AbortMerge(ctx context.Context, dir string) error
	ConflictedPaths(ctx context.Context, dir string) ([]string, error)
	LatestCommit(ctx context.Context, branch string) (string, error)
}

// Service is the only component the transport layer invokes.
type Service struct {
	store    *store.Store
	git      GitDriver
	repoRoot string
}

// New builds a Service. repoRoot is the git repository root that
// worktrees and branches are created against.
func New(st *store.Store, git GitDriver, repoRoot string) *Service {
	return &Service{store: st, git: git, repoRoot: repoRoot}
}

// PreconditionError is a hard precondition violation: the caller invoked
// an operation in a state where it makes no sense. It is always
// returned as a Go error (as opposed to claim_task's soft failure,
// which never becomes an error).
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

func preconditionf(format string, args ...any) error {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}
