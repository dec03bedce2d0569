package taskservice

import (
	"context"

	"github.com/kestrel-dev/taskmesh/internal/gitdriver"
)

// fakeGit is a hand-rolled stand-in for *gitdriver.Driver, letting
// tests drive the Task service without shelling out to a real git
// binary.
type fakeGit struct {
	trunk string

	worktrees map[string]bool
	branches  map[string]bool

	currentBranch string

	mergeConflict   bool
	conflictedPaths []string
	mergeErr        error
	trunkAhead      bool

	createWorktreeErr error
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		trunk:         "main",
		currentBranch: "main",
		worktrees:     map[string]bool{},
		branches:      map[string]bool{},
	}
}

func (f *fakeGit) CreateWorktree(ctx context.Context, path, branch, trunk string) error {
	if f.createWorktreeErr != nil {
		return f.createWorktreeErr
	}
	f.worktrees[path] = true
	f.branches[branch] = true
	return nil
}

func (f *fakeGit) RemoveWorktree(ctx context.Context, path string, force bool) error {
	if !f.worktrees[path] {
		return errNoSuchWorktree
	}
	delete(f.worktrees, path)
	return nil
}

func (f *fakeGit) WorktreeExists(ctx context.Context, path string) (bool, error) {
	return f.worktrees[path], nil
}

func (f *fakeGit) DeleteBranch(ctx context.Context, branch string, force bool) error {
	delete(f.branches, branch)
	return nil
}

func (f *fakeGit) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return f.currentBranch, nil
}

func (f *fakeGit) TrunkBranch(ctx context.Context) (string, error) {
	return f.trunk, nil
}

func (f *fakeGit) OnTrunk(ctx context.Context, dir string) (bool, error) {
	return f.currentBranch == f.trunk, nil
}

func (f *fakeGit) TrunkAheadOf(ctx context.Context, trunk, branch string) (bool, error) {
	return f.trunkAhead, nil
}

func (f *fakeGit) Merge(ctx context.Context, dir, trunk, branch string, strategy gitdriver.MergeStrategy) error {
	if f.mergeConflict {
		return gitdriver.ErrMergeConflict
	}
	return f.mergeErr
}

func (f *fakeGit) AbortMerge(ctx context.Context, dir string) error {
	return nil
}

func (f *fakeGit) ConflictedPaths(ctx context.Context, dir string) ([]string, error) {
	return f.conflictedPaths, nil
}

func (f *fakeGit) LatestCommit(ctx context.Context, branch string) (string, error) {
	return "abc1234", nil
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errNoSuchWorktree = sentinelErr("fakeGit: no such worktree")
