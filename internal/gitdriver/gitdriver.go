// Package gitdriver wraps the git CLI operations the Task service needs
// to isolate a task in its own worktree and integrate finished work back
// into trunk.
package gitdriver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// MergeStrategy selects how a finished task's branch is folded into
// trunk.
type MergeStrategy string

const (
	MergeStrategyMerge  MergeStrategy = "merge"
	MergeStrategySquash MergeStrategy = "squash"
)

// ErrMergeConflict is returned by Merge when git reports unmerged paths.
// The caller decides whether to AbortMerge or leave the tree for manual
// resolution.
var ErrMergeConflict = errors.New("gitdriver: merge produced conflicts")

// Driver runs git commands against a repository root. cmdFactory is
// swappable so tests can stub process execution without a real git
// binary on the invocation path they want to control.
type Driver struct {
	repoRoot   string
	cmdFactory func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// New returns a Driver rooted at repoRoot, which must be the top level
// of a git working tree (as reported by `git rev-parse --show-toplevel`).
func New(repoRoot string) *Driver {
	return &Driver{
		repoRoot:   repoRoot,
		cmdFactory: exec.CommandContext,
	}
}

// RepoRoot resolves the top-level directory of the git repository
// containing dir.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("gitdriver: resolve repo root: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (d *Driver) run(ctx context.Context, args ...string) (string, error) {
	cmd := d.cmdFactory(ctx, "git", args...)
	cmd.Dir = d.repoRoot
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("gitdriver: git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// CreateWorktree adds a new worktree at path on a fresh branch named
// branch, based on trunk.
func (d *Driver) CreateWorktree(ctx context.Context, path, branch, trunk string) error {
	_, err := d.run(ctx, "worktree", "add", "-b", branch, path, trunk)
	return err
}

// RemoveWorktree removes a worktree, discarding any uncommitted changes
// in it when force is set.
func (d *Driver) RemoveWorktree(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, err := d.run(ctx, args...)
	return err
}

// WorktreeExists reports whether path is a currently registered worktree.
func (d *Driver) WorktreeExists(ctx context.Context, path string) (bool, error) {
	out, err := d.run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "worktree ") && strings.TrimPrefix(line, "worktree ") == path {
			return true, nil
		}
	}
	return false, nil
}

// DeleteBranch deletes a local branch. force allows deleting an
// unmerged branch.
func (d *Driver) DeleteBranch(ctx context.Context, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := d.run(ctx, "branch", flag, branch)
	return err
}

// CurrentBranch returns the branch checked out at dir.
func (d *Driver) CurrentBranch(ctx context.Context, dir string) (string, error) {
	cmd := d.cmdFactory(ctx, "git", "-C", dir, "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("gitdriver: current branch: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// OnTrunk reports whether dir is currently checked out to the trunk
// branch (main or master).
func (d *Driver) OnTrunk(ctx context.Context, dir string) (bool, error) {
	trunk, err := d.TrunkBranch(ctx)
	if err != nil {
		return false, err
	}
	current, err := d.CurrentBranch(ctx, dir)
	if err != nil {
		return false, err
	}
	return current == trunk, nil
}

// LatestCommit returns the short hash of the branch tip.
func (d *Driver) LatestCommit(ctx context.Context, branch string) (string, error) {
	out, err := d.run(ctx, "rev-parse", "--short", branch)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// TrunkBranch returns whichever of "main" or "master" exists locally.
func (d *Driver) TrunkBranch(ctx context.Context) (string, error) {
	for _, candidate := range []string{"main", "master"} {
		if _, err := d.run(ctx, "rev-parse", "--verify", candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("gitdriver: no main or master branch found")
}

// TrunkAheadOf reports whether trunk has commits that branch lacks,
// meaning branch needs a rebase before it can merge cleanly.
func (d *Driver) TrunkAheadOf(ctx context.Context, trunk, branch string) (bool, error) {
	out, err := d.run(ctx, "rev-list", "--count", branch+".."+trunk)
	if err != nil {
		return false, err
	}
	count := strings.TrimSpace(out)
	return count != "0" && count != "", nil
}

// Merge folds branch into trunk, running in dir — expected to already
// be checked out to trunk; the caller's session is responsible for
// that precondition, not this method. Returns ErrMergeConflict if
// conflicts arise; the working tree is left in the conflicted state for
// the caller to inspect or abort.
func (d *Driver) Merge(ctx context.Context, dir, trunk, branch string, strategy MergeStrategy) error {
	mergeArgs := []string{"merge", "--no-edit"}
	if strategy == MergeStrategySquash {
		mergeArgs = append(mergeArgs, "--squash")
	}
	mergeArgs = append(mergeArgs, branch)

	if _, err := d.runIn(ctx, dir, mergeArgs...); err != nil {
		if d.hasUnmergedPaths(ctx, dir) {
			return ErrMergeConflict
		}
		return err
	}

	if strategy == MergeStrategySquash {
		if _, err := d.runIn(ctx, dir, "commit", "-m", "squash merge "+branch); err != nil {
			return err
		}
	}

	return nil
}

// AbortMerge resets an in-progress conflicted merge.
func (d *Driver) AbortMerge(ctx context.Context, dir string) error {
	_, err := d.runIn(ctx, dir, "merge", "--abort")
	return err
}

// ConflictedPaths lists files git currently reports as unmerged in dir.
func (d *Driver) ConflictedPaths(ctx context.Context, dir string) ([]string, error) {
	out, err := d.runIn(ctx, dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func (d *Driver) hasUnmergedPaths(ctx context.Context, dir string) bool {
	paths, err := d.ConflictedPaths(ctx, dir)
	if err != nil {
		return false
	}
	return len(paths) > 0
}

func (d *Driver) runIn(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := d.cmdFactory(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("gitdriver: git %s (in %s): %w: %s", strings.Join(args, " "), dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
