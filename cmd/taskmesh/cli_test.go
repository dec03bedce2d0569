package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// withTempStore points the package-level dbPath/repoRoot at a fresh temp
// directory and restores them afterward, mirroring the teacher's
// setupTestDB fixture.
func withTempStore(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	originalDBPath, originalRepoRoot, originalMaxWorkers := dbPath, repoRoot, maxWorkers
	t.Cleanup(func() {
		dbPath, repoRoot, maxWorkers = originalDBPath, originalRepoRoot, originalMaxWorkers
	})

	dbPath = filepath.Join(tmpDir, ".tasks", "tasks.db")
	repoRoot = tmpDir
	maxWorkers = 0
	return tmpDir
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), runErr
}

func TestRunInitCreatesTaskStore(t *testing.T) {
	tmpDir := withTempStore(t)

	output, err := captureStdout(t, func() error { return runInit(nil) })
	if err != nil {
		t.Fatalf("runInit failed: %v", err)
	}
	if !strings.Contains(output, "Initialized task store") {
		t.Errorf("expected confirmation output, got: %s", output)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, ".tasks", "tasks.db")); err != nil {
		t.Errorf("expected the store file to exist: %v", err)
	}
}

func TestRunStatusReportsEmptyStore(t *testing.T) {
	withTempStore(t)
	maxWorkers = 5

	output, err := captureStdout(t, func() error { return runStatus(nil) })
	if err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if !strings.Contains(output, "Groups:            0") {
		t.Errorf("expected zero groups in a fresh store, got: %s", output)
	}
	if !strings.Contains(output, "Suggested workers: 5") {
		t.Errorf("expected the configured max workers to be reported, got: %s", output)
	}
}
