package taskservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

// ClaimTask guards the pending->assigned transition. Every precondition
// failure is reported as ClaimResult{Success:false}, never as a Go
// error, so a losing worker can simply try another task.
func (s *Service) ClaimTask(ctx context.Context, id string, agentID *string) (*ClaimResult, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return &ClaimResult{Success: false, Error: fmt.Sprintf("task %s not found", id)}, nil
	}
	if task.Status != models.TaskStatusPending {
		return &ClaimResult{Success: false, Error: fmt.Sprintf("task is %s, not pending", task.Status), Task: task}, nil
	}

	deps, err := s.store.GetDependencies(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	var unmet []string
	for _, d := range deps {
		if d.Status != models.TaskStatusCompleted {
			unmet = append(unmet, fmt.Sprintf("task %d (%s)", d.Sequence, d.Status))
		}
	}
	if len(unmet) > 0 {
		return &ClaimResult{
			Success: false,
			Error:   fmt.Sprintf("unmet dependencies: %s", strings.Join(unmet, ", ")),
			Task:    task,
		}, nil
	}

	conflicts, err := s.store.FindOwnershipConflicts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check ownership conflicts: %w", err)
	}
	if len(conflicts) > 0 {
		return &ClaimResult{
			Success: false,
			Error:   fmt.Sprintf("file pattern %q is already held by an in-progress task", conflicts[0].Pattern),
			Task:    task,
		}, nil
	}

	resolvedAgent := ""
	if agentID != nil && *agentID != "" {
		resolvedAgent = *agentID
	} else {
		resolvedAgent = generateAgentID()
	}

	result, err := s.store.ClaimTask(ctx, id, resolvedAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}
	if result.NotFound {
		return &ClaimResult{Success: false, Error: fmt.Sprintf("task %s not found", id)}, nil
	}
	if !result.Claimed {
		return &ClaimResult{
			Success: false,
			Error:   fmt.Sprintf("task is %s, not pending", result.Task.Status),
			Task:    result.Task,
		}, nil
	}

	return &ClaimResult{Success: true, Task: result.Task}, nil
}

func generateAgentID() string {
	return "agent-" + uuid.New().String()[:8]
}
