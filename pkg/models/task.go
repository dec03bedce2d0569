package models

import "time"

// TaskStatus is the position of a task in the coordinator's state machine.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusInReview   TaskStatus = "in_review"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskPriority ranks tasks for worker claim ordering.
type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityLow    TaskPriority = "low"
)

// Task is one unit of work assignable to a single worker.
type Task struct {
	ID           string       `json:"id"`
	GroupID      string       `json:"group_id"`
	Sequence     int          `json:"sequence"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	AssignedTo   *string      `json:"assigned_to,omitempty"`
	BranchName   *string      `json:"branch_name,omitempty"`
	WorktreePath *string      `json:"worktree_path,omitempty"`
	Progress     int          `json:"progress"`
	ProgressNote *string      `json:"progress_note,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	MergedAt    *time.Time `json:"merged_at,omitempty"`
}

// TaskSummary is the list_tasks/create_tasks projection of a Task
// enriched with graph-derived fields the caller cannot compute itself.
type TaskSummary struct {
	Task      *Task `json:"task"`
	CanStart  bool  `json:"can_start"`
	DependsOn []int `json:"depends_on_sequences,omitempty"`
}
