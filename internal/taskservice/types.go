package taskservice

import "github.com/kestrel-dev/taskmesh/pkg/models"

// GroupMeta is the group-level input to CreateTasks.
type GroupMeta struct {
	Title       string
	Description string
}

// FilePatternInput is one declared file interest attached to a task
// being created.
type FilePatternInput struct {
	Pattern string
	Type    models.OwnershipType
}

// TaskInput is one task within a CreateTasks call. DependsOn holds
// 1-based sequence numbers within the same batch, not task ids.
type TaskInput struct {
	Title        string
	Description  string
	Priority     models.TaskPriority
	DependsOn    []int
	FilePatterns []FilePatternInput
}

// CreateTasksInput is the full CreateTasks request.
type CreateTasksInput struct {
	Group GroupMeta
	Tasks []TaskInput
}

// CreateTasksResult is the CreateTasks response.
type CreateTasksResult struct {
	Group    *models.TaskGroup
	Tasks    []*models.TaskSummary
	Warnings []string
}

// ListFilter narrows ListTasks.
type ListFilter struct {
	GroupID *string
	Status  map[models.TaskStatus]bool
}

// StatusCounts is the per-status tally ListTasks reports alongside the
// matching tasks.
type StatusCounts struct {
	Total      int
	Pending    int
	InProgress int
	InReview   int
	Completed  int
	Blocked    int
}

// ListTasksResult is the ListTasks response.
type ListTasksResult struct {
	Tasks  []*models.TaskSummary
	Counts StatusCounts
}

// DependencyRef is the sequence/title/status projection GetTask reports
// for a prerequisite.
type DependencyRef struct {
	Sequence int
	Title    string
	Status   models.TaskStatus
}

// GetTaskResult is the GetTask response.
type GetTaskResult struct {
	Task          *models.Task
	Dependencies  []DependencyRef
	FileOwnership []models.TaskFileOwnership
	ProgressLog   []*models.ProgressLog
}

// ClaimResult is the ClaimTask response. Precondition failures are
// reported here, not as a Go error, per the soft-failure contract.
type ClaimResult struct {
	Success bool
	Error   string
	Task    *models.Task
}

// StartTaskResult is the StartTask response, including worker-facing
// context for the newly started task.
type StartTaskResult struct {
	Task                *models.Task
	FilePatterns        []models.TaskFileOwnership
	CompletedPrereqRefs []CompletedPrereqRef
}

// CompletedPrereqRef names a completed prerequisite for code-reference
// hints handed to the worker starting a dependent task.
type CompletedPrereqRef struct {
	Title      string
	BranchName string
}

// ConflictWarning is a human-readable file-ownership warning.
type ConflictWarning struct {
	File    string
	TaskID  string
	Message string
}

// UpdateProgressResult is the UpdateProgress response.
type UpdateProgressResult struct {
	Task              *models.Task
	ConflictWarnings  []ConflictWarning
	RebaseRecommended bool
}

// CompleteTaskResult is the CompleteTask response.
type CompleteTaskResult struct {
	Task     *models.Task
	Unlocked []*models.TaskSummary
}

// MergeResult labels the outcome of MergeTask.
type MergeResult string

const (
	MergeResultClean    MergeResult = "clean"
	MergeResultConflict MergeResult = "conflict"
)

// ConflictedPath describes one file merge_task could not resolve
// automatically.
type ConflictedPath struct {
	Path           string
	Description    string
	Suggestion     string
	AutoResolvable bool
}

// MergeTaskResult is the MergeTask response.
type MergeTaskResult struct {
	Task      *models.Task
	Result    MergeResult
	Conflicts []ConflictedPath
	Unlocked  []*models.TaskSummary
}

// CleanupOutcome reports what best-effort cleanup managed to do.
type CleanupOutcome struct {
	WorktreeRemoved bool
	WorktreeError   string
	BranchDeleted   bool
	BranchError     string
}

// CleanupTaskResult is the CleanupTask response.
type CleanupTaskResult struct {
	Task    *models.Task
	Cleaned CleanupOutcome
}
