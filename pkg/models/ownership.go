package models

// OwnershipType marks whether a worker's declared interest in a file
// pattern forbids other workers from touching matching files.
type OwnershipType string

const (
	OwnershipExclusive OwnershipType = "exclusive"
	OwnershipShared    OwnershipType = "shared"
)

// TaskFileOwnership is a worker's declared interest in a file region,
// unique per (TaskID, FilePattern).
type TaskFileOwnership struct {
	TaskID        string        `json:"task_id"`
	FilePattern   string        `json:"file_pattern"`
	OwnershipType OwnershipType `json:"ownership_type"`
}

// OwnershipConflict is one pattern declared identically by a task and
// by another task currently in progress.
type OwnershipConflict struct {
	OtherTaskID   string        `json:"other_task_id"`
	Pattern       string        `json:"pattern"`
	OwnershipType OwnershipType `json:"ownership_type"`
}
