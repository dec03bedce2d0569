package models

import "time"

// TaskGroupStatus is the lifecycle state of a TaskGroup.
type TaskGroupStatus string

const (
	TaskGroupStatusActive    TaskGroupStatus = "active"
	TaskGroupStatusCompleted TaskGroupStatus = "completed"
	TaskGroupStatusArchived  TaskGroupStatus = "archived"
)

// TaskGroup is a cohesive batch of tasks created from one high-level
// requirement in a single create_tasks call.
type TaskGroup struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      TaskGroupStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}
