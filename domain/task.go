package domain

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	default:
		return false
	}
}

// Task is a unit of work inside a project.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	ProjectID   int64      `json:"project_id"`
	AssignedTo  *int64     `json:"assigned_to"`
	Deadline    *time.Time `json:"deadline"`
	CreatedAt   time.Time  `json:"created_at"`

	// Resolved by list queries; nil when the reference no longer resolves.
	ProjectName  *string `json:"project_name,omitempty"`
	AssigneeName *string `json:"assignee_name,omitempty"`
}

// IsOverdue reports whether the deadline passed before now and the task is not done.
func (t *Task) IsOverdue(now time.Time) bool {
	if t == nil || t.Deadline == nil || t.Status == TaskDone {
		return false
	}
	return t.Deadline.Before(now)
}

func (t *Task) IsAssignedTo(userID int64) bool {
	return t != nil && t.AssignedTo != nil && *t.AssignedTo == userID
}
