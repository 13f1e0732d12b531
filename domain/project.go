package domain

import "time"

const DefaultProjectStatus = "active"

// Project groups tasks and a set of member users.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`

	// Filled by list queries.
	TaskCount int    `json:"task_count"`
	Members   []User `json:"team_members,omitempty"`
}

// HasMember reports whether userID is in the member set.
func (p *Project) HasMember(userID int64) bool {
	if p == nil {
		return false
	}
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// Comment is an append-only note on a task.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStory is one generated story line, optionally attached to a project.
type UserStory struct {
	ID        int64     `json:"id"`
	ProjectID *int64    `json:"project_id"`
	Story     string    `json:"story"`
	CreatedAt time.Time `json:"created_at"`
}
