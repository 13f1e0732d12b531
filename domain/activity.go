package domain

import "time"

// Activity actions recorded after successful mutations.
const (
	ActionProjectCreated     = "project.created"
	ActionProjectUpdated     = "project.updated"
	ActionProjectDeleted     = "project.deleted"
	ActionProjectMemberAdded = "project.member_added"
	ActionTaskCreated        = "task.created"
	ActionTaskUpdated        = "task.updated"
	ActionTaskDeleted        = "task.deleted"
	ActionCommentCreated     = "comment.created"
	ActionStoriesGenerated   = "stories.generated"
)

// Entity kinds referenced by activities.
const (
	EntityProject = "project"
	EntityTask    = "task"
	EntityComment = "comment"
	EntityStory   = "user_story"
)

// Activity represents a change applied to a domain entity.
type Activity struct {
	ID        string            `json:"id"`
	ActorID   *int64            `json:"actor_id"`
	Action    string            `json:"action"`
	Entity    string            `json:"entity"`
	EntityID  int64             `json:"entity_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (a *Activity) Touch(now time.Time) {
	if a == nil {
		return
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
}
