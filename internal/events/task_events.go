package events

import "time"

const (
	TaskLifecycleTopic = "taskhub.task.lifecycle.v1"
	TaskCommentTopic   = "taskhub.task.comment.v1"
)

const (
	TaskCreated      = "task.created"
	TaskUpdated      = "task.updated"
	TaskDeleted      = "task.deleted"
	TaskCommentAdded = "task.comment.added"
)

type TaskLifecycleEvent struct {
	EventType   string    `json:"event_type"`
	TaskID      string    `json:"task_id"`
	CompanyID   string    `json:"company_id"`
	ActorID     string    `json:"actor_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status,omitempty"`
	AssigneeIDs []string  `json:"assignee_ids,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type TaskCommentEvent struct {
	EventType  string    `json:"event_type"`
	TaskID     string    `json:"task_id"`
	CommentID  string    `json:"comment_id"`
	CompanyID  string    `json:"company_id"`
	AuthorID   string    `json:"author_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
