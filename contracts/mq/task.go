package mq

// Routing keys for board mutation events.
const (
	TaskCreatedKey    = "task.created"
	TaskUpdatedKey    = "task.updated"
	TaskDeletedKey    = "task.deleted"
	CommentCreatedKey = "comment.created"
)

// TaskMutatedPayload is published for every task mutation. TaskID is zero for
// creates, where only list membership changes.
type TaskMutatedPayload struct {
	TaskID    int    `json:"task_id"`
	ProjectID int    `json:"project_id"`
	Kind      string `json:"kind"` // create / status / update / delete
}

type CommentCreatedPayload struct {
	CommentID int `json:"comment_id"`
	TaskID    int `json:"task_id"`
	UserID    int `json:"user_id"`
}
