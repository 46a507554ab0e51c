package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	mqcontracts "projectboard/contracts/mq"
	"projectboard/pkg/metrics"
)

// ListInvalidator is the slice of the task list cache the consumers need.
type ListInvalidator interface {
	InvalidateTask(ctx context.Context, taskID int)
	InvalidateAll(ctx context.Context)
}

// TaskMutatedHandler consumes task mutation events and invalidates the
// cached task lists that held the mutated task. Creates and deletes change
// list membership, so they flush every cached list.
type TaskMutatedHandler struct {
	cache  ListInvalidator
	logger *zap.Logger
}

func NewTaskMutatedHandler(cache ListInvalidator, logger *zap.Logger) *TaskMutatedHandler {
	return &TaskMutatedHandler{cache: cache, logger: logger}
}

func (h *TaskMutatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.TaskMutatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal TaskMutatedPayload", zap.Error(err))
		return err
	}

	h.logger.Info("Handling task mutation event",
		zap.Int("task_id", p.TaskID),
		zap.Int("project_id", p.ProjectID),
		zap.String("kind", p.Kind),
	)

	switch p.Kind {
	case "create", "delete":
		h.cache.InvalidateAll(ctx)
	default:
		if p.TaskID > 0 {
			h.cache.InvalidateTask(ctx, p.TaskID)
		} else {
			h.cache.InvalidateAll(ctx)
		}
	}

	metrics.IncrementCacheInvalidation("task." + p.Kind)
	return nil
}

// CommentCreatedHandler invalidates lists containing the commented task so
// refetched lists carry the new flattened comment.
type CommentCreatedHandler struct {
	cache  ListInvalidator
	logger *zap.Logger
}

func NewCommentCreatedHandler(cache ListInvalidator, logger *zap.Logger) *CommentCreatedHandler {
	return &CommentCreatedHandler{cache: cache, logger: logger}
}

func (h *CommentCreatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.CommentCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal CommentCreatedPayload", zap.Error(err))
		return err
	}

	h.logger.Info("Handling comment.created event",
		zap.Int("comment_id", p.CommentID),
		zap.Int("task_id", p.TaskID),
	)

	if p.TaskID > 0 {
		h.cache.InvalidateTask(ctx, p.TaskID)
	}

	metrics.IncrementCacheInvalidation(mqcontracts.CommentCreatedKey)
	return nil
}
