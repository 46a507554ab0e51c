package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mqcontracts "projectboard/contracts/mq"
	"projectboard/internal/model"
	"projectboard/internal/repository"
	"projectboard/pkg/metrics"
)

// TaskStore is the slice of the task repository the handlers need.
type TaskStore interface {
	ListByProject(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error)
	ListByUser(ctx context.Context, userID int) ([]model.Task, error)
	Insert(ctx context.Context, t *model.Task) (model.Task, error)
	UpdateStatus(ctx context.Context, taskID int, status string) (model.Task, error)
	UpdateFields(ctx context.Context, taskID int, fields map[string]any) (model.Task, error)
	Delete(ctx context.Context, taskID int) error
	AddComment(ctx context.Context, taskID, userID int, text string) (model.FlatComment, error)
}

// TaskCache is the list cache surface used by the handlers. A nil cache
// disables caching.
type TaskCache interface {
	Get(ctx context.Context, filter repository.TaskFilter) ([]model.Task, bool)
	Set(ctx context.Context, filter repository.TaskFilter, tasks []model.Task)
	InvalidateTask(ctx context.Context, taskID int)
	InvalidateAll(ctx context.Context)
}

// EventPublisher publishes mutation events. A nil publisher disables events.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type TaskHandler struct {
	store     TaskStore
	cache     TaskCache
	publisher EventPublisher
	logger    *zap.Logger
}

func NewTaskHandler(store TaskStore, cache TaskCache, publisher EventPublisher, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{store: store, cache: cache, publisher: publisher, logger: logger}
}

// GetTasks handles GET /tasks. projectId is required; taskName, statuses,
// priorities, startDate and endDate narrow the result when present. tags is
// parsed but not applied.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	projectIDRaw := c.Query("projectId")

	h.logger.Info("GetTasks request received",
		zap.String("project_id", projectIDRaw),
		zap.String("client_ip", c.ClientIP()),
	)

	projectID, err := strconv.Atoi(projectIDRaw)
	if err != nil || projectIDRaw == "" {
		h.logger.Warn("GetTasks: invalid or missing projectId",
			zap.String("project_id", projectIDRaw),
		)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or missing projectId"})
		return
	}

	filter := repository.TaskFilter{
		ProjectID:  projectID,
		Title:      c.Query("taskName"),
		Statuses:   splitCSV(c.Query("statuses")),
		Priorities: splitCSV(c.Query("priorities")),
		Tags:       splitCSV(c.Query("tags")),
	}

	if raw := c.Query("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid startDate"})
			return
		}
		filter.StartDate = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid endDate"})
			return
		}
		filter.EndDate = &t
	}

	if h.cache != nil {
		if tasks, ok := h.cache.Get(c.Request.Context(), filter); ok {
			c.JSON(http.StatusOK, tasks)
			return
		}
	}

	tasks, err := h.store.ListByProject(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("GetTasks: failed to fetch tasks",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error retrieving tasks: %s", err.Error())})
		return
	}

	if h.cache != nil {
		h.cache.Set(c.Request.Context(), filter, tasks)
	}

	h.logger.Info("GetTasks: success",
		zap.Int("project_id", projectID),
		zap.Int("task_count", len(tasks)),
	)
	c.JSON(http.StatusOK, tasks)
}

type createTaskRequest struct {
	Title          string  `json:"title" binding:"required"`
	Description    *string `json:"description"`
	Status         *string `json:"status"`
	Priority       *string `json:"priority"`
	Tags           *string `json:"tags"`
	StartDate      *string `json:"startDate"`
	DueDate        *string `json:"dueDate"`
	Points         *int    `json:"points"`
	ProjectID      int     `json:"projectId" binding:"required"`
	AuthorUserID   int     `json:"authorUserId" binding:"required"`
	AssignedUserID *int    `json:"assignedUserId"`
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("CreateTask: invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid task payload: %s", err.Error())})
		return
	}

	if req.Status != nil {
		if err := model.ValidateStatus(*req.Status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
	}
	if req.Priority != nil {
		if err := model.ValidatePriority(*req.Priority); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
	}

	task := model.Task{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		Tags:           req.Tags,
		Points:         req.Points,
		ProjectID:      req.ProjectID,
		AuthorUserID:   req.AuthorUserID,
		AssignedUserID: req.AssignedUserID,
	}

	if req.StartDate != nil && *req.StartDate != "" {
		t, err := parseDate(*req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid startDate"})
			return
		}
		task.StartDate = &t
	}
	if req.DueDate != nil && *req.DueDate != "" {
		t, err := parseDate(*req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid dueDate"})
			return
		}
		task.DueDate = &t
	}

	created, err := h.store.Insert(c.Request.Context(), &task)
	if err != nil {
		h.logger.Error("CreateTask: failed to insert task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error creating a task: %s", err.Error())})
		return
	}

	metrics.IncrementTaskMutation("create")
	h.afterTaskMutation(c.Request.Context(), created.ID, created.ProjectID, "create")

	h.logger.Info("CreateTask: success", zap.Int("task_id", created.ID))
	c.JSON(http.StatusOK, created)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Param("taskId"))
	if err != nil {
		h.logger.Warn("UpdateTaskStatus: invalid task id",
			zap.String("task_id", c.Param("taskId")),
		)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid task id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing status"})
		return
	}

	if err := model.ValidateStatus(req.Status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	updated, err := h.store.UpdateStatus(c.Request.Context(), taskID, req.Status)
	if err != nil {
		h.logger.Error("UpdateTaskStatus: failed to update task",
			zap.Int("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error updating task: %s", err.Error())})
		return
	}

	metrics.IncrementTaskMutation("status")
	h.afterTaskMutation(c.Request.Context(), taskID, updated.ProjectID, "status")

	h.logger.Info("UpdateTaskStatus: success",
		zap.Int("task_id", taskID),
		zap.String("status", req.Status),
	)
	c.JSON(http.StatusOK, updated)
}

// UpdateTask handles PATCH /tasks/update/:taskId. Fields set to an empty
// string are stripped before applying, so a cleared form input never nulls
// out a persisted value.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid task id"})
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid task payload: %s", err.Error())})
		return
	}

	fields, err := normalizeTaskFields(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	updated, err := h.store.UpdateFields(c.Request.Context(), taskID, fields)
	if err != nil {
		h.logger.Error("UpdateTask: failed to update task",
			zap.Int("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error updating task: %s", err.Error())})
		return
	}

	metrics.IncrementTaskMutation("update")
	h.afterTaskMutation(c.Request.Context(), taskID, updated.ProjectID, "update")

	h.logger.Info("UpdateTask: success", zap.Int("task_id", taskID))
	c.JSON(http.StatusOK, updated)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid task id"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), taskID); err != nil {
		h.logger.Error("DeleteTask: failed to delete task",
			zap.Int("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error deleting task: %s", err.Error())})
		return
	}

	metrics.IncrementTaskMutation("delete")
	h.afterTaskMutation(c.Request.Context(), taskID, 0, "delete")

	h.logger.Info("DeleteTask: success", zap.Int("task_id", taskID))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type addCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *TaskHandler) AddComment(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid task id"})
		return
	}
	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing text"})
		return
	}

	comment, err := h.store.AddComment(c.Request.Context(), taskID, userID, req.Text)
	if err != nil {
		h.logger.Error("AddComment: failed to add comment",
			zap.Int("task_id", taskID),
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error adding comment: %s", err.Error())})
		return
	}

	metrics.IncrementTaskMutation("comment")
	if h.cache != nil {
		h.cache.InvalidateTask(c.Request.Context(), taskID)
	}
	if h.publisher != nil {
		if err := h.publisher.Publish(mqcontracts.CommentCreatedKey, mqcontracts.CommentCreatedPayload{
			CommentID: comment.ID,
			TaskID:    taskID,
			UserID:    userID,
		}); err != nil {
			h.logger.Warn("AddComment: failed to publish event", zap.Error(err))
		}
	}

	h.logger.Info("AddComment: success",
		zap.Int("comment_id", comment.ID),
		zap.Int("task_id", taskID),
	)
	c.JSON(http.StatusOK, comment)
}

func (h *TaskHandler) GetUserTasks(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	tasks, err := h.store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("GetUserTasks: failed to fetch tasks",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error retrieving user's tasks: %s", err.Error())})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// afterTaskMutation invalidates the local cache and broadcasts the mutation
// so other replicas invalidate theirs.
func (h *TaskHandler) afterTaskMutation(ctx context.Context, taskID, projectID int, kind string) {
	if h.cache != nil {
		switch kind {
		case "create", "delete":
			h.cache.InvalidateAll(ctx)
		default:
			h.cache.InvalidateTask(ctx, taskID)
		}
	}

	if h.publisher == nil {
		return
	}

	routingKey := mqcontracts.TaskUpdatedKey
	switch kind {
	case "create":
		routingKey = mqcontracts.TaskCreatedKey
	case "delete":
		routingKey = mqcontracts.TaskDeletedKey
	}

	err := h.publisher.Publish(routingKey, mqcontracts.TaskMutatedPayload{
		TaskID:    taskID,
		ProjectID: projectID,
		Kind:      kind,
	})
	if err != nil {
		h.logger.Warn("Failed to publish task mutation event",
			zap.String("routing_key", routingKey),
			zap.Int("task_id", taskID),
			zap.Error(err),
		)
	}
}

// normalizeTaskFields strips empty-string values and coerces JSON types to
// what the store expects. Unknown fields pass through and are ignored by the
// store.
func normalizeTaskFields(raw map[string]any) (map[string]any, error) {
	fields := make(map[string]any, len(raw))

	for key, value := range raw {
		if s, ok := value.(string); ok && s == "" {
			continue
		}

		switch key {
		case "status":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("invalid status")
			}
			if err := model.ValidateStatus(s); err != nil {
				return nil, err
			}
			fields[key] = s
		case "priority":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("invalid priority")
			}
			if err := model.ValidatePriority(s); err != nil {
				return nil, err
			}
			fields[key] = s
		case "startDate", "dueDate":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("invalid %s", key)
			}
			t, err := parseDate(s)
			if err != nil {
				return nil, fmt.Errorf("invalid %s", key)
			}
			fields[key] = t
		case "points", "projectId", "authorUserId", "assignedUserId":
			f, ok := value.(float64)
			if !ok {
				return nil, fmt.Errorf("invalid %s", key)
			}
			fields[key] = int(f)
		default:
			fields[key] = value
		}
	}

	return fields, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
