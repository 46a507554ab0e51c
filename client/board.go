package client

import (
	"context"

	"go.uber.org/zap"

	"projectboard/internal/model"
)

// AppContext carries cross-cutting view settings. It is passed explicitly
// instead of living in process-wide state; the zero value is light mode.
type AppContext struct {
	DarkMode bool
}

// Column is one board column with the tasks currently in it.
type Column struct {
	Status string
	Tasks  []model.Task
}

// Correction reports a failed MoveTask so a view can put the card back.
type Correction struct {
	TaskID     int
	FromStatus string
	ToStatus   string
	Err        error
}

// Board groups a project's tasks into the four fixed status columns and
// issues status mutations for drag-style moves.
type Board struct {
	client      *Client
	query       TaskQuery
	logger      *zap.Logger
	corrections chan Correction
}

func NewBoard(c *Client, query TaskQuery, logger *zap.Logger) *Board {
	return &Board{
		client:      c,
		query:       query,
		logger:      logger,
		corrections: make(chan Correction, 16),
	}
}

// Columns fetches the current task list (through the client cache) and
// partitions it.
func (b *Board) Columns(ctx context.Context) ([]Column, error) {
	tasks, err := b.client.GetTasks(ctx, b.query)
	if err != nil {
		return nil, err
	}
	return PartitionByStatus(tasks), nil
}

// PartitionByStatus splits tasks into the four fixed columns by exact
// status match. Tasks with no or unknown status land in no column.
func PartitionByStatus(tasks []model.Task) []Column {
	columns := make([]Column, len(model.BoardStatuses))
	index := make(map[string]int, len(model.BoardStatuses))
	for i, status := range model.BoardStatuses {
		columns[i] = Column{Status: status, Tasks: []model.Task{}}
		index[status] = i
	}

	for _, t := range tasks {
		if t.Status == nil {
			continue
		}
		if i, ok := index[*t.Status]; ok {
			columns[i].Tasks = append(columns[i].Tasks, t)
		}
	}

	return columns
}

// MoveTask issues the status mutation for a drop into a column. It is
// fire-and-forget: the card is not moved locally, the invalidated cache
// refetch is what settles the board. Failed moves emit a Correction so a
// consumer can revert the card.
func (b *Board) MoveTask(taskID int, fromStatus, toStatus string) {
	go func() {
		_, err := b.client.UpdateTaskStatus(context.Background(), taskID, toStatus)
		if err == nil {
			return
		}

		b.logger.Warn("Task move failed",
			zap.Int("task_id", taskID),
			zap.String("to_status", toStatus),
			zap.Error(err),
		)

		// Drop the correction rather than block if nobody is listening.
		select {
		case b.corrections <- Correction{
			TaskID:     taskID,
			FromStatus: fromStatus,
			ToStatus:   toStatus,
			Err:        err,
		}:
		default:
		}
	}()
}

// Corrections exposes failed-move events for views that revert cards.
func (b *Board) Corrections() <-chan Correction {
	return b.corrections
}

// Column header colors from the board design.
var columnColors = map[string]string{
	model.StatusToDo:           "#2563EB",
	model.StatusWorkInProgress: "#059669",
	model.StatusUnderReview:    "#D97706",
	model.StatusCompleted:      "#000000",
}

// ColumnColor returns the header color for a column, adjusted for the app
// context's dark mode.
func ColumnColor(status string, appCtx AppContext) string {
	color, ok := columnColors[status]
	if !ok {
		return "#6B7280"
	}
	if appCtx.DarkMode && color == "#000000" {
		return "#FFFFFF"
	}
	return color
}
