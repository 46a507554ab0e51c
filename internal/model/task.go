package model

import (
	"fmt"
	"time"
)

// Board statuses. The board renders exactly these four columns.
const (
	StatusToDo           = "To Do"
	StatusWorkInProgress = "Work In Progress"
	StatusUnderReview    = "Under Review"
	StatusCompleted      = "Completed"
)

// Priorities.
const (
	PriorityUrgent  = "Urgent"
	PriorityHigh    = "High"
	PriorityMedium  = "Medium"
	PriorityLow     = "Low"
	PriorityBacklog = "Backlog"
)

// BoardStatuses lists the board columns in render order.
var BoardStatuses = []string{
	StatusToDo,
	StatusWorkInProgress,
	StatusUnderReview,
	StatusCompleted,
}

var validStatuses = map[string]bool{
	StatusToDo:           true,
	StatusWorkInProgress: true,
	StatusUnderReview:    true,
	StatusCompleted:      true,
}

var validPriorities = map[string]bool{
	PriorityUrgent:  true,
	PriorityHigh:    true,
	PriorityMedium:  true,
	PriorityLow:     true,
	PriorityBacklog: true,
}

// ValidateStatus rejects status values outside the board columns.
func ValidateStatus(status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("invalid status %q", status)
	}
	return nil
}

// ValidatePriority rejects priority values outside the known set.
func ValidatePriority(priority string) error {
	if !validPriorities[priority] {
		return fmt.Errorf("invalid priority %q", priority)
	}
	return nil
}

type Task struct {
	ID             int        `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Status         *string    `json:"status,omitempty"`
	Priority       *string    `json:"priority,omitempty"`
	Tags           *string    `json:"tags,omitempty"` // comma-joined
	StartDate      *time.Time `json:"startDate,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	Points         *int       `json:"points,omitempty"`
	ProjectID      int        `json:"projectId"`
	AuthorUserID   int        `json:"authorUserId"`
	AssignedUserID *int       `json:"assignedUserId,omitempty"`

	Author      *User         `json:"author,omitempty"`
	Assignee    *User         `json:"assignee,omitempty"`
	Comments    []FlatComment `json:"comments,omitempty"`
	Attachments []Attachment  `json:"attachments,omitempty"`
}
