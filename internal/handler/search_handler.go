package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectboard/internal/model"
)

// TaskSearcher and ProjectSearcher are the search slices of the
// repositories.
type TaskSearcher interface {
	SearchByTitle(ctx context.Context, query string) ([]model.Task, error)
}

type ProjectSearcher interface {
	SearchByName(ctx context.Context, query string) ([]model.Project, error)
}

// SearchResults groups matches per entity type.
type SearchResults struct {
	Tasks    []model.Task    `json:"tasks"`
	Projects []model.Project `json:"projects"`
	Users    []model.User    `json:"users"`
}

type SearchHandler struct {
	tasks    TaskSearcher
	projects ProjectSearcher
	users    UserStore
	logger   *zap.Logger
}

func NewSearchHandler(tasks TaskSearcher, projects ProjectSearcher, users UserStore, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{tasks: tasks, projects: projects, users: users, logger: logger}
}

// Search handles GET /search?query=... across tasks, projects and users.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or missing query"})
		return
	}

	h.logger.Info("Search request received",
		zap.String("query", query),
		zap.String("client_ip", c.ClientIP()),
	)

	ctx := c.Request.Context()

	tasks, err := h.tasks.SearchByTitle(ctx, query)
	if err != nil {
		h.logger.Error("Search: task search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error performing search: %s", err.Error())})
		return
	}

	projects, err := h.projects.SearchByName(ctx, query)
	if err != nil {
		h.logger.Error("Search: project search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error performing search: %s", err.Error())})
		return
	}

	users, err := h.users.SearchByUsername(ctx, query)
	if err != nil {
		h.logger.Error("Search: user search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error performing search: %s", err.Error())})
		return
	}

	c.JSON(http.StatusOK, SearchResults{
		Tasks:    tasks,
		Projects: projects,
		Users:    users,
	})
}
