package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectboard/internal/model"
)

// ProjectStore is the slice of the project repository the handlers need.
type ProjectStore interface {
	List(ctx context.Context) ([]model.Project, error)
	GetByID(ctx context.Context, id int) (model.Project, error)
	Insert(ctx context.Context, p *model.Project) (model.Project, error)
	UpdateFields(ctx context.Context, projectID int, fields map[string]any) (model.Project, error)
	Delete(ctx context.Context, projectID int) error
}

type ProjectHandler struct {
	store  ProjectStore
	cache  TaskCache
	logger *zap.Logger
}

func NewProjectHandler(store ProjectStore, cache TaskCache, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, cache: cache, logger: logger}
}

func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("GetProjects: failed to fetch projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error retrieving projects: %s", err.Error())})
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid project id"})
		return
	}

	project, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("GetProject: failed to fetch project",
			zap.Int("project_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error retrieving project: %s", err.Error())})
		return
	}
	c.JSON(http.StatusOK, project)
}

type createProjectRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid project payload: %s", err.Error())})
		return
	}

	project := model.Project{
		Name:        req.Name,
		Description: req.Description,
	}

	if req.StartDate != nil && *req.StartDate != "" {
		t, err := parseDate(*req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid startDate"})
			return
		}
		project.StartDate = &t
	}
	if req.EndDate != nil && *req.EndDate != "" {
		t, err := parseDate(*req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid endDate"})
			return
		}
		project.EndDate = &t
	}

	created, err := h.store.Insert(c.Request.Context(), &project)
	if err != nil {
		h.logger.Error("CreateProject: failed to insert project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error creating project: %s", err.Error())})
		return
	}

	h.logger.Info("CreateProject: success", zap.Int("project_id", created.ID))
	c.JSON(http.StatusOK, created)
}

// UpdateProject handles PATCH /projects/:projectId with empty-string fields
// stripped, mirroring the task partial update.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid project id"})
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid project payload: %s", err.Error())})
		return
	}

	fields := make(map[string]any, len(raw))
	for key, value := range raw {
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		if key == "startDate" || key == "endDate" {
			s, ok := value.(string)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid %s", key)})
				return
			}
			t, err := parseDate(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid %s", key)})
				return
			}
			fields[key] = t
			continue
		}
		fields[key] = value
	}

	updated, err := h.store.UpdateFields(c.Request.Context(), projectID, fields)
	if err != nil {
		h.logger.Error("UpdateProject: failed to update project",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error updating project: %s", err.Error())})
		return
	}

	h.logger.Info("UpdateProject: success", zap.Int("project_id", projectID))
	c.JSON(http.StatusOK, updated)
}

// DeleteProject removes a project; its tasks go with it through the schema's
// cascade. Cached task lists are flushed wholesale.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid project id"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("DeleteProject: failed to delete project",
			zap.Int("project_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error deleting project: %s", err.Error())})
		return
	}

	if h.cache != nil {
		h.cache.InvalidateAll(c.Request.Context())
	}

	h.logger.Info("DeleteProject: success", zap.Int("project_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
