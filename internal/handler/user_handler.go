package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectboard/internal/model"
)

type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	SearchByUsername(ctx context.Context, query string) ([]model.User, error)
}

type TeamStore interface {
	List(ctx context.Context) ([]model.Team, error)
}

type UserHandler struct {
	users  UserStore
	teams  TeamStore
	logger *zap.Logger
}

func NewUserHandler(users UserStore, teams TeamStore, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, teams: teams, logger: logger}
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.logger.Error("GetUsers: failed to fetch users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error retrieving users: %s", err.Error())})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetTeams(c *gin.Context) {
	teams, err := h.teams.List(c.Request.Context())
	if err != nil {
		h.logger.Error("GetTeams: failed to fetch teams", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error retrieving teams: %s", err.Error())})
		return
	}
	c.JSON(http.StatusOK, teams)
}
