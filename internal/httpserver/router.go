package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"projectboard/internal/handler"
	"projectboard/pkg/config"
	"projectboard/pkg/mq"
)

type Handlers struct {
	Tasks    *handler.TaskHandler
	Projects *handler.ProjectHandler
	Users    *handler.UserHandler
	Search   *handler.SearchHandler
}

func NewRouter(
	h Handlers,
	authCfg config.AuthConfig,
	logger *zap.Logger,
	db *pgxpool.Pool,
	consumer *mq.Consumer,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(Metrics())
	r.Use(Identity(authCfg, logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if consumer != nil && !consumer.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/tasks", h.Tasks.GetTasks)
	r.POST("/tasks", h.Tasks.CreateTask)
	r.PATCH("/tasks/:taskId/status", h.Tasks.UpdateTaskStatus)
	r.PATCH("/tasks/update/:taskId", h.Tasks.UpdateTask)
	r.DELETE("/tasks/:taskId", h.Tasks.DeleteTask)
	r.POST("/tasks/:taskId/:userId/comments", h.Tasks.AddComment)
	r.GET("/tasks/user/:userId", h.Tasks.GetUserTasks)

	r.GET("/projects", h.Projects.GetProjects)
	r.POST("/projects", h.Projects.CreateProject)
	r.GET("/projects/:id", h.Projects.GetProject)
	r.PATCH("/projects/:projectId", h.Projects.UpdateProject)
	r.DELETE("/projects/:id", h.Projects.DeleteProject)

	r.GET("/users", h.Users.GetUsers)
	r.GET("/teams", h.Users.GetTeams)
	r.GET("/search", h.Search.Search)

	return r
}
