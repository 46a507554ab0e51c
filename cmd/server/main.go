package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	mqcontracts "projectboard/contracts/mq"
	"projectboard/internal/cache"
	"projectboard/internal/config"
	"projectboard/internal/handler"
	"projectboard/internal/httpserver"
	"projectboard/internal/mqhandler"
	"projectboard/internal/repository"
	"projectboard/pkg/db"
	"projectboard/pkg/logger"
	"projectboard/pkg/mq"
	"projectboard/pkg/redis"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting projectboard server...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("redis_addr", cfg.Redis.Addr),
	)

	// DB
	log.Info("Initializing database connection...")
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer migrateCancel()
	if err := repository.RunMigrations(migrateCtx, dbConn, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	taskRepo := repository.NewTaskRepository(dbConn, log)
	projectRepo := repository.NewProjectRepository(dbConn, log)
	userRepo := repository.NewUserRepository(dbConn, log)
	teamRepo := repository.NewTeamRepository(dbConn, log)

	// Redis task list cache
	var taskCache *cache.TaskListCache
	if cfg.Cache.Enabled {
		log.Info("Initializing Redis task list cache...")
		rdb := redis.NewRedisClient(cfg.Redis)
		taskCache = cache.NewTaskListCache(rdb, time.Duration(cfg.Cache.TTLSeconds)*time.Second, log)
	}

	// MQ publisher for mutation events
	log.Info("Initializing MQ publisher...")
	publisher, err := mq.NewPublisher(cfg.MQ.URL, log)
	if err != nil {
		log.Fatal("Failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// MQ consumers invalidating the list cache
	var taskConsumer, commentConsumer *mq.Consumer
	if taskCache != nil {
		taskMutatedHandler := mqhandler.NewTaskMutatedHandler(taskCache, log)
		commentCreatedHandler := mqhandler.NewCommentCreatedHandler(taskCache, log)

		log.Info("Initializing MQ consumer for task mutations...",
			zap.String("queue", "board.task.mutations.q"),
			zap.String("routing_key", "task.*"),
		)
		taskConsumer, err = mq.NewConsumer(cfg.MQ.URL, "board.task.mutations.q", "task.*", log)
		if err != nil {
			log.Fatal("Failed to init task mutation consumer", zap.Error(err))
		}
		defer taskConsumer.Close()
		taskConsumer.SetHandler(taskMutatedHandler.Handle)

		go func() {
			log.Info("Starting task mutation consumer...")
			if err := taskConsumer.StartConsuming(); err != nil {
				log.Fatal("Task mutation consumer failed", zap.Error(err))
			}
		}()

		log.Info("Initializing MQ consumer for comment.created...",
			zap.String("queue", "board.comment.created.q"),
			zap.String("routing_key", mqcontracts.CommentCreatedKey),
		)
		commentConsumer, err = mq.NewConsumer(cfg.MQ.URL, "board.comment.created.q", mqcontracts.CommentCreatedKey, log)
		if err != nil {
			log.Fatal("Failed to init comment consumer", zap.Error(err))
		}
		defer commentConsumer.Close()
		commentConsumer.SetHandler(commentCreatedHandler.Handle)

		go func() {
			log.Info("Starting comment.created consumer...")
			if err := commentConsumer.StartConsuming(); err != nil {
				log.Fatal("Comment consumer failed", zap.Error(err))
			}
		}()
	}

	// Handlers. The handler interfaces take nil cleanly when caching is off.
	var handlerCache handler.TaskCache
	if taskCache != nil {
		handlerCache = taskCache
	}

	h := httpserver.Handlers{
		Tasks:    handler.NewTaskHandler(taskRepo, handlerCache, publisher, log),
		Projects: handler.NewProjectHandler(projectRepo, handlerCache, log),
		Users:    handler.NewUserHandler(userRepo, teamRepo, log),
		Search:   handler.NewSearchHandler(taskRepo, projectRepo, userRepo, log),
	}

	router := httpserver.NewRouter(h, cfg.Auth, log, dbConn, taskConsumer)

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("projectboard server is fully initialized and running",
		zap.String("http_port", port),
		zap.Bool("cache_enabled", taskCache != nil),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down projectboard server gracefully...")

	if taskConsumer != nil {
		taskConsumer.Stop()
	}
	if commentConsumer != nil {
		commentConsumer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("projectboard server shutdown complete")
}
