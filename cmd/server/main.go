package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-server/internal/config"
	apphttp "todo-server/internal/http"
	"todo-server/internal/repository"
	"todo-server/internal/repository/postgres"
	"todo-server/internal/repository/sqlite"
	"todo-server/internal/service"
	"todo-server/internal/token"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.TokenSecret) == "" {
		logger.Fatalf("auth token secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	var (
		userRepo repository.UserRepository
		taskRepo repository.TaskRepository
	)
	switch cfg.Database.Driver {
	case "postgres":
		userRepo = postgres.NewUserRepository(db)
		taskRepo = postgres.NewTaskRepository(db)
	default:
		userRepo = sqlite.NewUserRepository(db)
		taskRepo = sqlite.NewTaskRepository(db)
	}

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := taskRepo.Init(ctx); err != nil {
		logger.Fatalf("init task repository: %v", err)
	}

	minter, err := token.NewMinter(cfg.Auth.TokenSecret)
	if err != nil {
		logger.Fatalf("setup token minter: %v", err)
	}

	userService := service.NewUserService(userRepo, taskRepo, minter)
	taskService := service.NewTaskService(taskRepo)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, taskService, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func openDatabase(cfg config.Config, logger *logrus.Logger) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		logger.Infof("using sqlite database at %s", cfg.Database.Path)
		return sqlite.Open(cfg.Database.Path)
	case "postgres":
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return nil, fmt.Errorf("database dsn is required for postgres")
		}
		logger.Info("using postgres database")
		return postgres.Open(postgres.Config{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxIdleTime:  cfg.Database.MaxIdleTime,
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
