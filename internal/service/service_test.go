package service

import (
	"context"
	"path/filepath"
	"testing"

	"todo-server/internal/repository/sqlite"
	"todo-server/internal/token"
)

// newTestServices spins up a sqlite database in a temp dir and returns live
// services on top of it.
func newTestServices(t *testing.T) (UserService, TaskService) {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	taskRepo := sqlite.NewTaskRepository(db)
	if err := userRepo.Init(ctx); err != nil {
		t.Fatalf("init user repo: %v", err)
	}
	if err := taskRepo.Init(ctx); err != nil {
		t.Fatalf("init task repo: %v", err)
	}

	minter, err := token.NewMinter("service-test-secret")
	if err != nil {
		t.Fatal(err)
	}

	return NewUserService(userRepo, taskRepo, minter), NewTaskService(taskRepo)
}
