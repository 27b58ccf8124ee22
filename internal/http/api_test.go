package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-server/internal/repository/sqlite"
	"todo-server/internal/service"
	"todo-server/internal/token"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	taskRepo := sqlite.NewTaskRepository(db)
	if err := userRepo.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := taskRepo.Init(ctx); err != nil {
		t.Fatal(err)
	}

	minter, err := token.NewMinter("api-test-secret")
	if err != nil {
		t.Fatal(err)
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	router := gin.New()
	handler := NewHandler(
		service.NewUserService(userRepo, taskRepo, minter),
		service.NewTaskService(taskRepo),
		logger,
	)
	handler.RegisterRoutes(router)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("x-auth-token", tok)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func register(t *testing.T, router *gin.Engine, username, password string) UserResponse {
	t.Helper()
	rr := do(t, router, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", username, rr.Code, rr.Body.String())
	}
	return decodeData[UserResponse](t, rr)
}

func TestRegisterAndDuplicate(t *testing.T) {
	router := newTestRouter(t)

	user := register(t, router, "alice", "secret")
	if user.Username != "alice" || user.Token == "" || user.ID == 0 {
		t.Fatalf("unexpected register payload: %+v", user)
	}

	rr := do(t, router, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": "alice",
		"password": "secret",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("duplicate register: status %d, want 400", rr.Code)
	}
}

func TestMissingAndInvalidToken(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice", "secret")

	rr := do(t, router, http.MethodGet, "/api/v1/tasks", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("no header: status %d, want 400", rr.Code)
	}

	rr = do(t, router, http.MethodGet, "/api/v1/tasks", "garbage-token", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("garbage token: status %d, want 400", rr.Code)
	}
}

// TestTaskLifecycleWalkthrough drives the whole surface end to end: create,
// complete, token rotation on login, uncomplete, soft delete, logout.
func TestTaskLifecycleWalkthrough(t *testing.T) {
	router := newTestRouter(t)

	alice := register(t, router, "alice", "secret")
	t1 := alice.Token

	// create a task
	rr := do(t, router, http.MethodPost, "/api/v1/tasks", t1, map[string]string{
		"title":       "Buy milk",
		"description": "2%",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create task: status %d body %s", rr.Code, rr.Body.String())
	}
	task := decodeData[TaskResponse](t, rr)
	if task.ID == 0 || task.CompletedAt != nil {
		t.Fatalf("unexpected create payload: %+v", task)
	}
	taskPath := fmt.Sprintf("/api/v1/tasks/%d", task.ID)

	// complete it and read the stamp back
	if rr := do(t, router, http.MethodPut, taskPath+"/completed", t1, nil); rr.Code != http.StatusOK {
		t.Fatalf("complete: status %d", rr.Code)
	}
	got := decodeData[TaskResponse](t, do(t, router, http.MethodGet, taskPath, t1, nil))
	if got.CompletedAt == nil {
		t.Fatal("completed_at not set after PUT /completed")
	}

	// login rotates the token and kills the old one
	loginRR := do(t, router, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"username": "alice",
		"password": "secret",
	})
	if loginRR.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", loginRR.Code, loginRR.Body.String())
	}
	t2 := decodeData[UserResponse](t, loginRR).Token
	if t2 == t1 {
		t.Fatal("login must issue a fresh token")
	}
	if rr := do(t, router, http.MethodGet, "/api/v1/tasks", t1, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("stale token: status %d, want 400", rr.Code)
	}

	// uncomplete then soft delete with the new token
	if rr := do(t, router, http.MethodPut, taskPath+"/uncompleted", t2, nil); rr.Code != http.StatusOK {
		t.Fatalf("uncomplete: status %d", rr.Code)
	}
	if rr := do(t, router, http.MethodDelete, taskPath, t2, nil); rr.Code != http.StatusOK {
		t.Fatalf("soft delete: status %d", rr.Code)
	}
	if rr := do(t, router, http.MethodGet, taskPath, t2, nil); rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rr.Code)
	}
	if rr := do(t, router, http.MethodDelete, taskPath, t2, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("second delete: status %d, want 400", rr.Code)
	}

	// logout twice, then the token is dead
	if rr := do(t, router, http.MethodPost, "/api/v1/users/logout", t2, nil); rr.Code != http.StatusOK {
		t.Fatalf("logout: status %d", rr.Code)
	}
	if rr := do(t, router, http.MethodGet, "/api/v1/tasks", t2, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("token after logout: status %d, want 400", rr.Code)
	}
}

func TestOwnershipIsolationOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	alice := register(t, router, "alice", "secret")
	bob := register(t, router, "bob", "hunter2")

	rr := do(t, router, http.MethodPost, "/api/v1/tasks", alice.Token, map[string]string{
		"title": "Alice only",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create: status %d", rr.Code)
	}
	task := decodeData[TaskResponse](t, rr)
	taskPath := fmt.Sprintf("/api/v1/tasks/%d", task.ID)

	if rr := do(t, router, http.MethodGet, taskPath, bob.Token, nil); rr.Code != http.StatusNotFound {
		t.Errorf("foreign get: status %d, want 404", rr.Code)
	}
	if rr := do(t, router, http.MethodPut, taskPath+"/completed", bob.Token, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("foreign complete: status %d, want 400", rr.Code)
	}
	if rr := do(t, router, http.MethodDelete, taskPath, bob.Token, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("foreign delete: status %d, want 400", rr.Code)
	}

	// bob's list contains only his own seeded defaults, never alice's task
	listRR := do(t, router, http.MethodGet, "/api/v1/tasks", bob.Token, nil)
	if listRR.Code != http.StatusOK {
		t.Fatalf("list: status %d", listRR.Code)
	}
	for _, item := range decodeData[[]TaskResponse](t, listRR) {
		if item.ID == task.ID {
			t.Error("alice's task visible in bob's list")
		}
	}
}

func TestListIncludesSeededDefaults(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "alice", "secret")

	rr := do(t, router, http.MethodGet, "/api/v1/tasks", alice.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: status %d", rr.Code)
	}
	list := decodeData[[]TaskResponse](t, rr)
	if len(list) == 0 {
		t.Fatal("expected seeded default tasks for a fresh account")
	}
}

func TestInvalidTaskID(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "alice", "secret")

	if rr := do(t, router, http.MethodGet, "/api/v1/tasks/abc", alice.Token, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: status %d, want 400", rr.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice", "secret")

	rr := do(t, router, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad password: status %d, want 400", rr.Code)
	}
}
