package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-server/internal/domain"
	"todo-server/internal/service"
)

// tokenHeader carries the session token on authenticated requests.
const tokenHeader = "x-auth-token"

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	tasks  service.TaskService
	logger *logrus.Logger
}

func NewHandler(users service.UserService, tasks service.TaskService, logger *logrus.Logger) *Handler {
	return &Handler{
		users:  users,
		tasks:  tasks,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(h.requestLogger())

	api := router.Group("/api/v1")
	{
		api.POST("/users", h.register)
		api.POST("/users/login", h.login)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authed := api.Group("")
		authed.Use(h.requireAuth())
		{
			authed.POST("/users/logout", h.logout)
			authed.POST("/tasks", h.createTask)
			authed.GET("/tasks", h.listTasks)
			authed.GET("/tasks/:id", h.getTask)
			authed.PUT("/tasks/:id/completed", h.completeTask)
			authed.PUT("/tasks/:id/uncompleted", h.uncompleteTask)
			authed.DELETE("/tasks/:id", h.deleteTask)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, x-auth-token")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Info("request")
	}
}

const userContextKey = "user"

// requireAuth resolves the x-auth-token header to a user and aborts the
// request when it is absent or matches no live session. Handlers behind it
// can assume an authenticated owner.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := c.GetHeader(tokenHeader)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing token"})
			return
		}

		user, err := h.users.ResolveToken(c.Request.Context(), tok)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "storage error"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	user, _ := c.MustGet(userContextKey).(*domain.User)
	return user
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createTaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Priority    *string `json:"priority"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type TaskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    *string `json:"priority"`
	CompletedAt *string `json:"completed_at"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, tok, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateUsername) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already exists"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userToResponse(user, tok)})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, tok, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userToResponse(user, tok)})
}

func (h *Handler) logout(c *gin.Context) {
	user := currentUser(c)
	if err := h.users.Logout(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user logged out"})
}

func (h *Handler) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user := currentUser(c)
	task, err := h.tasks.Create(c.Request.Context(), user.ID, req.Title, req.Description, req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": taskToResponse(*task)})
}

func (h *Handler) listTasks(c *gin.Context) {
	user := currentUser(c)
	tasks, err := h.tasks.List(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage error"})
		return
	}

	resp := make([]TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = taskToResponse(tasks[i])
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *Handler) getTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	task, err := h.tasks.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": taskToResponse(*task)})
}

func (h *Handler) completeTask(c *gin.Context) {
	h.mutateTask(c, "task completed", h.tasks.MarkCompleted)
}

func (h *Handler) uncompleteTask(c *gin.Context) {
	h.mutateTask(c, "task uncompleted", h.tasks.MarkUncompleted)
}

func (h *Handler) deleteTask(c *gin.Context) {
	h.mutateTask(c, "task deleted", h.tasks.SoftDelete)
}

// mutateTask runs one of the guarded task mutations. A false result means
// the guard did not match any row: the task is missing, someone else's, or
// already soft-deleted, and all of those read as "task not found".
func (h *Handler) mutateTask(c *gin.Context, message string, op func(ctx context.Context, userID, taskID int64) (bool, error)) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	changed, err := op(c.Request.Context(), user.ID, id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage error"})
		return
	}
	if !changed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return id, true
}

func userToResponse(user *domain.User, tok string) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Token:    tok,
	}
}

func taskToResponse(task domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
	}
	if task.CompletedAt != nil {
		v := task.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &v
	}
	return resp
}
