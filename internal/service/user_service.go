package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
	"todo-server/internal/token"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUsername is returned when registering an already-taken username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidToken indicates the presented session token matches no live user.
	ErrInvalidToken = errors.New("invalid token")
)

// defaultTasks are seeded for every new account so the list is not empty on
// first login.
var defaultTasks = []struct {
	title       string
	description string
}{
	{"Welcome to your task list", "This is an example task. Mark it completed or delete it."},
	{"Add your own tasks", "POST /api/v1/tasks with a title and description."},
}

// UserService covers registration, login/logout and session-token
// resolution. A user has at most one live token: register and login mint a
// fresh one and overwrite whatever was stored, logout clears it.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, string, error)
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
	Logout(ctx context.Context, userID int64) error
	ResolveToken(ctx context.Context, tok string) (*domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	minter *token.Minter
}

func NewUserService(users repository.UserRepository, tasks repository.TaskRepository, minter *token.Minter) UserService {
	return &userService{
		users:  users,
		tasks:  tasks,
		minter: minter,
	}
}

func (s *userService) Register(ctx context.Context, username, password string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" {
		return nil, "", errors.New("username is required")
	}
	if password == "" {
		return nil, "", errors.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	tok, err := s.minter.Mint(username)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		SessionToken: &tok,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrDuplicateUsername
		}
		return nil, "", err
	}

	if err := s.seedDefaultTasks(ctx, user.ID); err != nil {
		return nil, "", err
	}

	return sanitizeUser(user), tok, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	// Fresh token on every login. The old one stops resolving the moment
	// this write lands, even if a client still holds it.
	tok, err := s.minter.Mint(username)
	if err != nil {
		return nil, "", err
	}
	if err := s.users.SetToken(ctx, user.ID, &tok); err != nil {
		return nil, "", err
	}

	return sanitizeUser(user), tok, nil
}

// Logout clears the user's session token. Clearing an already-cleared token
// still succeeds.
func (s *userService) Logout(ctx context.Context, userID int64) error {
	return s.users.SetToken(ctx, userID, nil)
}

// ResolveToken maps a presented token to the user it belongs to. Only an
// exact match against a live user's stored token counts; stale, replaced and
// garbage tokens all come back ErrInvalidToken.
func (s *userService) ResolveToken(ctx context.Context, tok string) (*domain.User, error) {
	user, err := s.users.GetByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) seedDefaultTasks(ctx context.Context, userID int64) error {
	for _, d := range defaultTasks {
		task := &domain.Task{
			UserID:      userID,
			Title:       d.title,
			Description: d.description,
			IsDefault:   true,
		}
		if _, err := s.tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("seed default task: %w", err)
		}
	}
	return nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
