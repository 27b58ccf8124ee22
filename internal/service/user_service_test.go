package service

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterIssuesUsableToken(t *testing.T) {
	users, _ := newTestServices(t)
	ctx := context.Background()

	user, tok, err := users.Register(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected assigned user id")
	}
	if tok == "" {
		t.Fatal("expected a session token")
	}

	resolved, err := users.ResolveToken(ctx, tok)
	if err != nil {
		t.Fatalf("resolve fresh token: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("resolved user %d, want %d", resolved.ID, user.ID)
	}
}

func TestRegisterSeedsDefaultTasks(t *testing.T) {
	users, tasks := newTestServices(t)
	ctx := context.Background()

	user, _, err := users.Register(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	list, err := tasks.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("expected seeded default tasks for a new user")
	}
	for _, task := range list {
		if !task.IsDefault {
			t.Errorf("task %d seeded at registration should be marked default", task.ID)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users, _ := newTestServices(t)
	ctx := context.Background()

	if _, _, err := users.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := users.Register(ctx, "alice", "other-password")
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("err = %v, want ErrDuplicateUsername", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	users, _ := newTestServices(t)
	ctx := context.Background()

	if _, _, err := users.Register(ctx, "  ", "secret"); err == nil {
		t.Error("expected error for blank username")
	}
	if _, _, err := users.Register(ctx, "alice", ""); err == nil {
		t.Error("expected error for blank password")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users, _ := newTestServices(t)
	ctx := context.Background()

	if _, _, err := users.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := users.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := users.Login(ctx, "nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginRotatesToken(t *testing.T) {
	users, _ := newTestServices(t)
	ctx := context.Background()

	user, first, err := users.Register(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	loggedIn, second, err := users.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login resolved user %d, want %d", loggedIn.ID, user.ID)
	}
	if second == first {
		t.Fatal("login must mint a token different from the registration token")
	}

	if _, err := users.ResolveToken(ctx, first); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("old token after login: err = %v, want ErrInvalidToken", err)
	}
	if _, err := users.ResolveToken(ctx, second); err != nil {
		t.Errorf("new token after login: %v", err)
	}
}

func TestLogoutIsIdempotentAndRevokes(t *testing.T) {
	users, _ := newTestServices(t)
	ctx := context.Background()

	user, tok, err := users.Register(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := users.Logout(ctx, user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := users.Logout(ctx, user.ID); err != nil {
		t.Fatalf("second logout: %v", err)
	}

	if _, err := users.ResolveToken(ctx, tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token after logout: err = %v, want ErrInvalidToken", err)
	}
}

func TestResolveGarbageToken(t *testing.T) {
	users, _ := newTestServices(t)
	ctx := context.Background()

	if _, _, err := users.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := users.ResolveToken(ctx, "not-a-real-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: err = %v, want ErrInvalidToken", err)
	}
}
