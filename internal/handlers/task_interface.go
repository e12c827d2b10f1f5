package handlers

import (
	"context"
	"net/http"
	"taskboard/internal/models/task"
	"taskboard/internal/models/user"
	"taskboard/internal/service"
	"time"
)

type TaskService interface {
	HealthCheck(context.Context) error
	CreateTask(context.Context, string, service.NewTask) (task.ID, error)
	ListTasks(context.Context, string, task.Filter) ([]*task.Task, error)
	UpdateTask(context.Context, string, string, ...task.TaskOption) (bool, error)
	DeleteTask(context.Context, string, string) (bool, error)
}

type AuthService interface {
	Register(ctx context.Context, email, name, password string) error
	Verify(ctx context.Context, email, password string) (user.Identity, error)
}

type SessionAuthority interface {
	Issue(user.Identity) (string, time.Time, error)
	Current(*http.Request) (user.Identity, time.Time, bool)
	SetCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool)
	ClearCookie(w http.ResponseWriter, secure bool)
}
