package service

import (
	"context"
	"taskboard/internal/models/task"
	"taskboard/internal/models/user"
	"time"
)

// владелец всегда передаётся явно и входит в условие поиска
type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	ListByOwner(context.Context, string) ([]*task.Task, error)
	UpdateFields(context.Context, task.ID, string, task.Patch) (bool, error)
	Delete(context.Context, task.ID, string) (bool, error)
	MarkOverdue(context.Context, time.Time, int) (int64, error)
}

type UserRepository interface {
	CreateUser(context.Context, *user.User) error
	GetUserByEmail(context.Context, string) (*user.User, error)
}
