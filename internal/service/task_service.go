package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	"time"

	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики;
// валидация всегда выполняется до обращения к репозиторию

type NewTask struct {
	Title       string
	Description string
	Completed   bool
	DueDate     *time.Time
}

type TaskService struct {
	repo TaskRepository
	now  func() time.Time
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, owner string, input NewTask) (task.ID, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return task.NilID, NewValidationError("title", "Title is required")
	}

	newTask := &task.Task{
		ID:          task.NewID(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Completed:   input.Completed,
		Owner:       owner,
	}
	if input.DueDate != nil && !input.DueDate.IsZero() {
		d := input.DueDate.UTC()
		newTask.DueDate = &d
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return task.NilID, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.ID.Hex()),
		zap.String("owner", owner))

	return newTask.ID, nil
}

func (s *TaskService) ListTasks(ctx context.Context, owner string, filter task.Filter) ([]*task.Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	if filter == "" || filter == task.FilterAll {
		return tasks, nil
	}

	now := s.now()
	filtered := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Match(t, now) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// UpdateTask применяет только переданные поля. false без ошибки означает,
// что задача не найдена, принадлежит другому пользователю или ничего не поменялось.
func (s *TaskService) UpdateTask(ctx context.Context, owner, rawID string, options ...task.TaskOption) (bool, error) {
	id, err := task.ParseID(rawID)
	if err != nil {
		return false, NewInvalidID(rawID, err)
	}

	patch := task.NewPatch(options...)
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return false, NewValidationError("title", "Title cannot be empty")
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		patch.Description = &description
	}

	if patch.IsEmpty() {
		logger.Info("Service: Пустое обновление", zap.String("task_id", id.Hex()))
		return false, nil
	}

	updated, err := s.repo.UpdateFields(ctx, id, owner, patch)
	if err != nil {
		if errors.Is(err, task.ErrInvalidID) {
			return false, NewInvalidID(rawID, err)
		}
		return false, fmt.Errorf("обновление задачи: %w", err)
	}

	if !updated {
		logger.Info("Service: Задача не изменена",
			zap.String("task_id", id.Hex()),
			zap.String("owner", owner))
	}
	return updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, owner, rawID string) (bool, error) {
	id, err := task.ParseID(rawID)
	if err != nil {
		return false, NewInvalidID(rawID, err)
	}

	deleted, err := s.repo.Delete(ctx, id, owner)
	if err != nil {
		if errors.Is(err, task.ErrInvalidID) {
			return false, NewInvalidID(rawID, err)
		}
		return false, fmt.Errorf("удаление задачи: %w", err)
	}

	if !deleted {
		logger.Info("Service: Задача для удаления не найдена",
			zap.String("task_id", id.Hex()),
			zap.String("owner", owner))
	}
	return deleted, nil
}
