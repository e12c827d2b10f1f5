package postgres

import (
	"context"
	"fmt"
	"strings"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"
	"time"

	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const taskColumns = `id, title, description, completed, status, due_date, owner, created_at`

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer s.observe("create_task", start)

	if taskToCreate.ID.IsZero() {
		taskToCreate.ID = task.NewID()
	}

	query := `INSERT INTO tasks
				(id, title, description, completed, status, due_date, owner, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.ID.Hex(),
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Completed,
		taskToCreate.Status,
		taskToCreate.DueDate,
		taskToCreate.Owner,
		time.Now().UTC().Truncate(time.Microsecond),
	).Scan(&taskToCreate.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	taskToCreate.CreatedAt = taskToCreate.CreatedAt.UTC()
	return nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t     task.Task
		rawID string
	)
	err := row.Scan(
		&rawID,
		&t.Title,
		&t.Description,
		&t.Completed,
		&t.Status,
		&t.DueDate,
		&t.Owner,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.ID, err = primitive.ObjectIDFromHex(strings.TrimSpace(rawID))
	if err != nil {
		return nil, fmt.Errorf("разбор id %q: %w", rawID, err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
	return &t, nil
}

func (s *Storage) ListByOwner(ctx context.Context, owner string) ([]*task.Task, error) {
	start := time.Now()
	defer s.observe("list_tasks", start)

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE owner = $1
				ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, owner)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return tasks, nil
}

// buildUpdate собирает SET только из переданных полей. Условие IS DISTINCT FROM
// нужно, чтобы запись без фактических изменений не считалась обновлённой.
func buildUpdate(id task.ID, owner string, patch task.Patch) (string, []any) {
	args := []any{id.Hex(), owner}
	var sets, changed []string

	add := func(column string, value any) {
		args = append(args, value)
		placeholder := fmt.Sprintf("$%d", len(args))
		sets = append(sets, column+" = "+placeholder)
		changed = append(changed, column+" IS DISTINCT FROM "+placeholder)
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Completed != nil {
		add("completed", *patch.Completed)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.DueDate != nil {
		add("due_date", patch.DueDate.UTC())
	}
	if patch.ClearDueDate {
		sets = append(sets, "due_date = NULL")
		changed = append(changed, "due_date IS DISTINCT FROM NULL")
	}
	if patch.ClearsOverdue() {
		args = append(args, task.StatusOverdue)
		placeholder := fmt.Sprintf("$%d", len(args))
		sets = append(sets, "status = NULLIF(status, "+placeholder+")")
		changed = append(changed, "status IS NOT DISTINCT FROM "+placeholder)
	}

	if len(sets) == 0 {
		return "", nil
	}

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND owner = $2 AND (` + strings.Join(changed, " OR ") + `)`
	return query, args
}

func (s *Storage) UpdateFields(ctx context.Context, id task.ID, owner string, patch task.Patch) (bool, error) {
	if id.IsZero() {
		return false, repo.ErrInvalidID
	}
	query, args := buildUpdate(id, owner, patch)
	if query == "" {
		return false, nil
	}

	start := time.Now()
	defer s.observe("update_task", start)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return false, fmt.Errorf("обновление задачи: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Storage) Delete(ctx context.Context, id task.ID, owner string) (bool, error) {
	if id.IsZero() {
		return false, repo.ErrInvalidID
	}

	start := time.Now()
	defer s.observe("delete_task", start)

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner = $2`, id.Hex(), owner)
	if err != nil {
		logger.Error("Repositry: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return false, fmt.Errorf("удаление задачи: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Storage) MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	start := time.Now()
	defer s.observe("mark_overdue", start)

	// LIMIT NULL в postgres означает отсутствие ограничения
	var batch any
	if limit > 0 {
		batch = limit
	}

	// статус, выставленный пользователем, не перезаписываем
	query := `UPDATE tasks SET status = $1
				WHERE id IN (
					SELECT id FROM tasks
					WHERE completed = FALSE
						AND due_date < $2
						AND (status IS NULL OR status = '')
					LIMIT $3
				)`

	tag, err := s.pool.Exec(ctx, query, task.StatusOverdue, now.UTC(), batch)
	if err != nil {
		logger.Error("Repository: Не удалось пометить просроченные задачи", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("пометка просроченных задач: %w", err)
	}
	return tag.RowsAffected(), nil
}
