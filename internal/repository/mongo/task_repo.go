package mongo

import (
	"context"
	"fmt"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer s.observe("create_task", start)

	if taskToCreate.ID.IsZero() {
		taskToCreate.ID = task.NewID()
	}
	// mongo хранит время с точностью до миллисекунд
	taskToCreate.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := s.tasks.InsertOne(ctx, taskToCreate); err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) ListByOwner(ctx context.Context, owner string) ([]*task.Task, error) {
	start := time.Now()
	defer s.observe("list_tasks", start)

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.tasks.Find(ctx, bson.M{"userId": owner}, findOpts)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []*task.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		logger.Error("Repository: Ошибка чтения курсора", err)
		return nil, fmt.Errorf("чтение курсора: %w", err)
	}
	return tasks, nil
}

func patchToUpdate(patch task.Patch) bson.M {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.DueDate != nil {
		set["dueDate"] = *patch.DueDate
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if patch.ClearDueDate {
		update["$unset"] = bson.M{"dueDate": ""}
	}
	return update
}

// владелец входит в фильтр, поэтому чужую задачу не обновить даже по угаданному id
func (s *Storage) UpdateFields(ctx context.Context, id task.ID, owner string, patch task.Patch) (bool, error) {
	if id.IsZero() {
		return false, repo.ErrInvalidID
	}
	update := patchToUpdate(patch)
	if len(update) == 0 {
		return false, nil
	}

	start := time.Now()
	defer s.observe("update_task", start)

	filter := bson.M{"_id": id, "userId": owner}
	result, err := s.tasks.UpdateOne(ctx, filter, update)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return false, fmt.Errorf("обновление задачи: %w", err)
	}
	modified := result.ModifiedCount > 0

	if patch.ClearsOverdue() {
		filter["status"] = task.StatusOverdue
		cleared, err := s.tasks.UpdateOne(ctx, filter, bson.M{"$unset": bson.M{"status": ""}})
		if err != nil {
			logger.Error("Repository: Не удалось снять метку overdue", err, zap.Duration("ms", time.Since(start)))
			return modified, fmt.Errorf("снятие метки overdue: %w", err)
		}
		modified = modified || cleared.ModifiedCount > 0
	}
	return modified, nil
}

func (s *Storage) Delete(ctx context.Context, id task.ID, owner string) (bool, error) {
	if id.IsZero() {
		return false, repo.ErrInvalidID
	}

	start := time.Now()
	defer s.observe("delete_task", start)

	result, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id, "userId": owner})
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return false, fmt.Errorf("удаление задачи: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (s *Storage) MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	start := time.Now()
	defer s.observe("mark_overdue", start)

	filter := bson.M{
		"completed": false,
		"dueDate":   bson.M{"$lt": now},
		// отсутствующий, null или пустой статус; метку пользователя не трогаем
		"status": bson.M{"$in": bson.A{nil, ""}},
	}

	findOpts := options.Find().SetProjection(bson.M{"_id": 1})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	cursor, err := s.tasks.Find(ctx, filter, findOpts)
	if err != nil {
		return 0, fmt.Errorf("поиск просроченных задач: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID task.ID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return 0, fmt.Errorf("чтение курсора: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	ids := make([]task.ID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}

	filter["_id"] = bson.M{"$in": ids}
	result, err := s.tasks.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"status": task.StatusOverdue}})
	if err != nil {
		logger.Error("Repository: Не удалось пометить просроченные задачи", err)
		return 0, fmt.Errorf("пометка просроченных задач: %w", err)
	}
	return result.ModifiedCount, nil
}
