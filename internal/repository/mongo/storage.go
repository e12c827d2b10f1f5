package mongo

import (
	"context"
	"fmt"
	"taskboard/internal/logger"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	tasksCollection = "tasks"
	usersCollection = "users"
)

type Options struct {
	URI            string
	Database       string
	MaxConnections int
	MinConnections int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
	SlowQuery      time.Duration
}

type Storage struct {
	client    *mongo.Client
	tasks     *mongo.Collection
	users     *mongo.Collection
	slowQuery time.Duration
}

func New(ctx context.Context, opts Options) (*Storage, error) {
	if opts.Database == "" {
		return nil, fmt.Errorf("создание клиента: не задано имя базы данных")
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.MaxConnections > 0 {
		clientOpts.SetMaxPoolSize(uint64(opts.MaxConnections))
	}
	if opts.MinConnections > 0 {
		clientOpts.SetMinPoolSize(uint64(opts.MinConnections))
	}
	if opts.IdleTimeout > 0 {
		clientOpts.SetMaxConnIdleTime(opts.IdleTimeout)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(opts.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		logger.Error("Repository: Ошибка создания клиента MongoDB", err)
		return nil, fmt.Errorf("создание клиента: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	slow := opts.SlowQuery
	if slow <= 0 {
		slow = 100 * time.Millisecond
	}

	db := client.Database(opts.Database)
	s := &Storage{
		client:    client,
		tasks:     db.Collection(tasksCollection),
		users:     db.Collection(usersCollection),
		slowQuery: slow,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("Repository: Успешное создание подключения к MongoDB", zap.String("database", opts.Database))
	return s, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		logger.Error("Repository: Не удалось создать индекс users.email", err)
		return fmt.Errorf("создание индекса users: %w", err)
	}

	_, err = s.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("tasks_owner_created"),
	})
	if err != nil {
		logger.Error("Repository: Не удалось создать индекс tasks", err)
		return fmt.Errorf("создание индекса tasks: %w", err)
	}

	// для фоновой разметки просроченных задач
	_, err = s.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "completed", Value: 1}, {Key: "dueDate", Value: 1}},
		Options: options.Index().SetName("tasks_due_date"),
	})
	if err != nil {
		logger.Error("Repository: Не удалось создать индекс dueDate", err)
		return fmt.Errorf("создание индекса dueDate: %w", err)
	}
	return nil
}

func (s *Storage) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.client == nil {
		return
	}
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Error("Repository: Ошибка закрытия соединений MongoDB", err)
		return
	}
	logger.Info("Repository: Закрытие всех соединений MongoDB")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) observe(operation string, start time.Time) {
	if elapsed := time.Since(start); elapsed > s.slowQuery {
		logger.Warn("Repository: Медленный запрос",
			zap.String("operation", operation),
			zap.Duration("ms", elapsed))
	}
}
