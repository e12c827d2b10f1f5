package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskboard/internal/logger"
	"taskboard/internal/models/user"
	repo "taskboard/internal/repository"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

func (s *Storage) CreateUser(ctx context.Context, u *user.User) error {
	start := time.Now()
	defer s.observe("create_user", start)

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID.Hex(), u.Email, u.Name, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repo.ErrDuplicateUser
		}
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление пользователя: %w", err)
	}
	return nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	start := time.Now()
	defer s.observe("get_user", start)

	var (
		u     user.User
		rawID string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password, created_at FROM users WHERE email = $1`, email,
	).Scan(&rawID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	u.ID, err = primitive.ObjectIDFromHex(strings.TrimSpace(rawID))
	if err != nil {
		return nil, fmt.Errorf("разбор id пользователя %q: %w", rawID, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
