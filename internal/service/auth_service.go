package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"taskboard/internal/logger"
	"taskboard/internal/models/user"
	"taskboard/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const PasswordCost = 10

// одно сообщение и для неизвестного email, и для неверного пароля
const invalidCredentialsMessage = "Invalid email or password"

type AuthService struct {
	users UserRepository
	cost  int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users UserRepository) *AuthService {
	return &AuthService{
		users: users,
		cost:  PasswordCost,
	}
}

func (s *AuthService) Register(ctx context.Context, email, name, password string) error {
	email = user.NormalizeEmail(email)
	if email == "" || password == "" {
		return NewValidationError("email", "Email & password required")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return NewDuplicate(email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("поиск пользователя: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("хеширование пароля: %w", err)
	}

	newUser := &user.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, newUser); err != nil {
		// гонка между проверкой и вставкой ловится уникальным индексом
		if errors.Is(err, repository.ErrDuplicateUser) {
			return NewDuplicate(email)
		}
		return fmt.Errorf("создание пользователя: %w", err)
	}

	logger.Info("Service: Пользователь зарегистрирован", zap.String("email", email))
	return nil
}

func (s *AuthService) Verify(ctx context.Context, email, password string) (user.Identity, error) {
	email = user.NormalizeEmail(email)
	if email == "" || password == "" {
		return user.Identity{}, NewUnauthorized(invalidCredentialsMessage)
	}

	found, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// сравниваем с фиктивным хешем, чтобы время ответа не выдавало наличие пользователя
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			logger.Warn("Service: Вход неизвестного пользователя", zap.String("email", email))
			return user.Identity{}, NewUnauthorized(invalidCredentialsMessage)
		}
		return user.Identity{}, fmt.Errorf("поиск пользователя: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		logger.Warn("Service: Неверный пароль", zap.String("email", email))
		return user.Identity{}, NewUnauthorized(invalidCredentialsMessage)
	}

	return found.Identity(), nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskboard-dummy-password"), s.cost)
	})
	return s.dummyHash
}
