package service_test

import (
	"context"
	"errors"
	"taskboard/internal/models/user"
	"taskboard/internal/repository"
	"taskboard/internal/repository/inmemory"
	"taskboard/internal/service"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

var _ service.UserRepository = (*MockUserRepository)(nil)

// TestAuthService_Scenario тестирует регистрацию, повтор и вход с неверным паролем
func TestAuthService_Scenario(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStorage()
	svc := service.NewAuthService(store)

	require.NoError(t, svc.Register(ctx, "a@x.com", "Alice", "secret1"))

	stored, err := store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, service.PasswordCost, cost)

	err = svc.Register(ctx, " A@X.COM ", "", "other")
	require.Error(t, err)
	assert.True(t, service.IsCode(err, service.CodeDuplicate))

	_, err = svc.Verify(ctx, "a@x.com", "wrong")
	require.Error(t, err)
	assert.True(t, service.IsCode(err, service.CodeUnauthorized))

	identity, err := svc.Verify(ctx, "A@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", identity.Email)
	assert.Equal(t, "Alice", identity.Name)
	assert.Equal(t, stored.ID.Hex(), identity.ID)
}

// TestAuthService_Verify_Indistinguishable тестирует одинаковый ответ для неизвестного email и неверного пароля
func TestAuthService_Verify_Indistinguishable(t *testing.T) {
	ctx := context.Background()
	svc := service.NewAuthService(inmemory.NewStorage())
	require.NoError(t, svc.Register(ctx, "a@x.com", "", "secret1"))

	_, unknownErr := svc.Verify(ctx, "nobody@x.com", "secret1")
	_, wrongErr := svc.Verify(ctx, "a@x.com", "wrong")

	unknown, ok := service.AsBusinessError(unknownErr)
	require.True(t, ok)
	wrong, ok := service.AsBusinessError(wrongErr)
	require.True(t, ok)

	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Message, unknown.Message)
	assert.Equal(t, wrong.Error(), unknown.Error())
}

// TestAuthService_Register_Validation тестирует обязательные поля
func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "secret"},
		{"whitespace email", "   ", "secret"},
		{"empty password", "a@x.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)

			err := service.NewAuthService(mockRepo).Register(context.Background(), tt.email, "", tt.password)
			require.Error(t, err)
			assert.True(t, service.IsCode(err, service.CodeValidation))

			busErr, _ := service.AsBusinessError(err)
			assert.Equal(t, "Email & password required", busErr.Message)
			mockRepo.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
			mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		})
	}
}

// TestAuthService_Register_RaceOnInsert тестирует дубликат, пойманный уникальным индексом
func TestAuthService_Register_RaceOnInsert(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("GetUserByEmail", mock.Anything, "a@x.com").Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*user.User")).Return(repository.ErrDuplicateUser)

	err := service.NewAuthService(mockRepo).Register(context.Background(), "a@x.com", "", "secret1")
	require.Error(t, err)
	assert.True(t, service.IsCode(err, service.CodeDuplicate))
	mockRepo.AssertExpectations(t)
}

// TestAuthService_StoreFailure тестирует, что ошибка хранилища не превращается в бизнес-ошибку
func TestAuthService_StoreFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("GetUserByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("connection reset"))
	svc := service.NewAuthService(mockRepo)

	err := svc.Register(context.Background(), "a@x.com", "", "secret1")
	require.Error(t, err)
	_, isBusiness := service.AsBusinessError(err)
	assert.False(t, isBusiness)

	_, err = svc.Verify(context.Background(), "a@x.com", "secret1")
	require.Error(t, err)
	_, isBusiness = service.AsBusinessError(err)
	assert.False(t, isBusiness)
}
