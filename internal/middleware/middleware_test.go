package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"taskboard/internal/logger"
	"taskboard/internal/middleware"
	"taskboard/internal/models/user"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	previous := logger.Logger
	logger.Logger = zap.New(core)
	t.Cleanup(func() { logger.Logger = previous })
	return logs
}

type stubSessions struct {
	identity user.Identity
	ok       bool
}

func (s stubSessions) Validate(*http.Request) (user.Identity, bool) {
	return s.identity, s.ok
}

// TestRequestID тестирует генерацию и проброс идентификатора запроса
func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	t.Run("генерируется", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("берётся из заголовка", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	})

	t.Run("некорректный заменяется", func(t *testing.T) {
		for _, bad := range []string{strings.Repeat("a", 65), "with space", "line\nbreak"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", bad)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.NotEqual(t, bad, seen)
			assert.Len(t, seen, 36)
		}
	})
}

// TestLogging_LevelAndUser тестирует уровень итоговой записи и email пользователя в ней
func TestLogging_LevelAndUser(t *testing.T) {
	logs := observeLogs(t)
	sessions := stubSessions{identity: user.Identity{Email: "a@x.com"}, ok: true}

	handler := middleware.RequestID(middleware.Logging(middleware.RequireSession(sessions)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/tasks", nil))

	out := logs.FilterMessage("HTTP_OUT: Завершение запроса").All()
	require.Len(t, out, 1)
	assert.Equal(t, zapcore.WarnLevel, out[0].Level)

	fields := out[0].ContextMap()
	assert.Equal(t, "a@x.com", fields["user"])
	assert.EqualValues(t, http.StatusBadRequest, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

// TestLogging тестирует, что обёртка не меняет ответ
func TestLogging(t *testing.T) {
	handler := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

// TestRequireSession тестирует отказ без сессии и проброс пользователя в контекст
func TestRequireSession(t *testing.T) {
	alice := user.Identity{ID: "1", Name: "Alice", Email: "a@x.com"}

	var called bool
	var got user.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got, _ = middleware.IdentityFromContext(r.Context())
	})

	t.Run("без сессии", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		middleware.RequireSession(stubSessions{})(next).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	})

	t.Run("с сессией", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		middleware.RequireSession(stubSessions{identity: alice, ok: true})(next).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

		require.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, alice, got)
	})
}

// TestIdentityFromContext тестирует пустой контекст
func TestIdentityFromContext(t *testing.T) {
	_, ok := middleware.IdentityFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
