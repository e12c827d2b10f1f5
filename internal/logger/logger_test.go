package logger_test

import (
	"errors"
	"net/http/httptest"
	"taskboard/internal/logger"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestInit тестирует обе конфигурации
func TestInit(t *testing.T) {
	previous := logger.Logger
	t.Cleanup(func() { logger.Logger = previous })

	require.NoError(t, logger.Init(true))
	assert.True(t, logger.Logger.Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, logger.Init(false))
	assert.False(t, logger.Logger.Core().Enabled(zapcore.DebugLevel))
}

// TestHelpers тестирует поля, которые добавляют обёртки
func TestHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	previous := logger.Logger
	logger.Logger = zap.New(core)
	t.Cleanup(func() { logger.Logger = previous })

	logger.Error("с ошибкой", errors.New("boom"))
	logger.Error("без ошибки", nil)
	logger.HttpRequestInfo(httptest.NewRequest("GET", "/api/tasks?filter=overdue", nil), "запрос")

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
	assert.NotContains(t, entries[1].ContextMap(), "error")

	request := entries[2].ContextMap()
	assert.Equal(t, "GET", request["method"])
	assert.Equal(t, "/api/tasks", request["path"])
	assert.Equal(t, "filter=overdue", request["query"])
}
