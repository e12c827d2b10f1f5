package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"taskboard/internal/app"
	"taskboard/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Database: config.DatabaseConfig{Driver: config.DriverInMemory},
		Auth: config.AuthConfig{
			Secret:     "test-secret",
			TokenTTL:   time.Hour,
			Issuer:     "taskboard",
			CookieName: "session-token",
		},
		Worker: config.WorkerConfig{Enabled: true, Interval: time.Hour, BatchSize: 10},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

type client struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func (c *client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, buf.Bytes()
}

func (c *client) login(email, password string) {
	c.t.Helper()

	code, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, code, string(body))

	var response struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(body, &response))
	require.NotEmpty(c.t, response.Token)
	c.token = response.Token
}

// TestApp_EndToEnd тестирует полный сценарий: регистрация, вход и работа с задачами
func TestApp_EndToEnd(t *testing.T) {
	a, err := app.New(testConfig()).Init(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)

	server := httptest.NewServer(a.Router())
	t.Cleanup(server.Close)

	alice := &client{t: t, server: server}
	bob := &client{t: t, server: server}

	code, _ := alice.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = alice.do(http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := alice.do(http.MethodPost, "/api/auth/signup", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, code, string(body))
	assert.JSONEq(t, `{"success":true}`, string(body))

	code, body = alice.do(http.MethodPost, "/api/auth/signup", map[string]string{"email": "A@X.com ", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "User already exists")

	code, body = alice.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotContains(t, string(body), "token")

	code, _ = bob.do(http.MethodPost, "/api/auth/signup", map[string]string{"email": "b@x.com", "password": "secret2"})
	require.Equal(t, http.StatusOK, code)

	alice.login("a@x.com", "secret1")
	bob.login("b@x.com", "secret2")

	code, body = alice.do(http.MethodPost, "/api/tasks", map[string]any{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "Title is required")

	code, body = alice.do(http.MethodPost, "/api/tasks", map[string]any{"title": "  Buy milk  ", "description": " 2 litres "})
	require.Equal(t, http.StatusOK, code, string(body))
	var created struct {
		Success bool   `json:"success"`
		TaskID  string `json:"taskId"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.True(t, created.Success)
	require.Len(t, created.TaskID, 24)

	code, body = alice.do(http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, code)
	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(body, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0]["title"])
	assert.Equal(t, "2 litres", tasks[0]["description"])
	assert.Equal(t, false, tasks[0]["completed"])
	assert.Equal(t, "a@x.com", tasks[0]["userId"])

	// bob не видит и не может менять чужую задачу
	code, body = bob.do(http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body))

	code, body = bob.do(http.MethodPut, "/api/tasks", map[string]any{"id": created.TaskID, "title": "hacked"})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"success":false}`, string(body))

	code, body = bob.do(http.MethodDelete, "/api/tasks", map[string]any{"id": created.TaskID})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"success":false}`, string(body))

	code, _ = alice.do(http.MethodPut, "/api/tasks", map[string]any{"id": "not-an-id", "completed": true})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = alice.do(http.MethodPut, "/api/tasks", map[string]any{"id": created.TaskID, "completed": true})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"success":true}`, string(body))

	code, body = alice.do(http.MethodGet, "/api/tasks?filter=completed", nil)
	require.Equal(t, http.StatusOK, code)
	tasks = nil
	require.NoError(t, json.Unmarshal(body, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, true, tasks[0]["completed"])
	assert.Equal(t, "Buy milk", tasks[0]["title"])

	code, body = alice.do(http.MethodDelete, "/api/tasks", map[string]any{"id": created.TaskID})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"success":true}`, string(body))

	code, body = alice.do(http.MethodDelete, "/api/tasks", map[string]any{"id": created.TaskID})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"success":false}`, string(body))
}

// TestApp_ClearDueDate тестирует снятие срока формой редактирования
func TestApp_ClearDueDate(t *testing.T) {
	a, err := app.New(testConfig()).Init(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)

	server := httptest.NewServer(a.Router())
	t.Cleanup(server.Close)

	alice := &client{t: t, server: server}
	code, _ := alice.do(http.MethodPost, "/api/auth/signup", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, code)
	alice.login("a@x.com", "secret1")

	code, body := alice.do(http.MethodPost, "/api/tasks", map[string]any{"title": "Report", "dueDate": "2030-05-01"})
	require.Equal(t, http.StatusOK, code, string(body))
	var created struct {
		TaskID string `json:"taskId"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	code, body = alice.do(http.MethodPut, "/api/tasks", map[string]any{"id": created.TaskID, "title": "Report", "dueDate": ""})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"success":true}`, string(body))

	code, body = alice.do(http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, code)
	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(body, &tasks))
	require.Len(t, tasks, 1)
	assert.NotContains(t, tasks[0], "dueDate")
	assert.Equal(t, "Report", tasks[0]["title"])
}

// TestApp_CORS тестирует preflight-запрос с разрешённого источника
func TestApp_CORS(t *testing.T) {
	a, err := app.New(testConfig()).Init(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	a.Router().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

// TestApp_InitInvalidConfig тестирует отказ при неполном конфиге
func TestApp_InitInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Secret = ""

	_, err := app.New(cfg).Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.secret")
}

// TestApp_Run тестирует запуск и остановку по отмене контекста
func TestApp_Run(t *testing.T) {
	a, err := app.New(testConfig()).Init(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("приложение не остановилось")
	}
}
