package main

import (
	"bytes"
	"context"
	"errors"
	"taskboard/internal/config"
	"taskboard/internal/repository/inmemory"
	"taskboard/internal/storage"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// useMemoryStore подставляет одно хранилище в памяти на весь тест
func useMemoryStore(t *testing.T) *inmemory.Storage {
	t.Helper()
	t.Setenv("TASKBOARD_CONFIG", "")
	t.Chdir(t.TempDir())

	mem := inmemory.NewStorage()
	original := openStore
	openStore = func(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
		return mem, nil
	}
	t.Cleanup(func() { openStore = original })
	return mem
}

func TestRun_Success(t *testing.T) {
	mem := useMemoryStore(t)
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	err := run([]string{"--email", " Alice@X.com", "--name", "Alice", "--password", "secret"}, new(bytes.Buffer), stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "User alice@x.com created successfully")

	stored, err := mem.GetUserByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret")))
}

func TestRun_DuplicateUser(t *testing.T) {
	useMemoryStore(t)
	args := []string{"--email", "a@x.com", "--password", "secret"}

	require.NoError(t, run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)))

	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_MissingEmailFlag(t *testing.T) {
	useMemoryStore(t)
	stdout := new(bytes.Buffer)

	err := run([]string{"--password", "secret"}, new(bytes.Buffer), stdout, new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: email")
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_InteractivePassword(t *testing.T) {
	mem := useMemoryStore(t)
	stdout := new(bytes.Buffer)

	err := run([]string{"--email", "i@x.com"}, bytes.NewBufferString("interactive_secret\n"), stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Password: ")

	stored, err := mem.GetUserByEmail(context.Background(), "i@x.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("interactive_secret")))
}

func TestRun_EmptyPassword(t *testing.T) {
	useMemoryStore(t)

	err := run([]string{"--email", "e@x.com"}, bytes.NewBufferString("   \n"), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestRun_OpenStoreError(t *testing.T) {
	useMemoryStore(t)
	openStore = func(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
		return nil, errors.New("connection refused")
	}

	err := run([]string{"--email", "a@x.com", "--password", "secret"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_Help(t *testing.T) {
	err := run([]string{"--help"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	assert.ErrorIs(t, err, pflag.ErrHelp)
}
