// Package repotest содержит общий набор проверок для всех реализаций хранилища.
package repotest

import (
	"context"
	"taskboard/internal/models/task"
	"taskboard/internal/models/user"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store interface {
	service.TaskRepository
	service.UserRepository
}

const (
	Alice = "alice@example.com"
	Bob   = "bob@example.com"
)

// StoreSuite прогоняет контракт репозитория. Open должен вернуть пустое хранилище.
type StoreSuite struct {
	suite.Suite
	Open  func(t *testing.T) Store
	store Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.Open(s.T())

	for _, email := range []string{Alice, Bob} {
		err := s.store.CreateUser(s.ctx, &user.User{
			ID:           primitive.NewObjectID(),
			Email:        email,
			PasswordHash: "hash",
			CreatedAt:    time.Now().UTC(),
		})
		require.NoError(s.T(), err)
	}
}

func (s *StoreSuite) create(owner, title string) *task.Task {
	t := &task.Task{
		ID:          task.NewID(),
		Title:       title,
		Description: title + " description",
		Owner:       owner,
	}
	require.NoError(s.T(), s.store.Create(s.ctx, t))
	return t
}

func (s *StoreSuite) find(owner string, id task.ID) *task.Task {
	tasks, err := s.store.ListByOwner(s.ctx, owner)
	require.NoError(s.T(), err)
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *StoreSuite) TestHealthCheck() {
	assert.NoError(s.T(), s.store.HealthCheck(s.ctx))
}

func (s *StoreSuite) TestCreate_RoundTrip() {
	created := s.create(Alice, "Buy milk")
	assert.False(s.T(), created.CreatedAt.IsZero())

	got := s.find(Alice, created.ID)
	require.NotNil(s.T(), got)
	assert.Equal(s.T(), "Buy milk", got.Title)
	assert.Equal(s.T(), "Buy milk description", got.Description)
	assert.False(s.T(), got.Completed)
	assert.Nil(s.T(), got.Status)
	assert.Nil(s.T(), got.DueDate)
	assert.Equal(s.T(), Alice, got.Owner)
	assert.WithinDuration(s.T(), created.CreatedAt, got.CreatedAt, time.Millisecond)
}

func (s *StoreSuite) TestCreate_WithDueDate() {
	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Millisecond)
	t := &task.Task{ID: task.NewID(), Title: "With due", Owner: Alice, DueDate: &due, Completed: true}
	require.NoError(s.T(), s.store.Create(s.ctx, t))

	got := s.find(Alice, t.ID)
	require.NotNil(s.T(), got)
	require.NotNil(s.T(), got.DueDate)
	assert.WithinDuration(s.T(), due, *got.DueDate, time.Millisecond)
	assert.True(s.T(), got.Completed)
}

func (s *StoreSuite) TestListByOwner_Empty() {
	tasks, err := s.store.ListByOwner(s.ctx, Bob)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), tasks)
	assert.Empty(s.T(), tasks)
}

func (s *StoreSuite) TestListByOwner_NewestFirst() {
	first := s.create(Alice, "first")
	time.Sleep(5 * time.Millisecond)
	second := s.create(Alice, "second")
	time.Sleep(5 * time.Millisecond)
	third := s.create(Alice, "third")

	tasks, err := s.store.ListByOwner(s.ctx, Alice)
	require.NoError(s.T(), err)
	require.Len(s.T(), tasks, 3)
	assert.Equal(s.T(), third.ID, tasks[0].ID)
	assert.Equal(s.T(), second.ID, tasks[1].ID)
	assert.Equal(s.T(), first.ID, tasks[2].ID)
}

func (s *StoreSuite) TestOwnership_Isolation() {
	aliceTask := s.create(Alice, "private")

	bobTasks, err := s.store.ListByOwner(s.ctx, Bob)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), bobTasks)

	updated, err := s.store.UpdateFields(s.ctx, aliceTask.ID, Bob, task.NewPatch(task.WithTitle("hacked")))
	require.NoError(s.T(), err)
	assert.False(s.T(), updated)

	deleted, err := s.store.Delete(s.ctx, aliceTask.ID, Bob)
	require.NoError(s.T(), err)
	assert.False(s.T(), deleted)

	got := s.find(Alice, aliceTask.ID)
	require.NotNil(s.T(), got)
	assert.Equal(s.T(), "private", got.Title)
}

func (s *StoreSuite) TestUpdateFields_Partial() {
	created := s.create(Alice, "partial")

	updated, err := s.store.UpdateFields(s.ctx, created.ID, Alice, task.NewPatch(task.WithCompleted(true)))
	require.NoError(s.T(), err)
	assert.True(s.T(), updated)

	got := s.find(Alice, created.ID)
	require.NotNil(s.T(), got)
	assert.True(s.T(), got.Completed)
	assert.Equal(s.T(), "partial", got.Title)
	assert.Equal(s.T(), "partial description", got.Description)
	assert.Nil(s.T(), got.Status)
	assert.Nil(s.T(), got.DueDate)
	assert.WithinDuration(s.T(), created.CreatedAt, got.CreatedAt, time.Millisecond)
}

func (s *StoreSuite) TestUpdateFields_AllFields() {
	created := s.create(Alice, "all")
	due := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)

	updated, err := s.store.UpdateFields(s.ctx, created.ID, Alice, task.NewPatch(
		task.WithTitle("renamed"),
		task.WithDescription(""),
		task.WithStatus("in progress"),
		task.WithDueDate(due),
	))
	require.NoError(s.T(), err)
	assert.True(s.T(), updated)

	got := s.find(Alice, created.ID)
	require.NotNil(s.T(), got)
	assert.Equal(s.T(), "renamed", got.Title)
	assert.Equal(s.T(), "", got.Description)
	require.NotNil(s.T(), got.Status)
	assert.Equal(s.T(), "in progress", *got.Status)
	require.NotNil(s.T(), got.DueDate)
	assert.WithinDuration(s.T(), due, *got.DueDate, time.Millisecond)
	assert.False(s.T(), got.Completed)
}

func (s *StoreSuite) TestUpdateFields_NoChange() {
	created := s.create(Alice, "same")

	updated, err := s.store.UpdateFields(s.ctx, created.ID, Alice, task.NewPatch(task.WithTitle("same")))
	require.NoError(s.T(), err)
	assert.False(s.T(), updated)

	updated, err = s.store.UpdateFields(s.ctx, created.ID, Alice, task.Patch{})
	require.NoError(s.T(), err)
	assert.False(s.T(), updated)
}

func (s *StoreSuite) TestUpdateFields_Missing() {
	updated, err := s.store.UpdateFields(s.ctx, task.NewID(), Alice, task.NewPatch(task.WithCompleted(true)))
	require.NoError(s.T(), err)
	assert.False(s.T(), updated)
}

func (s *StoreSuite) TestDelete_Twice() {
	created := s.create(Alice, "to delete")

	deleted, err := s.store.Delete(s.ctx, created.ID, Alice)
	require.NoError(s.T(), err)
	assert.True(s.T(), deleted)

	deleted, err = s.store.Delete(s.ctx, created.ID, Alice)
	require.NoError(s.T(), err)
	assert.False(s.T(), deleted)

	assert.Nil(s.T(), s.find(Alice, created.ID))
}

func (s *StoreSuite) TestInvalidID() {
	_, err := s.store.UpdateFields(s.ctx, task.NilID, Alice, task.NewPatch(task.WithCompleted(true)))
	assert.ErrorIs(s.T(), err, repository.ErrInvalidID)

	_, err = s.store.Delete(s.ctx, task.NilID, Alice)
	assert.ErrorIs(s.T(), err, repository.ErrInvalidID)
}

func (s *StoreSuite) TestMarkOverdue() {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	overdue := &task.Task{ID: task.NewID(), Title: "overdue", Owner: Alice, DueDate: &past}
	done := &task.Task{ID: task.NewID(), Title: "done", Owner: Alice, DueDate: &past, Completed: true}
	upcoming := &task.Task{ID: task.NewID(), Title: "upcoming", Owner: Bob, DueDate: &future}
	for _, t := range []*task.Task{overdue, done, upcoming} {
		require.NoError(s.T(), s.store.Create(s.ctx, t))
	}

	marked, err := s.store.MarkOverdue(s.ctx, now, 10)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), marked)

	got := s.find(Alice, overdue.ID)
	require.NotNil(s.T(), got)
	require.NotNil(s.T(), got.Status)
	assert.Equal(s.T(), task.StatusOverdue, *got.Status)

	// повторный проход ничего не меняет
	marked, err = s.store.MarkOverdue(s.ctx, now, 10)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), marked)
}

func (s *StoreSuite) TestUpdateFields_ClearDueDate() {
	due := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Millisecond)
	t := &task.Task{ID: task.NewID(), Title: "dated", Owner: Alice, DueDate: &due}
	require.NoError(s.T(), s.store.Create(s.ctx, t))

	// форма редактирования присылает тот же заголовок и пустую дату
	updated, err := s.store.UpdateFields(s.ctx, t.ID, Alice, task.NewPatch(
		task.WithTitle("dated"),
		task.WithoutDueDate(),
	))
	require.NoError(s.T(), err)
	assert.True(s.T(), updated)

	got := s.find(Alice, t.ID)
	require.NotNil(s.T(), got)
	assert.Nil(s.T(), got.DueDate)
	assert.Equal(s.T(), "dated", got.Title)

	updated, err = s.store.UpdateFields(s.ctx, t.ID, Alice, task.NewPatch(task.WithoutDueDate()))
	require.NoError(s.T(), err)
	assert.False(s.T(), updated)
}

func (s *StoreSuite) TestMarkOverdue_KeepsUserStatus() {
	past := time.Now().Add(-time.Hour).UTC()
	labelled := &task.Task{ID: task.NewID(), Title: "labelled", Owner: Alice, DueDate: &past}
	require.NoError(s.T(), s.store.Create(s.ctx, labelled))

	updated, err := s.store.UpdateFields(s.ctx, labelled.ID, Alice, task.NewPatch(task.WithStatus("in progress")))
	require.NoError(s.T(), err)
	require.True(s.T(), updated)

	marked, err := s.store.MarkOverdue(s.ctx, time.Now().UTC(), 10)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), marked)

	updated, err = s.store.UpdateFields(s.ctx, labelled.ID, Alice, task.NewPatch(task.WithCompleted(true)))
	require.NoError(s.T(), err)
	assert.True(s.T(), updated)

	got := s.find(Alice, labelled.ID)
	require.NotNil(s.T(), got)
	assert.True(s.T(), got.Completed)
	require.NotNil(s.T(), got.Status)
	assert.Equal(s.T(), "in progress", *got.Status)
}

func (s *StoreSuite) TestComplete_DropsOverdueLabel() {
	past := time.Now().Add(-time.Hour).UTC()
	late := &task.Task{ID: task.NewID(), Title: "late", Owner: Alice, DueDate: &past}
	require.NoError(s.T(), s.store.Create(s.ctx, late))

	marked, err := s.store.MarkOverdue(s.ctx, time.Now().UTC(), 10)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(1), marked)

	updated, err := s.store.UpdateFields(s.ctx, late.ID, Alice, task.NewPatch(task.WithCompleted(true)))
	require.NoError(s.T(), err)
	assert.True(s.T(), updated)

	got := s.find(Alice, late.ID)
	require.NotNil(s.T(), got)
	assert.True(s.T(), got.Completed)
	assert.Nil(s.T(), got.Status)
}

func (s *StoreSuite) TestUsers() {
	got, err := s.store.GetUserByEmail(s.ctx, Alice)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), Alice, got.Email)
	assert.Equal(s.T(), "hash", got.PasswordHash)

	err = s.store.CreateUser(s.ctx, &user.User{
		ID:           primitive.NewObjectID(),
		Email:        Alice,
		PasswordHash: "other",
		CreatedAt:    time.Now().UTC(),
	})
	assert.ErrorIs(s.T(), err, repository.ErrDuplicateUser)

	_, err = s.store.GetUserByEmail(s.ctx, "nobody@example.com")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}
