package inmemory

import (
	"context"
	"sort"
	"sync"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	"taskboard/internal/models/user"
	repo "taskboard/internal/repository"
	"time"
)

// Storage держит задачи и пользователей в памяти процесса.
// Наружу всегда отдаются копии, чтобы вызывающий не мог менять хранилище в обход методов.
type Storage struct {
	tasks map[task.ID]*task.Task
	ids   []task.ID
	users map[string]*user.User
	mtx   *sync.RWMutex
	now   func() time.Time
}

func NewStorage() *Storage {
	return &Storage{
		tasks: make(map[task.ID]*task.Task),
		ids:   []task.ID{},
		users: make(map[string]*user.User),
		mtx:   &sync.RWMutex{},
		now:   time.Now,
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Close() {}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if taskToCreate.ID.IsZero() {
		taskToCreate.ID = task.NewID()
	}
	taskToCreate.CreatedAt = s.now().UTC()

	s.tasks[taskToCreate.ID] = cloneTask(taskToCreate)
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

// новые первыми; при равном времени позже вставленная идёт раньше
func (s *Storage) ListByOwner(ctx context.Context, owner string) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for i := len(s.ids) - 1; i >= 0; i-- {
		t := s.tasks[s.ids[i]]
		if t.Owner != owner {
			continue
		}
		res = append(res, cloneTask(t))
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *Storage) UpdateFields(ctx context.Context, id task.ID, owner string, patch task.Patch) (bool, error) {
	if id.IsZero() {
		return false, repo.ErrInvalidID
	}
	if patch.IsEmpty() {
		return false, nil
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Owner != owner {
		return false, nil
	}
	return patch.Apply(t), nil
}

func (s *Storage) Delete(ctx context.Context, id task.ID, owner string) (bool, error) {
	if id.IsZero() {
		return false, repo.ErrInvalidID
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Owner != owner {
		return false, nil
	}

	delete(s.tasks, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return true, nil
}

func (s *Storage) MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var marked int64
	for _, id := range s.ids {
		if limit > 0 && marked >= int64(limit) {
			break
		}

		t := s.tasks[id]
		// статус, выставленный пользователем, не трогаем
		if !t.IsOverdue(now) || (t.Status != nil && *t.Status != "") {
			continue
		}

		status := task.StatusOverdue
		t.Status = &status
		marked++
	}
	return marked, nil
}

func cloneTask(t *task.Task) *task.Task {
	c := *t
	if t.Status != nil {
		s := *t.Status
		c.Status = &s
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}
