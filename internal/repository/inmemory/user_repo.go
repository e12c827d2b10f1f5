package inmemory

import (
	"context"
	"taskboard/internal/models/user"
	repo "taskboard/internal/repository"
)

func (s *Storage) CreateUser(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.users[u.Email]; ok {
		return repo.ErrDuplicateUser
	}
	c := *u
	s.users[u.Email] = &c
	return nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.users[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *u
	return &c, nil
}
