package repository

import (
	"errors"
	"taskboard/internal/models/task"
)

var (
	ErrNotFound      = errors.New("запись не найдена")
	ErrDuplicateUser = errors.New("пользователь с таким email уже существует")
	ErrInvalidID     = task.ErrInvalidID
)
