package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"taskboard/internal/models/task"
	"taskboard/internal/models/user"
	"time"
)

// Date принимает RFC3339 и короткий формат из <input type="date">.
// Set отличает отсутствующий ключ от явного null или "".
type Date struct {
	time.Time
	Set bool
}

const shortDateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(data []byte) error {
	d.Set = true
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dueDate должна быть строкой: %w", err)
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, shortDateLayout} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			d.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("неверный формат dueDate: %q", raw)
}

// TimePtr - nil для отсутствующей или пустой даты
func (d *Date) TimePtr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	Expires time.Time     `json:"expires"`
	User    user.Identity `json:"user"`
}

type SessionResponse struct {
	User    *user.Identity `json:"user,omitempty"`
	Expires *time.Time     `json:"expires,omitempty"`
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	DueDate     *Date  `json:"dueDate,omitempty"`
}

// UpdateTaskRequest: отсутствующее поле остаётся без изменений,
// dueDate со значением null или "" снимает срок
type UpdateTaskRequest struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Status      *string `json:"status,omitempty"`
	DueDate     Date    `json:"dueDate"`
}

func (r UpdateTaskRequest) Options() []task.TaskOption {
	var options []task.TaskOption
	if r.Title != nil {
		options = append(options, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		options = append(options, task.WithDescription(*r.Description))
	}
	if r.Completed != nil {
		options = append(options, task.WithCompleted(*r.Completed))
	}
	if r.Status != nil {
		options = append(options, task.WithStatus(*r.Status))
	}
	if r.DueDate.Set {
		if due := r.DueDate.TimePtr(); due != nil {
			options = append(options, task.WithDueDate(*due))
		} else {
			options = append(options, task.WithoutDueDate())
		}
	}
	return options
}

type DeleteTaskRequest struct {
	ID string `json:"id"`
}

type TaskResponse struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Status      *string    `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Owner       string     `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	IsOverdue   bool       `json:"isOverdue"`
}

func FromTask(t *task.Task, now time.Time) TaskResponse {
	return TaskResponse{
		ID:          t.ID.Hex(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Status:      t.Status,
		DueDate:     t.DueDate,
		Owner:       t.Owner,
		CreatedAt:   t.CreatedAt,
		IsOverdue:   t.IsOverdue(now),
	}
}

func FromTaskList(tasks []*task.Task, now time.Time) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, now)
	}
	return result
}
