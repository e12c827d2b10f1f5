package task

import (
	"time"
)

// Patch - набор полей для частичного обновления, nil означает "не трогать"
type Patch struct {
	Title        *string
	Description  *string
	Completed    *bool
	Status       *string
	DueDate      *time.Time
	ClearDueDate bool
}

type TaskOption func(*Patch)

func WithTitle(title string) TaskOption {
	return func(p *Patch) {
		p.Title = &title
	}
}

func WithDescription(description string) TaskOption {
	return func(p *Patch) {
		p.Description = &description
	}
}

func WithCompleted(completed bool) TaskOption {
	return func(p *Patch) {
		p.Completed = &completed
	}
}

func WithStatus(status string) TaskOption {
	return func(p *Patch) {
		p.Status = &status
	}
}

func WithDueDate(dueDate time.Time) TaskOption {
	if dueDate.IsZero() {
		return nil
	}
	return func(p *Patch) {
		d := dueDate.UTC()
		p.DueDate = &d
		p.ClearDueDate = false
	}
}

// WithoutDueDate снимает срок выполнения
func WithoutDueDate() TaskOption {
	return func(p *Patch) {
		p.DueDate = nil
		p.ClearDueDate = true
	}
}

func NewPatch(options ...TaskOption) Patch {
	var p Patch
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&p)
	}
	return p
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Completed == nil &&
		p.Status == nil &&
		p.DueDate == nil &&
		!p.ClearDueDate
}

// ClearsOverdue: задача закрывается без явного статуса, значит
// метка overdue, поставленная фоновой проверкой, больше не нужна
func (p Patch) ClearsOverdue() bool {
	return p.Completed != nil && *p.Completed && p.Status == nil
}

// Apply переносит заданные поля в задачу и сообщает, изменилось ли что-нибудь
func (p Patch) Apply(t *Task) bool {
	changed := false

	if p.Title != nil && t.Title != *p.Title {
		t.Title = *p.Title
		changed = true
	}
	if p.Description != nil && t.Description != *p.Description {
		t.Description = *p.Description
		changed = true
	}
	if p.Completed != nil && t.Completed != *p.Completed {
		t.Completed = *p.Completed
		changed = true
	}
	if p.Status != nil && (t.Status == nil || *t.Status != *p.Status) {
		s := *p.Status
		t.Status = &s
		changed = true
	}
	if p.DueDate != nil && (t.DueDate == nil || !t.DueDate.Equal(*p.DueDate)) {
		d := *p.DueDate
		t.DueDate = &d
		changed = true
	}
	if p.ClearDueDate && t.DueDate != nil {
		t.DueDate = nil
		changed = true
	}
	if p.ClearsOverdue() && t.Status != nil && *t.Status == StatusOverdue {
		t.Status = nil
		changed = true
	}

	return changed
}
