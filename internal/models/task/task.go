package task

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ID = primitive.ObjectID

var NilID ID

var ErrInvalidID = errors.New("некорректный идентификатор задачи")

type Task struct {
	ID          ID         `json:"_id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Completed   bool       `json:"completed" bson:"completed"`
	Status      *string    `json:"status,omitempty" bson:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Owner       string     `json:"userId" bson:"userId"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
}

const StatusOverdue = "overdue"

func NewID() ID {
	return primitive.NewObjectID()
}

// ParseID принимает только 24 hex-символа, нулевой id тоже считается ошибкой
func ParseID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NilID, ErrInvalidID
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil || id.IsZero() {
		return NilID, ErrInvalidID
	}
	return id, nil
}

// IsOverdue: не выполнена и срок уже прошёл
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
	FilterOverdue   Filter = "overdue"
)

func ParseFilter(raw string) (Filter, bool) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FilterAll, true
	case FilterAll, FilterPending, FilterCompleted, FilterOverdue:
		return f, true
	default:
		return "", false
	}
}

func (f Filter) Match(t *Task, now time.Time) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterOverdue:
		return t.IsOverdue(now)
	default:
		return true
	}
}
