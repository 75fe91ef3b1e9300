package todo

import (
	"fmt"
	"time"
)

type Todo struct {
	ID          string     `json:"_id"`
	User        string     `json:"user"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	Reminder    bool       `json:"reminder"`
	RemindedAt  *time.Time `json:"remindedAt,omitempty"`
	Deleted     bool       `json:"deleted"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Status string
type Priority string

const StatusTodo Status = "todo"
const StatusInProgress Status = "in_progress"
const StatusDone Status = "done"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"

const DefaultCategory = "General"

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidationError описывает поле, не прошедшее проверку
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate проверяет поля, которые хранилище не может проверить само
func (t *Todo) Validate() error {
	if t.Title == "" {
		return invalid("title", "Title is required")
	}
	if !t.Status.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", t.Status))
	}
	if !t.Priority.Valid() {
		return invalid("priority", fmt.Sprintf("unknown priority %q", t.Priority))
	}
	return nil
}

// Clone возвращает копию без общих указателей
func (t *Todo) Clone() *Todo {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.RemindedAt != nil {
		r := *t.RemindedAt
		c.RemindedAt = &r
	}
	return &c
}

// ReminderDue сообщает, пора ли напомнить о задаче
func (t *Todo) ReminderDue(now time.Time) bool {
	return t.Reminder &&
		!t.Completed &&
		!t.Deleted &&
		t.RemindedAt == nil &&
		t.DueDate != nil &&
		!t.DueDate.After(now)
}

type Stats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

func NewStats(total, completed int64) Stats {
	return Stats{
		Total:     total,
		Completed: completed,
		Pending:   total - completed,
	}
}
