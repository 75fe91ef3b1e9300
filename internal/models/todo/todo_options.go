package todo

import (
	"time"
)

type TodoOption func(*Todo)

// New собирает новую задачу со значениями по умолчанию.
// Опции с пустым значением возвращают nil и пропускаются.
func New(user, title string, options ...TodoOption) *Todo {
	t := &Todo{
		User:     user,
		Title:    title,
		Status:   StatusTodo,
		Priority: PriorityMedium,
		Category: DefaultCategory,
	}
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
	t.Reminder = t.DueDate != nil
	return t
}

func WithDescription(description string) TodoOption {
	if description == "" {
		return nil
	}
	return func(t *Todo) {
		t.Description = description
	}
}

func WithStatus(status Status) TodoOption {
	if status == "" {
		return nil
	}
	return func(t *Todo) {
		t.Status = status
	}
}

func WithPriority(priority Priority) TodoOption {
	if priority == "" {
		return nil
	}
	return func(t *Todo) {
		t.Priority = priority
	}
}

func WithCategory(category string) TodoOption {
	if category == "" {
		return nil
	}
	return func(t *Todo) {
		t.Category = category
	}
}

func WithDueDate(dueDate *time.Time) TodoOption {
	if dueDate == nil || dueDate.IsZero() {
		return nil
	}
	d := *dueDate
	return func(t *Todo) {
		t.DueDate = &d
	}
}
