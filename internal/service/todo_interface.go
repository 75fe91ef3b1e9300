package service

import (
	"context"
	"time"
	"todoTracker/internal/models/todo"
)

// TodoRepository - хранилище задач. Все выборки, кроме напоминаний,
// ограничены владельцем и не видят удалённые записи.
type TodoRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *todo.Todo) error
	Save(context.Context, *todo.Todo) error
	GetOwned(ctx context.Context, userID, id string) (*todo.Todo, error)
	FindByTitle(ctx context.Context, userID, title string) (*todo.Todo, error)
	List(ctx context.Context, userID string, filter todo.Filter) ([]*todo.Todo, error)
	Search(ctx context.Context, userID, query string) ([]*todo.Todo, error)
	Count(ctx context.Context, userID string, completed *bool) (int64, error)
	DueReminders(ctx context.Context, before time.Time, limit int) ([]*todo.Todo, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
}
