package handlers

import (
	"context"
	"todoTracker/internal/models/todo"
)

type Service interface {
	HealthCheck(ctx context.Context) error
	CreateTodo(ctx context.Context, userID, title string, options ...todo.TodoOption) (*todo.Todo, error)
	ListTodos(ctx context.Context, userID string, filter todo.Filter) ([]*todo.Todo, error)
	SearchTodos(ctx context.Context, userID, query string) ([]*todo.Todo, error)
	UpdateTodo(ctx context.Context, userID, id string, patch todo.Patch) (*todo.Todo, error)
	ToggleTodo(ctx context.Context, userID, id string) (*todo.Todo, error)
	DeleteTodo(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID string) (todo.Stats, error)
}
