package service

import (
	"context"
	"errors"
	"fmt"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	rep "todoTracker/internal/repository"

	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type TodoService struct {
	repo TodoRepository
}

func NewTodoService(repo TodoRepository) *TodoService {
	return &TodoService{
		repo: repo,
	}
}

func (s *TodoService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TodoService) CreateTodo(ctx context.Context, userID, title string, options ...todo.TodoOption) (*todo.Todo, error) {
	if userID == "" {
		return nil, NewUnauthorized("No token provided", nil)
	}

	newTodo := todo.New(userID, title, options...)
	if err := newTodo.Validate(); err != nil {
		return nil, fromValidation(err)
	}

	_, err := s.repo.FindByTitle(ctx, userID, title)
	switch {
	case err == nil:
		logger.Info("Service: Задача с таким названием уже существует",
			zap.String("user", userID), zap.String("title", title))
		return nil, NewAlreadyExists(title)
	case !errors.Is(err, rep.ErrNotFound):
		return nil, fmt.Errorf("проверка названия: %w", err)
	}

	if err := s.repo.Create(ctx, newTodo); err != nil {
		if errors.Is(err, rep.ErrDuplicate) {
			return nil, NewAlreadyExists(title)
		}
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана", zap.String("user", userID), zap.String("todo_id", newTodo.ID))
	return newTodo, nil
}

func (s *TodoService) ListTodos(ctx context.Context, userID string, filter todo.Filter) ([]*todo.Todo, error) {
	if userID == "" {
		return nil, NewUnauthorized("No token provided", nil)
	}

	todos, err := s.repo.List(ctx, userID, filter.Normalize())
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return todos, nil
}

func (s *TodoService) SearchTodos(ctx context.Context, userID, query string) ([]*todo.Todo, error) {
	if userID == "" {
		return nil, NewUnauthorized("No token provided", nil)
	}
	if query == "" {
		return nil, NewValidationError("q", "Search query required")
	}

	todos, err := s.repo.Search(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("поиск задач: %w", err)
	}
	return todos, nil
}

func (s *TodoService) UpdateTodo(ctx context.Context, userID, id string, patch todo.Patch) (*todo.Todo, error) {
	current, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := patch.Validate(); err != nil {
		return nil, fromValidation(err)
	}

	if title, renamed := patch.RenamesTo(current); renamed {
		other, err := s.repo.FindByTitle(ctx, userID, title)
		switch {
		case err == nil && other.ID != current.ID:
			return nil, NewAlreadyExists(title)
		case err != nil && !errors.Is(err, rep.ErrNotFound):
			return nil, fmt.Errorf("проверка названия: %w", err)
		}
	}

	patch.Apply(current)
	if err := s.save(ctx, current); err != nil {
		return nil, err
	}

	logger.Info("Service: Задача обновлена", zap.String("user", userID), zap.String("todo_id", id))
	return current, nil
}

func (s *TodoService) ToggleTodo(ctx context.Context, userID, id string) (*todo.Todo, error) {
	current, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	current.Completed = !current.Completed
	if err := s.save(ctx, current); err != nil {
		return nil, err
	}

	logger.Info("Service: Статус выполнения переключён",
		zap.String("todo_id", id), zap.Bool("completed", current.Completed))
	return current, nil
}

func (s *TodoService) DeleteTodo(ctx context.Context, userID, id string) error {
	current, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	current.Deleted = true
	if err := s.save(ctx, current); err != nil {
		return err
	}

	logger.Info("Service: Задача удалена", zap.String("user", userID), zap.String("todo_id", id))
	return nil
}

func (s *TodoService) Stats(ctx context.Context, userID string) (todo.Stats, error) {
	if userID == "" {
		return todo.Stats{}, NewUnauthorized("No token provided", nil)
	}

	total, err := s.repo.Count(ctx, userID, nil)
	if err != nil {
		return todo.Stats{}, fmt.Errorf("подсчёт задач: %w", err)
	}

	completed := true
	done, err := s.repo.Count(ctx, userID, &completed)
	if err != nil {
		return todo.Stats{}, fmt.Errorf("подсчёт выполненных задач: %w", err)
	}

	return todo.NewStats(total, done), nil
}

func (s *TodoService) getOwned(ctx context.Context, userID, id string) (*todo.Todo, error) {
	if userID == "" {
		return nil, NewUnauthorized("No token provided", nil)
	}

	found, err := s.repo.GetOwned(ctx, userID, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id))
			return nil, NewNotFound(id)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return found, nil
}

func (s *TodoService) save(ctx context.Context, t *todo.Todo) error {
	if err := s.repo.Save(ctx, t); err != nil {
		switch {
		case errors.Is(err, rep.ErrNotFound):
			return NewNotFound(t.ID)
		case errors.Is(err, rep.ErrDuplicate):
			return NewAlreadyExists(t.Title)
		}
		return fmt.Errorf("сохранение задачи: %w", err)
	}
	return nil
}
