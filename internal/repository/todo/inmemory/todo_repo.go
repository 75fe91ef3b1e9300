package inmemory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	repo "todoTracker/internal/repository"

	"github.com/google/uuid"
)

type TodoStorage struct {
	storage map[string]*todo.Todo
	mtx     *sync.RWMutex
	ids     []string // порядок создания
	now     func() time.Time
}

func NewTodoStorage() *TodoStorage {
	return &TodoStorage{
		storage: make(map[string]*todo.Todo),
		mtx:     &sync.RWMutex{},
		ids:     []string{},
		now:     time.Now,
	}
}

func (s *TodoStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TodoStorage) Create(ctx context.Context, todoToCreate *todo.Todo) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.activeTitleTaken(todoToCreate.User, todoToCreate.Title, "") {
		return repo.ErrDuplicate
	}

	now := s.now()
	todoToCreate.ID = uuid.NewString()
	todoToCreate.CreatedAt = now
	todoToCreate.UpdatedAt = now

	s.storage[todoToCreate.ID] = todoToCreate.Clone()
	s.ids = append(s.ids, todoToCreate.ID)
	return nil
}

// Save заменяет запись целиком. Удалённую запись сохранить нельзя;
// remindedAt сбрасывается только при смене срока.
func (s *TodoStorage) Save(ctx context.Context, todoToSave *todo.Todo) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[todoToSave.ID]
	if !ok || existing.Deleted {
		return repo.ErrNotFound
	}
	if !todoToSave.Deleted && s.activeTitleTaken(existing.User, todoToSave.Title, todoToSave.ID) {
		return repo.ErrDuplicate
	}

	todoToSave.RemindedAt = nil
	if sameTime(existing.DueDate, todoToSave.DueDate) && existing.RemindedAt != nil {
		at := *existing.RemindedAt
		todoToSave.RemindedAt = &at
	}
	todoToSave.User = existing.User
	todoToSave.CreatedAt = existing.CreatedAt
	todoToSave.UpdatedAt = s.now()
	s.storage[todoToSave.ID] = todoToSave.Clone()
	return nil
}

func (s *TodoStorage) GetOwned(ctx context.Context, userID, id string) (*todo.Todo, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	found, ok := s.storage[id]
	if !ok || found.Deleted || found.User != userID {
		return nil, repo.ErrNotFound
	}
	return found.Clone(), nil
}

func (s *TodoStorage) FindByTitle(ctx context.Context, userID, title string) (*todo.Todo, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, id := range s.ids {
		t := s.storage[id]
		if !t.Deleted && t.User == userID && t.Title == title {
			return t.Clone(), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *TodoStorage) List(ctx context.Context, userID string, filter todo.Filter) ([]*todo.Todo, error) {
	filter = filter.Normalize()

	res := s.collect(userID, filter.Matches)
	slices.SortStableFunc(res, func(a, b *todo.Todo) int {
		return int(filter.Order) * todo.Compare(a, b, filter.Sort)
	})
	return res, nil
}

func (s *TodoStorage) Search(ctx context.Context, userID, query string) ([]*todo.Todo, error) {
	needle := strings.ToLower(query)
	return s.collect(userID, func(t *todo.Todo) bool {
		return strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Description), needle)
	}), nil
}

func (s *TodoStorage) Count(ctx context.Context, userID string, completed *bool) (int64, error) {
	matched := s.collect(userID, func(t *todo.Todo) bool {
		return completed == nil || t.Completed == *completed
	})
	return int64(len(matched)), nil
}

// DueReminders ищет по всем пользователям
func (s *TodoStorage) DueReminders(ctx context.Context, before time.Time, limit int) ([]*todo.Todo, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*todo.Todo{}
	for _, id := range s.ids {
		if len(res) >= limit {
			break
		}
		if t := s.storage[id]; t.ReminderDue(before) {
			res = append(res, t.Clone())
		}
	}
	return res, nil
}

func (s *TodoStorage) MarkReminded(ctx context.Context, id string, at time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[id]
	if !ok {
		return repo.ErrNotFound
	}
	t.RemindedAt = &at
	return nil
}

// collect возвращает копии видимых задач пользователя в порядке создания
func (s *TodoStorage) collect(userID string, match func(*todo.Todo) bool) []*todo.Todo {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*todo.Todo{}
	for _, id := range s.ids {
		t := s.storage[id]
		if t.Deleted || t.User != userID || !match(t) {
			continue
		}
		res = append(res, t.Clone())
	}
	return res
}

// вызывается под блокировкой
func (s *TodoStorage) activeTitleTaken(userID, title, exceptID string) bool {
	for _, id := range s.ids {
		t := s.storage[id]
		if id != exceptID && !t.Deleted && t.User == userID && t.Title == title {
			return true
		}
	}
	return false
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
