package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	repo "todoTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

const slowQuery = 100 * time.Millisecond

const todoColumns = `id::text, user_id, title, description, completed, status, priority,
	category, due_date, reminder, reminded_at, deleted, created_at, updated_at`

var sortColumns = map[todo.SortField]string{
	todo.SortCreatedAt: "created_at",
	todo.SortUpdatedAt: "updated_at",
	todo.SortTitle:     "title",
	todo.SortDueDate:   "due_date",
	todo.SortPriority:  "priority",
	todo.SortStatus:    "status",
	todo.SortCategory:  "category",
	todo.SortCompleted: "completed",
}

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		config.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, todoToCreate *todo.Todo) error {
	start := time.Now()
	id := uuid.New()

	query := `INSERT INTO todos
				(id, user_id, title, description, completed, status, priority,
				 category, due_date, reminder, deleted, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, NOW(), NOW())
				RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		id,
		todoToCreate.User,
		todoToCreate.Title,
		todoToCreate.Description,
		todoToCreate.Completed,
		todoToCreate.Status,
		todoToCreate.Priority,
		todoToCreate.Category,
		todoToCreate.DueDate,
		todoToCreate.Reminder,
	).Scan(&todoToCreate.CreatedAt, &todoToCreate.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	todoToCreate.ID = id.String()
	todoToCreate.Deleted = false
	warnIfSlow(start, slowQuery)
	return nil
}

// Save перезаписывает все изменяемые поля записи; user_id и created_at не меняются.
// Удалённая запись не обновляется, reminded_at сбрасывается только при смене срока.
func (s *Storage) Save(ctx context.Context, todoToSave *todo.Todo) error {
	start := time.Now()

	id, err := uuid.Parse(todoToSave.ID)
	if err != nil {
		return repo.ErrNotFound
	}

	query := `UPDATE todos
			SET title = $1,
				description = $2,
				completed = $3,
				status = $4,
				priority = $5,
				category = $6,
				due_date = $7,
				reminder = $8,
				reminded_at = CASE WHEN due_date IS NOT DISTINCT FROM $7 THEN reminded_at END,
				deleted = $9,
				updated_at = NOW()
			WHERE id = $10 AND NOT deleted
			RETURNING user_id, reminded_at, created_at, updated_at`

	err = s.pool.QueryRow(ctx, query,
		todoToSave.Title,
		todoToSave.Description,
		todoToSave.Completed,
		todoToSave.Status,
		todoToSave.Priority,
		todoToSave.Category,
		todoToSave.DueDate,
		todoToSave.Reminder,
		todoToSave.Deleted,
		id,
	).Scan(&todoToSave.User, &todoToSave.RemindedAt, &todoToSave.CreatedAt, &todoToSave.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		if isUniqueViolation(err) {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return nil
}

func (s *Storage) GetOwned(ctx context.Context, userID, id string) (*todo.Todo, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, repo.ErrNotFound
	}

	query := `SELECT ` + todoColumns + `
				FROM todos
				WHERE id = $1 AND user_id = $2 AND NOT deleted`

	return s.getOne(ctx, query, parsed, userID)
}

func (s *Storage) FindByTitle(ctx context.Context, userID, title string) (*todo.Todo, error) {
	query := `SELECT ` + todoColumns + `
				FROM todos
				WHERE user_id = $1 AND title = $2 AND NOT deleted
				LIMIT 1`

	return s.getOne(ctx, query, userID, title)
}

func (s *Storage) List(ctx context.Context, userID string, filter todo.Filter) ([]*todo.Todo, error) {
	filter = filter.Normalize()

	column, ok := sortColumns[filter.Sort]
	if !ok {
		return nil, fmt.Errorf("неизвестное поле сортировки %q", filter.Sort)
	}

	where := []string{"user_id = $1", "NOT deleted"}
	args := []any{userID}
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		where = append(where, fmt.Sprintf("completed = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	// пустые значения считаются наименьшими
	direction := "ASC NULLS FIRST"
	if filter.Order == todo.Descending {
		direction = "DESC NULLS LAST"
	}

	query := fmt.Sprintf(`SELECT %s
				FROM todos
				WHERE %s
				ORDER BY %s %s, created_at ASC, id ASC`,
		todoColumns, strings.Join(where, " AND "), column, direction)

	return s.getMany(ctx, query, args...)
}

func (s *Storage) Search(ctx context.Context, userID, query string) ([]*todo.Todo, error) {
	sql := `SELECT ` + todoColumns + `
				FROM todos
				WHERE user_id = $1 AND NOT deleted
				  AND (strpos(lower(title), lower($2)) > 0 OR strpos(lower(description), lower($2)) > 0)
				ORDER BY created_at ASC, id ASC`

	return s.getMany(ctx, sql, userID, query)
}

func (s *Storage) Count(ctx context.Context, userID string, completed *bool) (int64, error) {
	start := time.Now()

	query := `SELECT COUNT(*) FROM todos
				WHERE user_id = $1 AND NOT deleted
				  AND ($2::boolean IS NULL OR completed = $2)`

	var count int64
	if err := s.pool.QueryRow(ctx, query, userID, completed).Scan(&count); err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("подсчёт задач: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return count, nil
}

func (s *Storage) DueReminders(ctx context.Context, before time.Time, limit int) ([]*todo.Todo, error) {
	query := `SELECT ` + todoColumns + `
				FROM todos
				WHERE reminder AND NOT completed AND NOT deleted
				  AND reminded_at IS NULL
				  AND due_date <= $1
				ORDER BY due_date ASC
				LIMIT $2`

	return s.getMany(ctx, query, before, limit)
}

func (s *Storage) MarkReminded(ctx context.Context, id string, at time.Time) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return repo.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, `UPDATE todos SET reminded_at = $1 WHERE id = $2`, at, parsed)
	if err != nil {
		logger.Error("Repository: Не удалось отметить напоминание", err)
		return fmt.Errorf("отметка напоминания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*todo.Todo, error) {
	t := &todo.Todo{}
	err := row.Scan(
		&t.ID,
		&t.User,
		&t.Title,
		&t.Description,
		&t.Completed,
		&t.Status,
		&t.Priority,
		&t.Category,
		&t.DueDate,
		&t.Reminder,
		&t.RemindedAt,
		&t.Deleted,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Storage) getOne(ctx context.Context, query string, args ...any) (*todo.Todo, error) {
	start := time.Now()

	found, err := scanTodo(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return found, nil
}

func (s *Storage) getMany(ctx context.Context, query string, args ...any) ([]*todo.Todo, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	todos := []*todo.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		todos = append(todos, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start, slowQuery+time.Millisecond*time.Duration(len(todos)))
	return todos, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func warnIfSlow(start time.Time, threshold time.Duration) {
	if elapsed := time.Since(start); elapsed > threshold {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", elapsed))
	}
}
