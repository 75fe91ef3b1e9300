package worker

import (
	"context"
	"fmt"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"

	"go.uber.org/zap"
)

const (
	defaultInterval  = time.Minute
	defaultBatchSize = 100
)

type ReminderStore interface {
	DueReminders(ctx context.Context, before time.Time, limit int) ([]*todo.Todo, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
}

// Notifier доставляет напоминание владельцу задачи
type Notifier interface {
	Notify(ctx context.Context, t *todo.Todo) error
}

// LogNotifier только пишет напоминание в лог
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, t *todo.Todo) error {
	logger.Info("Worker: Напоминание о задаче",
		zap.String("todo_id", t.ID),
		zap.String("user", t.User),
		zap.String("title", t.Title),
		zap.Timep("due_date", t.DueDate))
	return nil
}

type ReminderWorker struct {
	repo      ReminderStore
	notifier  Notifier
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewReminderWorker подставляет значения по умолчанию для нулевых interval и batchSize
func NewReminderWorker(repo ReminderStore, notifier Notifier, interval time.Duration, batchSize int) *ReminderWorker {
	if interval <= 0 {
		interval = defaultInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ReminderWorker{
		repo:      repo,
		notifier:  notifier,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Запуск проверки напоминаний", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Проверка напоминаний останавливается")
			return
		}
	}
}

// Check выполняет один проход и возвращает число отправленных напоминаний
func (w *ReminderWorker) Check(ctx context.Context) int {
	start := w.now()

	todos, err := w.repo.DueReminders(ctx, start, w.batchSize)
	if err != nil {
		logger.Warn("Worker: Ошибка получения задач", zap.Error(err))
		return 0
	}

	notified := 0
	for _, t := range todos {
		if ctx.Err() != nil {
			break
		}
		if err := w.remind(ctx, t); err != nil {
			logger.Warn("Worker: Напоминание не отправлено",
				zap.String("todo_id", t.ID),
				zap.Error(err))
			continue
		}
		notified++
	}

	logger.Info("Worker: Завершение проверки напоминаний",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(todos)),
		zap.Int("notified", notified))
	return notified
}

// remind отмечает задачу только после успешной доставки
func (w *ReminderWorker) remind(ctx context.Context, t *todo.Todo) error {
	if err := w.notifier.Notify(ctx, t); err != nil {
		return fmt.Errorf("отправка напоминания: %w", err)
	}
	if err := w.repo.MarkReminded(ctx, t.ID, w.now()); err != nil {
		return fmt.Errorf("отметка напоминания: %w", err)
	}
	return nil
}
