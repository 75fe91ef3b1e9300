package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"todoTracker/internal/auth"
	"todoTracker/internal/config"
	"todoTracker/internal/handlers"
	"todoTracker/internal/logger"
	"todoTracker/internal/repository/todo/inmemory"
	"todoTracker/internal/repository/todo/mongodb"
	"todoTracker/internal/repository/todo/postgres"
	"todoTracker/internal/service"
	"todoTracker/internal/worker"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TodoRepository // интерфейс!
	service    handlers.Service
	verifier   *auth.Verifier
	worker     *worker.ReminderWorker
	shutdowns  []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repo, err := a.initRepository(ctx)
	if err != nil {
		a.shutdown()
		return nil, fmt.Errorf("инициализация хранилища: %w", err)
	}
	a.repository = repo

	a.service = service.NewTodoService(repo)
	a.verifier = auth.NewVerifier(a.config.Auth.JWTSecret)
	a.router = a.newRouter(handlers.NewTodoHandler(a.service))

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "todo-tracker"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	if a.config.Reminders.Enabled {
		a.worker = worker.NewReminderWorker(repo, worker.LogNotifier{},
			a.config.Reminders.Interval, a.config.Reminders.BatchSize)
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr),
		zap.Bool("reminders", a.worker != nil))
	return a, nil
}

// Handler возвращает корневой обработчик со всеми middleware
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run обслуживает запросы до отмены ctx и затем корректно останавливает
// сервер, фоновую проверку и хранилище.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		a.shutdown()
		return fmt.Errorf("открытие порта %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, listener)
}

func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	if a.worker != nil {
		go func() {
			defer close(workerDone)
			a.worker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", zap.String("addr", listener.Addr().String()))
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Получен сигнал остановки")
	case err := <-serveErr:
		if err != nil {
			logger.Error("Сервер остановился с ошибкой", err)
			runErr = fmt.Errorf("работа сервера: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", err)
		if runErr == nil {
			runErr = fmt.Errorf("остановка сервера: %w", err)
		}
	}

	stopWorker()
	<-workerDone

	a.shutdown()
	return runErr
}

func (a *App) initRepository(ctx context.Context) (service.TodoRepository, error) {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		db := a.config.Database
		if err := postgres.MigrateUp(db.URL); err != nil {
			return nil, err
		}
		store, err := postgres.New(ctx, db.URL, postgres.PoolConfig{
			MaxConns:        db.MaxConnections,
			MinConns:        db.MinConnections,
			MaxConnIdleTime: db.IdleTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.shutdowns = append(a.shutdowns, store.Close)
		return store, nil

	case config.RepositoryMongo:
		m := a.config.Mongo
		store, err := mongodb.New(ctx, mongodb.Config{
			URI:        m.URI,
			Database:   m.Database,
			Collection: m.Collection,
			Timeout:    m.Timeout,
		})
		if err != nil {
			return nil, err
		}
		a.shutdowns = append(a.shutdowns, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), m.Timeout)
			defer cancel()
			_ = store.Close(closeCtx)
		})
		return store, nil

	default:
		return inmemory.NewTodoStorage(), nil
	}
}

// shutdown вызывает функции очистки в обратном порядке
func (a *App) shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
