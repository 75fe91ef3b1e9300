package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"todoTracker/internal/handlers/dto"
	"todoTracker/internal/logger"
	"todoTracker/internal/middleware"
	"todoTracker/internal/models/todo"
	"todoTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type TodoHandler struct {
	TodoService Service
}

func NewTodoHandler(todoService Service) TodoHandler {
	return TodoHandler{
		TodoService: todoService,
	}
}

func (s *TodoHandler) Root(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("message", "Todo Tracker API is running"))
}

func (s *TodoHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TodoService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", "todo-tracker"),
			toPayload("error", err.Error()),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", "todo-tracker"),
		toPayload("time", time.Now().UTC().Format(time.RFC3339)),
	)
}

func (s *TodoHandler) PostTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request dto.CreateTodoRequest
	if !s.decodeJSON(w, r, &request) {
		return
	}

	options, err := request.Options()
	if err != nil {
		s.validationFailed(w, r, err)
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задачи")
	created, err := s.TodoService.CreateTodo(r.Context(), middleware.UserIDFromContext(r.Context()), request.Title, options...)
	if err != nil {
		handleError(w, r, err, "create_todo")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("todo_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	respond(w, http.StatusCreated, dto.FromTodo(created))
}

func (s *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sort, err := todo.ParseSortField(query.Get("sort"))
	if err != nil {
		s.validationFailed(w, r, err)
		return
	}

	filter := todo.Filter{
		Sort:  sort,
		Order: todo.ParseSortOrder(query.Get("order")),
	}
	if raw := query.Get("completed"); raw != "" {
		completed := raw == "true"
		filter.Completed = &completed
	}
	if raw := query.Get("status"); raw != "" {
		status := todo.Status(raw)
		filter.Status = &status
	}

	todos, err := s.TodoService.ListTodos(r.Context(), middleware.UserIDFromContext(r.Context()), filter)
	if err != nil {
		handleError(w, r, err, "list_todos")
		return
	}

	respond(w, http.StatusOK, dto.FromTodoList(todos))
}

func (s *TodoHandler) SearchTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.TodoService.SearchTodos(r.Context(), middleware.UserIDFromContext(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		handleError(w, r, err, "search_todos")
		return
	}

	respond(w, http.StatusOK, dto.FromTodoList(todos))
}

func (s *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	var request dto.UpdateTodoRequest
	if !s.decodeJSON(w, r, &request) {
		return
	}

	logger.Info("HTTP: Запрос к сервису обновления задачи", zap.String("todo_id", id))
	updated, err := s.TodoService.UpdateTodo(r.Context(), middleware.UserIDFromContext(r.Context()), id, request.ToPatch())
	if err != nil {
		handleError(w, r, err, "update_todo")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("todo_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	respond(w, http.StatusOK, dto.FromTodo(updated))
}

func (s *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	toggled, err := s.TodoService.ToggleTodo(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		handleError(w, r, err, "toggle_todo")
		return
	}

	respond(w, http.StatusOK, dto.FromTodo(toggled))
}

func (s *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	logger.Info("HTTP: Обращение к сервису для удаления задачи", zap.String("todo_id", id))
	if err := s.TodoService.DeleteTodo(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
		handleError(w, r, err, "delete_todo")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("message", "Todo deleted successfully"))
}

func (s *TodoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.TodoService.Stats(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err, "stats")
		return
	}

	respond(w, http.StatusOK, dto.FromStats(stats))
}

// decodeJSON проверяет тип контента и читает тело; при ошибке ответ уже записан
func (s *TodoHandler) decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
		return false
	}

	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithJSON(w, http.StatusBadRequest,
			toPayload("error", "INVALID_BODY"),
			toPayload("message", "Invalid request body"),
			toPayload("details", map[string]any{"error": err.Error()}),
		)
		return false
	}
	return true
}

func (s *TodoHandler) validationFailed(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *todo.ValidationError
	if errors.As(err, &vErr) {
		handleBusinessError(w, service.NewValidationError(vErr.Field, vErr.Reason))
		return
	}
	handleError(w, r, err, "validate")
}
