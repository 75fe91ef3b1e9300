package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"todoTracker/internal/handlers"
	"todoTracker/internal/handlers/dto"
	"todoTracker/internal/middleware"
	"todoTracker/internal/models/todo"
	"todoTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTodoService - мок сервиса
type MockTodoService struct {
	mock.Mock
}

func (m *MockTodoService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTodoService) CreateTodo(ctx context.Context, userID, title string, options ...todo.TodoOption) (*todo.Todo, error) {
	args := m.Called(ctx, userID, title, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*todo.Todo), args.Error(1)
}

func (m *MockTodoService) ListTodos(ctx context.Context, userID string, filter todo.Filter) ([]*todo.Todo, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*todo.Todo), args.Error(1)
}

func (m *MockTodoService) SearchTodos(ctx context.Context, userID, query string) ([]*todo.Todo, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*todo.Todo), args.Error(1)
}

func (m *MockTodoService) UpdateTodo(ctx context.Context, userID, id string, patch todo.Patch) (*todo.Todo, error) {
	args := m.Called(ctx, userID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*todo.Todo), args.Error(1)
}

func (m *MockTodoService) ToggleTodo(ctx context.Context, userID, id string) (*todo.Todo, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*todo.Todo), args.Error(1)
}

func (m *MockTodoService) DeleteTodo(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockTodoService) Stats(ctx context.Context, userID string) (todo.Stats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(todo.Stats), args.Error(1)
}

var _ handlers.Service = (*MockTodoService)(nil)

func newRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	return req.WithContext(middleware.WithUserID(req.Context(), "owner"))
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sampleTodo(id, title string) *todo.Todo {
	t := todo.New("owner", title)
	t.ID = id
	return t
}

// TestTodoHandler_HealthCheck тестирует HealthCheck
func TestTodoHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTodoService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTodoService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTodoService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("service unavailable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTodoService)
			tt.setupMock(mockService)

			handler := handlers.NewTodoHandler(mockService)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			handler.HealthCheck(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "todo-tracker")

			mockService.AssertExpectations(t)
		})
	}
}

// TestTodoHandler_Root тестирует приветственный ответ
func TestTodoHandler_Root(t *testing.T) {
	handler := handlers.NewTodoHandler(new(MockTodoService))
	w := httptest.NewRecorder()

	handler.Root(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Todo Tracker API is running", decodeBody(t, w)["message"])
}

// TestTodoHandler_PostTodo тестирует создание задачи
func TestTodoHandler_PostTodo(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTodoService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:        "success - create todo",
			requestBody: `{"title": "Buy milk", "dueDate": "2025-01-01"}`,
			contentType: "application/json",
			setupMock: func(m *MockTodoService) {
				m.On("CreateTodo", mock.Anything, "owner", "Buy milk", mock.Anything).
					Return(sampleTodo("todo-1", "Buy milk"), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTodoService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedError:  "UNSUPPORTED_MEDIA_TYPE",
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTodoService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_BODY",
		},
		{
			name:           "error - bad due date",
			requestBody:    `{"title": "Buy milk", "dueDate": "someday"}`,
			contentType:    "application/json; charset=utf-8",
			setupMock:      func(m *MockTodoService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeValidation,
		},
		{
			name:        "error - missing title",
			requestBody: `{"description": "no title"}`,
			contentType: "application/json",
			setupMock: func(m *MockTodoService) {
				m.On("CreateTodo", mock.Anything, "owner", "", mock.Anything).
					Return(nil, service.NewValidationError("title", "Title is required"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeValidation,
		},
		{
			name:        "error - duplicate",
			requestBody: `{"title": "Buy milk"}`,
			contentType: "application/json",
			setupMock: func(m *MockTodoService) {
				m.On("CreateTodo", mock.Anything, "owner", "Buy milk", mock.Anything).
					Return(nil, service.NewAlreadyExists("Buy milk"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeAlreadyExists,
		},
		{
			name:        "error - service error",
			requestBody: `{"title": "Buy milk"}`,
			contentType: "application/json",
			setupMock: func(m *MockTodoService) {
				m.On("CreateTodo", mock.Anything, "owner", "Buy milk", mock.Anything).
					Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTodoService)
			tt.setupMock(mockService)

			handler := handlers.NewTodoHandler(mockService)

			req := newRequest(http.MethodPost, "/todos", tt.requestBody)
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			handler.PostTodo(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				var response dto.TodoResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, "todo-1", response.ID)
				assert.Equal(t, "Buy milk", response.Title)
			} else {
				assert.Equal(t, tt.expectedError, decodeBody(t, w)["error"])
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTodoHandler_ListTodos тестирует разбор параметров запроса
func TestTodoHandler_ListTodos(t *testing.T) {
	completed := true
	notCompleted := false
	done := todo.StatusDone

	tests := []struct {
		name           string
		query          string
		filter         todo.Filter
		expectedStatus int
	}{
		{
			name:           "defaults",
			query:          "",
			filter:         todo.Filter{Sort: todo.SortCreatedAt, Order: todo.Ascending},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "all filters",
			query:          "?completed=true&status=done&sort=dueDate&order=desc",
			filter:         todo.Filter{Completed: &completed, Status: &done, Sort: todo.SortDueDate, Order: todo.Descending},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "completed other than true",
			query:          "?completed=yes",
			filter:         todo.Filter{Completed: &notCompleted, Sort: todo.SortCreatedAt, Order: todo.Ascending},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown sort field",
			query:          "?sort=password",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTodoService)
			if tt.expectedStatus == http.StatusOK {
				mockService.On("ListTodos", mock.Anything, "owner", tt.filter).
					Return([]*todo.Todo{sampleTodo("todo-1", "a")}, nil)
			}

			handler := handlers.NewTodoHandler(mockService)
			w := httptest.NewRecorder()

			handler.ListTodos(w, newRequest(http.MethodGet, "/todos"+tt.query, ""))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response []dto.TodoResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Len(t, response, 1)
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTodoHandler_SearchTodos тестирует поиск
func TestTodoHandler_SearchTodos(t *testing.T) {
	t.Run("success - empty result is an array", func(t *testing.T) {
		mockService := new(MockTodoService)
		mockService.On("SearchTodos", mock.Anything, "owner", "milk").Return([]*todo.Todo{}, nil)

		handler := handlers.NewTodoHandler(mockService)
		w := httptest.NewRecorder()
		handler.SearchTodos(w, newRequest(http.MethodGet, "/todos/search?q=milk", ""))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("error - missing query", func(t *testing.T) {
		mockService := new(MockTodoService)
		mockService.On("SearchTodos", mock.Anything, "owner", "").
			Return(nil, service.NewValidationError("q", "Search query required"))

		handler := handlers.NewTodoHandler(mockService)
		w := httptest.NewRecorder()
		handler.SearchTodos(w, newRequest(http.MethodGet, "/todos/search", ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Search query required", decodeBody(t, w)["message"])
	})
}

// TestTodoHandler_UpdateTodo тестирует обновление задачи
func TestTodoHandler_UpdateTodo(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(*MockTodoService)
		expectedStatus int
	}{
		{
			name:        "success - update todo",
			requestBody: `{"title": "Updated", "dueDate": null}`,
			setupMock: func(m *MockTodoService) {
				m.On("UpdateTodo", mock.Anything, "owner", "todo-1", mock.MatchedBy(func(p todo.Patch) bool {
					return p.Title != nil && *p.Title == "Updated" &&
						p.DueDate.Set && p.DueDate.Value == nil &&
						p.Description == nil
				})).Return(sampleTodo("todo-1", "Updated"), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "error - not found",
			requestBody: `{"completed": true}`,
			setupMock: func(m *MockTodoService) {
				m.On("UpdateTodo", mock.Anything, "owner", "todo-1", mock.Anything).
					Return(nil, service.NewNotFound("todo-1"))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "error - bad due date goes to service",
			requestBody: `{"dueDate": "later"}`,
			setupMock: func(m *MockTodoService) {
				m.On("UpdateTodo", mock.Anything, "owner", "todo-1", mock.MatchedBy(func(p todo.Patch) bool {
					return p.DueDate.Set && p.DueDate.Raw == "later" && p.Validate() != nil
				})).Return(nil, service.NewValidationError("dueDate", `invalid date "later"`))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - bad due date on foreign todo",
			requestBody: `{"dueDate": "later"}`,
			setupMock: func(m *MockTodoService) {
				m.On("UpdateTodo", mock.Anything, "owner", "todo-1", mock.Anything).
					Return(nil, service.NewNotFound("todo-1"))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTodoService)
			tt.setupMock(mockService)

			handler := handlers.NewTodoHandler(mockService)

			req := withID(newRequest(http.MethodPut, "/todos/todo-1", tt.requestBody), "todo-1")
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.UpdateTodo(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "Updated", decodeBody(t, w)["title"])
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTodoHandler_ToggleTodo тестирует переключение
func TestTodoHandler_ToggleTodo(t *testing.T) {
	mockService := new(MockTodoService)
	toggled := sampleTodo("todo-1", "a")
	toggled.Completed = true
	mockService.On("ToggleTodo", mock.Anything, "owner", "todo-1").Return(toggled, nil)

	handler := handlers.NewTodoHandler(mockService)
	w := httptest.NewRecorder()
	handler.ToggleTodo(w, withID(newRequest(http.MethodPatch, "/todos/todo-1/toggle", ""), "todo-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["completed"])
	mockService.AssertExpectations(t)
}

// TestTodoHandler_DeleteTodo тестирует удаление
func TestTodoHandler_DeleteTodo(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockTodoService)
		mockService.On("DeleteTodo", mock.Anything, "owner", "todo-1").Return(nil)

		handler := handlers.NewTodoHandler(mockService)
		w := httptest.NewRecorder()
		handler.DeleteTodo(w, withID(newRequest(http.MethodDelete, "/todos/todo-1", ""), "todo-1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Todo deleted successfully", decodeBody(t, w)["message"])
	})

	t.Run("error - not found", func(t *testing.T) {
		mockService := new(MockTodoService)
		mockService.On("DeleteTodo", mock.Anything, "owner", "missing").Return(service.NewNotFound("missing"))

		handler := handlers.NewTodoHandler(mockService)
		w := httptest.NewRecorder()
		handler.DeleteTodo(w, withID(newRequest(http.MethodDelete, "/todos/missing", ""), "missing"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, service.CodeNotFound, body["error"])
		assert.Equal(t, "Todo not found", body["message"])
	})
}

// TestTodoHandler_Stats тестирует статистику
func TestTodoHandler_Stats(t *testing.T) {
	mockService := new(MockTodoService)
	mockService.On("Stats", mock.Anything, "owner").Return(todo.NewStats(4, 1), nil)

	handler := handlers.NewTodoHandler(mockService)
	w := httptest.NewRecorder()
	handler.Stats(w, newRequest(http.MethodGet, "/todos/stats", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":4,"completed":1,"pending":3}`, w.Body.String())
}
