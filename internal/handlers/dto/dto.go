package dto

import (
	"encoding/json"
	"time"
	"todoTracker/internal/models/todo"
)

type CreateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
	Category    string `json:"category"`
}

// Options переводит тело запроса в опции задачи; пустые поля получат значения по умолчанию
func (r CreateTodoRequest) Options() ([]todo.TodoOption, error) {
	options := []todo.TodoOption{
		todo.WithDescription(r.Description),
		todo.WithPriority(todo.Priority(r.Priority)),
		todo.WithStatus(todo.Status(r.Status)),
		todo.WithCategory(r.Category),
	}

	if r.DueDate != "" {
		due, err := todo.ParseDate(r.DueDate)
		if err != nil {
			return nil, err
		}
		options = append(options, todo.WithDueDate(&due))
	}
	return options, nil
}

// NullableDate отличает отсутствующее поле от явного null
type NullableDate struct {
	Set   bool
	Value string
}

func (d *NullableDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if string(b) == "null" {
		d.Value = ""
		return nil
	}
	return json.Unmarshal(b, &d.Value)
}

type UpdateTodoRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Status      *string      `json:"status"`
	Completed   *bool        `json:"completed"`
	Priority    *string      `json:"priority"`
	Category    *string      `json:"category"`
	DueDate     NullableDate `json:"dueDate"`
}

// ToPatch не проверяет значения: срок разбирается здесь, а отклоняется
// сервисом уже после проверки владельца.
func (r UpdateTodoRequest) ToPatch() todo.Patch {
	patch := todo.Patch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Category:    r.Category,
	}
	if r.Status != nil {
		status := todo.Status(*r.Status)
		patch.Status = &status
	}
	if r.Priority != nil {
		priority := todo.Priority(*r.Priority)
		patch.Priority = &priority
	}
	if r.DueDate.Set {
		patch.DueDate = todo.ParseOptionalTime(r.DueDate.Value)
	}
	return patch
}

type TodoResponse struct {
	ID          string     `json:"_id"`
	User        string     `json:"user"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	Reminder    bool       `json:"reminder"`
	Deleted     bool       `json:"deleted"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func FromTodo(t *todo.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		User:        t.User,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Category:    t.Category,
		DueDate:     t.DueDate,
		Reminder:    t.Reminder,
		Deleted:     t.Deleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromTodoList(todos []*todo.Todo) []TodoResponse {
	result := make([]TodoResponse, len(todos))
	for i, t := range todos {
		result[i] = FromTodo(t)
	}
	return result
}

type StatsResponse struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

func FromStats(s todo.Stats) StatsResponse {
	return StatsResponse{
		Total:     s.Total,
		Completed: s.Completed,
		Pending:   s.Pending,
	}
}
