package todo_test

import (
	"testing"
	"time"
	"todoTracker/internal/models/todo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew_Defaults тестирует значения по умолчанию
func TestNew_Defaults(t *testing.T) {
	created := todo.New("user-1", "Buy milk",
		todo.WithDescription(""),
		todo.WithStatus(""),
		todo.WithPriority(""),
		todo.WithCategory(""),
		todo.WithDueDate(nil),
	)

	assert.Equal(t, "user-1", created.User)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "", created.Description)
	assert.Equal(t, todo.StatusTodo, created.Status)
	assert.Equal(t, todo.PriorityMedium, created.Priority)
	assert.Equal(t, todo.DefaultCategory, created.Category)
	assert.Nil(t, created.DueDate)
	assert.False(t, created.Reminder)
	assert.False(t, created.Completed)
	assert.False(t, created.Deleted)
}

// TestNew_WithOptions тестирует переданные значения
func TestNew_WithOptions(t *testing.T) {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	created := todo.New("user-1", "Report",
		todo.WithDescription("quarterly"),
		todo.WithStatus(todo.StatusInProgress),
		todo.WithPriority(todo.PriorityHigh),
		todo.WithCategory("Work"),
		todo.WithDueDate(&due),
	)

	assert.Equal(t, "quarterly", created.Description)
	assert.Equal(t, todo.StatusInProgress, created.Status)
	assert.Equal(t, todo.PriorityHigh, created.Priority)
	assert.Equal(t, "Work", created.Category)
	require.NotNil(t, created.DueDate)
	assert.True(t, due.Equal(*created.DueDate))
	assert.True(t, created.Reminder)

	// опция копирует время
	due = due.Add(time.Hour)
	assert.False(t, due.Equal(*created.DueDate))
}

// TestTodo_Validate тестирует проверку полей
func TestTodo_Validate(t *testing.T) {
	tests := []struct {
		name  string
		todo  *todo.Todo
		field string
	}{
		{name: "valid", todo: todo.New("u", "title")},
		{name: "empty title", todo: todo.New("u", ""), field: "title"},
		{name: "bad status", todo: todo.New("u", "t", todo.WithStatus("later")), field: "status"},
		{name: "bad priority", todo: todo.New("u", "t", todo.WithPriority("urgent")), field: "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.todo.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *todo.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

// TestPatch_Apply тестирует частичное обновление
func TestPatch_Apply(t *testing.T) {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	reminded := due.Add(time.Minute)

	base := func() *todo.Todo {
		t := todo.New("u", "Old", todo.WithDescription("desc"), todo.WithDueDate(&due))
		t.RemindedAt = &reminded
		return t
	}

	t.Run("empty patch changes nothing", func(t *testing.T) {
		target := base()
		before := target.Clone()
		patch := todo.Patch{}

		assert.True(t, patch.IsEmpty())
		patch.Apply(target)
		assert.Equal(t, before, target)
	})

	t.Run("supplied fields overwrite", func(t *testing.T) {
		target := base()
		title := "New"
		empty := ""
		done := todo.StatusDone
		completed := true
		high := todo.PriorityHigh

		todo.Patch{
			Title:       &title,
			Description: &empty,
			Status:      &done,
			Completed:   &completed,
			Priority:    &high,
		}.Apply(target)

		assert.Equal(t, "New", target.Title)
		assert.Equal(t, "", target.Description)
		assert.Equal(t, todo.StatusDone, target.Status)
		assert.True(t, target.Completed)
		assert.Equal(t, todo.PriorityHigh, target.Priority)
		assert.Equal(t, todo.DefaultCategory, target.Category)
		require.NotNil(t, target.DueDate)
		assert.NotNil(t, target.RemindedAt)
	})

	t.Run("cleared due date", func(t *testing.T) {
		target := base()
		todo.Patch{DueDate: todo.ClearTime()}.Apply(target)

		assert.Nil(t, target.DueDate)
		assert.Nil(t, target.RemindedAt)
		assert.True(t, target.Reminder)
	})

	t.Run("moved due date resets reminder mark", func(t *testing.T) {
		target := base()
		next := due.Add(24 * time.Hour)
		todo.Patch{DueDate: todo.SetTime(next)}.Apply(target)

		require.NotNil(t, target.DueDate)
		assert.True(t, next.Equal(*target.DueDate))
		assert.Nil(t, target.RemindedAt)
	})
}

// TestPatch_Validate тестирует проверку патча
func TestPatch_Validate(t *testing.T) {
	empty := ""
	bad := todo.Status("later")
	worse := todo.Priority("urgent")
	ok := "fine"

	assert.Error(t, todo.Patch{Title: &empty}.Validate())
	assert.Error(t, todo.Patch{Status: &bad}.Validate())
	assert.Error(t, todo.Patch{Priority: &worse}.Validate())
	assert.NoError(t, todo.Patch{Title: &ok, Description: &empty}.Validate())
}

// TestParseSortField тестирует разбор параметров сортировки
func TestParseSortField(t *testing.T) {
	field, err := todo.ParseSortField("")
	require.NoError(t, err)
	assert.Equal(t, todo.SortCreatedAt, field)

	field, err = todo.ParseSortField("dueDate")
	require.NoError(t, err)
	assert.Equal(t, todo.SortDueDate, field)

	_, err = todo.ParseSortField("password")
	assert.Error(t, err)

	assert.Equal(t, todo.Descending, todo.ParseSortOrder("desc"))
	assert.Equal(t, todo.Ascending, todo.ParseSortOrder("asc"))
	assert.Equal(t, todo.Ascending, todo.ParseSortOrder(""))
}

// TestCompare_DueDate тестирует упорядочивание пустых сроков
func TestCompare_DueDate(t *testing.T) {
	due := time.Now()
	withDue := todo.New("u", "a", todo.WithDueDate(&due))
	without := todo.New("u", "b")

	assert.Equal(t, -1, todo.Compare(without, withDue, todo.SortDueDate))
	assert.Equal(t, 1, todo.Compare(withDue, without, todo.SortDueDate))
	assert.Equal(t, 0, todo.Compare(without, without, todo.SortDueDate))
	assert.Equal(t, -1, todo.Compare(withDue, without, todo.SortTitle))
}

// TestTodo_ReminderDue тестирует условие напоминания
func TestTodo_ReminderDue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, todo.New("u", "a", todo.WithDueDate(&past)).ReminderDue(now))
	assert.False(t, todo.New("u", "a", todo.WithDueDate(&future)).ReminderDue(now))
	assert.False(t, todo.New("u", "a").ReminderDue(now))

	completed := todo.New("u", "a", todo.WithDueDate(&past))
	completed.Completed = true
	assert.False(t, completed.ReminderDue(now))

	reminded := todo.New("u", "a", todo.WithDueDate(&past))
	reminded.RemindedAt = &now
	assert.False(t, reminded.ReminderDue(now))
}

// TestNewStats тестирует подсчёт незавершённых
func TestNewStats(t *testing.T) {
	stats := todo.NewStats(5, 2)
	assert.Equal(t, int64(3), stats.Pending)
	assert.Equal(t, stats.Total, stats.Completed+stats.Pending)
}

// TestParseDate тестирует поддерживаемые форматы срока
func TestParseDate(t *testing.T) {
	tests := []struct {
		raw    string
		expect time.Time
	}{
		{raw: "2025-01-01", expect: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "2025-01-01T09:30", expect: time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)},
		{raw: "2025-01-01T09:30:15", expect: time.Date(2025, 1, 1, 9, 30, 15, 0, time.UTC)},
		{raw: "2025-01-01T09:30:00+03:00", expect: time.Date(2025, 1, 1, 6, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			parsed, err := todo.ParseDate(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.expect.Equal(parsed), "got %s", parsed)
		})
	}

	_, err := todo.ParseDate("tomorrow")
	var vErr *todo.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "dueDate", vErr.Field)
}

// TestParseOptionalTime тестирует разбор срока из запроса на обновление
func TestParseOptionalTime(t *testing.T) {
	cleared := todo.ParseOptionalTime("")
	assert.True(t, cleared.Set)
	assert.Nil(t, cleared.Value)
	assert.NoError(t, todo.Patch{DueDate: cleared}.Validate())

	set := todo.ParseOptionalTime("2025-02-03")
	require.NotNil(t, set.Value)
	assert.NoError(t, todo.Patch{DueDate: set}.Validate())

	broken := todo.Patch{DueDate: todo.ParseOptionalTime("garbage")}
	assert.ErrorContains(t, broken.Validate(), `invalid date "garbage"`)

	// неразобранный срок не очищает существующий
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	target := todo.New("u", "t", todo.WithDueDate(&due))
	broken.Apply(target)
	require.NotNil(t, target.DueDate)
	assert.True(t, due.Equal(*target.DueDate))
}
