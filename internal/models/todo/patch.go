package todo

import (
	"fmt"
	"time"
)

// OptionalTime различает "поле не передано" (Set == false)
// и "поле очищено" (Set == true, Value == nil).
type OptionalTime struct {
	Set   bool
	Value *time.Time
	Raw   string // исходная строка, которую не удалось разобрать
}

func (o OptionalTime) invalid() bool {
	return o.Set && o.Value == nil && o.Raw != ""
}

func SetTime(t time.Time) OptionalTime {
	return OptionalTime{Set: true, Value: &t}
}

func ClearTime() OptionalTime {
	return OptionalTime{Set: true}
}

// Patch - частичное обновление задачи. nil означает "не менять".
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
	Completed   *bool
	Priority    *Priority
	Category    *string
	DueDate     OptionalTime
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Status == nil &&
		p.Completed == nil &&
		p.Priority == nil &&
		p.Category == nil &&
		!p.DueDate.Set
}

func (p Patch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return invalid("title", "Title is required")
	}
	if p.DueDate.invalid() {
		return invalid("dueDate", fmt.Sprintf("invalid date %q", p.DueDate.Raw))
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", *p.Status))
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return invalid("priority", fmt.Sprintf("unknown priority %q", *p.Priority))
	}
	return nil
}

// RenamesTo сообщает, меняет ли патч название задачи t
func (p Patch) RenamesTo(t *Todo) (string, bool) {
	if p.Title == nil || *p.Title == t.Title {
		return "", false
	}
	return *p.Title, true
}

// Apply переносит переданные поля в задачу. user, deleted и
// метки времени патч не трогает.
func (p Patch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.DueDate.Set && !p.DueDate.invalid() {
		if p.DueDate.Value == nil {
			t.DueDate = nil
		} else {
			d := *p.DueDate.Value
			t.DueDate = &d
		}
		// новый срок - новое напоминание
		t.RemindedAt = nil
	}
}
