package todo

import (
	"cmp"
	"fmt"
)

type SortField string
type SortOrder int

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortTitle     SortField = "title"
	SortDueDate   SortField = "dueDate"
	SortPriority  SortField = "priority"
	SortStatus    SortField = "status"
	SortCategory  SortField = "category"
	SortCompleted SortField = "completed"
)

const (
	Ascending  SortOrder = 1
	Descending SortOrder = -1
)

var sortFields = map[SortField]struct{}{
	SortCreatedAt: {},
	SortUpdatedAt: {},
	SortTitle:     {},
	SortDueDate:   {},
	SortPriority:  {},
	SortStatus:    {},
	SortCategory:  {},
	SortCompleted: {},
}

// ParseSortField допускает только поля из белого списка; пустая строка
// означает сортировку по времени создания.
func ParseSortField(raw string) (SortField, error) {
	if raw == "" {
		return SortCreatedAt, nil
	}
	field := SortField(raw)
	if _, ok := sortFields[field]; !ok {
		return "", invalid("sort", fmt.Sprintf("unsupported sort field %q", raw))
	}
	return field, nil
}

// ParseSortOrder: по возрастанию, если только не "desc"
func ParseSortOrder(raw string) SortOrder {
	if raw == "desc" {
		return Descending
	}
	return Ascending
}

type Filter struct {
	Completed *bool
	Status    *Status
	Sort      SortField
	Order     SortOrder
}

func (f Filter) Normalize() Filter {
	if f.Sort == "" {
		f.Sort = SortCreatedAt
	}
	if f.Order != Descending {
		f.Order = Ascending
	}
	return f
}

// Matches проверяет фильтр без учёта сортировки
func (f Filter) Matches(t *Todo) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	return true
}

// Compare сравнивает две задачи по полю f.
// Отсутствующий срок считается меньше любого заданного.
func Compare(a, b *Todo, f SortField) int {
	switch f {
	case SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortTitle:
		return cmp.Compare(a.Title, b.Title)
	case SortDueDate:
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return -1
		case b.DueDate == nil:
			return 1
		}
		return a.DueDate.Compare(*b.DueDate)
	case SortPriority:
		return cmp.Compare(a.Priority, b.Priority)
	case SortStatus:
		return cmp.Compare(a.Status, b.Status)
	case SortCategory:
		return cmp.Compare(a.Category, b.Category)
	case SortCompleted:
		return cmp.Compare(boolRank(a.Completed), boolRank(b.Completed))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
