package todo

import (
	"fmt"
	"time"
)

// форматы срока: RFC 3339, datetime-local из браузера и просто дата
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate разбирает срок; форматы без зоны считаются UTC
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("dueDate", fmt.Sprintf("invalid date %q", raw))
}

// ParseOptionalTime переводит строку из запроса в изменение срока.
// Пустая строка очищает срок, неразобранное значение запоминается
// и отклоняется в Patch.Validate.
func ParseOptionalTime(raw string) OptionalTime {
	if raw == "" {
		return ClearTime()
	}
	t, err := ParseDate(raw)
	if err != nil {
		return OptionalTime{Set: true, Raw: raw}
	}
	return SetTime(t)
}
