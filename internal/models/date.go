package models

import (
	"fmt"
	"time"
)

// ParseDate разбирает дату в формате DateLayout (UTC).
// Пустая строка и неверный формат возвращаются как ValidationError с именем поля.
func ParseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, NewValidationError(fmt.Sprintf("%s is required", field))
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, NewValidationError(fmt.Sprintf("%s must have format YYYY-MM-DD", field))
	}
	return t, nil
}
