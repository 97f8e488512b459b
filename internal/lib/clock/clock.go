// Package clock предоставляет источник текущего времени.
// Все сравнения с «сейчас» в биллинге идут через Clock, чтобы пересчёт,
// пресеты дат и генерация графиков были детерминированы в тестах.
package clock

import "time"

// Clock возвращает текущий момент времени.
type Clock interface {
	Now() time.Time
}

// Real — системные часы в UTC.
type Real struct{}

// Now возвращает текущее время в UTC.
func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed всегда возвращает один и тот же момент.
type Fixed struct {
	T time.Time
}

// Now возвращает зафиксированное время.
func (f Fixed) Now() time.Time { return f.T }

// Today возвращает полночь (UTC) текущего календарного дня часов c.
func Today(c Clock) time.Time {
	return Day(c.Now())
}

// Day отбрасывает время суток, оставляя дату в UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
