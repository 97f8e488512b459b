package models

import "errors"

var (
	// ErrNotFound возвращается, если план, рассрочка, обязательство или команда не найдены.
	ErrNotFound = errors.New("not found")
	// ErrValidation возвращается при нарушении бизнес-правил входных данных.
	ErrValidation = errors.New("validation failed")
	// ErrConflict возвращается, если операция невозможна в текущем состоянии записи.
	ErrConflict = errors.New("conflict")
)

// ValidationError описывает конкретное нарушение правил и сводится к ErrValidation через errors.Is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError создаёт ValidationError с заданным сообщением.
func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}
