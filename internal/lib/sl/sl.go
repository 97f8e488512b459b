// Package sl содержит вспомогательные функции для структурированных полей slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil записывается пустая строка, чтобы логирование частичных итогов
// пакетных операций не требовало отдельной проверки.
//
// Пример:
//
//	log.Error("failed to write recalculation page", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
