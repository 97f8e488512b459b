// Package request разбирает параметры пути и строки запроса HTTP-обработчиков биллинга.
package request

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

// ID читает положительный идентификатор из параметра пути {id}.
func ID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// Int64List читает список идентификаторов: повторяющийся параметр или значения через запятую.
func Int64List(q url.Values, key string) ([]int64, error) {
	var out []int64
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, models.NewValidationError(fmt.Sprintf("%s must contain integers", key))
			}
			out = append(out, id)
		}
	}
	return out, nil
}

// OptionalInt64 читает необязательное целое.
func OptionalInt64(q url.Values, key string) (*int64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("%s must be an integer", key))
	}
	return &id, nil
}

// Int читает необязательное целое, по умолчанию 0.
func Int(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, models.NewValidationError(fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}

// Date читает необязательную дату в формате models.DateLayout.
func Date(q url.Values, key string) (*time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := models.ParseDate(key, v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
