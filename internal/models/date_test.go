package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("due_date", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "29-02-2024", "2023-02-29"} {
		_, err := ParseDate("due_date", bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Contains(t, err.Error(), "due_date")
	}
}
