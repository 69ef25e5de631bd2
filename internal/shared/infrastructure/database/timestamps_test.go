package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime_SortsChronologically(t *testing.T) {
	a := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	b := a.Add(500 * time.Millisecond)

	assert.Equal(t, "2025-01-10T09:00:00.000000000Z", FormatTime(a))
	assert.Less(t, FormatTime(a), FormatTime(b))
}

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	got, err := ParseTime(FormatTime(want))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = ParseTime("2025-01-10T09:00:00+01:00")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}

func TestNullTime(t *testing.T) {
	assert.Nil(t, FormatNullTime(nil))

	parsed, err := ParseNullTime(nil)
	require.NoError(t, err)
	assert.Nil(t, parsed)

	value := "2025-01-10T08:00:00.000000000Z"
	parsed, err = ParseNullTime(&value)
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, 8, parsed.Hour())
}
