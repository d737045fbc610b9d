package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInPlaceFilter(t *testing.T) {
	values := []int{1, 2, 3, 4, 5, 6}
	InPlaceFilter(&values, func(v int) bool { return v%2 == 0 })

	assert.Equal(t, []int{2, 4, 6}, values)
}

func TestParseGTFSDate(t *testing.T) {
	date, err := ParseGTFSDate(" 20240108 ")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, "20240108", FormatGTFSDate(date))

	_, err = ParseGTFSDate("2024-01-08")
	assert.Error(t, err)
}
