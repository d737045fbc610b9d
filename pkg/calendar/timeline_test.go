package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/gtfs-validator/pkg/feed"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func weekdays(serviceID string, start string, end string) feed.Calendar {
	return feed.Calendar{
		ServiceID: serviceID,
		Monday:    1, Tuesday: 1, Wednesday: 1, Thursday: 1, Friday: 1,
		Start: start, End: end,
	}
}

func TestExpandRemoveAndAdd(t *testing.T) {
	calendars := []feed.Calendar{
		weekdays("U_REG", "20240101", "20240131"),
		{ServiceID: "S_REG", Start: "20240101", End: "20240131"},
	}
	exceptions := []feed.CalendarDate{
		{ServiceID: "U_REG", Date: "20240108", ExceptionType: feed.ExceptionTypeRemoved},
		{ServiceID: "S_REG", Date: "20240106", ExceptionType: feed.ExceptionTypeAdded},
	}

	timeline := Expand(calendars, exceptions)

	assert.Equal(t, date(2024, time.January, 1), timeline.Start)
	assert.Equal(t, date(2024, time.January, 31), timeline.End)
	assert.Len(t, timeline.Dates(), 31)

	assert.False(t, timeline.IsActive(date(2024, time.January, 8), "U_REG"))
	assert.Empty(t, timeline.Active(date(2024, time.January, 8)))
	assert.True(t, timeline.IsActive(date(2024, time.January, 9), "U_REG"))

	assert.Equal(t, []string{"S_REG"}, timeline.Active(date(2024, time.January, 6)))
	assert.Empty(t, timeline.Active(date(2024, time.January, 13)))
}

func TestExpandCenturiesLongWindow(t *testing.T) {
	calendars := []feed.Calendar{weekdays("U_REG", "18000101", "21991231")}
	exceptions := []feed.CalendarDate{
		{ServiceID: "U_REG", Date: "21500616", ExceptionType: feed.ExceptionTypeRemoved},
	}

	timeline := Expand(calendars, exceptions)

	assert.Len(t, timeline.Dates(), 146097)
	assert.Equal(t, date(2199, time.December, 31), timeline.Dates()[146096])

	assert.True(t, timeline.IsActive(date(2150, time.June, 15), "U_REG"))
	assert.False(t, timeline.IsActive(date(2150, time.June, 14), "U_REG"))
	assert.False(t, timeline.IsActive(date(2150, time.June, 16), "U_REG"))
	assert.True(t, timeline.IsActive(date(1800, time.January, 1), "U_REG"))
}

func TestPaintAndApplyExceptionsAreSeparateStages(t *testing.T) {
	calendars := []feed.Calendar{weekdays("U_REG", "20240101", "20240107")}
	exceptions := []feed.CalendarDate{
		{ServiceID: "U_REG", Date: "20240102", ExceptionType: feed.ExceptionTypeRemoved},
	}

	timeline := Paint(calendars, exceptions)
	require.True(t, timeline.IsActive(date(2024, time.January, 2), "U_REG"))

	timeline.ApplyExceptions(exceptions)
	assert.False(t, timeline.IsActive(date(2024, time.January, 2), "U_REG"))
}

func TestApplyExceptionsRemoveIsNoOpWhenInactive(t *testing.T) {
	timeline := Paint([]feed.Calendar{weekdays("U_REG", "20240101", "20240107")}, nil)

	timeline.ApplyExceptions([]feed.CalendarDate{
		// Saturday, not painted
		{ServiceID: "U_REG", Date: "20240106", ExceptionType: feed.ExceptionTypeRemoved},
		{ServiceID: "OTHER", Date: "20240103", ExceptionType: feed.ExceptionTypeRemoved},
	})

	assert.Empty(t, timeline.Active(date(2024, time.January, 6)))
	assert.Equal(t, []string{"U_REG"}, timeline.Active(date(2024, time.January, 3)))
}

func TestApplyExceptionsOrder(t *testing.T) {
	timeline := Paint([]feed.Calendar{weekdays("U_REG", "20240101", "20240107")}, nil)

	timeline.ApplyExceptions([]feed.CalendarDate{
		{ServiceID: "U_EXTRA", Date: "20240104", ExceptionType: feed.ExceptionTypeRemoved},
		{ServiceID: "U_EXTRA", Date: "20240103", ExceptionType: feed.ExceptionTypeAdded},
		{ServiceID: "U_EXTRA", Date: "20240103", ExceptionType: feed.ExceptionTypeRemoved},
		{ServiceID: "U_EXTRA", Date: "20240104", ExceptionType: feed.ExceptionTypeAdded},
	})

	assert.False(t, timeline.IsActive(date(2024, time.January, 3), "U_EXTRA"))
	assert.True(t, timeline.IsActive(date(2024, time.January, 4), "U_EXTRA"))
}

func TestApplyExceptionsOutsideWindowIgnored(t *testing.T) {
	timeline := Expand(
		[]feed.Calendar{weekdays("U_REG", "20240101", "20240107")},
		[]feed.CalendarDate{
			{ServiceID: "U_EXTRA", Date: "20240201", ExceptionType: feed.ExceptionTypeAdded},
			{ServiceID: "U_EXTRA", Date: "not a date", ExceptionType: feed.ExceptionTypeAdded},
		},
	)

	assert.Equal(t, date(2024, time.January, 7), timeline.End)
	assert.False(t, timeline.IsActive(date(2024, time.February, 1), "U_EXTRA"))
	assert.Empty(t, timeline.Active(date(2024, time.February, 1)))
}

func TestPaintFallsBackToExceptionDates(t *testing.T) {
	exceptions := []feed.CalendarDate{
		{ServiceID: "EVENT", Date: "20240210", ExceptionType: feed.ExceptionTypeAdded},
		{ServiceID: "EVENT", Date: "20240205", ExceptionType: feed.ExceptionTypeAdded},
	}

	timeline := Expand(nil, exceptions)

	assert.Equal(t, date(2024, time.February, 5), timeline.Start)
	assert.Equal(t, date(2024, time.February, 10), timeline.End)
	assert.True(t, timeline.IsActive(date(2024, time.February, 5), "EVENT"))
	assert.False(t, timeline.IsActive(date(2024, time.February, 6), "EVENT"))
}

func TestExpandEmpty(t *testing.T) {
	timeline := Expand(nil, nil)

	assert.Empty(t, timeline.Dates())
	assert.Empty(t, timeline.Active(date(2024, time.January, 1)))
}
