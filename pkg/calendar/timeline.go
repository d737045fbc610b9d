package calendar

import (
	"cmp"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/feed"
	"github.com/travigo/gtfs-validator/pkg/util"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const secondsPerDay = 24 * 60 * 60

// Timeline holds the set of active service ids for every date in [Start, End]
type Timeline struct {
	Start time.Time
	End   time.Time

	days []map[string]bool
}

func newTimeline(start time.Time, end time.Time) *Timeline {
	timeline := &Timeline{Start: start, End: end}

	if !end.Before(start) {
		timeline.days = make([]map[string]bool, daysBetween(start, end)+1)
	}

	return timeline
}

// daysBetween counts calendar days between two UTC midnights. time.Duration
// cannot span more than about 292 years, so whole seconds are used instead.
func daysBetween(start time.Time, date time.Time) int {
	return int((date.Unix() - start.Unix()) / secondsPerDay)
}

// Day sets are allocated on first write
func (t *Timeline) activate(i int, serviceID string) {
	if t.days[i] == nil {
		t.days[i] = map[string]bool{}
	}

	t.days[i][serviceID] = true
}

func (t *Timeline) index(date time.Time) (int, bool) {
	date = util.TruncateToDate(date)
	if len(t.days) == 0 || date.Before(t.Start) || date.After(t.End) {
		return 0, false
	}

	return daysBetween(t.Start, date), true
}

// Dates returns every date of the timeline in order
func (t *Timeline) Dates() []time.Time {
	dates := make([]time.Time, 0, len(t.days))
	for i := range t.days {
		dates = append(dates, t.Start.AddDate(0, 0, i))
	}

	return dates
}

// Active returns the sorted service ids active on a date
func (t *Timeline) Active(date time.Time) []string {
	i, exists := t.index(date)
	if !exists {
		return []string{}
	}

	services := maps.Keys(t.days[i])
	slices.Sort(services)

	return services
}

func (t *Timeline) IsActive(date time.Time, serviceID string) bool {
	i, exists := t.index(date)

	return exists && t.days[i][serviceID]
}

// Paint tags every date of each calendar's validity window on which its weekday flag is set.
// The window spans the earliest start to the latest end date. When there are no
// calendar rows it falls back to the span of the exception dates.
func Paint(calendars []feed.Calendar, exceptions []feed.CalendarDate) *Timeline {
	type window struct {
		calendar   *feed.Calendar
		start, end time.Time
	}

	windows := []window{}
	var start, end time.Time

	extend := func(from time.Time, to time.Time) {
		if start.IsZero() || from.Before(start) {
			start = from
		}
		if end.IsZero() || to.After(end) {
			end = to
		}
	}

	for i := range calendars {
		calendar := &calendars[i]

		from, fromErr := util.ParseGTFSDate(calendar.Start)
		to, toErr := util.ParseGTFSDate(calendar.End)
		if fromErr != nil || toErr != nil {
			log.Warn().Str("service", calendar.ServiceID).Msg("Calendar with invalid dates ignored")
			continue
		}

		windows = append(windows, window{calendar: calendar, start: from, end: to})
		extend(from, to)
	}

	if len(windows) == 0 {
		for _, exception := range exceptions {
			if date, err := util.ParseGTFSDate(exception.Date); err == nil {
				extend(date, date)
			}
		}
	}

	if start.IsZero() {
		return &Timeline{}
	}

	timeline := newTimeline(start, end)

	for _, date := range timeline.Dates() {
		i, _ := timeline.index(date)

		for _, window := range windows {
			if date.Before(window.start) || date.After(window.end) {
				continue
			}

			if window.calendar.RunsOn(date.Weekday()) {
				timeline.activate(i, window.calendar.ServiceID)
			}
		}
	}

	return timeline
}

// ApplyExceptions corrects the painted timeline with calendar_dates rows.
// Rows are applied by date, keeping table order within a date. ADD inserts the
// service and REMOVE deletes it, doing nothing when it was not active.
func (t *Timeline) ApplyExceptions(exceptions []feed.CalendarDate) {
	type dated struct {
		exception feed.CalendarDate
		date      time.Time
	}

	ordered := make([]dated, 0, len(exceptions))
	for _, exception := range exceptions {
		date, err := util.ParseGTFSDate(exception.Date)
		if err != nil {
			log.Warn().Str("service", exception.ServiceID).Str("date", exception.Date).Msg("Calendar exception with invalid date ignored")
			continue
		}

		ordered = append(ordered, dated{exception: exception, date: date})
	}

	slices.SortStableFunc(ordered, func(a, b dated) int {
		return cmp.Compare(a.date.Unix(), b.date.Unix())
	})

	for _, entry := range ordered {
		i, exists := t.index(entry.date)
		if !exists {
			log.Debug().
				Str("service", entry.exception.ServiceID).
				Str("date", entry.exception.Date).
				Msg("Calendar exception outside timeline ignored")
			continue
		}

		switch entry.exception.ExceptionType {
		case feed.ExceptionTypeAdded:
			t.activate(i, entry.exception.ServiceID)
		case feed.ExceptionTypeRemoved:
			delete(t.days[i], entry.exception.ServiceID)
		default:
			log.Warn().
				Str("service", entry.exception.ServiceID).
				Int("type", int(entry.exception.ExceptionType)).
				Msg("Unknown calendar exception type ignored")
		}
	}
}

// Expand builds the active service timeline of a feed
func Expand(calendars []feed.Calendar, exceptions []feed.CalendarDate) *Timeline {
	timeline := Paint(calendars, exceptions)
	timeline.ApplyExceptions(exceptions)

	return timeline
}
