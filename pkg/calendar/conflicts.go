package calendar

import (
	"cmp"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/feed"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Conflict is a pair of calendar services that are both active on the same
// date for the same line and direction
type Conflict struct {
	ShortCode string
	Direction int
	ServiceA  string
	ServiceB  string

	FirstDate time.Time
	Dates     int
}

type Options struct {
	// LegacyReturnDirection collects the return direction services with the
	// outbound filter, as older releases did
	LegacyReturnDirection bool
}

type conflictKey struct {
	shortCode string
	direction int
	serviceA  string
	serviceB  string
}

// DetectConflicts finds, per short code and direction, every pair of distinct
// services used by the trips that are active together on some date and whose
// weekday patterns intersect
func DetectConflicts(timeline *Timeline, calendars []feed.Calendar, trips []feed.FeedTrip, options Options) []Conflict {
	patterns := map[string]map[time.Weekday]bool{}
	for i := range calendars {
		pattern := map[time.Weekday]bool{}
		for _, weekday := range calendars[i].GetRunningDays() {
			pattern[weekday] = true
		}
		patterns[calendars[i].ServiceID] = pattern
	}

	shortCodes := map[string]bool{}
	for _, trip := range trips {
		shortCodes[trip.ShortCode] = true
	}
	codes := maps.Keys(shortCodes)
	slices.Sort(codes)

	found := map[conflictKey]*Conflict{}
	dates := timeline.Dates()

	for _, shortCode := range codes {
		for _, direction := range []int{0, 1} {
			services := collectServices(trips, shortCode, directionFilter(direction, options))
			if len(services) < 2 {
				continue
			}

			for _, date := range dates {
				active := []string{}
				for _, serviceID := range services {
					if timeline.IsActive(date, serviceID) {
						active = append(active, serviceID)
					}
				}

				for a := 0; a < len(active); a++ {
					for b := a + 1; b < len(active); b++ {
						if !patternsIntersect(patterns[active[a]], patterns[active[b]]) {
							continue
						}

						key := conflictKey{shortCode, direction, active[a], active[b]}
						if conflict, exists := found[key]; exists {
							conflict.Dates++
							continue
						}

						found[key] = &Conflict{
							ShortCode: shortCode,
							Direction: direction,
							ServiceA:  active[a],
							ServiceB:  active[b],
							FirstDate: date,
							Dates:     1,
						}
					}
				}
			}
		}
	}

	conflicts := make([]Conflict, 0, len(found))
	for _, conflict := range found {
		conflicts = append(conflicts, *conflict)
	}

	slices.SortFunc(conflicts, func(a, b Conflict) int {
		if c := cmp.Compare(a.ShortCode, b.ShortCode); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Direction, b.Direction); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ServiceA, b.ServiceA); c != 0 {
			return c
		}

		return cmp.Compare(a.ServiceB, b.ServiceB)
	})

	if len(conflicts) > 0 {
		log.Debug().Int("conflicts", len(conflicts)).Msg("Detected calendar conflicts")
	}

	return conflicts
}

func directionFilter(direction int, options Options) int {
	if direction == 1 && options.LegacyReturnDirection {
		return 0
	}

	return direction
}

// collectServices returns the sorted distinct service ids of a line's trips in one direction
func collectServices(trips []feed.FeedTrip, shortCode string, direction int) []string {
	services := map[string]bool{}
	for _, trip := range trips {
		if trip.ShortCode == shortCode && trip.Direction == direction {
			services[trip.ServiceID] = true
		}
	}

	ids := maps.Keys(services)
	slices.Sort(ids)

	return ids
}

func patternsIntersect(a map[time.Weekday]bool, b map[time.Weekday]bool) bool {
	for weekday := range a {
		if b[weekday] {
			return true
		}
	}

	return false
}
