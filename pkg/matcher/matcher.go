package matcher

import (
	"cmp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/feed"
	"github.com/travigo/gtfs-validator/pkg/util"
	"golang.org/x/exp/slices"
)

var (
	WeekdayReferencePrefixes  = []string{"U_R", "U_O"}
	SaturdayReferencePrefixes = []string{"S_R", "S_O"}
)

// MatchedTrip is the reference outbound and return trip of a line.
// An empty trip id means no trip was found for that direction.
type MatchedTrip struct {
	ShortCode      string
	OutboundTripID string
	ReturnTripID   string
}

type Options struct {
	// Lines whose reference schedule is drawn from the Saturday services
	SaturdayReferenceLines []string
}

// FilterByShapes keeps the trips whose shape id exists in the segmented shape table
func FilterByShapes(trips []feed.FeedTrip, shapes *feed.SegmentedShapes) []feed.FeedTrip {
	shapeIDs := shapes.IDs()

	filtered := slices.Clone(trips)
	util.InPlaceFilter(&filtered, func(trip feed.FeedTrip) bool {
		return shapeIDs[trip.ShapeID]
	})

	if dropped := len(trips) - len(filtered); dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("Trips without a segmented shape excluded")
	}

	return filtered
}

// ReferencePrefixes returns the service id prefixes a line's reference trips are drawn from
func (o Options) ReferencePrefixes(shortCode string) []string {
	if slices.Contains(o.SaturdayReferenceLines, shortCode) {
		return SaturdayReferencePrefixes
	}

	return WeekdayReferencePrefixes
}

// Match picks one outbound and one return trip per short code.
// Candidates are sorted by short code, service id descending, shape id,
// direction and trip id, and the first per (short code, direction) wins.
func Match(trips []feed.FeedTrip, shapes *feed.SegmentedShapes, options Options) []MatchedTrip {
	candidates := []feed.FeedTrip{}
	for _, trip := range FilterByShapes(trips, shapes) {
		if hasAnyPrefix(trip.ServiceID, options.ReferencePrefixes(trip.ShortCode)) {
			candidates = append(candidates, trip)
		}
	}

	slices.SortStableFunc(candidates, compareCandidates)

	matched := []MatchedTrip{}
	index := map[string]int{}

	for _, trip := range candidates {
		position, exists := index[trip.ShortCode]
		if !exists {
			position = len(matched)
			index[trip.ShortCode] = position
			matched = append(matched, MatchedTrip{ShortCode: trip.ShortCode})
		}

		current := &matched[position]
		switch trip.Direction {
		case 0:
			if current.OutboundTripID == "" {
				current.OutboundTripID = trip.TripID
			}
		case 1:
			if current.ReturnTripID == "" {
				current.ReturnTripID = trip.TripID
			}
		}
	}

	log.Debug().Int("candidates", len(candidates)).Int("lines", len(matched)).Msg("Matched reference trips")

	return matched
}

func compareCandidates(a, b feed.FeedTrip) int {
	if c := cmp.Compare(a.ShortCode, b.ShortCode); c != 0 {
		return c
	}
	if c := cmp.Compare(b.ServiceID, a.ServiceID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ShapeID, b.ShapeID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Direction, b.Direction); c != 0 {
		return c
	}

	return cmp.Compare(a.TripID, b.TripID)
}

func hasAnyPrefix(value string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}

	return false
}

// TripID returns the reference trip of a GTFS direction, empty when there is none
func (m MatchedTrip) TripID(directionID int) string {
	if directionID == 1 {
		return m.ReturnTripID
	}

	return m.OutboundTripID
}

// Lookup returns the matched trip for a short code
func Lookup(matched []MatchedTrip, shortCode string) (MatchedTrip, bool) {
	for _, trip := range matched {
		if trip.ShortCode == shortCode {
			return trip, true
		}
	}

	return MatchedTrip{ShortCode: shortCode}, false
}
