package validation

import (
	"cmp"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/gtfs-validator/pkg/calendar"
	"github.com/travigo/gtfs-validator/pkg/feed"
	"github.com/travigo/gtfs-validator/pkg/matcher"
	"github.com/travigo/gtfs-validator/pkg/serviceorder"
	"golang.org/x/exp/slices"
)

// Input is everything the checks read. None of it is modified.
type Input struct {
	Schedule  *serviceorder.Table
	Trips     []feed.FeedTrip
	Matched   []matcher.MatchedTrip
	Conflicts []calendar.Conflict
	Rules     []CustomRule

	DistanceTolerance float64
}

type Check struct {
	Name string
	Run  func(input *Input) []Finding
}

// DefaultChecks are the checks run against every service order and feed pair
var DefaultChecks = []Check{
	{Name: "clock-order", Run: CheckClockOrder},
	{Name: "null-distance", Run: CheckNullDistance},
	{Name: "distance-mismatch", Run: CheckDistanceMismatch},
	{Name: "duplicate-service", Run: CheckDuplicateService},
	{Name: "trip-absence", Run: CheckTripAbsence},
	{Name: "reference-trips", Run: CheckReferenceTrips},
	{Name: "service-conflict", Run: CheckServiceConflict},
	{Name: "custom-rules", Run: CheckCustomRules},
}

type checkResult struct {
	index    int
	findings []Finding
}

// Run executes the checks concurrently and returns every finding, ordered by
// check then by the order each check produced them
func Run(input *Input, checks []Check, maxGoroutines int) []Finding {
	if maxGoroutines <= 0 {
		maxGoroutines = len(checks)
	}

	p := pool.NewWithResults[checkResult]()
	p.WithMaxGoroutines(max(maxGoroutines, 1))

	for i, check := range checks {
		p.Go(func() checkResult {
			findings := check.Run(input)

			log.Debug().Str("check", check.Name).Int("findings", len(findings)).Msg("Check complete")

			return checkResult{index: i, findings: findings}
		})
	}

	results := p.Wait()
	slices.SortFunc(results, func(a, b checkResult) int {
		return cmp.Compare(a.index, b.index)
	})

	findings := []Finding{}
	for _, result := range results {
		findings = append(findings, result.findings...)
	}

	return findings
}
