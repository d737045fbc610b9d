package validator

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/calendar"
	"github.com/travigo/gtfs-validator/pkg/feed"
	"github.com/travigo/gtfs-validator/pkg/matcher"
	"github.com/travigo/gtfs-validator/pkg/metrics"
	"github.com/travigo/gtfs-validator/pkg/serviceorder"
	"github.com/travigo/gtfs-validator/pkg/util"
	"github.com/travigo/gtfs-validator/pkg/validation"
)

const DefaultValidityDays = 15

// Input is one service order and feed pair plus the dates the user confirmed
type Input struct {
	ServiceOrder     []byte
	ServiceOrderName string
	Feed             []byte
	FeedName         string

	// StartDate falls back to the date in ServiceOrderName when unset
	StartDate time.Time
	// EndDate falls back to StartDate plus the default validity days when unset
	EndDate time.Time

	// Patch requests a copy of the feed carrying the confirmed dates
	Patch bool
}

type Options struct {
	DefaultValidityDays    int
	DistanceTolerance      float64
	SaturdayReferenceLines []string
	LegacyReturnDirection  bool
	Rules                  []validation.CustomRule
	MaxGoroutines          int

	Metrics *metrics.Collector
	Now     func() time.Time
}

// Report is the self contained result of a validation run
type Report struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	FeedStartDate time.Time `json:"feed_start_date"`
	FeedEndDate   time.Time `json:"feed_end_date"`

	Schedule     *serviceorder.Table              `json:"-"`
	Summary      []serviceorder.ConsortiumSummary `json:"summary"`
	MatchedTrips []matcher.MatchedTrip            `json:"matched_trips"`
	SplitShapes  map[string][2]string             `json:"split_shapes"`
	Conflicts    []calendar.Conflict              `json:"conflicts"`
	Findings     []validation.Finding             `json:"findings"`
	FindingCount map[validation.Kind]int          `json:"finding_count"`

	PatchedFeed []byte `json:"-"`
}

// Valid reports whether the run produced no findings beyond advisories
func (r *Report) Valid() bool {
	for _, finding := range r.Findings {
		if !finding.Advisory() {
			return false
		}
	}

	return true
}

// Run validates a service order against a feed. Fatal errors abort before any
// finding is computed. The patched feed is only produced when dates are known.
func Run(input Input, options Options) (*Report, error) {
	start := time.Now()

	report, err := run(input, options)
	observe(options.Metrics, start, len(input.Feed), report, err)

	return report, err
}

func run(input Input, options Options) (*Report, error) {
	now := time.Now
	if options.Now != nil {
		now = options.Now
	}

	schedule, err := serviceorder.ParseServiceOrder(input.ServiceOrder)
	if err != nil {
		return nil, fmt.Errorf("reading service order: %w", err)
	}

	gtfs, err := feed.Read(input.Feed)
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}

	startDate, endDate, err := ResolveDates(input, options.DefaultValidityDays)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("services", len(schedule.Rows)).
		Int("trips", len(gtfs.Trips)).
		Int("shapes", len(gtfs.Shapes)).
		Msg("Loaded service order and feed")

	segmented := feed.SegmentShapes(gtfs.Shapes)
	feedTrips := gtfs.FeedTrips()

	matched := matcher.Match(feedTrips, segmented, matcher.Options{
		SaturdayReferenceLines: options.SaturdayReferenceLines,
	})

	timeline := calendar.Expand(gtfs.Calendars, gtfs.CalendarDates)
	conflicts := calendar.DetectConflicts(
		timeline,
		gtfs.Calendars,
		matcher.FilterByShapes(feedTrips, segmented),
		calendar.Options{LegacyReturnDirection: options.LegacyReturnDirection},
	)

	findings := validation.Run(&validation.Input{
		Schedule:          schedule,
		Trips:             feedTrips,
		Matched:           matched,
		Conflicts:         conflicts,
		Rules:             options.Rules,
		DistanceTolerance: options.DistanceTolerance,
	}, validation.DefaultChecks, options.MaxGoroutines)

	findings = append(findings, advisories(input, schedule, startDate, now())...)

	report := &Report{
		StartDate:    startDate,
		EndDate:      endDate,
		Schedule:     schedule,
		Summary:      schedule.Summarise(),
		MatchedTrips: matched,
		SplitShapes:  segmented.Split,
		Conflicts:    conflicts,
		Findings:     findings,
		FindingCount: map[validation.Kind]int{},
	}

	for _, finding := range findings {
		report.FindingCount[finding.Kind]++
	}

	if feedStart, feedEnd, ok := gtfs.ValidityWindow(); ok {
		report.FeedStartDate = feedStart
		report.FeedEndDate = feedEnd
	}

	if input.Patch && !startDate.IsZero() {
		report.PatchedFeed, err = feed.PatchFeedInfo(input.Feed, startDate, endDate)
		if err != nil {
			return nil, fmt.Errorf("patching feed: %w", err)
		}
	}

	log.Info().
		Int("findings", len(findings)).
		Int("conflicts", len(conflicts)).
		Bool("valid", report.Valid()).
		Msg("Validation complete")

	return report, nil
}

// ResolveDates returns the validity window of the service order. The start
// date comes from the input or the service order file name, the end date
// defaults to the start date plus the default validity days.
// Both are zero when no start date is known.
func ResolveDates(input Input, defaultValidityDays int) (time.Time, time.Time, error) {
	if defaultValidityDays <= 0 {
		defaultValidityDays = DefaultValidityDays
	}

	startDate := input.StartDate
	if startDate.IsZero() {
		if inferred, ok := serviceorder.StartDateFromFileName(input.ServiceOrderName); ok {
			startDate = inferred
		}
	}
	if startDate.IsZero() {
		if !input.EndDate.IsZero() {
			log.Warn().Msg("End date ignored without a start date")
		}
		return time.Time{}, time.Time{}, nil
	}

	startDate = util.TruncateToDate(startDate)

	endDate := input.EndDate
	if endDate.IsZero() {
		endDate = startDate.AddDate(0, 0, defaultValidityDays)
	}
	endDate = util.TruncateToDate(endDate)

	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, &DateRangeError{Start: startDate, End: endDate}
	}

	return startDate, endDate, nil
}

func advisories(input Input, schedule *serviceorder.Table, startDate time.Time, now time.Time) []validation.Finding {
	findings := []validation.Finding{}

	if !schedule.ColumnOrderMatches {
		findings = append(findings, validation.Finding{
			Kind:    validation.KindColumnOrder,
			Message: "service order columns are present but not in the expected order",
		})
	}

	if input.ServiceOrderName != "" && !serviceorder.ValidServiceOrderFileName(input.ServiceOrderName) {
		findings = append(findings, validation.Finding{
			Kind:    validation.KindFileName,
			Message: fmt.Sprintf("service order file %s does not follow os_YYYY-MM-DD.csv", input.ServiceOrderName),
		})
	}

	if input.FeedName != "" && !serviceorder.ValidFeedFileName(input.FeedName) {
		findings = append(findings, validation.Finding{
			Kind:    validation.KindFileName,
			Message: fmt.Sprintf("feed file %s does not follow gtfs_YYYY-MM-DD.zip", input.FeedName),
		})
	}

	if !startDate.IsZero() && startDate.Before(util.TruncateToDate(now)) {
		findings = append(findings, validation.Finding{
			Kind:    validation.KindLateStart,
			Message: fmt.Sprintf("operation already started on %s", startDate.Format(time.DateOnly)),
		})
	}

	return findings
}

func observe(collector *metrics.Collector, start time.Time, feedSize int, report *Report, err error) {
	if collector == nil {
		return
	}

	collector.ObserveDuration(start)
	collector.ArchiveBytes.Observe(float64(feedSize))

	if err != nil {
		errorType := ErrorType(err)
		if errorType == "" {
			errorType = "other"
		}

		collector.Runs.WithLabelValues(metrics.OutcomeFailed).Inc()
		collector.FatalErrors.WithLabelValues(errorType).Inc()
		return
	}

	if report.Valid() {
		collector.Runs.WithLabelValues(metrics.OutcomeValid).Inc()
	} else {
		collector.Runs.WithLabelValues(metrics.OutcomeInvalid).Inc()
	}

	for kind, count := range report.FindingCount {
		collector.Findings.WithLabelValues(string(kind)).Add(float64(count))
	}

	collector.ScheduleRows.Observe(float64(len(report.Schedule.Rows)))
	collector.SplitShapes.Add(float64(len(report.SplitShapes)))
	collector.ConflictPairs.Add(float64(len(report.Conflicts)))

	if report.PatchedFeed != nil {
		collector.PatchedFeeds.Inc()
	}
}
