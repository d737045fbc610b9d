package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/travigo/gtfs-validator/pkg/matcher"
	"github.com/travigo/gtfs-validator/pkg/serviceorder"
)

// DefaultDistanceTolerance is the largest accepted gap in km between declared and computed distance
const DefaultDistanceTolerance = 0.01

// Absorbs float noise when a gap equals the tolerance
const toleranceEpsilon = 1e-9

// Calendar service id prefixes of each day type
var dayTypePrefixes = map[serviceorder.DayType]string{
	serviceorder.DayTypeWeekday:  "U_",
	serviceorder.DayTypeSaturday: "S_",
	serviceorder.DayTypeSunday:   "D_",
}

type directionFields struct {
	direction  Direction
	extension  func(row *serviceorder.ScheduleRow) float64
	departures func(day *serviceorder.DaySchedule) float64
}

var directions = []directionFields{
	{
		direction:  DirectionOutbound,
		extension:  func(row *serviceorder.ScheduleRow) float64 { return row.ExtensionOutbound },
		departures: func(day *serviceorder.DaySchedule) float64 { return day.DeparturesOutbound },
	},
	{
		direction:  DirectionReturn,
		extension:  func(row *serviceorder.ScheduleRow) float64 { return row.ExtensionReturn },
		departures: func(day *serviceorder.DaySchedule) float64 { return day.DeparturesReturn },
	},
}

// CheckClockOrder flags day types whose start of service is after the end of service
func CheckClockOrder(input *Input) []Finding {
	findings := []Finding{}

	for i := range input.Schedule.Rows {
		row := &input.Schedule.Rows[i]

		for _, dayType := range serviceorder.ClockDayTypes {
			day := row.Day(dayType)
			if day.Start <= day.End {
				continue
			}

			findings = append(findings, Finding{
				Kind:        KindClockOrder,
				Row:         i + 1,
				ServiceCode: row.ServiceCode,
				DayType:     dayType,
				Message:     fmt.Sprintf("start %s is after end %s", day.Start, day.End),
			})
		}
	}

	return findings
}

// CheckNullDistance flags directions with departures but no extension or no distance
func CheckNullDistance(input *Input) []Finding {
	findings := []Finding{}

	for i := range input.Schedule.Rows {
		row := &input.Schedule.Rows[i]

		for _, dayType := range serviceorder.DayTypes {
			day := row.Day(dayType)

			for _, direction := range directions {
				departures := direction.departures(day)
				if departures <= 0 {
					continue
				}

				extension := direction.extension(row)
				if extension != 0 && day.DistanceKm != 0 {
					continue
				}

				findings = append(findings, Finding{
					Kind:        KindNullDistance,
					Row:         i + 1,
					ServiceCode: row.ServiceCode,
					DayType:     dayType,
					Direction:   direction.direction,
					Message: fmt.Sprintf(
						"%g departures with extension %g m and distance %g km",
						departures, extension, day.DistanceKm,
					),
				})
			}
		}
	}

	return findings
}

// ComputedDistance is the distance in km implied by the extensions and departures of a day
func ComputedDistance(row *serviceorder.ScheduleRow, day *serviceorder.DaySchedule) float64 {
	metres := row.ExtensionOutbound*day.DeparturesOutbound + row.ExtensionReturn*day.DeparturesReturn

	return math.Round(metres/1000*100) / 100
}

// CheckDistanceMismatch flags day types whose declared distance differs from the computed one
func CheckDistanceMismatch(input *Input) []Finding {
	findings := []Finding{}

	tolerance := input.DistanceTolerance
	if tolerance <= 0 {
		tolerance = DefaultDistanceTolerance
	}

	for i := range input.Schedule.Rows {
		row := &input.Schedule.Rows[i]

		for _, dayType := range serviceorder.DayTypes {
			day := row.Day(dayType)
			computed := ComputedDistance(row, day)

			if math.Abs(day.DistanceKm-computed) <= tolerance+toleranceEpsilon {
				continue
			}

			findings = append(findings, Finding{
				Kind:        KindDistanceMismatch,
				Row:         i + 1,
				ServiceCode: row.ServiceCode,
				DayType:     dayType,
				Expected:    computed,
				Actual:      day.DistanceKm,
				Message:     fmt.Sprintf("declared %g km but extensions give %g km", day.DistanceKm, computed),
			})
		}
	}

	return findings
}

// CheckDuplicateService flags every row whose service code appears more than once
func CheckDuplicateService(input *Input) []Finding {
	counts := map[string]int{}
	for _, row := range input.Schedule.Rows {
		counts[row.ServiceCode]++
	}

	findings := []Finding{}
	for i, row := range input.Schedule.Rows {
		if counts[row.ServiceCode] < 2 {
			continue
		}

		findings = append(findings, Finding{
			Kind:        KindDuplicateService,
			Row:         i + 1,
			ServiceCode: row.ServiceCode,
			Message:     fmt.Sprintf("service code appears %d times", counts[row.ServiceCode]),
		})
	}

	return findings
}

// CheckTripAbsence flags directions with departures that have no trip in the feed
// for the day type's service prefix
func CheckTripAbsence(input *Input) []Finding {
	type tripKey struct {
		shortCode string
		prefix    string
		direction int
	}

	available := map[tripKey]bool{}
	for _, trip := range input.Trips {
		for _, prefix := range dayTypePrefixes {
			if strings.HasPrefix(trip.ServiceID, prefix) {
				available[tripKey{trip.ShortCode, prefix, trip.Direction}] = true
			}
		}
	}

	findings := []Finding{}

	for i := range input.Schedule.Rows {
		row := &input.Schedule.Rows[i]
		shortCode := serviceorder.PadServiceCode(row.ServiceCode)

		for _, dayType := range serviceorder.ClockDayTypes {
			prefix := dayTypePrefixes[dayType]
			day := row.Day(dayType)

			for _, direction := range directions {
				if direction.departures(day) <= 0 {
					continue
				}
				if available[tripKey{shortCode, prefix, direction.direction.DirectionID()}] {
					continue
				}

				findings = append(findings, Finding{
					Kind:        KindTripAbsence,
					Row:         i + 1,
					ServiceCode: row.ServiceCode,
					DayType:     dayType,
					Direction:   direction.direction,
					Message: fmt.Sprintf(
						"no trip with short code %s, service %s* and direction %d",
						shortCode, prefix, direction.direction.DirectionID(),
					),
				})
			}
		}
	}

	return findings
}

// CheckReferenceTrips flags lines that declare departures in a direction but
// have no reference trip for it, reported once per service code at its first row
func CheckReferenceTrips(input *Input) []Finding {
	firstRow := map[string]int{}
	declared := map[string]map[Direction]float64{}

	for i := range input.Schedule.Rows {
		row := &input.Schedule.Rows[i]
		if _, exists := firstRow[row.ServiceCode]; !exists {
			firstRow[row.ServiceCode] = i + 1
			declared[row.ServiceCode] = map[Direction]float64{}
		}

		for _, dayType := range serviceorder.DayTypes {
			for _, direction := range directions {
				declared[row.ServiceCode][direction.direction] += direction.departures(row.Day(dayType))
			}
		}
	}

	findings := []Finding{}

	for _, serviceCode := range input.Schedule.ServiceCodes() {
		shortCode := serviceorder.PadServiceCode(serviceCode)
		reference, _ := matcher.Lookup(input.Matched, shortCode)

		for _, direction := range directions {
			if declared[serviceCode][direction.direction] <= 0 || reference.TripID(direction.direction.DirectionID()) != "" {
				continue
			}

			findings = append(findings, Finding{
				Kind:        KindMissingReference,
				Row:         firstRow[serviceCode],
				ServiceCode: serviceCode,
				Direction:   direction.direction,
				Message:     fmt.Sprintf("no %s reference trip for short code %s", direction.direction, shortCode),
			})
		}
	}

	return findings
}

// CheckServiceConflict reports every calendar conflict found in the feed
func CheckServiceConflict(input *Input) []Finding {
	findings := []Finding{}

	for _, conflict := range input.Conflicts {
		findings = append(findings, Finding{
			Kind:        KindServiceConflict,
			ServiceCode: conflict.ShortCode,
			Direction:   DirectionFromID(conflict.Direction),
			Message: fmt.Sprintf(
				"services %s and %s are both active on %d dates from %s",
				conflict.ServiceA, conflict.ServiceB, conflict.Dates, conflict.FirstDate.Format("2006-01-02"),
			),
		})
	}

	return findings
}
