package validation

import (
	"fmt"

	"github.com/travigo/gtfs-validator/pkg/serviceorder"
)

type Kind string

const (
	KindClockOrder       Kind = "ClockOrder"
	KindNullDistance     Kind = "NullDistance"
	KindDistanceMismatch Kind = "DistanceMismatch"
	KindDuplicateService Kind = "DuplicateService"
	KindTripAbsence      Kind = "TripAbsence"
	KindMissingReference Kind = "MissingReference"
	KindServiceConflict  Kind = "ServiceConflict"
	KindCustomRule       Kind = "CustomRule"
	KindColumnOrder      Kind = "ColumnOrder"
	KindFileName         Kind = "FileName"
	KindLateStart        Kind = "LateStart"
)

// Kinds lists every finding kind in report order
var Kinds = []Kind{
	KindClockOrder,
	KindNullDistance,
	KindDistanceMismatch,
	KindDuplicateService,
	KindTripAbsence,
	KindMissingReference,
	KindServiceConflict,
	KindCustomRule,
	KindColumnOrder,
	KindFileName,
	KindLateStart,
}

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionReturn   Direction = "return"
)

// DirectionID is the GTFS direction_id of the direction
func (d Direction) DirectionID() int {
	if d == DirectionReturn {
		return 1
	}

	return 0
}

func DirectionFromID(directionID int) Direction {
	if directionID == 1 {
		return DirectionReturn
	}

	return DirectionOutbound
}

// Finding is one non fatal validation result
type Finding struct {
	Kind        Kind                 `json:"kind"`
	Row         int                  `json:"row,omitempty"`
	ServiceCode string               `json:"service_code,omitempty"`
	DayType     serviceorder.DayType `json:"day_type,omitempty"`
	Direction   Direction            `json:"direction,omitempty"`
	Rule        string               `json:"rule,omitempty"`
	Message     string               `json:"message"`

	// Expected and Actual carry the compared values of distance findings
	Expected float64 `json:"expected,omitempty"`
	Actual   float64 `json:"actual,omitempty"`
}

func (f Finding) String() string {
	location := ""
	if f.Row > 0 {
		location = fmt.Sprintf(" row %d", f.Row)
	}
	if f.ServiceCode != "" {
		location += fmt.Sprintf(" service %s", f.ServiceCode)
	}
	if f.DayType != "" {
		location += fmt.Sprintf(" %s", f.DayType)
	}
	if f.Direction != "" {
		location += fmt.Sprintf(" %s", f.Direction)
	}

	return fmt.Sprintf("[%s]%s: %s", f.Kind, location, f.Message)
}

// Advisory findings describe the inputs rather than the operating plan
func (f Finding) Advisory() bool {
	switch f.Kind {
	case KindColumnOrder, KindFileName, KindLateStart:
		return true
	}

	return false
}

// ByKind groups findings by kind
func ByKind(findings []Finding) map[Kind][]Finding {
	grouped := map[Kind][]Finding{}
	for _, finding := range findings {
		grouped[finding.Kind] = append(grouped[finding.Kind], finding)
	}

	return grouped
}
