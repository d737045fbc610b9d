package validator

import (
	"errors"
	"fmt"
	"time"

	"github.com/travigo/gtfs-validator/pkg/feed"
	"github.com/travigo/gtfs-validator/pkg/serviceorder"
)

// DateRangeError is returned when the confirmed end date is before the start date
type DateRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("end date %s is before start date %s", e.End.Format(time.DateOnly), e.Start.Format(time.DateOnly))
}

// ErrorType names the fatal error behind a failed run, or "" for any other error
func ErrorType(err error) string {
	var (
		parseError     *serviceorder.ParseError
		schemaError    *serviceorder.SchemaError
		missingEntry   *feed.MissingEntryError
		malformedTable *feed.MalformedTableError
		dateRange      *DateRangeError
	)

	switch {
	case errors.As(err, &parseError):
		return "ParseError"
	case errors.As(err, &schemaError):
		return "SchemaError"
	case errors.As(err, &missingEntry):
		return "MissingEntryError"
	case errors.As(err, &malformedTable):
		return "MalformedTableError"
	case errors.As(err, &dateRange):
		return "DateRangeError"
	}

	return ""
}
