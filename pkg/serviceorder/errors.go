package serviceorder

import (
	"fmt"
	"strings"
)

// ParseError is returned when the service order bytes are not a readable delimited table
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("service order is not a readable table: %s", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError is returned when required columns are missing after header normalisation
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("service order is missing columns: %s", strings.Join(e.Missing, ", "))
}
