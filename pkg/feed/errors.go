package feed

import "fmt"

// MissingEntryError is returned when a required file is absent from the archive
type MissingEntryError struct {
	File string
}

func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("gtfs archive is missing %s", e.File)
}

// MalformedTableError is returned when an entry cannot be read as a header+row table
type MalformedTableError struct {
	File string
	Err  error
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("gtfs file %s is malformed: %s", e.File, e.Err)
}

func (e *MalformedTableError) Unwrap() error {
	return e.Err
}
