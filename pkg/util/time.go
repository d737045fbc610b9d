package util

import (
	"strings"
	"time"
)

const GTFSDateLayout = "20060102"

// ParseGTFSDate parses a YYYYMMDD date as midnight UTC
func ParseGTFSDate(value string) (time.Time, error) {
	return time.Parse(GTFSDateLayout, strings.TrimSpace(value))
}

func FormatGTFSDate(date time.Time) string {
	return date.Format(GTFSDateLayout)
}

// TruncateToDate drops the time of day, keeping the calendar date in UTC
func TruncateToDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}
