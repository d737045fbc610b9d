package serviceorder

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	serviceOrderFileName = regexp.MustCompile(`^os_\d{4}-\d{2}-\d{2}\.csv$`)
	feedFileName         = regexp.MustCompile(`^gtfs_\d{4}-\d{2}-\d{2}\.zip$`)
)

// ValidServiceOrderFileName reports whether the name follows os_YYYY-MM-DD.csv
func ValidServiceOrderFileName(name string) bool {
	return serviceOrderFileName.MatchString(filepath.Base(name))
}

// ValidFeedFileName reports whether the name follows gtfs_YYYY-MM-DD.zip
func ValidFeedFileName(name string) bool {
	return feedFileName.MatchString(filepath.Base(name))
}

// StartDateFromFileName reads the validity start date embedded in an os_YYYY-MM-DD.csv name
func StartDateFromFileName(name string) (time.Time, bool) {
	name = filepath.Base(name)
	if !ValidServiceOrderFileName(name) {
		return time.Time{}, false
	}

	date := strings.TrimSuffix(strings.TrimPrefix(name, "os_"), ".csv")

	start, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, false
	}

	return start, true
}
