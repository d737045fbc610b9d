package feed

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/util"
)

const (
	FileAgency        = "agency.txt"
	FileRoutes        = "routes.txt"
	FileTrips         = "trips.txt"
	FileShapes        = "shapes.txt"
	FileCalendar      = "calendar.txt"
	FileCalendarDates = "calendar_dates.txt"
	FileFeedInfo      = "feed_info.txt"
)

// RequiredFiles are the tables every validation run reads from the archive
var RequiredFiles = []string{
	FileTrips,
	FileRoutes,
	FileAgency,
	FileShapes,
	FileCalendar,
	FileCalendarDates,
	FileFeedInfo,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Feed struct {
	Agencies      []Agency
	Routes        []Route
	Trips         []Trip
	Calendars     []Calendar
	CalendarDates []CalendarDate
	Shapes        []Shape
	FeedInfo      []FeedInfo
}

func (f *Feed) destinations() map[string]interface{} {
	return map[string]interface{}{
		FileAgency:        &f.Agencies,
		FileRoutes:        &f.Routes,
		FileTrips:         &f.Trips,
		FileCalendar:      &f.Calendars,
		FileCalendarDates: &f.CalendarDates,
		FileShapes:        &f.Shapes,
		FileFeedInfo:      &f.FeedInfo,
	}
}

// Read decodes the requested tables out of a GTFS zip archive.
// When no files are given the RequiredFiles set is read.
// Nothing is returned unless every requested table decoded.
func Read(archive []byte, files ...string) (*Feed, error) {
	if len(files) == 0 {
		files = RequiredFiles
	}

	zipReader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, &MalformedTableError{File: "archive", Err: err}
	}

	entries := map[string]*zip.File{}
	for _, zipFile := range zipReader.File {
		entries[zipFile.Name] = zipFile
	}

	gtfs := &Feed{}
	fileMap := gtfs.destinations()

	for _, fileName := range files {
		destination, known := fileMap[fileName]
		if !known {
			return nil, fmt.Errorf("unsupported gtfs file %s", fileName)
		}

		zipFile, exists := entries[fileName]
		if !exists {
			return nil, &MissingEntryError{File: fileName}
		}

		log.Debug().Str("file", fileName).Msg("Loading file")

		if err := decodeEntry(zipFile, destination); err != nil {
			log.Error().Str("file", fileName).Err(err).Msg("Failed to parse csv file")
			return nil, &MalformedTableError{File: fileName, Err: err}
		}
	}

	return gtfs, nil
}

func decodeEntry(zipFile *zip.File, destination interface{}) error {
	fileReader, err := zipFile.Open()
	if err != nil {
		return err
	}
	defer fileReader.Close()

	body, err := io.ReadAll(fileReader)
	if err != nil {
		return err
	}

	return gocsv.UnmarshalCSV(newCSVReader(body), destination)
}

// Allow us to ignore those naughty records that have missing columns
func newCSVReader(body []byte) gocsv.CSVReader {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, utf8BOM)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	return r
}

// FeedTrips joins trips with their route and agency. The short code is the
// trip_short_name, falling back to the route_short_name when the trip has none.
func (f *Feed) FeedTrips() []FeedTrip {
	routes := map[string]*Route{}
	for i := range f.Routes {
		routes[f.Routes[i].ID] = &f.Routes[i]
	}

	agencyID := ""
	if len(f.Agencies) == 1 {
		agencyID = f.Agencies[0].ID
	}

	feedTrips := make([]FeedTrip, 0, len(f.Trips))
	for _, trip := range f.Trips {
		feedTrip := FeedTrip{
			TripID:    trip.ID,
			RouteID:   trip.RouteID,
			ServiceID: trip.ServiceID,
			Direction: trip.DirectionID,
			ShapeID:   trip.ShapeID,
			ShortCode: trip.Name,
			AgencyID:  agencyID,
		}

		if route, exists := routes[trip.RouteID]; exists {
			if feedTrip.ShortCode == "" {
				feedTrip.ShortCode = route.ShortName
			}
			if route.AgencyID != "" {
				feedTrip.AgencyID = route.AgencyID
			}
		}

		feedTrips = append(feedTrips, feedTrip)
	}

	return feedTrips
}

// ValidityWindow returns the feed_start_date and feed_end_date of the first feed_info row
func (f *Feed) ValidityWindow() (time.Time, time.Time, bool) {
	if len(f.FeedInfo) == 0 {
		return time.Time{}, time.Time{}, false
	}

	start, startErr := util.ParseGTFSDate(f.FeedInfo[0].StartDate)
	end, endErr := util.ParseGTFSDate(f.FeedInfo[0].EndDate)
	if startErr != nil || endErr != nil {
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}
