package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/gtfs-validator/pkg/feed/feedtest"
)

func TestReadAllRequiredFiles(t *testing.T) {
	files := feedtest.Minimal()
	feedtest.Rows(files, "routes.txt", "R1,SMTR,5,Line Five,3")
	feedtest.Rows(files, "trips.txt",
		"R1,U_REG,T1,Centro,005,0,SH1",
		"R1,U_REG,T2,Bairro,005,1,SH2",
	)
	feedtest.Rows(files, "calendar.txt", "U_REG,1,1,1,1,1,0,0,20240101,20240131")
	feedtest.Rows(files, "calendar_dates.txt", "U_REG,20240108,2")
	feedtest.Rows(files, "shapes.txt", "SH1,-22.9,-43.2,1", "SH1,-22.8,-43.1,2")

	gtfs, err := Read(feedtest.Archive(files))
	require.NoError(t, err)

	assert.Len(t, gtfs.Routes, 1)
	assert.Len(t, gtfs.Trips, 2)
	assert.Equal(t, 1, gtfs.Trips[1].DirectionID)
	assert.Equal(t, ExceptionTypeRemoved, gtfs.CalendarDates[0].ExceptionType)
	assert.Equal(t, 2, gtfs.Shapes[1].PointSequence)

	start, end, ok := gtfs.ValidityWindow()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestReadStripsByteOrderMark(t *testing.T) {
	files := feedtest.Minimal()
	files["routes.txt"] = "\xEF\xBB\xBFroute_id,agency_id,route_short_name,route_long_name,route_type\nR1,SMTR,5,Line,3\n"

	gtfs, err := Read(feedtest.Archive(files), FileRoutes)
	require.NoError(t, err)

	require.Len(t, gtfs.Routes, 1)
	assert.Equal(t, "R1", gtfs.Routes[0].ID)
}

func TestReadMissingEntry(t *testing.T) {
	files := feedtest.Minimal()
	delete(files, "shapes.txt")

	gtfs, err := Read(feedtest.Archive(files))
	assert.Nil(t, gtfs)

	var missing *MissingEntryError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, FileShapes, missing.File)
}

func TestReadMalformedTable(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"bad quoting", "route_id,agency_id\n\"R1,SMTR\n\"broken\"x,\n"},
		{"non numeric direction", ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			files := feedtest.Minimal()
			if testCase.name == "non numeric direction" {
				feedtest.Rows(files, "trips.txt", "R1,U_REG,T1,Centro,005,outbound,SH1")
			} else {
				files["routes.txt"] = testCase.content
			}

			gtfs, err := Read(feedtest.Archive(files))
			assert.Nil(t, gtfs)

			var malformed *MalformedTableError
			require.True(t, errors.As(err, &malformed))
		})
	}
}

func TestReadNotAnArchive(t *testing.T) {
	_, err := Read([]byte("definitely not a zip"))

	var malformed *MalformedTableError
	assert.True(t, errors.As(err, &malformed))
}

func TestFeedTripsJoin(t *testing.T) {
	gtfs := &Feed{
		Agencies: []Agency{{ID: "SMTR"}},
		Routes: []Route{
			{ID: "R1", AgencyID: "OTHER", ShortName: "5"},
			{ID: "R2", ShortName: "SP485"},
		},
		Trips: []Trip{
			{ID: "T1", RouteID: "R1", ServiceID: "U_REG", Name: "005", DirectionID: 1, ShapeID: "SH1"},
			{ID: "T2", RouteID: "R2", ServiceID: "S_REG"},
			{ID: "T3", RouteID: "MISSING", Name: "100"},
		},
	}

	trips := gtfs.FeedTrips()
	require.Len(t, trips, 3)

	assert.Equal(t, FeedTrip{
		TripID: "T1", RouteID: "R1", ServiceID: "U_REG", Direction: 1, ShapeID: "SH1", ShortCode: "005", AgencyID: "OTHER",
	}, trips[0])
	assert.Equal(t, "SP485", trips[1].ShortCode)
	assert.Equal(t, "SMTR", trips[1].AgencyID)
	assert.Equal(t, "100", trips[2].ShortCode)
}
