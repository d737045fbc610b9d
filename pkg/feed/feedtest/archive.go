// Package feedtest builds in-memory GTFS archives for tests
package feedtest

import (
	"archive/zip"
	"bytes"
	"strings"
)

// Minimal returns the seven required tables with a header and no rows
func Minimal() map[string]string {
	return map[string]string{
		"agency.txt":         "agency_id,agency_name,agency_url,agency_timezone\nSMTR,Secretaria,https://example.org,America/Sao_Paulo\n",
		"routes.txt":         "route_id,agency_id,route_short_name,route_long_name,route_type\n",
		"trips.txt":          "route_id,service_id,trip_id,trip_headsign,trip_short_name,direction_id,shape_id\n",
		"shapes.txt":         "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence\n",
		"calendar.txt":       "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n",
		"calendar_dates.txt": "service_id,date,exception_type\n",
		"feed_info.txt":      "feed_publisher_name,feed_publisher_url,feed_lang,feed_start_date,feed_end_date,feed_version\nSMTR,https://example.org,pt,20240101,20240131,1\n",
	}
}

// Archive zips the given file name to content map
func Archive(files map[string]string) []byte {
	buffer := new(bytes.Buffer)
	writer := zip.NewWriter(buffer)

	for name, content := range files {
		entry, err := writer.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			panic(err)
		}
	}

	if err := writer.Close(); err != nil {
		panic(err)
	}

	return buffer.Bytes()
}

// Rows appends CSV rows to the header already present for a file
func Rows(files map[string]string, name string, rows ...string) {
	files[name] = files[name] + strings.Join(rows, "\n") + "\n"
}
