package feed

import (
	"archive/zip"
	"bytes"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/util"
)

// PatchFeedInfo repackages the archive with feed_start_date and feed_end_date
// in feed_info.txt overwritten by the given dates. Every other entry is copied unchanged.
func PatchFeedInfo(archive []byte, start time.Time, end time.Time) ([]byte, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, &MalformedTableError{File: "archive", Err: err}
	}

	patched := false
	output := new(bytes.Buffer)
	zipWriter := zip.NewWriter(output)

	for _, zipFile := range zipReader.File {
		if zipFile.FileInfo().IsDir() {
			continue
		}

		body, err := readEntry(zipFile)
		if err != nil {
			return nil, &MalformedTableError{File: zipFile.Name, Err: err}
		}

		if zipFile.Name == FileFeedInfo {
			body, err = rewriteFeedDates(body, util.FormatGTFSDate(start), util.FormatGTFSDate(end))
			if err != nil {
				return nil, &MalformedTableError{File: zipFile.Name, Err: err}
			}
			patched = true
		}

		writer, err := zipWriter.CreateHeader(&zip.FileHeader{
			Name:     zipFile.Name,
			Method:   zip.Deflate,
			Modified: zipFile.Modified,
		})
		if err != nil {
			return nil, err
		}
		if _, err := writer.Write(body); err != nil {
			return nil, err
		}
	}

	if !patched {
		return nil, &MissingEntryError{File: FileFeedInfo}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, err
	}

	log.Info().
		Str("start", util.FormatGTFSDate(start)).
		Str("end", util.FormatGTFSDate(end)).
		Msg("Patched feed validity dates")

	return output.Bytes(), nil
}

func readEntry(zipFile *zip.File) ([]byte, error) {
	fileReader, err := zipFile.Open()
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	return io.ReadAll(fileReader)
}

func rewriteFeedDates(body []byte, startDate string, endDate string) ([]byte, error) {
	records, err := newCSVReader(body).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, gocsv.ErrEmptyCSVFile
	}

	header := records[0]
	startColumn := columnIndex(&header, "feed_start_date")
	endColumn := columnIndex(&header, "feed_end_date")
	records[0] = header

	for i := 1; i < len(records); i++ {
		for len(records[i]) < len(header) {
			records[i] = append(records[i], "")
		}

		records[i][startColumn] = startDate
		records[i][endColumn] = endDate
	}

	output := new(bytes.Buffer)
	csvWriter := gocsv.DefaultCSVWriter(output)
	for _, record := range records {
		if err := csvWriter.Write(record); err != nil {
			return nil, err
		}
	}
	csvWriter.Flush()

	return output.Bytes(), csvWriter.Error()
}

// columnIndex finds a column by name, appending it to the header when absent
func columnIndex(header *[]string, name string) int {
	for i, column := range *header {
		if column == name {
			return i
		}
	}

	*header = append(*header, name)
	return len(*header) - 1
}
