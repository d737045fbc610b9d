package feed

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/gtfs-validator/pkg/feed/feedtest"
)

func readArchive(t *testing.T, archive []byte) map[string]string {
	zipReader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)

	contents := map[string]string{}
	for _, zipFile := range zipReader.File {
		assert.Equal(t, zip.Deflate, zipFile.Method, zipFile.Name)

		reader, err := zipFile.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(reader)
		require.NoError(t, err)
		reader.Close()

		contents[zipFile.Name] = string(body)
	}

	return contents
}

func TestPatchFeedInfo(t *testing.T) {
	files := feedtest.Minimal()
	feedtest.Rows(files, "trips.txt", "R1,U_REG,T1,Centro,005,0,SH1")

	start := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)

	patched, err := PatchFeedInfo(feedtest.Archive(files), start, end)
	require.NoError(t, err)

	contents := readArchive(t, patched)
	require.Len(t, contents, len(files))

	for name, original := range files {
		if name == FileFeedInfo {
			continue
		}
		assert.Equal(t, original, contents[name], name)
	}

	gtfs, err := Read(patched, FileFeedInfo)
	require.NoError(t, err)
	require.Len(t, gtfs.FeedInfo, 1)
	assert.Equal(t, "20240201", gtfs.FeedInfo[0].StartDate)
	assert.Equal(t, "20240215", gtfs.FeedInfo[0].EndDate)
	assert.Equal(t, "SMTR", gtfs.FeedInfo[0].PublisherName)
	assert.Equal(t, "1", gtfs.FeedInfo[0].Version)
}

func TestPatchFeedInfoAddsMissingColumns(t *testing.T) {
	files := feedtest.Minimal()
	files["feed_info.txt"] = "feed_publisher_name,feed_publisher_url,feed_lang\nSMTR,https://example.org,pt\n"

	date := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	patched, err := PatchFeedInfo(feedtest.Archive(files), date, date.AddDate(0, 0, 15))
	require.NoError(t, err)

	contents := readArchive(t, patched)
	assert.Equal(t,
		"feed_publisher_name,feed_publisher_url,feed_lang,feed_start_date,feed_end_date\nSMTR,https://example.org,pt,20240301,20240316\n",
		contents[FileFeedInfo],
	)
}

func TestPatchFeedInfoMissingFeedInfo(t *testing.T) {
	files := feedtest.Minimal()
	delete(files, "feed_info.txt")

	_, err := PatchFeedInfo(feedtest.Archive(files), time.Now(), time.Now())

	var missing *MissingEntryError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, FileFeedInfo, missing.File)
}
