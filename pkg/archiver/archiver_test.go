package archiver

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/gtfs-validator/pkg/validator"
	"github.com/ulikunitz/xz"
)

func fixedNow() time.Time {
	return time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
}

func readBundle(t *testing.T, bundle []byte) map[string][]byte {
	xzReader, err := xz.NewReader(bytes.NewReader(bundle))
	require.NoError(t, err)

	entries := map[string][]byte{}
	tarReader := tar.NewReader(xzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(tarReader)
		require.NoError(t, err)
		entries[header.Name] = data
	}

	return entries
}

func TestBundleName(t *testing.T) {
	archiver := &Archiver{Now: fixedNow}

	assert.Equal(t, "2024-02-01_20240115T103000Z.tar.xz", archiver.BundleName(&validator.Report{
		StartDate: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
	}))
	assert.Equal(t, "undated_20240115T103000Z.tar.xz", archiver.BundleName(&validator.Report{}))
}

func TestWrite(t *testing.T) {
	archiver := &Archiver{Now: fixedNow}

	input := validator.Input{
		ServiceOrder:     []byte("service order"),
		ServiceOrderName: "/uploads/os_2024-02-01.csv",
		Feed:             []byte("feed"),
		FeedName:         "gtfs_2024-02-01.zip",
	}
	report := &validator.Report{
		StartDate:   time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		PatchedFeed: []byte("patched"),
	}

	output := new(bytes.Buffer)
	require.NoError(t, archiver.Write(output, input, report))

	entries := readBundle(t, output.Bytes())
	assert.Len(t, entries, 4)
	assert.Equal(t, []byte("service order"), entries["os_2024-02-01.csv"])
	assert.Equal(t, []byte("feed"), entries["gtfs_2024-02-01.zip"])
	assert.Equal(t, []byte("patched"), entries["patched_gtfs_2024-02-01.zip"])

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(entries[FileReport], &decoded))
	assert.Equal(t, "2024-02-01T00:00:00Z", decoded["start_date"])
}

func TestWriteWithoutNames(t *testing.T) {
	archiver := &Archiver{Now: fixedNow}

	output := new(bytes.Buffer)
	require.NoError(t, archiver.Write(output, validator.Input{ServiceOrder: []byte("a"), Feed: []byte("b")}, &validator.Report{}))

	entries := readBundle(t, output.Bytes())
	assert.Len(t, entries, 3)
	assert.Contains(t, entries, "service_order.csv")
	assert.Contains(t, entries, "feed.zip")
}

func TestPerform(t *testing.T) {
	directory := t.TempDir()
	archiver := &Archiver{OutputDirectory: directory, Now: fixedNow}

	bundlePath, err := archiver.Perform(validator.Input{}, &validator.Report{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(directory, "undated_20240115T103000Z.tar.xz"), bundlePath)

	bundle, err := os.ReadFile(bundlePath)
	require.NoError(t, err)
	assert.Contains(t, readBundle(t, bundle), FileReport)
}
