package archiver

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/validator"
	"github.com/ulikunitz/xz"
)

const FileReport = "report.json"

// Archiver keeps a record of every validation run as a tar.xz bundle holding
// the submitted inputs, the report and the patched feed when there is one.
type Archiver struct {
	OutputDirectory string

	Now func() time.Time
}

// BundleName is <start date>_<run time>.tar.xz, or undated_<run time>.tar.xz
// when the run had no start date
func (a *Archiver) BundleName(report *validator.Report) string {
	startDate := "undated"
	if !report.StartDate.IsZero() {
		startDate = report.StartDate.Format(time.DateOnly)
	}

	return fmt.Sprintf("%s_%s.tar.xz", startDate, a.now().UTC().Format("20060102T150405Z"))
}

// Perform writes the bundle and returns its path
func (a *Archiver) Perform(input validator.Input, report *validator.Report) (string, error) {
	bundlePath := path.Join(a.OutputDirectory, a.BundleName(report))

	bundleFile, err := os.Create(bundlePath)
	if err != nil {
		return "", err
	}
	defer bundleFile.Close()

	if err := a.Write(bundleFile, input, report); err != nil {
		return "", err
	}

	log.Info().Str("bundle", bundlePath).Msg("Validation run archived")

	return bundlePath, bundleFile.Close()
}

// Write streams the bundle of a run to w
func (a *Archiver) Write(w io.Writer, input validator.Input, report *validator.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	xzWriter, err := xz.NewWriter(w)
	if err != nil {
		return err
	}
	tarWriter := tar.NewWriter(xzWriter)

	entries := []struct {
		name string
		data []byte
	}{
		{name: entryName(input.ServiceOrderName, "service_order.csv"), data: input.ServiceOrder},
		{name: entryName(input.FeedName, "feed.zip"), data: input.Feed},
		{name: FileReport, data: reportJSON},
	}
	if report.PatchedFeed != nil {
		entries = append(entries, struct {
			name string
			data []byte
		}{name: "patched_" + entryName(input.FeedName, "feed.zip"), data: report.PatchedFeed})
	}

	modTime := a.now()
	for _, entry := range entries {
		header := &tar.Header{
			Name:    entry.name,
			Size:    int64(len(entry.data)),
			Mode:    0o644,
			ModTime: modTime,
		}

		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("writing tar header for %s: %w", entry.name, err)
		}
		if _, err := tarWriter.Write(entry.data); err != nil {
			return fmt.Errorf("writing %s: %w", entry.name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}

	return xzWriter.Close()
}

func (a *Archiver) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}

	return time.Now()
}

func entryName(name string, fallback string) string {
	name = path.Base(name)
	if name == "" || name == "." || name == "/" {
		return fallback
	}

	return name
}
