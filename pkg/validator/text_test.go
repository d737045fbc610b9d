package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportWriteText(t *testing.T) {
	mismatched := lineFive()
	mismatched.Weekday.DistanceKm = 72.5

	report, err := Run(Input{
		ServiceOrder:     serviceOrder(t, mismatched),
		ServiceOrderName: "os_2024-02-01.csv",
		Feed:             feedArchive(),
	}, Options{Now: fixedNow})
	require.NoError(t, err)

	output := &strings.Builder{}
	require.NoError(t, report.WriteText(output))

	text := output.String()
	assert.Contains(t, text, "Service order validity: 2024-02-01 to 2024-02-16")
	assert.Contains(t, text, "Internorte")
	assert.Contains(t, text, "[DistanceMismatch] row 1 service 5 weekday")
	assert.Contains(t, text, "Service order is NOT valid")
}

func TestReportWriteTextUnknownDates(t *testing.T) {
	report := &Report{}

	output := &strings.Builder{}
	require.NoError(t, report.WriteText(output))

	assert.Contains(t, output.String(), "Service order validity: unknown")
	assert.Contains(t, output.String(), "Findings: 0")
	assert.Contains(t, output.String(), "Service order is valid")
}
