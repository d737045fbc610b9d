package validator

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/travigo/gtfs-validator/pkg/serviceorder"
	"github.com/travigo/gtfs-validator/pkg/validation"
)

// WriteText renders the report in the layout printed by the command line
func (r *Report) WriteText(w io.Writer) error {
	builder := &strings.Builder{}

	fmt.Fprintf(builder, "Service order validity: %s\n", dateRange(r.StartDate, r.EndDate))
	fmt.Fprintf(builder, "Feed validity:          %s\n", dateRange(r.FeedStartDate, r.FeedEndDate))

	if len(r.Summary) > 0 {
		builder.WriteString("\nConsortium summary (trips / km)\n")
		for _, summary := range r.Summary {
			fmt.Fprintf(builder, "  %-20s %4d services", summary.Consortium, summary.Services)
			for _, dayType := range serviceorder.DayTypes {
				fmt.Fprintf(builder, "  %s %s / %s", dayType,
					serviceorder.FormatNumber(summary.Trips[dayType]),
					serviceorder.FormatNumber(summary.DistanceKm[dayType]),
				)
			}
			builder.WriteString("\n")
		}
	}

	if len(r.SplitShapes) > 0 {
		fmt.Fprintf(builder, "\n%d circular shapes split into outbound and return\n", len(r.SplitShapes))
	}

	byKind := validation.ByKind(r.Findings)
	fmt.Fprintf(builder, "\nFindings: %d\n", len(r.Findings))
	for _, kind := range validation.Kinds {
		for _, finding := range byKind[kind] {
			fmt.Fprintf(builder, "  %s\n", finding.String())
		}
	}

	if r.Valid() {
		builder.WriteString("\nService order is valid\n")
	} else {
		builder.WriteString("\nService order is NOT valid\n")
	}

	_, err := io.WriteString(w, builder.String())
	return err
}

func dateRange(start time.Time, end time.Time) string {
	if start.IsZero() {
		return "unknown"
	}

	return fmt.Sprintf("%s to %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
}
