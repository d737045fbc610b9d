package serviceorder

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const SummaryTotal = "Total"

// ConsortiumSummary is the per consortium overview shown before a service order is published
type ConsortiumSummary struct {
	Consortium string
	Services   int
	Trips      map[DayType]float64
	DistanceKm map[DayType]float64
}

// Summarise groups the rows by consortium, in name order, followed by a Total row
func (t *Table) Summarise() []ConsortiumSummary {
	byConsortium := map[string]*ConsortiumSummary{}
	total := newSummary(SummaryTotal)

	for i := range t.Rows {
		row := &t.Rows[i]

		summary, exists := byConsortium[row.Consortium]
		if !exists {
			summary = newSummary(row.Consortium)
			byConsortium[row.Consortium] = summary
		}

		for _, current := range []*ConsortiumSummary{summary, total} {
			current.Services++
			for _, dayType := range DayTypes {
				current.Trips[dayType] += row.Day(dayType).Trips
				current.DistanceKm[dayType] += row.Day(dayType).DistanceKm
			}
		}
	}

	names := maps.Keys(byConsortium)
	slices.Sort(names)

	summaries := make([]ConsortiumSummary, 0, len(names)+1)
	for _, name := range names {
		summaries = append(summaries, *byConsortium[name])
	}

	return append(summaries, *total)
}

func newSummary(name string) *ConsortiumSummary {
	return &ConsortiumSummary{
		Consortium: name,
		Trips:      map[DayType]float64{},
		DistanceKm: map[DayType]float64{},
	}
}
