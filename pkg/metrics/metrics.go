package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

type Collector struct {
	reg *prometheus.Registry

	Runs          *prometheus.CounterVec // outcome label: valid|invalid|failed
	Findings      *prometheus.CounterVec // kind label
	FatalErrors   *prometheus.CounterVec // error label
	PatchedFeeds  prometheus.Counter
	RunDuration   prometheus.Histogram
	ScheduleRows  prometheus.Histogram
	ArchiveBytes  prometheus.Histogram
	SplitShapes   prometheus.Counter
	ConflictPairs prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfs_validator_runs_total",
			Help: "Validation runs by outcome.",
		}, []string{"outcome"}),
		Findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfs_validator_findings_total",
			Help: "Validation findings by kind.",
		}, []string{"kind"}),
		FatalErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gtfs_validator_fatal_errors_total",
			Help: "Runs aborted by a fatal error, by error type.",
		}, []string{"error"}),
		PatchedFeeds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfs_validator_patched_feeds_total",
			Help: "Feed archives repackaged with confirmed validity dates.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gtfs_validator_run_duration_seconds",
			Help:    "Duration of a validation run.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		ScheduleRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gtfs_validator_schedule_rows",
			Help:    "Rows in each validated service order.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ArchiveBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gtfs_validator_archive_bytes",
			Help:    "Size of each validated feed archive.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		SplitShapes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfs_validator_split_shapes_total",
			Help: "Circular shapes split into outbound and return halves.",
		}),
		ConflictPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gtfs_validator_conflict_pairs_total",
			Help: "Calendar service pairs found in conflict.",
		}),
	}

	reg.MustRegister(
		c.Runs, c.Findings, c.FatalErrors, c.PatchedFeeds,
		c.RunDuration, c.ScheduleRows, c.ArchiveBytes,
		c.SplitShapes, c.ConflictPairs,
	)

	return c
}

// ObserveDuration records the time elapsed since start
func (c *Collector) ObserveDuration(start time.Time) {
	c.RunDuration.Observe(time.Since(start).Seconds())
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
