// Package metrics collects per-run load statistics in a private Prometheus
// registry. A load is a batch job, so the registry is exported once at the end
// of a run in node_exporter textfile format rather than scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vvka-141/transitload/internal/writer"
	"github.com/vvka-141/transitload/pkg/transitload"
)

const namespace = "transitload"

// Collector records file, record and chunk statistics for one process.
type Collector struct {
	registry *prometheus.Registry

	filesProcessed *prometheus.CounterVec
	filesFailed    *prometheus.CounterVec
	recordsRead    *prometheus.CounterVec
	recordsWritten *prometheus.CounterVec
	chunkLatency   *prometheus.HistogramVec
	chunkRows      *prometheus.HistogramVec
	lastRunSeconds prometheus.Gauge
	lastRunSuccess prometheus.Gauge
	lastRunEnd     prometheus.Gauge
}

var _ writer.Observer = (*Collector)(nil)

// NewCollector registers the load metrics in a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		filesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Snapshot files loaded completely, by destination table.",
		}, []string{"table"}),
		filesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Snapshot files that failed to load, by destination table.",
		}, []string{"table"}),
		recordsRead: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Records read from snapshot files, by destination table.",
		}, []string{"table"}),
		recordsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Records committed to the warehouse, by destination table.",
		}, []string{"table"}),
		chunkLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_write_seconds",
			Help:      "Latency of one committed write round-trip.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"table"}),
		chunkRows: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_rows",
			Help:      "Rows per committed write round-trip.",
			Buckets:   []float64{100, 500, 1000, 2500, 5000, 10000, 25000},
		}, []string{"table"}),
		lastRunSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall-clock duration of the last run.",
		}),
		lastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run loaded every file, 0 otherwise.",
		}),
		lastRunEnd: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
}

// Registry exposes the underlying registry, e.g. for testutil or an HTTP handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveChunk implements writer.Observer.
func (c *Collector) ObserveChunk(table string, rows int, elapsed time.Duration) {
	c.chunkLatency.WithLabelValues(table).Observe(elapsed.Seconds())
	c.chunkRows.WithLabelValues(table).Observe(float64(rows))
}

// RecordsRead counts records decoded from a snapshot file.
func (c *Collector) RecordsRead(table string, n int64) {
	c.recordsRead.WithLabelValues(table).Add(float64(n))
}

// FileLoaded counts a completed file and its committed records.
func (c *Collector) FileLoaded(table string, written int64) {
	c.filesProcessed.WithLabelValues(table).Inc()
	c.recordsWritten.WithLabelValues(table).Add(float64(written))
}

// FileFailed counts a failed file. written is what reached the table before
// the failure.
func (c *Collector) FileFailed(table string, written int64) {
	c.filesFailed.WithLabelValues(table).Inc()
	c.recordsWritten.WithLabelValues(table).Add(float64(written))
}

// RunFinished records the outcome gauges of a run.
func (c *Collector) RunFinished(summary *transitload.RunSummary, runErr error) {
	c.lastRunSeconds.Set(summary.Duration().Seconds())
	c.lastRunEnd.Set(float64(summary.FinishedAt.Unix()))
	if runErr == nil {
		c.lastRunSuccess.Set(1)
	} else {
		c.lastRunSuccess.Set(0)
	}
}

// WriteToTextfile atomically writes the registry for the node_exporter
// textfile collector.
func (c *Collector) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
