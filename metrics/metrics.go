// Package metrics records per-run pipeline counters in a private Prometheus
// registry. A batch run has no scrape endpoint, so the registry is exported
// once at the end of the run as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "positioning"

// Recorder holds the run metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	stageEntities *prometheus.GaugeVec
	stageDuration *prometheus.GaugeVec
	stageSkipped  *prometheus.CounterVec
	parseFailures *prometheus.CounterVec
	sourceRows    *prometheus.GaugeVec
	clusters      prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// NewRecorder registers all metrics on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageEntities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_entities",
			Help:      "Entities in the table returned by each stage.",
		}, []string{"stage"}),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each stage.",
		}, []string{"stage"}),
		stageSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_skipped_total",
			Help:      "Stages skipped because a required column was absent.",
		}, []string{"stage"}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Field values that could not be parsed and were left undefined.",
		}, []string{"field"}),
		sourceRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_rows",
			Help:      "Rows read from each source table.",
		}, []string{"source"}),
		clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clusters",
			Help:      "Number of clusters produced by the clustering stage.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fully completed run.",
		}),
	}
	r.registry.MustRegister(
		r.stageEntities, r.stageDuration, r.stageSkipped,
		r.parseFailures, r.sourceRows, r.clusters, r.lastSuccess,
	)
	return r
}

// ObserveStage records the table size and duration of a completed stage.
func (r *Recorder) ObserveStage(stage string, entities int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.stageEntities.WithLabelValues(stage).Set(float64(entities))
	r.stageDuration.WithLabelValues(stage).Set(elapsed.Seconds())
}

// StageSkipped counts a stage skipped for a missing column.
func (r *Recorder) StageSkipped(stage string) {
	if r == nil {
		return
	}
	r.stageSkipped.WithLabelValues(stage).Inc()
}

// ParseFailure counts one unparseable value of field.
func (r *Recorder) ParseFailure(field string) {
	if r == nil {
		return
	}
	r.parseFailures.WithLabelValues(field).Inc()
}

// SourceRows records how many rows a source table contributed.
func (r *Recorder) SourceRows(source string, rows int) {
	if r == nil {
		return
	}
	r.sourceRows.WithLabelValues(source).Set(float64(rows))
}

// SetClusters records the cluster count.
func (r *Recorder) SetClusters(n int) {
	if r == nil {
		return
	}
	r.clusters.Set(float64(n))
}

// MarkSuccess stamps the completion time of the run.
func (r *Recorder) MarkSuccess(at time.Time) {
	if r == nil {
		return
	}
	r.lastSuccess.Set(float64(at.Unix()))
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write textfile %q: %w", path, err)
	}
	return nil
}
