package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/backmassage/mp4ify/internal/planner"
)

// File results.
const (
	ResultConverted = "converted"
	ResultCopied    = "copied"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

// Recorder holds the run's collectors. All methods are goroutine-safe.
type Recorder struct {
	reg *prometheus.Registry

	FilesTotal      *prometheus.CounterVec
	StreamsTotal    *prometheus.CounterVec
	FileDuration    *prometheus.HistogramVec
	InputBytes      prometheus.Counter
	OutputBytes     prometheus.Counter
	LastRunTime     prometheus.Gauge
	LastRunDuration prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,

		FilesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mp4ify_files_total",
				Help: "Total number of files processed, by result",
			},
			[]string{"result"}, // converted, copied, skipped, failed
		),

		StreamsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mp4ify_streams_total",
				Help: "Total number of planned streams, by kind and action",
			},
			[]string{"kind", "action"},
		),

		FileDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mp4ify_file_duration_seconds",
				Help:    "ffmpeg wall time per file in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
			},
			[]string{"result"},
		),

		InputBytes: f.NewCounter(
			prometheus.CounterOpts{
				Name: "mp4ify_input_bytes_total",
				Help: "Total size of successfully processed input files",
			},
		),

		OutputBytes: f.NewCounter(
			prometheus.CounterOpts{
				Name: "mp4ify_output_bytes_total",
				Help: "Total size of written output files",
			},
		),

		LastRunTime: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "mp4ify_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),

		LastRunDuration: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "mp4ify_last_run_duration_seconds",
				Help: "Duration of the last run in seconds",
			},
		),
	}
}

// Registry returns the private registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObservePlan counts each decision of plan by kind and action.
func (r *Recorder) ObservePlan(plan planner.ConversionPlan) {
	for _, d := range plan {
		r.StreamsTotal.WithLabelValues(string(d.Kind), d.Action.String()).Inc()
	}
}

// ObserveFile records a finished file. elapsed is zero for files that never
// reached ffmpeg; those are counted but not timed.
func (r *Recorder) ObserveFile(result string, elapsed time.Duration, inBytes, outBytes int64) {
	r.FilesTotal.WithLabelValues(result).Inc()
	if elapsed > 0 {
		r.FileDuration.WithLabelValues(result).Observe(elapsed.Seconds())
	}
	if inBytes > 0 {
		r.InputBytes.Add(float64(inBytes))
	}
	if outBytes > 0 {
		r.OutputBytes.Add(float64(outBytes))
	}
}

// Finish stamps the run end time and duration.
func (r *Recorder) Finish(started, finished time.Time) {
	r.LastRunTime.Set(float64(finished.Unix()))
	r.LastRunDuration.Set(finished.Sub(started).Seconds())
}

// WriteTextfile writes the registry to path atomically, creating the parent
// directory if needed.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
