// Package metrics records the outcome of an export run as a Prometheus textfile, for collection
// by the node_exporter textfile collector when exports are run from cron.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	file     string
	registry *prometheus.Registry

	success   *prometheus.GaugeVec
	timestamp *prometheus.GaugeVec
	duration  *prometheus.GaugeVec
	files     *prometheus.GaugeVec
	bytes     *prometheus.GaugeVec
	failed    *prometheus.GaugeVec
}

func NewMetrics(file string) *Metrics {
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sheets_csv",
			Subsystem: "export",
			Name:      name,
			Help:      help,
		}, labels)
	}

	m := Metrics{
		file:     file,
		registry: prometheus.NewRegistry(),

		success:   gauge("success", "1 if the last export succeeded, 0 otherwise", "spreadsheet"),
		timestamp: gauge("last_run_timestamp_seconds", "Unix time at which the last export finished", "spreadsheet"),
		duration:  gauge("duration_seconds", "Duration of the last export in seconds", "spreadsheet"),
		files:     gauge("files", "Number of CSV files extracted by the last export", "spreadsheet"),
		bytes:     gauge("archive_bytes", "Size of the archive downloaded by the last export", "spreadsheet"),
		failed:    gauge("failed_step", "Export step that failed to complete on the last export", "spreadsheet", "step"),
	}

	m.registry.MustRegister(m.success, m.timestamp, m.duration, m.files, m.bytes, m.failed)

	return &m
}

func (m *Metrics) Succeeded(spreadsheet string, files int, bytes int64, duration time.Duration) {
	m.success.WithLabelValues(spreadsheet).Set(1)
	m.timestamp.WithLabelValues(spreadsheet).Set(float64(time.Now().Unix()))
	m.duration.WithLabelValues(spreadsheet).Set(duration.Seconds())
	m.files.WithLabelValues(spreadsheet).Set(float64(files))
	m.bytes.WithLabelValues(spreadsheet).Set(float64(bytes))
}

func (m *Metrics) Failed(spreadsheet string, step string, duration time.Duration) {
	m.success.WithLabelValues(spreadsheet).Set(0)
	m.timestamp.WithLabelValues(spreadsheet).Set(float64(time.Now().Unix()))
	m.duration.WithLabelValues(spreadsheet).Set(duration.Seconds())
	m.failed.WithLabelValues(spreadsheet, step).Set(1)
}

// Write replaces the metrics file with the current values. The file is written to a temporary
// file and renamed so that a concurrent scrape never sees a partial file.
func (m *Metrics) Write() error {
	return prometheus.WriteToTextfile(m.file, m.registry)
}
