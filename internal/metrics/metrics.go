// Package metrics publishes grading batch summaries as Prometheus metrics
// for a node-exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"drive-health-grader/internal/batch"
	"drive-health-grader/internal/utils"
	"drive-health-grader/pkg/types"
)

// Metrics holds the Prometheus metrics for one grading batch. They live on
// a private registry: a batch run writes a file and exits, it never serves
// a scrape endpoint.
type Metrics struct {
	registry *prometheus.Registry

	DevicesByStatus  *prometheus.GaugeVec
	DeviceStatusCode *prometheus.GaugeVec
	BatchDuration    prometheus.Gauge
	DevicesScanned   prometheus.Gauge
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DevicesByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drive_grader_devices",
				Help: "Number of graded devices by status",
			},
			[]string{"status"},
		),
		DeviceStatusCode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drive_grader_device_status",
				Help: "Grading status per device (0=pass, 1=flagged, 2=fail, 3=error)",
			},
			[]string{"device", "serial", "model", "protocol"},
		),
		BatchDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "drive_grader_batch_duration_seconds",
				Help: "Wall-clock duration of the grading batch",
			},
		),
		DevicesScanned: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "drive_grader_devices_scanned_total",
				Help: "Number of devices found by discovery",
			},
		),
	}

	m.registry.MustRegister(
		m.DevicesByStatus,
		m.DeviceStatusCode,
		m.BatchDuration,
		m.DevicesScanned,
	)

	return m
}

// Record fills the metrics from a finished batch. Every status label is
// present even at zero so dashboards see complete series.
func (m *Metrics) Record(set *batch.ResultSet, scanned int) {
	m.DevicesScanned.Set(float64(scanned))
	m.BatchDuration.Set(set.Duration().Seconds())

	counts := set.Counts()
	for _, status := range []types.Status{
		types.StatusPass, types.StatusFlagged, types.StatusFail, types.StatusError,
	} {
		m.DevicesByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}

	for _, rec := range set.Records {
		m.DeviceStatusCode.
			WithLabelValues(rec.Device, rec.Serial, rec.Model, string(rec.Protocol)).
			Set(float64(utils.StatusCode(rec.DisplayStatus())))
	}
}

// WriteFile writes the registry in the textfile collector exposition format
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	log.WithField("path", path).Info("Metrics file written")
	return nil
}
