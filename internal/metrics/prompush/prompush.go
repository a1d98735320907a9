// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// It adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the pipeline labels (step, status, kind, reason) onto
//     Prometheus labels.
//   - Pushing collected metrics to a Pushgateway instead of exposing a
//     scrape endpoint, which suits a batch job that exits when done.
//
// All Prometheus-specific dependencies stay in this package so the rest of
// the project can swap to alternative backends without changes.
package prompush

import (
	"fmt"

	"salesclean/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // "cleaning_step_total"
	stepDuration *prometheus.SummaryVec // "cleaning_step_duration_seconds"

	recordCounter *prometheus.CounterVec // "cleaning_records_total"
	rejectCounter *prometheus.CounterVec // "cleaning_rejects_total"
	chunkCounter  prometheus.Counter     // "cleaning_chunks_total"
}

// NewBackend constructs a Pushgateway backend. jobName becomes the
// Pushgateway "job" grouping key; gatewayURL is the base URL of the server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "salesclean"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaning_step_total",
			Help: "Total number of pipeline step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "cleaning_step_duration_seconds",
			Help:       "Duration of pipeline steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaning_records_total",
			Help: "Record-level counts per kind (input, accepted, rejected, anomalies, parse_errors).",
		},
		[]string{"kind"},
	)
	rejectCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaning_rejects_total",
			Help: "Rejected record counts partitioned by rejection reason.",
		},
		[]string{"reason"},
	)
	chunkCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cleaning_chunks_total",
			Help: "Total number of chunks processed by this cleaning job.",
		},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, recordCounter, rejectCounter, chunkCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		recordCounter: recordCounter,
		rejectCounter: rejectCounter,
		chunkCounter:  chunkCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "cleaning_step_total":
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case "cleaning_records_total":
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)

	case "cleaning_rejects_total":
		b.rejectCounter.WithLabelValues(labels["reason"]).Add(delta)

	case "cleaning_chunks_total":
		b.chunkCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "cleaning_step_duration_seconds" {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
