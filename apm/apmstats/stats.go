// Package apmstats is the operational metrics sink used by the span writers.
//
// Every sample carries the encoding of the payload it describes (e.g. "json"),
// so the cost of different encodings can be compared.
package apmstats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats receives named counters and timing samples.
// Implementations must be safe for concurrent use.
type Stats interface {
	Count(name string, value int64, encoding string)
	Timing(name string, d time.Duration, encoding string)
}

// Null discards every sample.
type Null struct{}

// Count implements Stats.
func (Null) Count(name string, value int64, encoding string) {}

// Timing implements Stats.
func (Null) Timing(name string, d time.Duration, encoding string) {}

// Prometheus is a Stats backed by prometheus collectors.
//
// Metrics:
//   - apm_events_total: counters by name and encoding
//   - apm_duration_seconds: timing histogram by name and encoding
type Prometheus struct {
	counters *prometheus.CounterVec
	timings  *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		counters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apm",
				Name:      "events_total",
				Help:      "Total number of tracer events",
			},
			[]string{"name", "encoding"},
		),
		timings: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "apm",
				Name:      "duration_seconds",
				Help:      "Duration of tracer operations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us to ~1.6s
			},
			[]string{"name", "encoding"},
		),
	}
	reg.MustRegister(p.counters, p.timings)
	return p
}

// Count implements Stats.
func (p *Prometheus) Count(name string, value int64, encoding string) {
	if value < 0 {
		// counters never decrease
		return
	}
	p.counters.WithLabelValues(name, encoding).Add(float64(value))
}

// Timing implements Stats.
func (p *Prometheus) Timing(name string, d time.Duration, encoding string) {
	p.timings.WithLabelValues(name, encoding).Observe(d.Seconds())
}
