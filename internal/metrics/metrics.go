// SPDX-License-Identifier: MPL-2.0

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/updatekit/updatekit/pkg/service"
)

const namespace = "updatekit"

// Recorder implements service.Observer.
type Recorder struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	candidates  *prometheus.GaugeVec
	duration    *prometheus.HistogramVec
}

var _ service.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with its metrics registered in a fresh
// registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Number of provider resolutions by capability and outcome.",
			},
			[]string{"capability", "outcome"},
		),
		candidates: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "candidates",
				Help:      "Number of candidates discovered in the last resolution of a capability.",
			},
			[]string{"capability"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Time taken to discover, instantiate and select providers.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
	r.registry.MustRegister(r.resolutions, r.candidates, r.duration)
	return r
}

// ObserveResolution implements service.Observer.
func (r *Recorder) ObserveResolution(res service.Resolution) {
	capability := res.Capability.Name()
	outcome := string(res.Outcome)

	r.resolutions.WithLabelValues(capability, outcome).Inc()
	if res.Outcome != service.OutcomeInvalidOverride && res.Outcome != service.OutcomeInvalidRequest {
		r.candidates.WithLabelValues(capability).Set(float64(res.Candidates))
	}
	r.duration.WithLabelValues(outcome).Observe(res.Duration.Seconds())
}

// WriteTextfile atomically writes the current metrics to path in the text
// exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
