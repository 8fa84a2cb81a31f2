package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for assignment requests.
const (
	OutcomeApplied  = "applied"
	OutcomePreview  = "preview"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Collector records assignment processing metrics.
type Collector struct {
	requests       *prometheus.CounterVec
	pupilsMoved    prometheus.Counter
	classesUpdated prometheus.Counter
	pupilsImported prometheus.Counter
	duration       prometheus.Histogram
}

// New creates a Collector and registers it with reg. A nil reg uses the
// default registerer; an empty namespace defaults to "school".
func New(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "school"
	}

	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_requests_total",
			Help:      "Assignment requests by outcome.",
		}, []string{"outcome"}),
		pupilsMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pupils_updated_total",
			Help:      "Pupils whose class or follow-up number changed.",
		}),
		classesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classes_updated_total",
			Help:      "Classes whose pupil count changed.",
		}),
		pupilsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pupils_imported_total",
			Help:      "Pupils added through spreadsheet import.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assignment_duration_seconds",
			Help:      "Time spent handling assignment requests, including storage.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(c.requests, c.pupilsMoved, c.classesUpdated, c.pupilsImported, c.duration)

	return c
}

// ObserveRequest records one assignment request.
func (c *Collector) ObserveRequest(outcome string, elapsed time.Duration) {
	c.requests.WithLabelValues(outcome).Inc()
	c.duration.Observe(elapsed.Seconds())
}

// ObserveChanges records the size of an applied changeset.
func (c *Collector) ObserveChanges(pupils, classes int) {
	c.pupilsMoved.Add(float64(pupils))
	c.classesUpdated.Add(float64(classes))
}

// ObserveImport records imported pupils.
func (c *Collector) ObserveImport(count int) {
	c.pupilsImported.Add(float64(count))
}
