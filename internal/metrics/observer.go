package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "upload"

// Outcomes recorded for every file that reaches the upload pipeline.
const (
	OutcomeStored   = "stored"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Observer exports upload pipeline metrics to Prometheus.
type Observer struct {
	files       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	storedBytes *prometheus.CounterVec
}

// NewObserver registers the upload metrics on reg (the default registerer
// when nil) as {namespace}_upload_*. Registering twice reuses the existing
// collectors.
func NewObserver(namespace string, reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	files := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "files_total",
		Help:      "Files seen by the upload pipeline, by category and outcome.",
	}, []string{"category", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "processing_seconds",
		Help:      "Time spent processing and storing one file.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"category", "mode"})
	storedBytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "stored_bytes_total",
		Help:      "Bytes written to storage by the upload pipeline.",
	}, []string{"category"})

	var err error
	if files, err = register(reg, files); err != nil {
		return nil, fmt.Errorf("register files counter: %w", err)
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, fmt.Errorf("register processing histogram: %w", err)
	}
	if storedBytes, err = register(reg, storedBytes); err != nil {
		return nil, fmt.Errorf("register stored bytes counter: %w", err)
	}

	return &Observer{files: files, duration: duration, storedBytes: storedBytes}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// FileRejected counts a file refused by the intake filter.
func (o *Observer) FileRejected(category string) {
	if o == nil {
		return
	}
	o.files.WithLabelValues(category, OutcomeRejected).Inc()
}

// FileProcessed records a processing attempt. mode is "normalize" or
// "passthrough"; size is ignored when err is non-nil.
func (o *Observer) FileProcessed(category, mode string, size int64, took time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(category, mode).Observe(took.Seconds())
	if err != nil {
		o.files.WithLabelValues(category, OutcomeFailed).Inc()
		return
	}
	o.files.WithLabelValues(category, OutcomeStored).Inc()
	o.storedBytes.WithLabelValues(category).Add(float64(size))
}
