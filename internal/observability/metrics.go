package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DynamicsCollector bundles Prometheus metrics for the derivation pipeline
// and exposes them over HTTP.
type DynamicsCollector struct {
	gatherer prometheus.Gatherer

	Samples           prometheus.Counter
	Velocities        prometheus.Counter
	VelocitiesDropped prometheus.Counter
	Angular           prometheus.Counter
	AngularSkipped    *prometheus.CounterVec
	Duration          *prometheus.HistogramVec
	Tracks            prometheus.Gauge
}

// NewDynamicsCollector registers pipeline metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewDynamicsCollector(reg prometheus.Registerer) (*DynamicsCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	samples, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trackdyn_samples_total",
		Help: "Total number of position samples fed through the pipeline.",
	}), "trackdyn_samples_total")
	if err != nil {
		return nil, err
	}
	velocities, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trackdyn_velocities_total",
		Help: "Total number of velocities derived from consecutive sample pairs.",
	}), "trackdyn_velocities_total")
	if err != nil {
		return nil, err
	}
	dropped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trackdyn_velocities_dropped_total",
		Help: "Sample pairs skipped because their timestamps were equal.",
	}), "trackdyn_velocities_dropped_total")
	if err != nil {
		return nil, err
	}
	angular, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trackdyn_angular_velocity_total",
		Help: "Total number of angular velocity values produced.",
	}), "trackdyn_angular_velocity_total")
	if err != nil {
		return nil, err
	}

	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trackdyn_angular_velocity_skipped_total",
		Help: "Samples with no angular velocity, labeled by reason.",
	}, []string{"reason"})
	skipped, err = registerCounterVec(reg, skipped, "trackdyn_angular_velocity_skipped_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackdyn_pipeline_duration_seconds",
		Help:    "Pipeline run latency in seconds, labeled by outcome.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"outcome"})
	duration, err = registerHistogramVec(reg, duration, "trackdyn_pipeline_duration_seconds")
	if err != nil {
		return nil, err
	}

	tracks, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trackdyn_tracks",
		Help: "Current number of tracks held in the track store.",
	}), "trackdyn_tracks")
	if err != nil {
		return nil, err
	}

	return &DynamicsCollector{
		gatherer:          gatherer,
		Samples:           samples,
		Velocities:        velocities,
		VelocitiesDropped: dropped,
		Angular:           angular,
		AngularSkipped:    skipped,
		Duration:          duration,
		Tracks:            tracks,
	}, nil
}

// RunStats is what a single pipeline run reports to the collector.
type RunStats struct {
	Samples           int
	Velocities        int
	VelocitiesDropped int
	Angular           int
	// Skipped counts samples without angular velocity by reason label.
	Skipped map[string]int
	Elapsed time.Duration
	Failed  bool
}

// ObserveRun records the outcome of one pipeline run. A nil collector is a
// no-op so callers can run without metrics.
func (c *DynamicsCollector) ObserveRun(s RunStats) {
	if c == nil {
		return
	}
	outcome := "ok"
	if s.Failed {
		outcome = "error"
	}
	c.Duration.WithLabelValues(outcome).Observe(s.Elapsed.Seconds())
	c.Samples.Add(float64(s.Samples))
	if s.Failed {
		return
	}
	c.Velocities.Add(float64(s.Velocities))
	c.VelocitiesDropped.Add(float64(s.VelocitiesDropped))
	c.Angular.Add(float64(s.Angular))
	for reason, n := range s.Skipped {
		c.AngularSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// SetTracks reports the number of tracks currently held in the store.
func (c *DynamicsCollector) SetTracks(n int) {
	if c == nil || c.Tracks == nil {
		return
	}
	c.Tracks.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *DynamicsCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
