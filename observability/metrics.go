package observability

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics of the band structure pipeline.
// A nil *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Diagonalizations *prometheus.CounterVec
	PhaseDurations   *prometheus.HistogramVec
	ContourVertices  *prometheus.CounterVec
	MeshPoints       prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice against the same registry
// reuses the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	diag, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tb_diagonalizations_total",
		Help: "Hermitian eigendecompositions performed, labeled by model and phase.",
	}, []string{"model", "phase"}))
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tb_phase_duration_seconds",
		Help:    "Wall time of a pipeline phase in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"model", "phase"}))
	if err != nil {
		return nil, err
	}

	vertices, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tb_contour_vertices_total",
		Help: "Iso-energy contour vertices extracted, labeled by model and band.",
	}, []string{"model", "band"}))
	if err != nil {
		return nil, err
	}

	points, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tb_mesh_points",
		Help: "Number of k-points in the most recent mesh sweep.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		Diagonalizations: diag,
		PhaseDurations:   durations,
		ContourVertices:  vertices,
		MeshPoints:       points,
	}, nil
}

// Gatherer returns the gatherer the collector was registered with
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return prometheus.DefaultGatherer
	}
	return c.gatherer
}

// Handler serves the registered metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Gatherer(), promhttp.HandlerOpts{})
}

// AddDiagonalizations counts n eigendecompositions
func (c *Collector) AddDiagonalizations(model, phase string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.Diagonalizations.WithLabelValues(model, phase).Add(float64(n))
}

// ObservePhase records the duration of a phase started at start
func (c *Collector) ObservePhase(model, phase string, start time.Time) {
	if c == nil {
		return
	}
	c.PhaseDurations.WithLabelValues(model, phase).Observe(time.Since(start).Seconds())
}

// AddVertices counts contour vertices of one band
func (c *Collector) AddVertices(model, band string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.ContourVertices.WithLabelValues(model, band).Add(float64(n))
}

// SetMeshPoints records the size of the swept mesh
func (c *Collector) SetMeshPoints(n int) {
	if c == nil {
		return
	}
	c.MeshPoints.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register counter vec: %w", err)
	}
	return c, nil
}

func registerHistogramVec(reg prometheus.Registerer, h *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register histogram vec: %w", err)
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register gauge: %w", err)
	}
	return g, nil
}
