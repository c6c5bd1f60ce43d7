// Package metrics exposes controller state as Prometheus collectors.
// All methods are safe on a nil *Collector, so metrics can be left unwired.
package metrics

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

const namespace = "growlight"

// Collector owns a private registry with the controller's metrics.
type Collector struct {
	registry *prometheus.Registry

	lux         prometheus.Gauge
	accumulated prometheus.Gauge
	required    prometheus.Gauge
	ledOn       prometheus.Gauge
	phase       *prometheus.GaugeVec
	sensorErrs  *prometheus.CounterVec
	decisions   *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		lux: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lux",
			Help:      "Most recent ambient light reading in lux.",
		}),
		accumulated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accumulated_lux_hours",
			Help:      "Light dose accumulated since sunrise.",
		}),
		required: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "required_lux_hours",
			Help:      "Daily light dose required by the plant.",
		}),
		ledOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "led_on",
			Help:      "1 while supplemental light is on.",
		}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase",
			Help:      "1 for the controller's current phase, 0 otherwise.",
		}, []string{"phase"}),
		sensorErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_errors_total",
			Help:      "Polls that produced no reading, by error kind.",
		}, []string{"kind"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "midday_decisions_total",
			Help:      "Mid-day supplemental light decisions.",
		}, []string{"decision"}),
	}

	c.registry.MustRegister(
		c.lux, c.accumulated, c.required, c.ledOn,
		c.phase, c.sensorErrs, c.decisions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry is exposed for tests and for embedding extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ObserveReading(r *domain.LightReading) {
	if c == nil {
		return
	}
	c.lux.Set(r.Lux)
	c.accumulated.Set(r.Accumulated)
}

func (c *Collector) ObserveSensorError(kind domain.ErrorKind) {
	if c == nil {
		return
	}
	c.sensorErrs.WithLabelValues(string(kind)).Inc()
}

// ObserveDecision counts a mid-day decision; supplement is true when the
// light was turned on.
func (c *Collector) ObserveDecision(supplement bool) {
	if c == nil {
		return
	}
	decision := "sufficient"
	if supplement {
		decision = "supplement"
	}
	c.decisions.WithLabelValues(decision).Inc()
}

// ObserveStatus mirrors a controller snapshot into the gauges.
func (c *Collector) ObserveStatus(s domain.Status) {
	if c == nil {
		return
	}
	c.accumulated.Set(s.Accumulated)
	c.required.Set(s.Required)
	if s.LEDOn {
		c.ledOn.Set(1)
	} else {
		c.ledOn.Set(0)
	}
	for _, p := range domain.Phases {
		v := 0.0
		if p == s.Phase {
			v = 1
		}
		c.phase.WithLabelValues(string(p)).Set(v)
	}
}

// Handler serves the registry gzip-compressed, plus a liveness probe.
func (c *Collector) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return gziphandler.GzipHandler(mux)
}
