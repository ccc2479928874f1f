// Package metrics exposes probe outcomes as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/innero/axel/internal/speedtest"
)

const namespace = "axel"

// Collector records probe outcomes on its own registry.
// It is a speedtest.Observer.
type Collector struct {
	registry *prometheus.Registry

	probes  *prometheus.CounterVec
	latency prometheus.Histogram
	active  prometheus.Gauge
	mirrors prometheus.Gauge
}

// NewCollector creates a Collector with its metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Mirror probes by outcome.",
		}, []string{"outcome", "reason"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_latency_seconds",
			Help:      "Latency of successful mirror probes.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11),
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probes_active",
			Help:      "Mirror probes currently in flight.",
		}),
		mirrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "usable_mirrors",
			Help:      "Usable mirrors found by the last search.",
		}),
	}
	c.registry.MustRegister(c.probes, c.latency, c.active, c.mirrors)
	return c
}

// ProbeStarted implements speedtest.Observer.
func (c *Collector) ProbeStarted(string) {
	c.active.Inc()
}

// ProbeFinished implements speedtest.Observer.
func (c *Collector) ProbeFinished(o speedtest.Outcome) {
	c.active.Dec()
	if o.Result.Speed.Measured() {
		c.probes.WithLabelValues("working", "").Inc()
		c.latency.Observe(o.Result.Elapsed.Seconds())
		return
	}
	c.probes.WithLabelValues("failed", string(o.Result.Reason)).Inc()
}

// SetUsable records the number of usable mirrors.
func (c *Collector) SetUsable(n int) {
	c.mirrors.Set(float64(n))
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the metrics in text exposition format to path,
// suitable for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
