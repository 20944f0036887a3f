// Package metrics exposes the gateway's governance-core state as
// Prometheus gauges and counters, rendered as the text body of /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

/*
Counters here play the same role as the teacher's dashboard
StatsCollector (allow/deny counts), generalized to export them as real
Prometheus counters alongside the adaptive clamp and breaker-open state
per provider, instead of a bespoke JSON stats endpoint.
*/

// Collector owns the process's Prometheus metrics.
type Collector struct {
	startedAt time.Time

	registry *prometheus.Registry

	admitTotal       *prometheus.CounterVec
	clampGauge       *prometheus.GaugeVec
	breakerOpenTotal *prometheus.CounterVec
	uptimeGauge      prometheus.GaugeFunc
}

func NewCollector() *Collector {
	c := &Collector{
		registry:  prometheus.NewRegistry(),
		startedAt: time.Now(),
	}

	c.admitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_admit_total",
		Help: "Count of rate-limit gate decisions by outcome.",
	}, []string{"outcome"})

	c.clampGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rate_limit_clamp",
		Help: "Current adaptive clamp value per provider.",
	}, []string{"provider"})

	c.breakerOpenTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "breaker_open_total",
		Help: "Count of times a provider's breaker transitioned to open.",
	}, []string{"provider"})

	c.uptimeGauge = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "app_uptime_seconds",
		Help: "Seconds since process start.",
	}, func() float64 { return time.Since(c.startedAt).Seconds() })

	c.registry.MustRegister(c.admitTotal, c.clampGauge, c.breakerOpenTotal, c.uptimeGauge)
	return c
}

func (c *Collector) IncrementAllow() { c.admitTotal.WithLabelValues("allow").Inc() }
func (c *Collector) IncrementDeny()  { c.admitTotal.WithLabelValues("deny").Inc() }

func (c *Collector) ObserveClamp(provider string, value float64) {
	c.clampGauge.WithLabelValues(provider).Set(value)
}

func (c *Collector) RecordBreakerOpen(provider string) {
	c.breakerOpenTotal.WithLabelValues(provider).Inc()
}

// Registry exposes the underlying Prometheus registry for the /metrics
// handler.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }
