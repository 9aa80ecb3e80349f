package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Collector owns the relay's Prometheus registry.
//
// Metrics:
//   - relay_requests_total: relayed chat requests by transport and outcome
//   - relay_upstream_duration_seconds: Gemini call latency by outcome
//   - relay_upstream_responses_total: Gemini HTTP responses by status code
//
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	requests          *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
	upstreamResponses *prometheus.CounterVec
}

// NewCollector creates and registers the relay metrics on a private registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of relayed chat requests by transport and outcome",
			},
			[]string{"transport", "outcome"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Gemini generateContent latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"outcome"},
		),
		upstreamResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_responses_total",
				Help:      "Gemini HTTP responses by status code",
			},
			[]string{"code"},
		),
	}

	c.registry.MustRegister(c.requests, c.upstreamDuration, c.upstreamResponses)
	return c
}

// RecordRequest counts one relayed request.
func (c *Collector) RecordRequest(transport, outcome string) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(transport, outcome).Inc()
}

// ObserveUpstream records one outbound call. code is 0 when no response arrived.
func (c *Collector) ObserveUpstream(outcome string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.upstreamDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if code > 0 {
		c.upstreamResponses.WithLabelValues(strconv.Itoa(code)).Inc()
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
