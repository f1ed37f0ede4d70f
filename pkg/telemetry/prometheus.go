package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counts events and tracks provider call latency.
type Prometheus struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	provider *prometheus.HistogramVec
}

// NewPrometheus registers collectors on a fresh registry.
func NewPrometheus() (*Prometheus, error) {
	registry := prometheus.NewRegistry()
	p := &Prometheus{
		registry: registry,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketinsight",
			Name:      "events_total",
			Help:      "Telemetry events by name.",
		}, []string{"event"}),
		provider: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketinsight",
			Name:      "provider_call_duration_seconds",
			Help:      "AI provider call latency by intent and outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"intent", "outcome"}),
	}
	for _, c := range []prometheus.Collector{
		p.events,
		p.provider,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("telemetry: register collector: %w", err)
		}
	}
	return p, nil
}

// Record implements Recorder. Provider events carrying duration_ms feed the latency histogram.
func (p *Prometheus) Record(_ context.Context, event string, payload map[string]any) {
	p.events.WithLabelValues(event).Inc()
	if !strings.HasPrefix(event, "insights.intent.") {
		return
	}
	ms, ok := payload["duration_ms"].(int64)
	if !ok {
		return
	}
	intent, _ := payload["intent"].(string)
	outcome := strings.TrimPrefix(event, "insights.intent.")
	p.provider.WithLabelValues(intent, outcome).Observe(float64(ms) / 1000)
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
