package metrics

import (
	"context"
	"fmt"
	"net/http"
	"reflect"

	prometheus2 "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// DefaultEndpoint is the path the exposition handler is usually mounted on
const DefaultEndpoint = "/metrics"

// Metrics holds the meter of the process and the handler exposing its readings
type Metrics struct {
	Meter    api.Meter
	provider *metric.MeterProvider
	registry *prometheus2.Registry
}

// New initializes an OpenTelemetry meter backed by a Prometheus registry of its own
func New() (*Metrics, error) {
	registry := prometheus2.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))

	pkg := reflect.TypeOf(Metrics{}).PkgPath()
	return &Metrics{
		Meter:    provider.Meter(pkg),
		provider: provider,
		registry: registry,
	}, nil
}

// Handler returns the Prometheus exposition handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Shutdown flushes and stops the meter provider
func (m *Metrics) Shutdown(ctx context.Context) error {
	if err := m.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider: %w", err)
	}
	return nil
}
