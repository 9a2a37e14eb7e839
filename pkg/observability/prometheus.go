package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// TextfileExporter collects OTel instruments into a private Prometheus
// registry that can be dumped in the text exposition format, e.g. for the
// node_exporter textfile collector.
type TextfileExporter struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
}

// NewTextfileExporter creates an exporter with its own registry.
func NewTextfileExporter() (*TextfileExporter, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &TextfileExporter{
		registry: registry,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
	}, nil
}

// Meter returns a meter whose instruments land in the registry.
func (e *TextfileExporter) Meter() metric.Meter {
	return e.provider.Meter(meterName)
}

// WriteFile atomically writes the registry contents to path.
func (e *TextfileExporter) WriteFile(path string) error {
	err := prometheus.WriteToTextfile(path, e.registry)
	if err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}

	return nil
}

// Shutdown releases the meter provider.
func (e *TextfileExporter) Shutdown(ctx context.Context) error {
	err := e.provider.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown metrics: %w", err)
	}

	return nil
}
