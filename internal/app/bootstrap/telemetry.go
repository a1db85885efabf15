package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/MrEthical07/pinauth"
	otelexp "github.com/MrEthical07/pinauth/metrics/export/otel"
)

const meterName = "github.com/MrEthical07/pinauth"

// otelMetrics owns the MeterProvider and the engine exporter registered on it.
type otelMetrics struct {
	provider *sdkmetric.MeterProvider
	exporter *otelexp.OTelExporter
}

// startOTelMetrics pushes engine metrics to an OTLP/gRPC collector on the
// configured interval.
func startOTelMetrics(ctx context.Context, cfg Config, engine *pinauth.Engine) (*otelMetrics, error) {
	opts := []otlpmetricgrpc.Option{}
	if cfg.OTelEndpoint != "" {
		opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.OTelEndpoint))
	}
	if cfg.OTelInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTelExportInterval))
	return newOTelMetrics(cfg.ServiceID, reader, engine)
}

func newOTelMetrics(serviceID string, reader sdkmetric.Reader, engine *pinauth.Engine) (*otelMetrics, error) {
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceID))),
	)
	exporter, err := otelexp.NewOTelExporter(provider.Meter(meterName), engine, otelexp.Options{ServiceID: serviceID})
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	return &otelMetrics{provider: provider, exporter: exporter}, nil
}

// Shutdown flushes the last collection before the engine goes away.
func (m *otelMetrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return errors.Join(m.exporter.Close(), m.provider.Shutdown(ctx))
}
