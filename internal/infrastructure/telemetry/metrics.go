package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// metricsExportInterval is how often accumulated metrics are pushed to
// the collector.
const metricsExportInterval = 60 * time.Second

// MeterProvider wraps the SDK meter provider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	config   Config
}

// NewMeterProvider creates and registers the global meter provider.
func NewMeterProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger, config: cfg}

	if !cfg.Enabled {
		logger.Info("telemetry disabled, using no-op meter provider")
		return mp, nil
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(metricsExportInterval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("meter provider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.String("service_name", cfg.ServiceName))
	return mp, nil
}

// Shutdown flushes pending metrics. Safe to call when disabled.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name)
	}
	return mp.provider.Meter(name)
}

// ShippingMetrics tracks quote and label purchase activity. A nil
// receiver records nothing, so services carry it as an optional
// collaborator.
type ShippingMetrics struct {
	quotesTotal    metric.Int64Counter
	labelsTotal    metric.Int64Counter
	purchaseErrors metric.Int64Counter
}

// NewShippingMetrics registers the engine's business counters on the
// given meter.
func NewShippingMetrics(meter metric.Meter) (*ShippingMetrics, error) {
	quotes, err := meter.Int64Counter("shipping_quotes_total",
		metric.WithDescription("Quotes served, by cache source"),
		metric.WithUnit("{quote}"))
	if err != nil {
		return nil, fmt.Errorf("create quotes counter: %w", err)
	}
	labels, err := meter.Int64Counter("shipping_labels_purchased_total",
		metric.WithDescription("Labels purchased, by carrier"),
		metric.WithUnit("{label}"))
	if err != nil {
		return nil, fmt.Errorf("create labels counter: %w", err)
	}
	failures, err := meter.Int64Counter("shipping_label_purchase_failures_total",
		metric.WithDescription("Label purchase attempts that failed before completion"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, fmt.Errorf("create purchase failures counter: %w", err)
	}
	return &ShippingMetrics{
		quotesTotal:    quotes,
		labelsTotal:    labels,
		purchaseErrors: failures,
	}, nil
}

// RecordQuote counts a served quote with its cache source.
func (m *ShippingMetrics) RecordQuote(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.quotesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordLabelPurchase counts a completed label purchase.
func (m *ShippingMetrics) RecordLabelPurchase(ctx context.Context, carrier string) {
	if m == nil {
		return
	}
	m.labelsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("carrier", carrier)))
}

// RecordPurchaseFailure counts a failed purchase attempt.
func (m *ShippingMetrics) RecordPurchaseFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.purchaseErrors.Add(ctx, 1)
}
