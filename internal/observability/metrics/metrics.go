package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the OTLP meter provider.
type Config struct {
	// Exporter is "otlp" to push metrics; anything else installs a noop provider.
	Exporter         string
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics holds the document lifecycle instruments.
type Metrics struct {
	invoicesCreated    metric.Int64Counter
	invoiceTransitions metric.Int64Counter
	invoiceValue       metric.Int64Histogram
	ewayGenerated      metric.Int64Counter
	ewayTransitions    metric.Int64Counter
}

func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !strings.EqualFold(strings.TrimSpace(cfg.Exporter), "otlp") {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}
	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "gstbook"
	}
	meter := provider.Meter(name)

	invoicesCreated, err := meter.Int64Counter("gstbook_invoices_created_total")
	if err != nil {
		return nil, err
	}
	invoiceTransitions, err := meter.Int64Counter("gstbook_invoice_status_transitions_total")
	if err != nil {
		return nil, err
	}
	invoiceValue, err := meter.Int64Histogram("gstbook_invoice_total_paise",
		metric.WithUnit("paise"),
		metric.WithExplicitBucketBoundaries(1_00_000, 10_00_000, 50_00_000, 1_00_00_000, 10_00_00_000),
	)
	if err != nil {
		return nil, err
	}
	ewayGenerated, err := meter.Int64Counter("gstbook_eway_bills_generated_total")
	if err != nil {
		return nil, err
	}
	ewayTransitions, err := meter.Int64Counter("gstbook_eway_bill_status_transitions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invoicesCreated:    invoicesCreated,
		invoiceTransitions: invoiceTransitions,
		invoiceValue:       invoiceValue,
		ewayGenerated:      ewayGenerated,
		ewayTransitions:    ewayTransitions,
	}, nil
}

// RecordInvoiceCreated is safe on a nil receiver so services can run without metrics.
func (m *Metrics) RecordInvoiceCreated(ctx context.Context, gstType string, total int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(FilterAttributes(attribute.String("gst_type", gstType))...)
	m.invoicesCreated.Add(ctx, 1, attrs)
	m.invoiceValue.Record(ctx, total, attrs)
}

func (m *Metrics) RecordInvoiceTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.invoiceTransitions.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	)...))
}

func (m *Metrics) RecordEwayBillGenerated(ctx context.Context, transportMode string) {
	if m == nil {
		return
	}
	m.ewayGenerated.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("transport_mode", transportMode),
	)...))
}

func (m *Metrics) RecordEwayBillTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.ewayTransitions.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"gst_type":       {},
	"from":           {},
	"to":             {},
	"transport_mode": {},
	"route":          {},
	"status_code":    {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
