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

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes brokerage business instruments.
type Metrics struct {
	quotationsCreated   metric.Int64Counter
	underwritingWarns   metric.Int64Counter
	policiesIssued      metric.Int64Counter
	paymentsRegistered  metric.Int64Counter
	installmentsOverdue metric.Int64Counter
	policiesCancelled   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "brokerage"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	counters := []struct {
		target *metric.Int64Counter
		name   string
	}{
		{&m.quotationsCreated, "brokerage_quotations_created_total"},
		{&m.underwritingWarns, "brokerage_underwriting_warnings_total"},
		{&m.policiesIssued, "brokerage_policies_created_total"},
		{&m.paymentsRegistered, "brokerage_installment_payments_total"},
		{&m.installmentsOverdue, "brokerage_installments_overdue_total"},
		{&m.policiesCancelled, "brokerage_policy_cancellations_total"},
	}
	for _, c := range counters {
		*c.target, err = meter.Int64Counter(c.name)
		if err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// RecordQuotationCreated counts a stored quotation by asset kind.
func (m *Metrics) RecordQuotationCreated(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.quotationsCreated.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("asset_kind", strings.TrimSpace(kind)),
	)...))
}

// RecordUnderwritingWarning counts advisory warnings raised at quotation time.
func (m *Metrics) RecordUnderwritingWarning(ctx context.Context, kind, code string) {
	if m == nil {
		return
	}
	m.underwritingWarns.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("asset_kind", strings.TrimSpace(kind)),
		attribute.String("reason", strings.TrimSpace(code)),
	)...))
}

func (m *Metrics) RecordPolicyIssued(ctx context.Context, frequency string) {
	if m == nil {
		return
	}
	m.policiesIssued.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("frequency", strings.TrimSpace(frequency)),
	)...))
}

func (m *Metrics) RecordPaymentRegistered(ctx context.Context, medium string) {
	if m == nil {
		return
	}
	m.paymentsRegistered.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("payment_medium", strings.TrimSpace(medium)),
	)...))
}

func (m *Metrics) RecordInstallmentsOverdue(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.installmentsOverdue.Add(ctx, int64(count))
}

func (m *Metrics) RecordPolicyCancelled(ctx context.Context) {
	if m == nil {
		return
	}
	m.policiesCancelled.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
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
	"asset_kind":     {},
	"frequency":      {},
	"payment_medium": {},
	"route":          {},
	"method":         {},
	"status_code":    {},
	"reason":         {},
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
