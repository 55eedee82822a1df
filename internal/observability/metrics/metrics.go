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

// Generator labels.
const (
	GeneratorTemplate = "template"
	GeneratorTotals   = "totals"
)

// Outcome labels.
const (
	OutcomeSuccess         = "success"
	OutcomeUnbalanced      = "unbalanced"
	OutcomeMissingTemplate = "missing_template"
	OutcomeMissingAccount  = "missing_account"
	OutcomeError           = "error"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	taxCalculations metric.Int64Counter
	transactions    metric.Int64Counter
	ledgerEntries   metric.Int64Counter
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
		name = "taxledger"
	}
	meter := provider.Meter(name)

	taxCalculations, err := meter.Int64Counter("taxledger_tax_calculations_total")
	if err != nil {
		return nil, err
	}
	transactions, err := meter.Int64Counter("taxledger_transactions_total")
	if err != nil {
		return nil, err
	}
	ledgerEntries, err := meter.Int64Counter("taxledger_ledger_entries_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		taxCalculations: taxCalculations,
		transactions:    transactions,
		ledgerEntries:   ledgerEntries,
	}, nil
}

// RecordTaxCalculation increments tax calculation counts.
func (m *Metrics) RecordTaxCalculation(ctx context.Context, documentType, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("document_type", strings.TrimSpace(documentType)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.taxCalculations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTransaction increments generated transaction counts and, on
// success, the number of ledger entries produced.
func (m *Metrics) RecordTransaction(ctx context.Context, generator, documentType, outcome string, entries int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("generator", strings.TrimSpace(generator)),
		attribute.String("document_type", strings.TrimSpace(documentType)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.transactions.Add(ctx, 1, metric.WithAttributes(attrs...))
	if entries > 0 {
		m.ledgerEntries.Add(ctx, int64(entries), metric.WithAttributes(attrs...))
	}
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
	"generator":     {},
	"document_type": {},
	"outcome":       {},
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
