package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "site-verify"

var (
	metricsOnce     sync.Once
	repositoryOps   metric.Int64Counter
	confirmOutcomes metric.Int64Counter
	grantDeliveries metric.Int64Counter
	proxyVerdicts   metric.Int64Counter
)

func initMetrics() {
	meter := otel.Meter(meterName)
	repositoryOps, _ = meter.Int64Counter("repository_operations_total",
		metric.WithDescription("Repository operations by entity, operation and outcome"))
	confirmOutcomes, _ = meter.Int64Counter("verification_confirm_total",
		metric.WithDescription("Confirm calls by result code"))
	grantDeliveries, _ = meter.Int64Counter("grant_deliveries_total",
		metric.WithDescription("Grant notifications by outcome"))
	proxyVerdicts, _ = meter.Int64Counter("proxy_verdicts_total",
		metric.WithDescription("Proxy detector verdicts"))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	metricsOnce.Do(initMetrics)
	repositoryOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordConfirmOutcome(ctx context.Context, code string) {
	metricsOnce.Do(initMetrics)
	confirmOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

func RecordGrantDelivery(ctx context.Context, outcome string) {
	metricsOnce.Do(initMetrics)
	grantDeliveries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordProxyVerdict(ctx context.Context, suspicious bool) {
	metricsOnce.Do(initMetrics)
	proxyVerdicts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("suspicious", suspicious)))
}
