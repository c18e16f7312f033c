package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/TrashScientist/contract-features/domain"
)

const meterName = "github.com/TrashScientist/contract-features"

// Metrics holds the feature counters. It satisfies service.Recorder.
type Metrics struct {
	calculated     metric.Int64Counter
	sentinels      metric.Int64Counter
	decodeFailures metric.Int64Counter
	batchFailures  metric.Int64Counter
	rateLimited    metric.Int64Counter
}

// NewMetrics registers the counters on the given provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	calculated, err := meter.Int64Counter("features_calculated_total",
		metric.WithDescription("Feature records produced"))
	if err != nil {
		return nil, err
	}
	sentinels, err := meter.Int64Counter("feature_sentinel_total",
		metric.WithDescription("Features reported as a sentinel value"))
	if err != nil {
		return nil, err
	}
	decodeFailures, err := meter.Int64Counter("contracts_decode_failures_total",
		metric.WithDescription("Contract lists that could not be decoded"))
	if err != nil {
		return nil, err
	}
	batchFailures, err := meter.Int64Counter("batch_rows_failed_total",
		metric.WithDescription("CSV rows replaced by the sentinel triple"))
	if err != nil {
		return nil, err
	}
	rateLimited, err := meter.Int64Counter("http_rate_limited_total",
		metric.WithDescription("Requests rejected by the rate limiter"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		calculated:     calculated,
		sentinels:      sentinels,
		decodeFailures: decodeFailures,
		batchFailures:  batchFailures,
		rateLimited:    rateLimited,
	}, nil
}

func (m *Metrics) FeaturesCalculated(ctx context.Context, result domain.FeatureResult) {
	m.calculated.Add(ctx, 1)

	if result.TotClaimCntL180d == domain.NoClaimsSentinel {
		m.sentinels.Add(ctx, 1, metric.WithAttributes(attribute.String("feature", "tot_claim_cnt_l180d")))
	}
	if result.DisbBankLoanWoTBC == domain.NoLoanSumSentinel {
		m.sentinels.Add(ctx, 1, metric.WithAttributes(attribute.String("feature", "disb_bank_loan_wo_tbc")))
	}
	if result.DaySinceLastLoan == domain.NoLastLoanSentinel {
		m.sentinels.Add(ctx, 1, metric.WithAttributes(attribute.String("feature", "day_sinlastloan")))
	}
}

func (m *Metrics) ContractsRejected(ctx context.Context) {
	m.decodeFailures.Add(ctx, 1)
}

func (m *Metrics) BatchRowFailed(ctx context.Context) {
	m.batchFailures.Add(ctx, 1)
}

func (m *Metrics) RateLimited(ctx context.Context) {
	m.rateLimited.Add(ctx, 1)
}
