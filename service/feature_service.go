package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TrashScientist/contract-features/domain"
)

var ErrBatchTooLarge = errors.New("batch exceeds the maximum number of applications")

// Recorder receives the outcome of every feature calculation.
type Recorder interface {
	FeaturesCalculated(ctx context.Context, result domain.FeatureResult)
	ContractsRejected(ctx context.Context)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) FeaturesCalculated(context.Context, domain.FeatureResult) {}
func (NopRecorder) ContractsRejected(context.Context)                        {}

type FeatureService struct {
	recorder     Recorder
	logger       *slog.Logger
	now          func() time.Time
	maxBatchSize int
}

type Option func(*FeatureService)

// WithClock replaces the clock used when the application date is unusable.
func WithClock(now func() time.Time) Option {
	return func(s *FeatureService) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *FeatureService) { s.logger = logger }
}

func WithMaxBatchSize(n int) Option {
	return func(s *FeatureService) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// NewFeatureService creates a new FeatureService reporting to the given recorder.
func NewFeatureService(recorder Recorder, opts ...Option) *FeatureService {
	s := &FeatureService{
		recorder:     recorder,
		logger:       slog.Default(),
		now:          time.Now,
		maxBatchSize: DefaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateFeatures derives the three contract features for one applicant.
// Dirty contract content never fails the call; it degrades to skipped
// entries or sentinel values.
func (s *FeatureService) CalculateFeatures(
	ctx context.Context,
	req domain.ApplicationRequest,
) domain.FeatureResult {

	appDate, ok := parseApplicationDate(req.ApplicationDate)
	if !ok {
		s.logger.Debug("unparseable application date, using current time",
			"id", req.ID, "application_date", req.ApplicationDate)
		appDate = naive(s.now())
	}

	contracts, err := parseContracts(req.Contracts)
	if err != nil {
		s.logger.Warn("error parsing contracts JSON", "id", req.ID, "error", err)
		s.recorder.ContractsRejected(ctx)
	}

	result := domain.SentinelResult(req.ID)
	if len(contracts) > 0 {
		result.TotClaimCntL180d = recentClaims(contracts, appDate)
		result.DisbBankLoanWoTBC = disbursedLoanSum(contracts)
		result.DaySinceLastLoan = daysSinceLastLoan(contracts, appDate)
	}

	s.recorder.FeaturesCalculated(ctx, result)
	return result
}

// CalculateBatch applies CalculateFeatures to every request, preserving order.
func (s *FeatureService) CalculateBatch(
	ctx context.Context,
	reqs []domain.ApplicationRequest,
) ([]domain.FeatureResult, error) {

	if len(reqs) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrBatchTooLarge, len(reqs), s.maxBatchSize)
	}

	results := make([]domain.FeatureResult, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, s.CalculateFeatures(ctx, req))
	}
	return results, nil
}
