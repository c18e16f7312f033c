package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/TrashScientist/contract-features/config"
	"github.com/TrashScientist/contract-features/logging"
	"github.com/TrashScientist/contract-features/service"
	"github.com/TrashScientist/contract-features/telemetry"
)

// app is the wiring shared by serve and process.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	features *service.FeatureService
	shutdown func(context.Context) error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Metrics.ServiceName, cfg.Log.Level, cfg.Log.Format, os.Stdout)

	provider, shutdown := telemetry.Init(ctx, telemetry.Options{
		Enabled:     cfg.Metrics.Enabled,
		Endpoint:    cfg.Metrics.OTLPEndpoint,
		Interval:    cfg.Metrics.Interval,
		ServiceName: cfg.Metrics.ServiceName,
		Environment: cfg.Environment,
	})
	metrics, err := telemetry.NewMetrics(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	features := service.NewFeatureService(metrics,
		service.WithLogger(logger),
		service.WithMaxBatchSize(cfg.Batch.MaxRequestItems),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		features: features,
		shutdown: shutdown,
	}, nil
}

func (a *app) close() {
	telemetry.Flush(context.Background(), a.shutdown)
}
