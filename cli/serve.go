package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	httpLayer "github.com/TrashScientist/contract-features/http"
	"github.com/TrashScientist/contract-features/repository"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feature API server",
	Long: `Start the HTTP API.

Examples:
  contract-features serve
  contract-features serve --host 127.0.0.1 --port 9000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "server host (overrides server.addr)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	addr, err := listenAddr(a.cfg.Server.Addr, serveHost, servePort)
	if err != nil {
		return err
	}

	var limiter *httpLayer.RateLimiter
	if a.cfg.RateLimit.Enabled {
		limiter = httpLayer.NewRateLimiter(newRateLimitStore(cmd.Context(), a), a.metrics, a.logger)
		defer limiter.Stop()
	}

	router := httpLayer.NewRouter(httpLayer.RouterConfig{
		Features: httpLayer.NewFeatureHandler(a.features, a.logger),
		System:   httpLayer.NewSystemHandler(a.cfg.Version, a.cfg.Environment, a.logger),
		Limiter:  limiter,
		Logger:   a.logger,
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", "addr", addr, "environment", a.cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("error starting server: %w", err)
	case <-quit:
		a.logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	a.logger.Info("server exited")
	return nil
}

// listenAddr applies the --host/--port overrides to the configured address.
func listenAddr(configured, host string, port int) (string, error) {
	if host == "" && port == 0 {
		return configured, nil
	}

	cfgHost, cfgPort, err := net.SplitHostPort(configured)
	if err != nil {
		return "", fmt.Errorf("invalid server.addr %q: %w", configured, err)
	}
	if host != "" {
		cfgHost = host
	}
	if port != 0 {
		cfgPort = strconv.Itoa(port)
	}
	return net.JoinHostPort(cfgHost, cfgPort), nil
}

func newRateLimitStore(ctx context.Context, a *app) repository.RateLimitStore {
	rl := a.cfg.RateLimit
	if rl.Backend != "redis" {
		return repository.NewMemoryRateLimitStore(rl.Capacity, rl.Window)
	}

	store := repository.NewRedisRateLimitStore(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}, rl.Capacity, rl.Window)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		a.logger.Warn("redis unreachable, rate limiting will fail open", "addr", a.cfg.Redis.Addr, "error", err)
	}
	return store
}
