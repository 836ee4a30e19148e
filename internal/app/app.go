package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stake-bet-watcher/internal/config"
	"stake-bet-watcher/internal/currency"
	"stake-bet-watcher/internal/gateway"
	"stake-bet-watcher/internal/metrics"
	"stake-bet-watcher/internal/report"
	"stake-bet-watcher/internal/seen"
	"stake-bet-watcher/internal/stake"
	"stake-bet-watcher/internal/watcher"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives report lines and tables; logs never go here.
	Out io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

// RunOptions carry the effective threshold and cadence after CLI overrides.
type RunOptions struct {
	MinUSD   float64
	Interval time.Duration
}

func (a *App) newStakeClient() *stake.Client {
	cfg := a.Config.Stake
	gw := gateway.New(gateway.Options{
		Endpoint:    cfg.Endpoint,
		Referer:     cfg.Referer,
		Origin:      cfg.Origin,
		UserAgent:   cfg.UserAgent,
		AccessToken: cfg.AccessToken,
		Timeout:     cfg.RequestTimeout,
		Retry:       gateway.PolicyFor(cfg.MaxRetries, cfg.RetryBackoff),
	}, a.Logger)
	if gw.Anonymous() {
		a.Logger.Warn().Msg("STAKE_API_TOKEN not set; sending anonymous requests")
	}
	return stake.New(gw, a.Logger)
}

func (a *App) openTracker(ctx context.Context, interval time.Duration) (seen.Tracker, error) {
	if a.Config.Seen.Backend != config.BackendRedis {
		return seen.NewMemoryTracker(), nil
	}
	cfg := a.Config.Seen
	tracker, err := seen.NewRedisTracker(ctx, seen.RedisOptions{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: cfg.KeyPrefix,
		TTL:       2*(interval+a.Config.Watcher.Lookback) + time.Minute,
	})
	if err != nil {
		return nil, err
	}
	a.Logger.Info().Str("key", tracker.Key()).Msg("tracking seen bets in redis")
	return tracker, nil
}

// Run executes the polling loop until SIGINT/SIGTERM. The cycle in progress
// when the signal arrives is allowed to finish.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if math.IsNaN(opts.MinUSD) || math.IsInf(opts.MinUSD, 0) {
		return fmt.Errorf("--min-usd-amount must be a finite number")
	}
	if opts.MinUSD < 0 {
		return fmt.Errorf("--min-usd-amount cannot be negative")
	}
	if opts.Interval <= 0 {
		return fmt.Errorf("--interval must be greater than zero")
	}

	tracker, err := a.openTracker(ctx, opts.Interval)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close seen tracker")
		}
	}()

	var (
		registry *prometheus.Registry
		m        *metrics.Metrics
	)
	if a.Config.Metrics.ListenAddr != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(registry)
	}

	client := a.newStakeClient()
	w, err := watcher.New(watcher.Options{
		MinUSD:          decimal.NewFromFloat(opts.MinUSD),
		Interval:        opts.Interval,
		PageSize:        a.Config.Watcher.PageSize,
		Lookback:        a.Config.Watcher.Lookback,
		StartupDelay:    a.Config.Watcher.StartupDelay,
		AlignToInterval: a.Config.Watcher.AlignToInterval,
	}, currency.NewNormalizer(client, a.Logger), client, tracker, report.NewConsoleReporter(a.Out), m, a.Logger)
	if err != nil {
		return err
	}

	if registry != nil {
		srv := metrics.StartServer(a.Config.Metrics.ListenAddr, metrics.NewHandler(registry, w.Healthy), a.Logger)
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Warn().Err(err).Msg("metrics server shutdown failed")
			}
		}()
	}

	if err := w.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		a.Logger.Info().Msg("shutdown requested; waiting for current cycle")
		w.Stop()
		<-w.Done()
	case <-w.Done():
	}
	return nil
}
