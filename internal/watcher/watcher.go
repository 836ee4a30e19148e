package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stake-bet-watcher/internal/currency"
	"stake-bet-watcher/internal/metrics"
	"stake-bet-watcher/internal/report"
	"stake-bet-watcher/internal/scheduler"
	"stake-bet-watcher/internal/seen"
	"stake-bet-watcher/internal/stake"
)

// DefaultPageSize is the number of bets requested per cycle.
const DefaultPageSize = stake.MaxPageSize

// HighValueThreshold is the minimum USD amount from which the curated
// high-value feed is used instead of the general feed.
var HighValueThreshold = decimal.NewFromInt(1000)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("watcher already started")

// RateFetcher supplies the USD conversion table for a cycle.
type RateFetcher interface {
	FetchRates(ctx context.Context) (currency.RateTable, error)
}

// FeedFetcher supplies one page of a bet feed.
type FeedFetcher interface {
	Bets(ctx context.Context, kind stake.FeedKind, limit int) (stake.Feed, error)
}

// State is the lifecycle state of a Watcher.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "idle"
	}
}

// Options configure the polling loop.
type Options struct {
	MinUSD   decimal.Decimal
	Interval time.Duration
	PageSize int
	// Lookback extends how long a bet id stays known after the cycle that last
	// saw it. Zero keeps exactly the previous cycle's ids.
	Lookback time.Duration
	// StartupDelay postpones the first cycle.
	StartupDelay time.Duration
	// AlignToInterval schedules cycles after the first on wall-clock
	// multiples of Interval.
	AlignToInterval bool
}

// Validate checks option bounds.
func (o Options) Validate() error {
	if o.MinUSD.IsNegative() {
		return fmt.Errorf("minimum usd amount cannot be negative")
	}
	if o.Interval <= 0 {
		return fmt.Errorf("poll interval must be greater than zero")
	}
	if o.PageSize < 0 || o.PageSize > stake.MaxPageSize {
		return fmt.Errorf("page size must be within 1..%d", stake.MaxPageSize)
	}
	if o.Lookback < 0 {
		return fmt.Errorf("lookback cannot be negative")
	}
	if o.StartupDelay < 0 {
		return fmt.Errorf("startup delay cannot be negative")
	}
	return nil
}

// CycleResult summarises one RunCycle.
type CycleResult struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Feed     stake.FeedKind
	Fetched  int
	Reported int
	Skipped  map[string]int
}

func (r *CycleResult) skip(reason string, m *metrics.Metrics) {
	r.Skipped[reason]++
	m.BetSkipped(reason)
}

// SelectFeed picks the general feed below HighValueThreshold and the
// high-value feed from it upwards.
func SelectFeed(minUSD decimal.Decimal) stake.FeedKind {
	if minUSD.LessThan(HighValueThreshold) {
		return stake.FeedGeneral
	}
	return stake.FeedHighroller
}

// Watcher polls the bet feeds and reports new high-value bets.
type Watcher struct {
	opts     Options
	rates    RateFetcher
	feeds    FeedFetcher
	tracker  seen.Tracker
	reporter report.Reporter
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	state   State
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	failures atomic.Int32
}

// New constructs a Watcher. A nil tracker falls back to an in-memory one.
func New(opts Options, rates RateFetcher, feeds FeedFetcher, tracker seen.Tracker, reporter report.Reporter, m *metrics.Metrics, logger zerolog.Logger) (*Watcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if rates == nil || feeds == nil || reporter == nil {
		return nil, fmt.Errorf("watcher requires a rate fetcher, a feed fetcher and a reporter")
	}
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if tracker == nil {
		tracker = seen.NewMemoryTracker()
	}

	return &Watcher{
		opts:     opts,
		rates:    rates,
		feeds:    feeds,
		tracker:  tracker,
		reporter: reporter,
		metrics:  m,
		logger:   logger.With().Str("component", "watcher").Logger(),
		now:      time.Now,
		done:     make(chan struct{}),
	}, nil
}

// Start launches the polling loop and returns immediately. The first cycle
// runs after StartupDelay, then once per interval.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}
	w.started = true

	sched := scheduler.New(scheduler.Options{
		Interval:     w.opts.Interval,
		AlignToStart: w.opts.AlignToInterval,
		StartupDelay: w.opts.StartupDelay,
		Immediate:    true,
	}, w.logger)

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.state = StateRunning

	feed := SelectFeed(w.opts.MinUSD)
	w.logger.Info().
		Str("min_usd", w.opts.MinUSD.String()).
		Dur("interval", w.opts.Interval).
		Str("feed", string(feed)).
		Msg("watcher started")

	go func() {
		defer close(w.done)
		defer cancel()
		err := sched.Run(loopCtx, w.tick)
		w.mu.Lock()
		w.state = StateIdle
		w.mu.Unlock()
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error().Err(err).Msg("watcher loop ended with error")
			return
		}
		w.logger.Info().Msg("watcher stopped")
	}()
	return nil
}

// Stop asks the loop to exit after the cycle in progress, if any. It does not
// wait; use Done for that. Calling Stop more than once is harmless.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateRunning {
		return
	}
	w.state = StateStopping
	w.cancel()
}

// Done is closed once a started loop has exited.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// State reports the current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Healthy fails when the loop is not running or the last three cycles failed.
func (w *Watcher) Healthy(ctx context.Context) error {
	if st := w.State(); st != StateRunning {
		return fmt.Errorf("watcher is %s", st)
	}
	if n := w.failures.Load(); n >= 3 {
		return fmt.Errorf("%d consecutive cycles failed", n)
	}
	return nil
}

func (w *Watcher) tick(ctx context.Context, _ time.Time) error {
	_, err := w.RunCycle(ctx)
	return err
}

// RunCycle performs one fetch-diff-filter-report pass. Any fetch or tracker
// error aborts the cycle and is returned; per-bet problems only skip that bet.
func (w *Watcher) RunCycle(ctx context.Context) (CycleResult, error) {
	res := CycleResult{
		ID:      uuid.NewString(),
		Started: w.now(),
		Skipped: map[string]int{},
	}
	log := w.logger.With().Str("cycle_id", res.ID).Logger()

	if err := w.runCycle(ctx, &res, log); err != nil {
		w.failures.Add(1)
		w.metrics.CycleDone(metrics.ResultFailed)
		return res, fmt.Errorf("cycle %s: %w", res.ID, err)
	}

	w.failures.Store(0)
	w.metrics.CycleDone(metrics.ResultOK)
	res.Duration = w.now().Sub(res.Started)
	log.Info().
		Str("feed", string(res.Feed)).
		Int("fetched", res.Fetched).
		Int("reported", res.Reported).
		Interface("skipped", res.Skipped).
		Dur("duration", res.Duration).
		Msg("cycle complete")
	return res, nil
}

func (w *Watcher) runCycle(ctx context.Context, res *CycleResult, log zerolog.Logger) error {
	if err := w.tracker.Touch(ctx); err != nil {
		return fmt.Errorf("touch seen: %w", err)
	}

	rates, err := w.rates.FetchRates(ctx)
	if err != nil {
		return err
	}

	res.Feed = SelectFeed(w.opts.MinUSD)
	feed, err := w.feeds.Bets(ctx, res.Feed, w.opts.PageSize)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", res.Feed, err)
	}
	res.Fetched = len(feed.Bets) + len(feed.Rejected)
	w.metrics.BetsFetched(string(res.Feed), res.Fetched)

	for _, rejected := range feed.Rejected {
		log.Warn().Err(rejected).Msg("skipping malformed bet")
		if rejected.IID != "" {
			if err := w.tracker.MarkSeen(ctx, rejected.IID, res.Started); err != nil {
				return fmt.Errorf("mark seen: %w", err)
			}
		}
		res.skip(metrics.ReasonMalformed, w.metrics)
	}

	for _, bet := range feed.Bets {
		already, err := w.tracker.HasSeen(ctx, bet.IID)
		if err != nil {
			return fmt.Errorf("check seen: %w", err)
		}
		if err := w.tracker.MarkSeen(ctx, bet.IID, res.Started); err != nil {
			return fmt.Errorf("mark seen: %w", err)
		}
		if already {
			res.skip(metrics.ReasonSeen, w.metrics)
			continue
		}

		usd, ok := rates.ToUSD(bet.Amount, bet.Currency)
		if !ok {
			log.Debug().Err(&stake.DataShapeError{IID: bet.IID, Field: "currency", Reason: "no conversion rate for " + bet.Currency}).
				Msg("skipping bet")
			res.skip(metrics.ReasonNoRate, w.metrics)
			continue
		}
		if usd.LessThan(w.opts.MinUSD) {
			res.skip(metrics.ReasonBelowMin, w.metrics)
			continue
		}
		if len(bet.Legs) == 0 {
			log.Debug().Str("iid", bet.IID).Str("kind", bet.Kind.String()).Msg("skipping bet without legs")
			res.skip(metrics.ReasonNoLegs, w.metrics)
			continue
		}

		if err := w.reporter.Report(ctx, report.NewRecord(bet, usd)); err != nil {
			log.Error().Err(err).Str("iid", bet.IID).Msg("failed to report bet")
			continue
		}
		res.Reported++
		w.metrics.BetReported()
	}

	if err := w.tracker.EvictOlderThan(ctx, res.Started.Add(-w.opts.Lookback)); err != nil {
		return fmt.Errorf("evict seen: %w", err)
	}
	if n, err := w.tracker.Len(ctx); err == nil {
		w.metrics.SetTracked(n)
	}
	return nil
}
