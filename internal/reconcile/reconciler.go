package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Fetch performs one balance refresh.
type Fetch func(ctx context.Context) error

// Reconciler runs best-effort balance refreshes, decoupled from the
// broadcaster's lifecycle. Triggers are debounced: while one reconciliation
// is in flight or queued, additional triggers collapse into it.
type Reconciler struct {
	fetch Fetch
	log   zerolog.Logger
	kick  chan string

	heartbeat      time.Duration
	initialBackoff time.Duration
	maxBackoff     time.Duration
	maxAttempts    int
}

// New creates a reconciler with the standard schedule: 30s heartbeat and a
// retry ladder of 3s doubling up to 60s, abandoning after 6 attempts.
func New(fetch Fetch, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		fetch:          fetch,
		log:            log.With().Str("component", "reconciler").Logger(),
		kick:           make(chan string, 1),
		heartbeat:      30 * time.Second,
		initialBackoff: 3 * time.Second,
		maxBackoff:     60 * time.Second,
		maxAttempts:    6,
	}
}

// Trigger requests a reconciliation. It never blocks; a trigger arriving
// while one is already queued is dropped, collapsing concurrent triggers
// into a single refresh.
func (r *Reconciler) Trigger(reason string) {
	select {
	case r.kick <- reason:
	default:
	}
}

// Run services triggers and the fixed-interval heartbeat until ctx is
// cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx, "heartbeat")
		case reason := <-r.kick:
			r.runOnce(ctx, reason)
		}
	}
}

// RunOnce performs a single reconciliation with the retry ladder, outside
// the Run loop. Used by short-lived CLI invocations.
func (r *Reconciler) RunOnce(ctx context.Context, reason string) {
	r.runOnce(ctx, reason)
}

func (r *Reconciler) runOnce(ctx context.Context, reason string) {
	backoff := r.initialBackoff
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := r.fetch(ctx)
		if err == nil {
			r.log.Debug().Str("reason", reason).Int("attempt", attempt).Msg("balances reconciled")
			return
		}
		if ctx.Err() != nil {
			return
		}
		r.log.Debug().Str("reason", reason).Int("attempt", attempt).Err(err).Msg("balance refresh failed")

		if attempt == r.maxAttempts {
			break
		}
		if !sleep(ctx, backoff) {
			return
		}
		backoff *= 2
		if backoff > r.maxBackoff {
			backoff = r.maxBackoff
		}
	}
	// Abandoned: logged, never raised.
	r.log.Warn().Str("reason", reason).Int("attempts", r.maxAttempts).Msg("giving up on balance refresh")
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
