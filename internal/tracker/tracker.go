package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/custodix/walletd/internal/rpcpool"
)

// State of a tracked transaction. Everything but StatePending is terminal.
type State string

const (
	StatePending   State = "pending"
	StateConfirmed State = "confirmed"
	StateReverted  State = "reverted"
	StateDropped   State = "dropped"
	StateReplaced  State = "replaced"
	StateTimedOut  State = "timeout"
)

// Terminal reports whether s is final.
func (s State) Terminal() bool { return s != StatePending }

// Watch identifies a transaction to track. From and Nonce, when known, let
// the tracker tell a replaced transaction apart from a dropped one.
type Watch struct {
	Hash  common.Hash
	From  common.Address
	Nonce *uint64
}

// Record is the tracking result for one hash. It is discarded after being
// reported upward.
type Record struct {
	Hash    common.Hash
	State   State
	Retries uint
}

// Tracker polls for a transaction receipt with exponential backoff and
// bounded retries, then disambiguates the terminal state. Each Track call
// owns its own timers and is independent of the broadcaster's lifetime.
type Tracker struct {
	log zerolog.Logger

	maxAttempts    int
	attemptTimeout func(attempt int) time.Duration
	backoff        func(attempt int) time.Duration
}

// New creates a tracker with the standard schedule: 6 attempts, per-attempt
// timeout 30s + 5s*attempt, backoff 1s * 2^attempt between attempts.
func New(log zerolog.Logger) *Tracker {
	return &Tracker{
		log:            log.With().Str("component", "tracker").Logger(),
		maxAttempts:    6,
		attemptTimeout: func(i int) time.Duration { return 30*time.Second + 5*time.Second*time.Duration(i) },
		backoff:        func(i int) time.Duration { return time.Second << uint(i) },
	}
}

// Track polls until the transaction reaches a terminal state or the retry
// budget is spent. Cancelling ctx stops tracking and returns a pending
// record; the transaction itself is unaffected.
func (t *Tracker) Track(ctx context.Context, b rpcpool.Backend, w Watch) Record {
	rec := Record{Hash: w.Hash, State: StatePending}

	for attempt := 0; attempt < t.maxAttempts; attempt++ {
		rec.Retries = uint(attempt)

		attemptCtx, cancel := context.WithTimeout(ctx, t.attemptTimeout(attempt))
		receipt, err := b.TransactionReceipt(attemptCtx, w.Hash)
		cancel()

		if err == nil && receipt != nil {
			if receipt.Status == 1 {
				rec.State = StateConfirmed
			} else {
				// Reverts are final, not transient: no further polling.
				rec.State = StateReverted
			}
			return rec
		}

		if ctx.Err() != nil {
			return rec
		}

		t.log.Debug().Str("tx", w.Hash.Hex()).Int("attempt", attempt).Err(err).Msg("receipt not available yet")

		if !t.sleep(ctx, t.backoff(attempt)) {
			return rec
		}
	}

	rec.Retries = uint(t.maxAttempts)
	rec.State = t.disambiguate(ctx, b, w)
	t.log.Info().Str("tx", w.Hash.Hex()).Str("state", string(rec.State)).Msg("tracking exhausted")
	return rec
}

// disambiguate decides between dropped, replaced and plain timeout once the
// receipt retry budget is spent. A transaction absent from the node whose
// nonce slot has since been consumed was replaced; absent with the slot
// still open, it was dropped; still sitting in the mempool, we simply timed
// out and the caller should surface "pending, check explorer". Dropped and
// replaced both require the node to positively answer that the transaction
// is gone: a failed lookup proves nothing, so it stays a timeout.
func (t *Tracker) disambiguate(ctx context.Context, b rpcpool.Backend, w Watch) State {
	lookupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, pending, err := b.TransactionByHash(lookupCtx, w.Hash)
	if err != nil && !errors.Is(err, ethereum.NotFound) {
		return StateTimedOut
	}
	if err != nil || tx == nil {
		if w.Nonce != nil {
			current, nerr := b.NonceAt(lookupCtx, w.From, nil)
			if nerr != nil {
				return StateTimedOut
			}
			if current > *w.Nonce {
				return StateReplaced
			}
		}
		return StateDropped
	}
	if pending {
		return StateTimedOut
	}

	// Mined between the last poll and the lookup; one final receipt check.
	if receipt, rerr := b.TransactionReceipt(lookupCtx, w.Hash); rerr == nil && receipt != nil {
		if receipt.Status == 1 {
			return StateConfirmed
		}
		return StateReverted
	}
	return StateTimedOut
}

func (t *Tracker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
