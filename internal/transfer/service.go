package transfer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/custodix/walletd/internal/gas"
	"github.com/custodix/walletd/internal/ledger"
	"github.com/custodix/walletd/internal/rpcpool"
	"github.com/custodix/walletd/internal/tracker"
)

// Trigger is the reconciler hook the service fires after every terminal
// transfer outcome, success or failure.
type Trigger interface {
	Trigger(reason string)
}

// Service orchestrates one transfer end to end: broadcast, persist the
// outcome to the ledger, nudge the balance reconciler, and hand the
// principal hash to the status tracker. Ledger persistence is best-effort
// and never masks the transfer outcome.
type Service struct {
	broadcaster *Broadcaster
	pool        rpcpool.Provider
	sink        ledger.Sink
	tracker     *tracker.Tracker
	reconciler  Trigger
	log         zerolog.Logger
}

func NewService(b *Broadcaster, pool rpcpool.Provider, sink ledger.Sink, tr *tracker.Tracker, rec Trigger, log zerolog.Logger) *Service {
	return &Service{
		broadcaster: b,
		pool:        pool,
		sink:        sink,
		tracker:     tr,
		reconciler:  rec,
		log:         log.With().Str("component", "transfer").Logger(),
	}
}

// Execute runs the transfer and records the result. The returned outcome
// and error come straight from the broadcaster.
func (s *Service) Execute(ctx context.Context, req Request) (Outcome, error) {
	outcome, err := s.broadcaster.Send(ctx, req)
	s.persist(ctx, req, outcome, err)
	if s.reconciler != nil {
		s.reconciler.Trigger("transfer")
	}
	return outcome, err
}

// Follow attaches the status tracker to a broadcast outcome and returns the
// terminal record for the principal transaction.
func (s *Service) Follow(ctx context.Context, chainID uint64, outcome Outcome) (tracker.Record, error) {
	backend, err := s.pool.Backend(ctx, chainID)
	if err != nil {
		return tracker.Record{}, err
	}
	nonce := outcome.PrincipalNonce
	return s.tracker.Track(ctx, backend, tracker.Watch{
		Hash:  common.HexToHash(outcome.PrincipalTxHash),
		From:  outcome.Sender,
		Nonce: &nonce,
	}), nil
}

func (s *Service) persist(ctx context.Context, req Request, outcome Outcome, sendErr error) {
	if s.sink == nil {
		return
	}

	if sendErr == nil {
		rec := ledger.TransferRecord{
			ChainID:         req.ChainID,
			Sender:          outcome.Sender.Hex(),
			Recipient:       req.To,
			Amount:          req.Amount,
			PlatformFee:     gas.PlatformFee(req.Amount),
			FeeTxHash:       outcome.FeeTxHash,
			PrincipalTxHash: outcome.PrincipalTxHash,
			Status:          ledger.StatusCompleted,
		}
		if err := s.sink.RecordTransfer(ctx, rec); err != nil {
			s.log.Error().Err(err).Msg("ledger write failed for completed transfer")
		}
		return
	}

	// A fee hash without a principal hash is the partial state the ledger
	// must capture exactly for manual reconciliation.
	if outcome.FeeTxHash != "" {
		rec := ledger.TransferRecord{
			ChainID:         req.ChainID,
			Sender:          outcome.Sender.Hex(),
			Recipient:       req.To,
			Amount:          req.Amount,
			PlatformFee:     gas.PlatformFee(req.Amount),
			FeeTxHash:       outcome.FeeTxHash,
			PrincipalTxHash: outcome.PrincipalTxHash,
			Status:          ledger.StatusFailed,
		}
		if err := s.sink.RecordTransfer(ctx, rec); err != nil {
			s.log.Error().Err(err).Msg("ledger write failed for partial transfer")
		}
		return
	}

	errRec := ledger.ErrorRecord{
		ChainID:   req.ChainID,
		Sender:    outcome.Sender.Hex(),
		Recipient: req.To,
		Amount:    req.Amount,
		Stage:     stageOf(sendErr),
		Message:   sendErr.Error(),
	}
	if err := s.sink.RecordError(ctx, errRec); err != nil {
		s.log.Error().Err(err).Msg("ledger write failed for transfer error")
	}
}

func stageOf(err error) string {
	switch e := err.(type) {
	case *ValidationError:
		return "validation"
	case *InsufficientFundsError:
		return "balance_guard"
	case *PreflightError:
		return "preflight"
	case *UnderpricedError:
		return string(e.Leg) + "_leg"
	case *LegError:
		return string(e.Leg) + "_leg"
	default:
		return "send"
	}
}
