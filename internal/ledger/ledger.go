package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status of a persisted transfer record.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// TransferRecord is the audit row for one user-initiated transfer.
// PrincipalTxHash may be empty while FeeTxHash is set: that is the
// fee-paid-but-principal-failed partial state, kept precisely for manual
// reconciliation.
type TransferRecord struct {
	ID              string
	ChainID         uint64
	Sender          string
	Recipient       string
	Amount          decimal.Decimal
	PlatformFee     decimal.Decimal
	FeeTxHash       string
	PrincipalTxHash string
	Status          Status
	CreatedAt       time.Time
}

// ErrorRecord captures a transfer that failed before producing an outcome
// worth auditing as a TransferRecord.
type ErrorRecord struct {
	ID        string
	ChainID   uint64
	Sender    string
	Recipient string
	Amount    decimal.Decimal
	Stage     string
	Message   string
	CreatedAt time.Time
}

// Sink persists transfer outcomes. Calls are fire-and-forget from the
// transfer engine's point of view: failures are logged by the caller and
// never retried or allowed to mask the transfer outcome itself.
type Sink interface {
	RecordTransfer(ctx context.Context, rec TransferRecord) error
	RecordError(ctx context.Context, rec ErrorRecord) error
}
