package transfer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Leg names one of the two on-chain transactions making up a transfer.
type Leg string

const (
	LegFee       Leg = "fee"
	LegPrincipal Leg = "principal"
)

// ErrorKind is the closed classification of broadcast rejections. Retry
// logic depends only on the kind, never on raw provider text.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindUnderpriced
	KindNonceTooLow
	KindInsufficientFunds
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnderpriced:
		return "underpriced"
	case KindNonceTooLow:
		return "nonce too low"
	case KindInsufficientFunds:
		return "insufficient funds"
	default:
		return "other"
	}
}

// underpricedMarkers are the message classes nodes use to reject a gas
// price below their acceptance threshold. Matching happens here and nowhere
// else; JSON-RPC carries these only as text, so this boundary is the single
// place that inspects it.
var underpricedMarkers = []string{
	"underpriced",
	"fee too low",
	"gas price too low",
	"tip cap",
	"max fee per gas less than block base fee",
}

// Classify maps a provider error onto an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range underpricedMarkers {
		if strings.Contains(msg, marker) {
			return KindUnderpriced
		}
	}
	if strings.Contains(msg, "nonce too low") {
		return KindNonceTooLow
	}
	if strings.Contains(msg, "insufficient funds") {
		return KindInsufficientFunds
	}
	return KindOther
}

// ValidationError reports user-correctable input problems, surfaced verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientFundsError reports a failed balance guard with the exact
// required and available amounts in native units.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
	Symbol    string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s %s, have %s %s",
		e.Required, e.Symbol, e.Available, e.Symbol)
}

// PreflightError reports a failed read of on-chain state before any leg was
// submitted. Nothing was broadcast; the transfer is safe to retry as-is.
type PreflightError struct {
	Op  string
	Err error
}

func (e *PreflightError) Error() string {
	return fmt.Sprintf("%s failed before broadcast: %v", e.Op, e.Err)
}

func (e *PreflightError) Unwrap() error { return e.Err }

// UnderpricedError means both the original and the 1.5x-bumped attempt for
// a leg were rejected as underpriced. Safe to retry when the network calms.
type UnderpricedError struct {
	Leg Leg
}

func (e *UnderpricedError) Error() string {
	return fmt.Sprintf("%s leg rejected as underpriced after gas bump; network congested, try again", e.Leg)
}

// LegError wraps any other terminal rejection of one leg.
type LegError struct {
	Leg  Leg
	Kind ErrorKind
	Err  error
}

func (e *LegError) Error() string {
	return fmt.Sprintf("%s leg broadcast failed: %v", e.Leg, e.Err)
}

func (e *LegError) Unwrap() error { return e.Err }
