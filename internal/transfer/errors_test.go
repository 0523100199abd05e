package transfer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorKind
	}{
		{"transaction underpriced", KindUnderpriced},
		{"replacement transaction underpriced", KindUnderpriced},
		{"err: max fee per gas less than block base fee", KindUnderpriced},
		{"tip cap 1 wei below minimum", KindUnderpriced},
		{"Gas Price Too Low", KindUnderpriced},
		{"transaction fee too low to be included", KindUnderpriced},
		{"nonce too low", KindNonceTooLow},
		{"insufficient funds for gas * price + value", KindInsufficientFunds},
		{"txpool is full", KindOther},
		{"connection refused", KindOther},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(errors.New(tc.msg)))
		})
	}

	assert.Equal(t, KindOther, Classify(nil))
}

func TestLegErrorUnwrap(t *testing.T) {
	inner := errors.New("nonce too low")
	err := &LegError{Leg: LegFee, Kind: KindNonceTooLow, Err: fmt.Errorf("broadcast: %w", inner)}

	require.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "fee leg")
}

func TestPreflightErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset by peer")
	err := &PreflightError{Op: "balance check", Err: inner}

	require.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "balance check")
	assert.Contains(t, err.Error(), "before broadcast")
}

func TestInsufficientFundsErrorMessage(t *testing.T) {
	err := &InsufficientFundsError{
		Required:  decimal.RequireFromString("1.072"),
		Available: decimal.RequireFromString("0.5"),
		Symbol:    "ETH",
	}
	assert.Equal(t, "insufficient funds: need 1.072 ETH, have 0.5 ETH", err.Error())
}
