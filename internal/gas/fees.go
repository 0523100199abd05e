package gas

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/custodix/walletd/internal/rpcpool"
)

const (
	// TransferGasLimit is the fixed gas limit of a plain native transfer.
	TransferGasLimit = 21000
	// LegsPerTransfer: every user transfer is two on-chain transactions,
	// the platform fee leg and the principal leg.
	LegsPerTransfer = 2

	nativeDecimals = 18
)

// PlatformFeeRate is a business-rule invariant, not a default: the platform
// fee is always 3% of the amount, on every chain and every speed tier.
var PlatformFeeRate = decimal.RequireFromString("0.03")

// Quote is the fee breakdown for one prospective transfer, denominated in
// the chain's native unit. It is derived data; callers must recompute it on
// every amount or network change because the gas price is time-sensitive.
type Quote struct {
	GasFee      decimal.Decimal
	PlatformFee decimal.Decimal
	TotalFee    decimal.Decimal
}

// PlatformFee returns amount * 0.03.
func PlatformFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(PlatformFeeRate)
}

// WeiToNative converts a wei value to native units.
func WeiToNative(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -nativeDecimals)
}

// NativeToWei converts a native-unit amount to wei, truncating below 1 wei.
func NativeToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(nativeDecimals).BigInt()
}

// MaxSendable returns the largest amount that still clears the balance
// guard: the gas for both legs and the chain's gas reserve are set aside
// first, and the 3% platform fee comes out of what remains.
func MaxSendable(balance, gasFee, reserve decimal.Decimal) decimal.Decimal {
	spendable := balance.Sub(gasFee).Sub(reserve)
	if spendable.Sign() <= 0 {
		return decimal.Zero
	}
	divisor := decimal.NewFromInt(1).Add(PlatformFeeRate)
	// Truncated past native precision so amount plus fee never exceeds the
	// spendable balance.
	return spendable.DivRound(divisor, nativeDecimals+2).Truncate(nativeDecimals)
}

// Quoter produces fee quotes. It is stateless: identical inputs yield
// identical outputs modulo live gas price drift.
type Quoter struct {
	pool rpcpool.Provider
}

func NewQuoter(pool rpcpool.Provider) *Quoter {
	return &Quoter{pool: pool}
}

// Quote computes {gasFee, platformFee, totalFee} for sending amount on the
// given chain at the given speed tier.
func (q *Quoter) Quote(ctx context.Context, chainID uint64, amount decimal.Decimal, speed Speed) (Quote, error) {
	handle, err := q.pool.Backend(ctx, chainID)
	if err != nil {
		return Quote{}, err
	}
	price := Estimate(ctx, handle, speed)
	return QuoteAt(price, amount), nil
}

// QuoteAt computes the fee breakdown for a known gas price.
func QuoteAt(gasPrice *big.Int, amount decimal.Decimal) Quote {
	gasWei := new(big.Int).Mul(gasPrice, big.NewInt(TransferGasLimit*LegsPerTransfer))
	gasFee := WeiToNative(gasWei)
	platformFee := PlatformFee(amount)
	return Quote{
		GasFee:      gasFee,
		PlatformFee: platformFee,
		TotalFee:    gasFee.Add(platformFee),
	}
}
