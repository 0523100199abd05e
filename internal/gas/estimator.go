package gas

import (
	"context"
	"math/big"
	"time"

	"github.com/custodix/walletd/internal/rpcpool"
)

// Speed selects a coarse gas price multiplier. There is no continuous scale.
type Speed string

const (
	SpeedSlow    Speed = "slow"
	SpeedAverage Speed = "average"
	SpeedFast    Speed = "fast"
)

// ParseSpeed maps a user-supplied string onto a Speed, defaulting to average.
func ParseSpeed(s string) Speed {
	switch Speed(s) {
	case SpeedSlow, SpeedFast:
		return Speed(s)
	default:
		return SpeedAverage
	}
}

// fallbackGasPrice is used whenever the node is unreachable or returns
// malformed data, so fee quoting never blocks a user action. Quotes built
// on it are advisory only; Broadcaster.Send re-fetches the price before
// any transaction is signed.
var fallbackGasPrice = big.NewInt(5_000_000_000) // 5 gwei

const fetchTimeout = 3 * time.Second

// Estimate returns a gas price per unit for the given speed tier. It never
// returns an error: any RPC failure substitutes the constant fallback.
//
// Chains with a priority-fee market are priced at 2*baseFee + tip so the
// transaction survives short-term base fee growth; legacy chains use the
// node's suggested price.
func Estimate(ctx context.Context, b rpcpool.Backend, speed Speed) *big.Int {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	price := fetchPrice(ctx, b)
	if price == nil || price.Sign() <= 0 {
		price = new(big.Int).Set(fallbackGasPrice)
	}
	return applySpeed(price, speed)
}

func fetchPrice(ctx context.Context, b rpcpool.Backend) *big.Int {
	header, err := b.HeaderByNumber(ctx, nil)
	if err == nil && header != nil && header.BaseFee != nil && header.BaseFee.Sign() > 0 {
		tip, err := b.SuggestGasTipCap(ctx)
		if err != nil || tip == nil {
			tip = big.NewInt(0)
		}
		price := new(big.Int).Lsh(header.BaseFee, 1)
		return price.Add(price, tip)
	}

	price, err := b.SuggestGasPrice(ctx)
	if err != nil {
		return nil
	}
	return price
}

// applySpeed scales the price: slow 0.9x, average 1.0x, fast 1.2x.
func applySpeed(price *big.Int, speed Speed) *big.Int {
	out := new(big.Int).Set(price)
	switch speed {
	case SpeedSlow:
		out.Mul(out, big.NewInt(9)).Div(out, big.NewInt(10))
	case SpeedFast:
		out.Mul(out, big.NewInt(12)).Div(out, big.NewInt(10))
	}
	return out
}
