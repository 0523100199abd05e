package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/custodix/walletd/internal/gas"
	"github.com/custodix/walletd/internal/registry"
	"github.com/custodix/walletd/internal/rpcpool"
)

// Balance is one chain's snapshot entry.
type Balance struct {
	ChainID   uint64
	Symbol    string
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

// BalanceCache holds the latest known native balances for one address
// across a set of chains. Refresh is the reconciler's fetch function; reads
// are served from the snapshot.
type BalanceCache struct {
	reg     *registry.Registry
	pool    rpcpool.Provider
	address common.Address
	chains  []uint64

	mu       sync.RWMutex
	balances map[uint64]Balance
}

// NewBalanceCache tracks address on the given chains (all registry networks
// when chains is empty).
func NewBalanceCache(reg *registry.Registry, pool rpcpool.Provider, address common.Address, chains []uint64) *BalanceCache {
	if len(chains) == 0 {
		for _, n := range reg.All() {
			chains = append(chains, n.ChainID)
		}
	}
	return &BalanceCache{
		reg:      reg,
		pool:     pool,
		address:  address,
		chains:   chains,
		balances: make(map[uint64]Balance),
	}
}

// Refresh fetches every chain's balance. Chains that fail keep their
// previous snapshot entry; an error is returned if any chain failed so the
// reconciler retries.
func (c *BalanceCache) Refresh(ctx context.Context) error {
	var firstErr error
	for _, chainID := range c.chains {
		net, err := c.reg.Resolve(chainID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		backend, err := c.pool.Backend(ctx, chainID)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chain %d: %w", chainID, err)
			}
			continue
		}
		wei, err := backend.BalanceAt(ctx, c.address, nil)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chain %d: %w", chainID, err)
			}
			continue
		}

		c.mu.Lock()
		c.balances[chainID] = Balance{
			ChainID:   chainID,
			Symbol:    net.NativeSymbol,
			Amount:    gas.WeiToNative(wei),
			UpdatedAt: time.Now(),
		}
		c.mu.Unlock()
	}
	return firstErr
}

// Get returns the snapshot entry for a chain, if any.
func (c *BalanceCache) Get(chainID uint64) (Balance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.balances[chainID]
	return b, ok
}

// All returns the snapshot entries in chain order.
func (c *BalanceCache) All() []Balance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Balance, 0, len(c.balances))
	for _, chainID := range c.chains {
		if b, ok := c.balances[chainID]; ok {
			out = append(out, b)
		}
	}
	return out
}
