package rpcpool

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/custodix/walletd/internal/registry"
)

// ErrProviderUnavailable means every RPC endpoint for a chain was
// unreachable. The pool does not cache the failure; liveness is re-attempted
// on the next Get.
var ErrProviderUnavailable = errors.New("all rpc endpoints unreachable")

const (
	dialTimeout    = 10 * time.Second
	chainIDTimeout = 5 * time.Second
)

// DialFunc dials one RPC endpoint. Overridable in tests.
type DialFunc func(ctx context.Context, url string) (Backend, error)

func ethDial(ctx context.Context, url string) (Backend, error) {
	return ethclient.DialContext(ctx, url)
}

// Pool hands out one cached fault-tolerant Handle per chain id. Handles are
// immutable after construction and safe to share across goroutines.
type Pool struct {
	reg  *registry.Registry
	log  zerolog.Logger
	dial DialFunc

	mu      sync.Mutex
	handles map[uint64]*Handle
}

// New creates a pool over the given registry.
func New(reg *registry.Registry, log zerolog.Logger) *Pool {
	return &Pool{
		reg:     reg,
		log:     log.With().Str("component", "rpcpool").Logger(),
		dial:    ethDial,
		handles: make(map[uint64]*Handle),
	}
}

// Get returns the handle for a chain id, building it on first use. The write
// lock is held across connection setup to prevent duplicate dials under
// contention (connection setup is not a hot path).
func (p *Pool) Get(ctx context.Context, chainID uint64) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.handles[chainID]; ok {
		return h, nil
	}

	net, err := p.reg.Resolve(chainID)
	if err != nil {
		return nil, err
	}

	h, err := p.connect(ctx, net)
	if err != nil {
		return nil, err
	}

	p.handles[chainID] = h
	return h, nil
}

// connect dials each configured URL in order and keeps the live ones. A
// chain id reported by the node that differs from the configured one is
// logged as a warning only; some public endpoints misreport it.
func (p *Pool) connect(ctx context.Context, net registry.Network) (*Handle, error) {
	endpoints := make([]endpoint, 0, len(net.RPCURLs))
	var lastErr error

	for _, url := range net.RPCURLs {
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		client, err := p.dial(dialCtx, url)
		cancel()
		if err != nil {
			lastErr = err
			p.log.Warn().Str("url", url).Uint64("chain_id", net.ChainID).Err(err).Msg("endpoint dial failed")
			continue
		}

		idCtx, cancel := context.WithTimeout(ctx, chainIDTimeout)
		reported, err := client.ChainID(idCtx)
		cancel()
		if err != nil {
			lastErr = err
			p.log.Warn().Str("url", url).Uint64("chain_id", net.ChainID).Err(err).Msg("endpoint not responding")
			continue
		}

		if reported.Cmp(new(big.Int).SetUint64(net.ChainID)) != 0 {
			p.log.Warn().
				Str("url", url).
				Uint64("expected_chain_id", net.ChainID).
				Str("reported_chain_id", reported.String()).
				Msg("endpoint reports unexpected chain id")
		}

		endpoints = append(endpoints, endpoint{url: url, client: client})
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("chain %d: %w: %v", net.ChainID, ErrProviderUnavailable, lastErr)
	}

	return &Handle{
		chainID:   net.ChainID,
		endpoints: endpoints,
		log:       p.log.With().Uint64("chain_id", net.ChainID).Logger(),
	}, nil
}

// Provider is the consumer-facing view of the pool: resolve a chain id to a
// usable backend. Fee quoting, broadcasting and tracking depend on this
// interface so tests can substitute fakes.
type Provider interface {
	Backend(ctx context.Context, chainID uint64) (Backend, error)
}

// Backend implements Provider.
func (p *Pool) Backend(ctx context.Context, chainID uint64) (Backend, error) {
	h, err := p.Get(ctx, chainID)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Close closes every cached handle.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range p.handles {
		h.Close()
	}
	p.handles = make(map[uint64]*Handle)
}
