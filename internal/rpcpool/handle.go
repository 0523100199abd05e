package rpcpool

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
)

type endpoint struct {
	url    string
	client Backend
}

// Handle is a fault-tolerant RPC client for exactly one chain. Each call
// tries the endpoints in configuration order and returns the first answer;
// backups are never raced. The endpoint list is fixed at construction.
type Handle struct {
	chainID   uint64
	endpoints []endpoint
	log       zerolog.Logger
}

// ChainIDValue returns the configured chain id.
func (h *Handle) ChainIDValue() uint64 { return h.chainID }

// answered reports whether err is a response from the node itself (a
// JSON-RPC error object, or a well-known sentinel like ethereum.NotFound)
// rather than a transport failure. Node answers must not trigger endpoint
// fallback: re-issuing a rejected eth_sendRawTransaction elsewhere would
// double-submit.
func answered(err error) bool {
	if err == nil {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return true
	}
	return errors.Is(err, ethereum.NotFound)
}

// do runs fn against each endpoint in order until one succeeds or answers.
func do[T any](h *Handle, fn func(Backend) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for _, ep := range h.endpoints {
		v, err := fn(ep.client)
		if err == nil {
			return v, nil
		}
		if answered(err) {
			return zero, err
		}
		h.log.Debug().Str("url", ep.url).Err(err).Msg("endpoint failed, trying next")
		lastErr = err
	}
	return zero, lastErr
}

func (h *Handle) ChainID(ctx context.Context) (*big.Int, error) {
	return do(h, func(b Backend) (*big.Int, error) { return b.ChainID(ctx) })
}

func (h *Handle) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return do(h, func(b Backend) (*big.Int, error) { return b.BalanceAt(ctx, account, blockNumber) })
}

func (h *Handle) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return do(h, func(b Backend) (uint64, error) { return b.NonceAt(ctx, account, blockNumber) })
}

func (h *Handle) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return do(h, func(b Backend) (uint64, error) { return b.PendingNonceAt(ctx, account) })
}

func (h *Handle) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return do(h, func(b Backend) (*big.Int, error) { return b.SuggestGasPrice(ctx) })
}

func (h *Handle) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return do(h, func(b Backend) (*big.Int, error) { return b.SuggestGasTipCap(ctx) })
}

func (h *Handle) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return do(h, func(b Backend) (*types.Header, error) { return b.HeaderByNumber(ctx, number) })
}

func (h *Handle) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	_, err := do(h, func(b Backend) (struct{}, error) { return struct{}{}, b.SendTransaction(ctx, tx) })
	return err
}

func (h *Handle) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return do(h, func(b Backend) (*types.Receipt, error) { return b.TransactionReceipt(ctx, txHash) })
}

func (h *Handle) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	type txPending struct {
		tx      *types.Transaction
		pending bool
	}
	v, err := do(h, func(b Backend) (txPending, error) {
		tx, pending, err := b.TransactionByHash(ctx, hash)
		return txPending{tx: tx, pending: pending}, err
	})
	return v.tx, v.pending, err
}

// Close releases the underlying connections for endpoints that support it.
func (h *Handle) Close() {
	for _, ep := range h.endpoints {
		if c, ok := ep.client.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
