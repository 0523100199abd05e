package transfer

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/custodix/walletd/internal/keyring"
	"github.com/custodix/walletd/internal/rpcpool"
)

// fakeBackend scripts the RPC surface for broadcaster tests.
type fakeBackend struct {
	mu sync.Mutex

	chainID    *big.Int
	balance    *big.Int
	balanceErr error
	gasPrice   *big.Int
	nonce      uint64

	// sendErrs[i] is the error for the i-th SendTransaction call; nil or
	// out of range means success. Successful sends consume a nonce slot.
	sendErrs []error
	sent     []*types.Transaction

	balanceCalls int
	nonceCalls   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(56),
		balance:  big.NewInt(0),
		gasPrice: big.NewInt(1_000_000_000), // 1 gwei
		nonce:    7,
	}
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return f.chainID, nil }

func (f *fakeBackend) BalanceAt(_ context.Context, _ common.Address, _ *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeBackend) NonceAt(_ context.Context, _ common.Address, _ *big.Int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, nil
}

func (f *fakeBackend) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonceCalls++
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.gasPrice), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return nil, errors.New("eth_maxPriorityFeePerGas not supported")
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	// No BaseFee: legacy gas pricing.
	return &types.Header{Number: big.NewInt(100)}, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.sent)
	f.sent = append(f.sent, tx)
	if idx < len(f.sendErrs) && f.sendErrs[idx] != nil {
		return f.sendErrs[idx]
	}
	f.nonce++
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.sent {
		if tx.Hash() == hash {
			return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash}, nil
		}
	}
	return nil, ethereum.NotFound
}

func (f *fakeBackend) TransactionByHash(_ context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.sent {
		if tx.Hash() == hash {
			return tx, false, nil
		}
	}
	return nil, false, ethereum.NotFound
}

func (f *fakeBackend) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakePool struct {
	backend rpcpool.Backend
	err     error
}

func (p *fakePool) Backend(context.Context, uint64) (rpcpool.Backend, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.backend, nil
}

// Well-known test key; never funded, never used outside tests.
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type fakeKeys struct {
	signer keyring.Signer
	err    error
	userID string
}

func (k *fakeKeys) Signer(_ context.Context, userID string, _ *big.Int) (keyring.Signer, error) {
	if k.err != nil {
		return nil, k.err
	}
	if k.userID != "" && k.userID != userID {
		return nil, keyring.ErrSignerUnavailable
	}
	return k.signer, nil
}
