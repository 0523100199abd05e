package rpcpool

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodix/walletd/internal/registry"
)

// stubClient stands in for a dialed ethclient.
type stubClient struct {
	chainID *big.Int

	balanceErr error
	balance    *big.Int

	sendErr   error
	sendCalls int

	closed bool
}

func (c *stubClient) ChainID(context.Context) (*big.Int, error) { return c.chainID, nil }

func (c *stubClient) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	if c.balanceErr != nil {
		return nil, c.balanceErr
	}
	return new(big.Int).Set(c.balance), nil
}

func (c *stubClient) NonceAt(context.Context, common.Address, *big.Int) (uint64, error) {
	return 0, nil
}
func (c *stubClient) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 0, nil }
func (c *stubClient) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}
func (c *stubClient) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(0), nil
}
func (c *stubClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{}, nil
}

func (c *stubClient) SendTransaction(context.Context, *types.Transaction) error {
	c.sendCalls++
	return c.sendErr
}

func (c *stubClient) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, errors.New("not implemented")
}
func (c *stubClient) TransactionByHash(context.Context, common.Hash) (*types.Transaction, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (c *stubClient) Close() { c.closed = true }

// scriptedDial maps urls to clients or dial errors, counting dials.
type scriptedDial struct {
	mu      sync.Mutex
	clients map[string]*stubClient
	errs    map[string]error
	dials   map[string]int
}

func newScriptedDial() *scriptedDial {
	return &scriptedDial{
		clients: make(map[string]*stubClient),
		errs:    make(map[string]error),
		dials:   make(map[string]int),
	}
}

func (d *scriptedDial) dial(_ context.Context, url string) (Backend, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials[url]++
	if err, ok := d.errs[url]; ok {
		return nil, err
	}
	if c, ok := d.clients[url]; ok {
		return c, nil
	}
	return nil, errors.New("connection refused")
}

func poolRegistry(t *testing.T, urls ...string) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]registry.Network{
		{ChainID: 1, Name: "eth", NativeSymbol: "ETH", RPCURLs: urls,
			MinSend: decimal.RequireFromString("0.0001"), GasReserve: decimal.RequireFromString("0.0001")},
	})
	require.NoError(t, err)
	return reg
}

func newTestPool(t *testing.T, dial *scriptedDial, urls ...string) *Pool {
	t.Helper()
	p := New(poolRegistry(t, urls...), zerolog.Nop())
	p.dial = dial.dial
	return p
}

func TestPool_GetCachesHandle(t *testing.T) {
	dial := newScriptedDial()
	dial.clients["https://a"] = &stubClient{chainID: big.NewInt(1)}
	p := newTestPool(t, dial, "https://a")

	h1, err := p.Get(context.Background(), 1)
	require.NoError(t, err)
	h2, err := p.Get(context.Background(), 1)
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Equal(t, 1, dial.dials["https://a"])
}

func TestPool_UnknownChain(t *testing.T) {
	p := newTestPool(t, newScriptedDial(), "https://a")

	_, err := p.Get(context.Background(), 424242)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestPool_SkipsDeadEndpoints(t *testing.T) {
	dial := newScriptedDial()
	dial.errs["https://dead"] = errors.New("connection refused")
	live := &stubClient{chainID: big.NewInt(1), balance: big.NewInt(42)}
	dial.clients["https://live"] = live
	p := newTestPool(t, dial, "https://dead", "https://live")

	h, err := p.Get(context.Background(), 1)
	require.NoError(t, err)

	bal, err := h.BalanceAt(context.Background(), common.Address{}, nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), bal)
}

func TestPool_AllDeadIsUnavailableAndNotCached(t *testing.T) {
	dial := newScriptedDial()
	dial.errs["https://a"] = errors.New("connection refused")
	dial.errs["https://b"] = errors.New("connection refused")
	p := newTestPool(t, dial, "https://a", "https://b")

	_, err := p.Get(context.Background(), 1)
	require.ErrorIs(t, err, ErrProviderUnavailable)

	// The endpoint recovers; the next Get re-dials instead of serving the
	// cached failure.
	delete(dial.errs, "https://a")
	dial.clients["https://a"] = &stubClient{chainID: big.NewInt(1)}

	_, err = p.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, dial.dials["https://a"])
}

func TestPool_ChainIDMismatchKeepsEndpoint(t *testing.T) {
	dial := newScriptedDial()
	// Misreporting endpoint stays usable; misconfiguration is a warning.
	dial.clients["https://a"] = &stubClient{chainID: big.NewInt(10), balance: big.NewInt(7)}
	p := newTestPool(t, dial, "https://a")

	h, err := p.Get(context.Background(), 1)
	require.NoError(t, err)

	bal, err := h.BalanceAt(context.Background(), common.Address{}, nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), bal)
}

func TestPool_CloseReleasesClients(t *testing.T) {
	dial := newScriptedDial()
	client := &stubClient{chainID: big.NewInt(1)}
	dial.clients["https://a"] = client
	p := newTestPool(t, dial, "https://a")

	_, err := p.Get(context.Background(), 1)
	require.NoError(t, err)

	p.Close()
	assert.True(t, client.closed)

	// A fresh handle is built after Close.
	_, err = p.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, dial.dials["https://a"])
}

func TestPool_BackendImplementsProvider(t *testing.T) {
	dial := newScriptedDial()
	dial.clients["https://a"] = &stubClient{chainID: big.NewInt(1)}
	p := newTestPool(t, dial, "https://a")

	var provider Provider = p
	b, err := provider.Backend(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, b)
}
