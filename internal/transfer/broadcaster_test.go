package transfer

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodix/walletd/internal/gas"
	"github.com/custodix/walletd/internal/keyring"
	"github.com/custodix/walletd/internal/registry"
	"github.com/custodix/walletd/internal/rpcpool"
)

var (
	platformAddr  = common.HexToAddress("0x00000000000000000000000000000000000fee00")
	recipientAddr = "0x1111111111111111111111111111111111111111"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]registry.Network{
		{
			ChainID:      56,
			Name:         "bnb",
			Label:        "BNB Smart Chain",
			NativeSymbol: "BNB",
			RPCURLs:      []string{"http://localhost:0"},
			MinSend:      decimal.RequireFromString("0.0005"),
			GasReserve:   decimal.RequireFromString("0.0005"),
		},
	})
	require.NoError(t, err)
	return reg
}

func newTestBroadcaster(t *testing.T, backend *fakeBackend) (*Broadcaster, keyring.Signer) {
	t.Helper()
	signer, err := keyring.NewKeySigner(testPrivateKey)
	require.NoError(t, err)

	b := New(testRegistry(t), &fakePool{backend: backend}, &fakeKeys{signer: signer}, platformAddr, zerolog.Nop())
	// Confirmation waits poll the fake immediately.
	b.confirmWait = 200 * time.Millisecond
	b.pollInterval = time.Millisecond
	return b, signer
}

// wei for n native units
func wei(s string) *big.Int {
	return gas.NativeToWei(decimal.RequireFromString(s))
}

func validRequest() Request {
	return Request{
		ChainID: 56,
		UserID:  "ignored",
		To:      recipientAddr,
		Amount:  decimal.RequireFromString("1.0"),
		Speed:   gas.SpeedAverage,
	}
}

func TestSend_HappyPath(t *testing.T) {
	backend := newFakeBackend()
	backend.balance = wei("2.0")
	b, signer := newTestBroadcaster(t, backend)

	outcome, err := b.Send(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, outcome.Status)
	assert.NotEmpty(t, outcome.FeeTxHash)
	assert.NotEmpty(t, outcome.PrincipalTxHash)
	assert.Equal(t, signer.Address(), outcome.Sender)

	require.Len(t, backend.sent, 2)

	feeTx := backend.sent[0]
	principalTx := backend.sent[1]

	// Fee leg strictly first, to the platform, worth exactly 3%.
	assert.Equal(t, platformAddr, *feeTx.To())
	assert.Equal(t, wei("0.03"), feeTx.Value())
	assert.Equal(t, outcome.FeeTxHash, feeTx.Hash().Hex())

	assert.Equal(t, common.HexToAddress(recipientAddr), *principalTx.To())
	assert.Equal(t, wei("1.0"), principalTx.Value())
	assert.Equal(t, outcome.PrincipalTxHash, principalTx.Hash().Hex())

	// Both legs are plain 21000-gas transfers.
	assert.Equal(t, uint64(21000), feeTx.Gas())
	assert.Equal(t, uint64(21000), principalTx.Gas())
}

func TestSend_FreshNoncePerLeg(t *testing.T) {
	backend := newFakeBackend()
	backend.balance = wei("2.0")
	backend.nonce = 41
	b, _ := newTestBroadcaster(t, backend)

	outcome, err := b.Send(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, backend.sent, 2)
	assert.Equal(t, uint64(41), backend.sent[0].Nonce())
	// Leg 2's nonce is re-fetched after leg 1 consumed its slot.
	assert.Equal(t, uint64(42), backend.sent[1].Nonce())
	assert.Equal(t, uint64(42), outcome.PrincipalNonce)
	assert.Equal(t, 2, backend.nonceCalls)
}

func TestSend_BalanceGuard(t *testing.T) {
	t.Run("rejects when balance cannot cover amount plus fees", func(t *testing.T) {
		backend := newFakeBackend()
		// Exactly the amount: misses the 3% fee and the gas.
		backend.balance = wei("5.0")
		b, _ := newTestBroadcaster(t, backend)

		req := validRequest()
		req.Amount = decimal.RequireFromString("5.0")

		_, err := b.Send(context.Background(), req)

		var insufficient *InsufficientFundsError
		require.ErrorAs(t, err, &insufficient)
		assert.True(t, insufficient.Required.GreaterThan(insufficient.Available))
		assert.Equal(t, "BNB", insufficient.Symbol)
		// No network mutation before the guard trips.
		assert.Equal(t, 0, backend.sentCount())
	})

	t.Run("proceeds when balance covers amount, fee and gas", func(t *testing.T) {
		backend := newFakeBackend()
		// amount + 3% + gas (1 gwei * 42000) and one wei to spare
		required := new(big.Int).Add(wei("1.03"), big.NewInt(42_000_000_000_000))
		backend.balance = required
		b, _ := newTestBroadcaster(t, backend)

		_, err := b.Send(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, 2, backend.sentCount())
	})

	t.Run("uses a freshly fetched gas price for the guard", func(t *testing.T) {
		backend := newFakeBackend()
		backend.gasPrice = big.NewInt(100_000_000_000) // 100 gwei
		// Covers amount+fee+1 gwei gas but not 100 gwei gas.
		backend.balance = new(big.Int).Add(wei("1.03"), big.NewInt(42_000_000_000_000))
		b, _ := newTestBroadcaster(t, backend)

		_, err := b.Send(context.Background(), validRequest())
		var insufficient *InsufficientFundsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 0, backend.sentCount())
	})
}

func TestSend_BalanceFetchFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.balanceErr = errors.New("connection reset by peer")
	b, _ := newTestBroadcaster(t, backend)

	_, err := b.Send(context.Background(), validRequest())

	var preflight *PreflightError
	require.ErrorAs(t, err, &preflight)
	assert.Equal(t, "balance check", preflight.Op)
	assert.Equal(t, 0, backend.sentCount())
}

func TestSend_NoPrincipalWithoutFee(t *testing.T) {
	backend := newFakeBackend()
	backend.balance = wei("2.0")
	backend.sendErrs = []error{errors.New("execution aborted")}
	b, _ := newTestBroadcaster(t, backend)

	outcome, err := b.Send(context.Background(), validRequest())

	var legErr *LegError
	require.ErrorAs(t, err, &legErr)
	assert.Equal(t, LegFee, legErr.Leg)

	// The failed fee attempt is the only send; the principal never goes out.
	assert.Equal(t, 1, backend.sentCount())
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Empty(t, outcome.FeeTxHash)
	assert.Empty(t, outcome.PrincipalTxHash)
}

func TestSend_UnderpricedRetry(t *testing.T) {
	t.Run("bumps once at 1.5x and succeeds", func(t *testing.T) {
		backend := newFakeBackend()
		backend.balance = wei("2.0")
		backend.sendErrs = []error{errors.New("transaction underpriced")}
		b, _ := newTestBroadcaster(t, backend)

		_, err := b.Send(context.Background(), validRequest())
		require.NoError(t, err)

		// attempt, bumped retry, then the principal leg
		require.Len(t, backend.sent, 3)
		original := backend.sent[0].GasPrice()
		bumped := backend.sent[1].GasPrice()
		expect := new(big.Int).Mul(original, big.NewInt(3))
		expect.Div(expect, big.NewInt(2))
		assert.Equal(t, expect, bumped)
	})

	t.Run("exactly two attempts then typed failure", func(t *testing.T) {
		backend := newFakeBackend()
		backend.balance = wei("2.0")
		backend.sendErrs = []error{
			errors.New("transaction underpriced"),
			errors.New("replacement transaction underpriced"),
		}
		b, _ := newTestBroadcaster(t, backend)

		_, err := b.Send(context.Background(), validRequest())

		var underpriced *UnderpricedError
		require.ErrorAs(t, err, &underpriced)
		assert.Equal(t, LegFee, underpriced.Leg)
		// Never a third attempt.
		assert.Equal(t, 2, backend.sentCount())
	})

	t.Run("non-underpriced rejection of the bump is a leg error", func(t *testing.T) {
		backend := newFakeBackend()
		backend.balance = wei("2.0")
		backend.sendErrs = []error{
			errors.New("transaction underpriced"),
			errors.New("nonce too low"),
		}
		b, _ := newTestBroadcaster(t, backend)

		_, err := b.Send(context.Background(), validRequest())
		var legErr *LegError
		require.ErrorAs(t, err, &legErr)
		assert.Equal(t, KindNonceTooLow, legErr.Kind)
	})
}

func TestSend_PartialFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.balance = wei("2.0")
	// Fee leg succeeds; principal leg is rejected outright.
	backend.sendErrs = []error{nil, errors.New("txpool full")}
	b, _ := newTestBroadcaster(t, backend)

	outcome, err := b.Send(context.Background(), validRequest())

	var legErr *LegError
	require.ErrorAs(t, err, &legErr)
	assert.Equal(t, LegPrincipal, legErr.Leg)

	// The partial state is visible: fee hash present, principal absent.
	assert.NotEmpty(t, outcome.FeeTxHash)
	assert.Empty(t, outcome.PrincipalTxHash)
	assert.Equal(t, StatusFailed, outcome.Status)
}

func TestSend_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"bad address", func(r *Request) { r.To = "not-an-address" }, "to"},
		{"zero amount", func(r *Request) { r.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(r *Request) { r.Amount = decimal.RequireFromString("-1") }, "amount"},
		{"below minimum send", func(r *Request) { r.Amount = decimal.RequireFromString("0.0001") }, "amount"},
		{"unknown chain", func(r *Request) { r.ChainID = 999999 }, "chain"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.balance = wei("2.0")
			b, _ := newTestBroadcaster(t, backend)

			req := validRequest()
			tc.mutate(&req)

			_, err := b.Send(context.Background(), req)

			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tc.field, validation.Field)
			assert.Equal(t, 0, backend.sentCount())
		})
	}

	t.Run("unresolvable signer", func(t *testing.T) {
		backend := newFakeBackend()
		backend.balance = wei("2.0")
		b, _ := newTestBroadcaster(t, backend)
		b.keys = &fakeKeys{err: keyring.ErrSignerUnavailable}

		_, err := b.Send(context.Background(), validRequest())
		require.ErrorIs(t, err, keyring.ErrSignerUnavailable)
		assert.Equal(t, 0, backend.sentCount())
	})

	t.Run("provider unavailable", func(t *testing.T) {
		signer, err := keyring.NewKeySigner(testPrivateKey)
		require.NoError(t, err)
		b := New(testRegistry(t), &fakePool{err: rpcpool.ErrProviderUnavailable}, &fakeKeys{signer: signer}, platformAddr, zerolog.Nop())

		_, err = b.Send(context.Background(), validRequest())
		require.ErrorIs(t, err, rpcpool.ErrProviderUnavailable)
	})
}

func TestSend_SerializesPerSigner(t *testing.T) {
	backend := newFakeBackend()
	backend.balance = wei("100.0")
	b, _ := newTestBroadcaster(t, backend)

	const sends = 4
	done := make(chan error, sends)
	for i := 0; i < sends; i++ {
		go func() {
			_, err := b.Send(context.Background(), validRequest())
			done <- err
		}()
	}
	for i := 0; i < sends; i++ {
		require.NoError(t, <-done)
	}

	// Serialized sends never reuse a nonce slot.
	require.Len(t, backend.sent, 2*sends)
	seen := make(map[uint64]bool)
	for _, tx := range backend.sent {
		assert.False(t, seen[tx.Nonce()], "nonce %d reused", tx.Nonce())
		seen[tx.Nonce()] = true
	}
}
