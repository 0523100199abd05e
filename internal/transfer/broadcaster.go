package transfer

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/custodix/walletd/internal/gas"
	"github.com/custodix/walletd/internal/keyring"
	"github.com/custodix/walletd/internal/registry"
	"github.com/custodix/walletd/internal/rpcpool"
)

// Request describes one user-initiated transfer. It is consumed
// synchronously by Send and never persisted in raw form.
type Request struct {
	ChainID uint64
	UserID  string
	To      string
	Amount  decimal.Decimal
	Speed   gas.Speed
}

// Status of a broadcast outcome.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Outcome is the immutable result of one Send call. A set FeeTxHash with an
// empty PrincipalTxHash records the partial state where the platform fee was
// paid but the principal never went out.
type Outcome struct {
	FeeTxHash       string
	PrincipalTxHash string
	Sender          common.Address
	PrincipalNonce  uint64
	Status          Status
	Error           string
}

// Broadcaster executes the two-leg send: platform fee first, principal
// second, in that fixed order so a user can never receive funds without the
// platform being compensated.
type Broadcaster struct {
	reg      *registry.Registry
	pool     rpcpool.Provider
	keys     keyring.Provider
	platform common.Address
	log      zerolog.Logger

	confirmWait  time.Duration
	pollInterval time.Duration

	// Per-signer serialization: two concurrent sends from one account
	// would otherwise race on the nonce.
	mu          sync.Mutex
	signerLocks map[common.Address]*sync.Mutex
}

// New creates a broadcaster. platform is the address collecting the 3% fee.
func New(reg *registry.Registry, pool rpcpool.Provider, keys keyring.Provider, platform common.Address, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		reg:          reg,
		pool:         pool,
		keys:         keys,
		platform:     platform,
		log:          log.With().Str("component", "broadcaster").Logger(),
		confirmWait:  60 * time.Second,
		pollInterval: 2 * time.Second,
		signerLocks:  make(map[common.Address]*sync.Mutex),
	}
}

func (b *Broadcaster) signerLock(addr common.Address) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.signerLocks[addr]
	if !ok {
		l = &sync.Mutex{}
		b.signerLocks[addr] = l
	}
	return l
}

// Send validates the request, guards the balance against a freshly fetched
// gas price, then dispatches the fee leg and the principal leg. It returns a
// typed error for every reachable failure state. Once a leg has been
// submitted, the call is past the point of no return and is not cancellable.
func (b *Broadcaster) Send(ctx context.Context, req Request) (Outcome, error) {
	net, handle, signer, err := b.validate(ctx, req)
	if err != nil {
		return failed(Outcome{}, err), err
	}

	lock := b.signerLock(signer.Address())
	lock.Lock()
	defer lock.Unlock()

	chainID := new(big.Int).SetUint64(req.ChainID)
	amountWei := gas.NativeToWei(req.Amount)
	platformWei := gas.NativeToWei(gas.PlatformFee(req.Amount))

	// Authoritative price, fetched at send time. The quote the user saw may
	// be stale or built on the estimator's fallback constant.
	gasPrice := gas.Estimate(ctx, handle, req.Speed)

	if err := b.guardBalance(ctx, handle, signer.Address(), amountWei, platformWei, gasPrice, net); err != nil {
		return failed(Outcome{Sender: signer.Address()}, err), err
	}

	outcome := Outcome{Sender: signer.Address()}

	nonce, err := handle.PendingNonceAt(ctx, signer.Address())
	if err != nil {
		err = &LegError{Leg: LegFee, Kind: Classify(err), Err: fmt.Errorf("fetch nonce: %w", err)}
		return failed(outcome, err), err
	}

	feeHash, err := b.sendLeg(ctx, handle, signer, chainID, LegFee, nonce, b.platform, platformWei, gasPrice)
	if err != nil {
		return failed(outcome, err), err
	}
	outcome.FeeTxHash = feeHash.Hex()
	b.log.Info().Uint64("chain_id", req.ChainID).Str("tx", outcome.FeeTxHash).Msg("fee leg sent")

	// Fresh nonce for the principal: the fee leg has consumed a slot.
	nonce, err = handle.PendingNonceAt(ctx, signer.Address())
	if err != nil {
		err = &LegError{Leg: LegPrincipal, Kind: Classify(err), Err: fmt.Errorf("fetch nonce: %w", err)}
		return failed(outcome, err), err
	}

	principalHash, err := b.sendLeg(ctx, handle, signer, chainID, LegPrincipal, nonce, common.HexToAddress(req.To), amountWei, gasPrice)
	if err != nil {
		return failed(outcome, err), err
	}
	outcome.PrincipalTxHash = principalHash.Hex()
	outcome.PrincipalNonce = nonce
	outcome.Status = StatusSent
	b.log.Info().Uint64("chain_id", req.ChainID).Str("tx", outcome.PrincipalTxHash).Msg("principal leg sent")

	return outcome, nil
}

// validate runs every check that must pass before any network mutation.
func (b *Broadcaster) validate(ctx context.Context, req Request) (registry.Network, rpcpool.Backend, keyring.Signer, error) {
	net, err := b.reg.Resolve(req.ChainID)
	if err != nil {
		return registry.Network{}, nil, nil, &ValidationError{Field: "chain", Reason: err.Error()}
	}
	if !common.IsHexAddress(req.To) {
		return registry.Network{}, nil, nil, &ValidationError{Field: "to", Reason: "not a valid address for this chain"}
	}
	if req.Amount.Sign() <= 0 {
		return registry.Network{}, nil, nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if req.Amount.LessThan(net.MinSend) {
		return registry.Network{}, nil, nil, &ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("below minimum send of %s %s", net.MinSend, net.NativeSymbol),
		}
	}

	handle, err := b.pool.Backend(ctx, req.ChainID)
	if err != nil {
		return registry.Network{}, nil, nil, err
	}

	signer, err := b.keys.Signer(ctx, req.UserID, new(big.Int).SetUint64(req.ChainID))
	if err != nil {
		return registry.Network{}, nil, nil, err
	}

	return net, handle, signer, nil
}

// guardBalance requires balance >= amount + platform fee + gas for both legs.
func (b *Broadcaster) guardBalance(ctx context.Context, handle rpcpool.Backend, from common.Address, amountWei, platformWei, gasPrice *big.Int, net registry.Network) error {
	balance, err := handle.BalanceAt(ctx, from, nil)
	if err != nil {
		return &PreflightError{Op: "balance check", Err: err}
	}

	gasWei := new(big.Int).Mul(gasPrice, big.NewInt(gas.TransferGasLimit*gas.LegsPerTransfer))
	required := new(big.Int).Add(amountWei, platformWei)
	required.Add(required, gasWei)

	if balance.Cmp(required) < 0 {
		return &InsufficientFundsError{
			Required:  gas.WeiToNative(required),
			Available: gas.WeiToNative(balance),
			Symbol:    net.NativeSymbol,
		}
	}
	return nil
}

// sendLeg submits one leg. An underpriced rejection is retried exactly once
// at 1.5x the gas price; anything else, or a second rejection, is terminal.
// A failure while waiting for the first confirmation is swallowed: the hash
// is still "sent", and finality belongs to the status tracker.
func (b *Broadcaster) sendLeg(ctx context.Context, handle rpcpool.Backend, signer keyring.Signer, chainID *big.Int, leg Leg, nonce uint64, to common.Address, value, gasPrice *big.Int) (common.Hash, error) {
	hash, err := b.submit(ctx, handle, signer, chainID, nonce, to, value, gasPrice)
	if err != nil {
		if Classify(err) != KindUnderpriced {
			return common.Hash{}, &LegError{Leg: leg, Kind: Classify(err), Err: err}
		}

		bumped := new(big.Int).Mul(gasPrice, big.NewInt(3))
		bumped.Div(bumped, big.NewInt(2))
		b.log.Warn().Str("leg", string(leg)).Str("gas_price", bumped.String()).Msg("leg underpriced, retrying with bumped gas price")

		hash, err = b.submit(ctx, handle, signer, chainID, nonce, to, value, bumped)
		if err != nil {
			if Classify(err) == KindUnderpriced {
				return common.Hash{}, &UnderpricedError{Leg: leg}
			}
			return common.Hash{}, &LegError{Leg: leg, Kind: Classify(err), Err: err}
		}
	}

	if err := b.waitMined(ctx, handle, hash); err != nil {
		b.log.Debug().Str("leg", string(leg)).Str("tx", hash.Hex()).Err(err).Msg("confirmation wait gave up")
	}
	return hash, nil
}

func (b *Broadcaster) submit(ctx context.Context, handle rpcpool.Backend, signer keyring.Signer, chainID *big.Int, nonce uint64, to common.Address, value, gasPrice *big.Int) (common.Hash, error) {
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: new(big.Int).Set(gasPrice),
		Gas:      gas.TransferGasLimit,
		To:       &to,
		Value:    new(big.Int).Set(value),
	})

	signed, err := signer.SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := handle.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	return signed.Hash(), nil
}

func (b *Broadcaster) waitMined(ctx context.Context, handle rpcpool.Backend, hash common.Hash) error {
	ctx, cancel := context.WithTimeout(ctx, b.confirmWait)
	defer cancel()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := handle.TransactionReceipt(ctx, hash); err == nil {
				return nil
			}
		}
	}
}

func failed(o Outcome, err error) Outcome {
	o.Status = StatusFailed
	o.Error = err.Error()
	return o
}
