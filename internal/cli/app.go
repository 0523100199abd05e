package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/custodix/walletd/internal/gas"
	"github.com/custodix/walletd/internal/keyring"
	"github.com/custodix/walletd/internal/ledger"
	"github.com/custodix/walletd/internal/registry"
	"github.com/custodix/walletd/internal/rpcpool"
	"github.com/custodix/walletd/internal/tracker"
)

// app wires the transfer engine together for one CLI invocation.
type app struct {
	log      zerolog.Logger
	registry *registry.Registry
	pool     *rpcpool.Pool
	quoter   *gas.Quoter
	tracker  *tracker.Tracker
	store    *ledger.Store
	keystore *keyring.Manager
}

func newApp() (*app, error) {
	log := newLogger()

	reg, err := registry.Load(viper.GetString("networks_file"))
	if err != nil {
		return nil, fmt.Errorf("load network registry: %w", err)
	}

	pool := rpcpool.New(reg, log)

	store, err := ledger.Open(getDataDir())
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	km, err := keyring.NewManager(getDataDir())
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}

	return &app{
		log:      log,
		registry: reg,
		pool:     pool,
		quoter:   gas.NewQuoter(pool),
		tracker:  tracker.New(log),
		store:    store,
		keystore: km,
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
	_ = a.store.Close()
}

// platformAddress reads the fee collection address from config.
func (a *app) platformAddress() (common.Address, error) {
	raw := viper.GetString("platform_address")
	if raw == "" {
		return common.Address{}, fmt.Errorf("platform_address is not configured; set it in config.yaml or WALLETD_PLATFORM_ADDRESS")
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("platform_address %q is not a valid address", raw)
	}
	return common.HexToAddress(raw), nil
}

// resolveChain accepts either a short name or a numeric chain id.
func (a *app) resolveChain(s string) (registry.Network, error) {
	if n, err := a.registry.ResolveName(s); err == nil {
		return n, nil
	}
	var id uint64
	if _, err := fmt.Sscanf(s, "%d", &id); err == nil {
		return a.registry.Resolve(id)
	}
	return registry.Network{}, fmt.Errorf("unknown network %q", s)
}
