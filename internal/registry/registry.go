package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("network not found")

// Network describes one supported EVM chain.
// Invariant: RPCURLs is non-empty and ChainID is unique across the registry.
// Entries are immutable after the registry is built.
type Network struct {
	ChainID      uint64
	Name         string // short handle used on the CLI ("eth", "bnb")
	Label        string
	NativeSymbol string
	RPCURLs      []string
	MinSend      decimal.Decimal
	GasReserve   decimal.Decimal
}

// Registry is a static lookup table of supported networks.
type Registry struct {
	byID   map[uint64]Network
	byName map[string]Network
	order  []uint64
}

// New builds a registry from the given networks, failing fast on duplicate
// chain ids, duplicate names, or entries without RPC URLs.
func New(networks []Network) (*Registry, error) {
	r := &Registry{
		byID:   make(map[uint64]Network, len(networks)),
		byName: make(map[string]Network, len(networks)),
	}
	for _, n := range networks {
		if n.ChainID == 0 {
			return nil, fmt.Errorf("network %q: chain id is required", n.Name)
		}
		if len(n.RPCURLs) == 0 {
			return nil, fmt.Errorf("network %q (chain %d): at least one rpc url is required", n.Name, n.ChainID)
		}
		if _, dup := r.byID[n.ChainID]; dup {
			return nil, fmt.Errorf("duplicate network entry for chain id %d", n.ChainID)
		}
		name := strings.ToLower(n.Name)
		if name != "" {
			if _, dup := r.byName[name]; dup {
				return nil, fmt.Errorf("duplicate network name %q", n.Name)
			}
			r.byName[name] = n
		}
		r.byID[n.ChainID] = n
		r.order = append(r.order, n.ChainID)
	}
	return r, nil
}

// Default returns a registry built from the compiled-in network table.
func Default() (*Registry, error) {
	return New(DefaultNetworks())
}

// networkYAML is the overlay file shape. Amounts are strings so they survive
// YAML decoding without float truncation.
type networkYAML struct {
	ChainID      uint64   `yaml:"chain_id"`
	Name         string   `yaml:"name"`
	Label        string   `yaml:"label"`
	NativeSymbol string   `yaml:"native_symbol"`
	RPCURLs      []string `yaml:"rpc_urls"`
	MinSend      string   `yaml:"min_send"`
	GasReserve   string   `yaml:"gas_reserve"`
}

func (y networkYAML) network() (Network, error) {
	n := Network{
		ChainID:      y.ChainID,
		Name:         y.Name,
		Label:        y.Label,
		NativeSymbol: y.NativeSymbol,
		RPCURLs:      y.RPCURLs,
	}
	var err error
	if n.MinSend, err = parseAmount(y.MinSend); err != nil {
		return Network{}, fmt.Errorf("network %q: min_send: %w", y.Name, err)
	}
	if n.GasReserve, err = parseAmount(y.GasReserve); err != nil {
		return Network{}, fmt.Errorf("network %q: gas_reserve: %w", y.Name, err)
	}
	return n, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// Load builds a registry from the defaults plus an optional YAML overlay
// file. Overlay entries replace defaults with the same chain id; new chain
// ids are appended.
func Load(path string) (*Registry, error) {
	networks := DefaultNetworks()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read networks file: %w", err)
		}
		var overlay struct {
			Networks []networkYAML `yaml:"networks"`
		}
		if err := yaml.Unmarshal(raw, &overlay); err != nil {
			return nil, fmt.Errorf("parse networks file: %w", err)
		}
		parsed := make([]Network, 0, len(overlay.Networks))
		for _, y := range overlay.Networks {
			n, err := y.network()
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, n)
		}
		networks = merge(networks, parsed)
	}
	return New(networks)
}

func merge(base, overlay []Network) []Network {
	out := make([]Network, 0, len(base)+len(overlay))
	replaced := make(map[uint64]Network, len(overlay))
	for _, n := range overlay {
		replaced[n.ChainID] = n
	}
	seen := make(map[uint64]bool, len(base))
	for _, n := range base {
		if o, ok := replaced[n.ChainID]; ok {
			out = append(out, o)
		} else {
			out = append(out, n)
		}
		seen[n.ChainID] = true
	}
	for _, n := range overlay {
		if !seen[n.ChainID] {
			out = append(out, n)
		}
	}
	return out
}

// Resolve returns the network for a chain id.
func (r *Registry) Resolve(chainID uint64) (Network, error) {
	n, ok := r.byID[chainID]
	if !ok {
		return Network{}, fmt.Errorf("chain id %d: %w", chainID, ErrNotFound)
	}
	return n, nil
}

// ResolveName returns the network for a short name such as "eth" or "bnb".
func (r *Registry) ResolveName(name string) (Network, error) {
	n, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return Network{}, fmt.Errorf("network %q: %w", name, ErrNotFound)
	}
	return n, nil
}

// All returns the networks in registration order.
func (r *Registry) All() []Network {
	out := make([]Network, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
