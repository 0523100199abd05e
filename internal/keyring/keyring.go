package keyring

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrSignerUnavailable = errors.New("no signer available for user")
	ErrInvalidKey        = errors.New("invalid private key")
)

// Signer is a short-lived signing capability for one account. The transfer
// engine holds it only for the duration of a single send and never persists
// it; key storage and decryption stay behind the Provider.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Provider resolves a signing capability for a user on a chain.
type Provider interface {
	Signer(ctx context.Context, userID string, chainID *big.Int) (Signer, error)
}
