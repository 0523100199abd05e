package keyring

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Manager wraps go-ethereum's encrypted keystore directory.
type Manager struct {
	ks      *keystore.KeyStore
	dataDir string
}

// NewManager opens (or creates) the keystore under dataDir/keystore.
func NewManager(dataDir string) (*Manager, error) {
	// StandardScryptN and StandardScryptP are secure defaults
	return newManager(dataDir, keystore.StandardScryptN, keystore.StandardScryptP)
}

func newManager(dataDir string, scryptN, scryptP int) (*Manager, error) {
	keystoreDir := filepath.Join(dataDir, "keystore")
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore directory: %w", err)
	}

	ks := keystore.NewKeyStore(keystoreDir, scryptN, scryptP)

	return &Manager{ks: ks, dataDir: dataDir}, nil
}

// CreateAccount creates a new account encrypted with the given password.
func (m *Manager) CreateAccount(password string) (accounts.Account, error) {
	return m.ks.NewAccount(password)
}

// ImportKey imports a hex private key and encrypts it with the password.
func (m *Manager) ImportKey(privateKeyHex string, password string) (accounts.Account, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return accounts.Account{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return m.ks.ImportECDSA(privateKey, password)
}

// Accounts returns all accounts in the keystore.
func (m *Manager) Accounts() []accounts.Account {
	return m.ks.Accounts()
}

// SecretSource supplies the decryption password for an account, e.g. a
// terminal prompt on the CLI or a vault lookup in a service deployment.
type SecretSource func(address common.Address) (string, error)

// KeystoreProvider implements Provider on top of the local keystore.
// The userID is the account's hex address.
type KeystoreProvider struct {
	mgr     *Manager
	secrets SecretSource
}

func NewKeystoreProvider(mgr *Manager, secrets SecretSource) *KeystoreProvider {
	return &KeystoreProvider{mgr: mgr, secrets: secrets}
}

// Signer decrypts the key for userID and returns a capability scoped to the
// caller. The decrypted key lives only inside the returned value.
func (p *KeystoreProvider) Signer(ctx context.Context, userID string, chainID *big.Int) (Signer, error) {
	if !common.IsHexAddress(userID) {
		return nil, fmt.Errorf("%w: %q is not an address", ErrSignerUnavailable, userID)
	}
	address := common.HexToAddress(userID)

	var target *accounts.Account
	for _, acc := range p.mgr.Accounts() {
		if acc.Address == address {
			target = &acc
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrSignerUnavailable, address.Hex())
	}

	password, err := p.secrets(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignerUnavailable, err)
	}

	keyJSON, err := p.mgr.ks.Export(*target, password, password)
	if err != nil {
		return nil, fmt.Errorf("export key: %w", err)
	}
	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt key: %w", err)
	}

	return &keySigner{address: address, key: key.PrivateKey}, nil
}

type keySigner struct {
	address common.Address
	key     *ecdsa.PrivateKey
}

func (s *keySigner) Address() common.Address { return s.address }

func (s *keySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(chainID)
	return types.SignTx(tx, signer, s.key)
}

// NewKeySigner builds a Signer directly from a hex private key. Used by
// tests and one-off tooling; production flows go through KeystoreProvider.
func NewKeySigner(privateKeyHex string) (Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &keySigner{address: crypto.PubkeyToAddress(key.PublicKey), key: key}, nil
}
