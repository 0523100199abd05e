package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed Sink. It is intentionally minimal: append-only
// tables, amounts stored as decimal strings.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger DB under dataDir/ledger.db.
func Open(dataDir string) (*Store, error) {
	return OpenDSN(filepath.Join(dataDir, "ledger.db"))
}

// OpenDSN opens a ledger DB using the given sqlite DSN/path. Tests may pass
// ":memory:" to avoid touching disk.
func OpenDSN(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS transfers (
	id TEXT PRIMARY KEY,
	chain_id INTEGER NOT NULL,
	sender TEXT NOT NULL,
	recipient TEXT NOT NULL,
	amount TEXT NOT NULL,
	platform_fee TEXT NOT NULL,
	fee_tx_hash TEXT,
	principal_tx_hash TEXT,
	status TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS transfer_errors (
	id TEXT PRIMARY KEY,
	chain_id INTEGER NOT NULL,
	sender TEXT,
	recipient TEXT,
	amount TEXT,
	stage TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`)
	if err != nil {
		return fmt.Errorf("create ledger tables: %w", err)
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordTransfer persists one transfer outcome.
func (s *Store) RecordTransfer(ctx context.Context, rec TransferRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("ledger store not initialized")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO transfers (id, chain_id, sender, recipient, amount, platform_fee, fee_tx_hash, principal_tx_hash, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ChainID, rec.Sender, rec.Recipient,
		rec.Amount.String(), rec.PlatformFee.String(),
		rec.FeeTxHash, rec.PrincipalTxHash, string(rec.Status))
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// RecordError persists one transfer failure.
func (s *Store) RecordError(ctx context.Context, rec ErrorRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("ledger store not initialized")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO transfer_errors (id, chain_id, sender, recipient, amount, stage, message)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ChainID, rec.Sender, rec.Recipient,
		rec.Amount.String(), rec.Stage, rec.Message)
	if err != nil {
		return fmt.Errorf("insert transfer error: %w", err)
	}
	return nil
}

// History returns the most recent transfers, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]TransferRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, chain_id, sender, recipient, amount, platform_fee,
       COALESCE(fee_tx_hash, ''), COALESCE(principal_tx_hash, ''), status, created_at
FROM transfers ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var out []TransferRecord
	for rows.Next() {
		var rec TransferRecord
		var amount, fee string
		var createdAt time.Time
		if err := rows.Scan(&rec.ID, &rec.ChainID, &rec.Sender, &rec.Recipient,
			&amount, &fee, &rec.FeeTxHash, &rec.PrincipalTxHash, &rec.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		rec.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		rec.PlatformFee, err = decimal.NewFromString(fee)
		if err != nil {
			return nil, fmt.Errorf("parse fee %q: %w", fee, err)
		}
		rec.CreatedAt = createdAt
		out = append(out, rec)
	}
	return out, rows.Err()
}
