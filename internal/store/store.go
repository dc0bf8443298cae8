// Package store implements PostgreSQL persistence for the ledger. Every
// query is scoped by organization id; this service only appends transaction
// rows, it never updates or deletes them.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// SQL statements as constants for reusability and clarity.
const (
	createAccountsTableSQL = `
	CREATE TABLE IF NOT EXISTS accounts (
		id VARCHAR(36) PRIMARY KEY,
		org_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`

	createLedgerTransactionsTableSQL = `
	CREATE TABLE IF NOT EXISTS ledger_transactions (
		id VARCHAR(36) PRIMARY KEY,
		org_id VARCHAR(36) NOT NULL,
		account_id VARCHAR(36),
		transaction_date DATE NOT NULL,
		description TEXT NOT NULL,
		amount NUMERIC(14, 2) NOT NULL CHECK (amount >= 0),
		direction VARCHAR(6) NOT NULL,
		category VARCHAR(255),
		cleaned_vendor VARCHAR(255),
		source_account_name VARCHAR(255) NOT NULL,
		import_channel VARCHAR(50) NOT NULL,
		import_origin VARCHAR(100) NOT NULL,
		fingerprint VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`

	createLedgerOrgIndexSQL = `
	CREATE INDEX IF NOT EXISTS idx_ledger_transactions_org
	ON ledger_transactions (org_id, transaction_date);`
)

// Store wraps the database handle.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects to PostgreSQL and bootstraps the schema.
func Open(databaseURL string, log zerolog.Logger) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("store: DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("store: create tables: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL database")
	return &Store{db: db, log: log}, nil
}

func createTables(db *sql.DB) error {
	for _, stmt := range []string{
		createAccountsTableSQL,
		createLedgerTransactionsTableSQL,
		createLedgerOrgIndexSQL,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetAccountName returns the stored display name of an account, or "" when
// the account does not exist for the organization.
func (s *Store) GetAccountName(ctx context.Context, orgID, accountID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM accounts WHERE org_id = $1 AND id = $2`,
		orgID, accountID,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get account name: %w", err)
	}
	return name, nil
}
