package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quillbooks/quillbooks/internal/domain"
)

const insertTransactionSQL = `
	INSERT INTO ledger_transactions (
		id, org_id, account_id, transaction_date, description,
		amount, direction, category, cleaned_vendor,
		source_account_name, import_channel, import_origin,
		fingerprint, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// InsertTransactions writes the batch inside one database transaction and
// returns the summed row count the store reported. Any failure rolls back the
// whole batch; there is no partial-success path. No deduplication is applied:
// re-importing the same CSV produces duplicate rows.
func (s *Store) InsertTransactions(ctx context.Context, rows []*domain.LedgerTransaction) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTransactionSQL)
	if err != nil {
		return 0, fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, r := range rows {
		res, err := stmt.ExecContext(ctx,
			r.ID, r.OrgID, r.AccountID, r.TransactionDate, r.Description,
			r.Amount, string(r.Direction), r.Category, r.CleanedVendor,
			r.SourceAccountName, r.ImportChannel, r.ImportOrigin,
			r.Fingerprint, r.CreatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("store: insert transaction %s: %w", r.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("store: rows affected: %w", err)
		}
		written += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return written, nil
}

// ListTransactions returns an organization's ledger transactions, newest
// first.
func (s *Store) ListTransactions(ctx context.Context, orgID string) ([]*domain.LedgerTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, account_id, transaction_date, description,
		       amount, direction, category, cleaned_vendor,
		       source_account_name, import_channel, import_origin,
		       fingerprint, created_at
		FROM ledger_transactions
		WHERE org_id = $1
		ORDER BY transaction_date DESC, created_at DESC`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list transactions: %w", err)
	}
	defer rows.Close()

	var result []*domain.LedgerTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list transactions: %w", err)
	}
	return result, nil
}

func scanTransaction(scanner interface{ Scan(...any) error }) (*domain.LedgerTransaction, error) {
	var t domain.LedgerTransaction
	var accountID, category, vendor sql.NullString
	var direction string

	err := scanner.Scan(
		&t.ID, &t.OrgID, &accountID, &t.TransactionDate, &t.Description,
		&t.Amount, &direction, &category, &vendor,
		&t.SourceAccountName, &t.ImportChannel, &t.ImportOrigin,
		&t.Fingerprint, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: scan transaction: %w", err)
	}

	t.Direction = domain.Direction(direction)
	if accountID.Valid {
		t.AccountID = &accountID.String
	}
	if category.Valid {
		t.Category = &category.String
	}
	if vendor.Valid {
		t.CleanedVendor = &vendor.String
	}
	return &t, nil
}

// ListAccounts returns an organization's accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context, orgID string) ([]*domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, org_id, name, created_at FROM accounts WHERE org_id = $1 ORDER BY name`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list accounts: %w", err)
	}
	defer rows.Close()

	var result []*domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.OrgID, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan account: %w", err)
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list accounts: %w", err)
	}
	return result, nil
}
