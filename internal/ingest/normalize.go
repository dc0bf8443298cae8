package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quillbooks/quillbooks/internal/domain"
)

// Provenance tags on every row this pipeline writes, so reconciliation and
// audit can tell CSV-originated rows apart from other import paths.
const (
	ImportChannel = "csv"
	ImportOrigin  = "csv-llm-import"

	// fallbackAccountName is used when neither the request nor the store
	// yields an account name.
	fallbackAccountName = "CSV Import"
)

// normalize maps extracted records into ledger rows. This is the one place
// where sign information is discarded into the Direction field.
func (p *Pipeline) normalize(ctx context.Context, req Request, extracted []domain.ExtractedTransaction) []*domain.LedgerTransaction {
	sourceName := p.resolveSourceAccountName(ctx, req)
	now := time.Now().UTC()

	rows := make([]*domain.LedgerTransaction, 0, len(extracted))
	for _, tx := range extracted {
		direction := domain.DirectionCredit
		if tx.Amount.IsNegative() {
			direction = domain.DirectionDebit
		}

		rows = append(rows, &domain.LedgerTransaction{
			ID:                uuid.NewString(),
			OrgID:             req.OrgID,
			AccountID:         req.AccountID,
			TransactionDate:   tx.Date,
			Description:       tx.Description,
			Amount:            tx.Amount.Abs(),
			Direction:         direction,
			Category:          tx.Category,
			CleanedVendor:     cleanVendor(tx.Vendor),
			SourceAccountName: sourceName,
			ImportChannel:     ImportChannel,
			ImportOrigin:      ImportOrigin,
			Fingerprint:       fingerprint(req.OrgID, req.AccountID, tx.Date, tx.Description, tx.Amount),
			CreatedAt:         now,
		})
	}
	return rows
}

// resolveSourceAccountName resolves in order: explicit request-supplied
// display name, stored account name looked up by id, literal fallback. The
// lookup is only attempted when an account id is present and no display name
// was supplied; a lookup failure falls through rather than failing the import.
func (p *Pipeline) resolveSourceAccountName(ctx context.Context, req Request) string {
	if req.AccountName != nil && strings.TrimSpace(*req.AccountName) != "" {
		return *req.AccountName
	}

	if req.AccountID != nil && *req.AccountID != "" {
		name, err := p.store.GetAccountName(ctx, req.OrgID, *req.AccountID)
		if err != nil {
			p.log.Warn().Err(err).Str("account_id", *req.AccountID).Msg("Account name lookup failed, using fallback")
		} else if name != "" {
			return name
		}
	}

	return fallbackAccountName
}

// cleanVendor trims and collapses internal whitespace. Empty input maps to
// nil, never to an empty string.
func cleanVendor(vendor *string) *string {
	if vendor == nil {
		return nil
	}
	cleaned := strings.Join(strings.Fields(*vendor), " ")
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// fingerprint hashes the identifying content of a transaction. It is stored
// alongside the row for a future soft-dedup pass but is not enforced unique:
// legitimate duplicate transactions (same date, description, amount) do
// collide, and re-imports currently produce duplicate rows.
func fingerprint(orgID string, accountID *string, date time.Time, description string, signedAmount decimal.Decimal) string {
	h := sha256.New()
	h.Write([]byte(orgID))
	h.Write([]byte{0})
	if accountID != nil {
		h.Write([]byte(*accountID))
	}
	h.Write([]byte{0})
	h.Write([]byte(date.Format("2006-01-02")))
	h.Write([]byte{0})
	h.Write([]byte(description))
	h.Write([]byte{0})
	h.Write([]byte(signedAmount.String()))
	return hex.EncodeToString(h.Sum(nil))
}
