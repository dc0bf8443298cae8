package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction re-expresses the sign of a transaction amount as a debit/credit tag.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// ExtractedTransaction is one record returned by the extraction service.
// Amount carries sign: negative = money out, positive = money in. This is a
// request-scoped value and is never persisted directly.
type ExtractedTransaction struct {
	Date        time.Time       // parsed from "date" (YYYY-MM-DD)
	Description string          // from "description"
	Amount      decimal.Decimal // from "amount", signed
	Category    *string         // from "category" or nil
	Vendor      *string         // from "vendor" or nil
}

// LedgerTransaction is a normalized transaction row ready to be stored.
// Amount is always non-negative; the sign lives in Direction. Every row is
// scoped to exactly one organization.
type LedgerTransaction struct {
	ID                string
	OrgID             string
	AccountID         *string
	TransactionDate   time.Time
	Description       string
	Amount            decimal.Decimal
	Direction         Direction
	Category          *string
	CleanedVendor     *string
	SourceAccountName string // never empty; falls back to "CSV Import"
	ImportChannel     string
	ImportOrigin      string
	Fingerprint       string // content hash, recorded but not enforced unique
	CreatedAt         time.Time
}

// Account is a bank or card account belonging to an organization.
type Account struct {
	ID        string
	OrgID     string
	Name      string
	CreatedAt time.Time
}
