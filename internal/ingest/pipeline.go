// Package ingest implements the bounded CSV transaction-ingestion pipeline:
// bounds validation, formula-injection sanitization, schema-constrained
// extraction through an external model, normalization into ledger rows, and
// an organization-scoped bulk write.
package ingest

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quillbooks/internal/domain"
)

// Request is the caller-supplied input for one ingestion run. It is never
// trusted as well-formed.
type Request struct {
	CSVContent  string
	OrgID       string
	AccountID   *string
	AccountName *string
}

// Store is the persistence surface the pipeline needs: the account-name
// fallback lookup and the bulk transaction write.
type Store interface {
	GetAccountName(ctx context.Context, orgID, accountID string) (string, error)
	InsertTransactions(ctx context.Context, rows []*domain.LedgerTransaction) (int, error)
}

// Archiver stores the sanitized CSV payload for audit. Implementations may be
// nil-safe no-ops when archival is not configured.
type Archiver interface {
	ArchiveCSV(ctx context.Context, orgID, sanitizedCSV string) (string, error)
	Enabled() bool
}

// Pipeline runs one ingestion request through all stages, strictly in order.
// Each run is stateless and isolated; concurrent runs share nothing in
// process.
type Pipeline struct {
	extractor Extractor
	store     Store
	archiver  Archiver
	log       zerolog.Logger
}

// New creates a pipeline. archiver may be nil to disable CSV archival.
func New(extractor Extractor, store Store, archiver Archiver, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		store:     store,
		archiver:  archiver,
		log:       log,
	}
}

// Run executes bounds check → sanitize → extract → normalize → persist and
// returns the number of rows the store actually wrote. Any stage failure
// short-circuits the rest; no stage after extraction is reached when
// extraction fails. No stage is retried.
func (p *Pipeline) Run(ctx context.Context, req Request) (int, error) {
	// Presence only: whitespace-only content is not a missing parameter,
	// it is an empty input, and the bounds check owns that classification.
	if req.CSVContent == "" || req.OrgID == "" {
		return 0, newError(KindMissingParameters, "csvContent and orgId are required")
	}

	if err := checkBounds(req.CSVContent); err != nil {
		return 0, err
	}

	sanitized := sanitizeCSV(req.CSVContent)

	extracted, err := p.extractor.Extract(ctx, sanitized)
	if err != nil {
		return 0, err
	}
	p.log.Info().Str("org_id", req.OrgID).Int("extracted", len(extracted)).Msg("Extraction completed")

	rows := p.normalize(ctx, req, extracted)

	imported, err := p.store.InsertTransactions(ctx, rows)
	if err != nil {
		return 0, wrapError(KindPersistence, "failed to write transactions", err)
	}

	// Archival is best-effort: the import already succeeded, so a storage
	// fault here is logged and swallowed.
	if p.archiver != nil && p.archiver.Enabled() {
		uri, err := p.archiver.ArchiveCSV(ctx, req.OrgID, sanitized)
		if err != nil {
			p.log.Warn().Err(err).Str("org_id", req.OrgID).Msg("CSV archival failed")
		} else {
			p.log.Info().Str("org_id", req.OrgID).Str("uri", uri).Msg("Sanitized CSV archived")
		}
	}

	p.log.Info().Str("org_id", req.OrgID).Int("imported", imported).Msg("CSV import completed")
	return imported, nil
}
