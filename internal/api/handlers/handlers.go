package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quillbooks/internal/api/middleware"
	"github.com/quillbooks/quillbooks/internal/domain"
	"github.com/quillbooks/quillbooks/internal/ingest"
	"github.com/quillbooks/quillbooks/internal/logger"
)

// genericImportError is the one message callers see for any failure that is
// not fixable by resubmitting different input. Service statuses, table names
// and credential details stay in the operator log.
const genericImportError = "Failed to process CSV transactions. Please check the file format and try again."

const missingAuthError = "Missing authorization header."

// maxImportBody caps the JSON envelope read from a request, so a hostile
// upload cannot stream past the CSV byte ceiling before the bounds check
// sees it. Slightly above the 5 MiB CSV limit to leave room for the JSON
// framing and escaping.
const maxImportBody = 6 << 20

// CSVImporter runs one ingestion request end to end.
type CSVImporter interface {
	Run(ctx context.Context, req ingest.Request) (int, error)
}

// ImportHandler handles POST /api/transactions/import-csv. Operator-facing
// logging uses the request-scoped logger from the context.
type ImportHandler struct {
	importer CSVImporter
}

// NewImportHandler creates a new import handler.
func NewImportHandler(importer CSVImporter) *ImportHandler {
	return &ImportHandler{importer: importer}
}

type importRequest struct {
	CSVContent  string  `json:"csvContent"`
	OrgID       string  `json:"orgId"`
	AccountID   *string `json:"accountId"`
	AccountName *string `json:"accountName"`
}

// ImportCSV validates the request envelope, runs the pipeline and translates
// failures into the two-tier response policy: specific-but-safe 400s for
// caller-fixable input problems, one generic 500 for everything else.
func (h *ImportHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
		middleware.WriteError(w, http.StatusUnauthorized, missingAuthError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteError(w, http.StatusBadRequest, "Request body too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Presence only; whitespace-only CSV content is classified by the
	// pipeline's bounds check, not here.
	if req.CSVContent == "" || req.OrgID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "csvContent and orgId are required")
		return
	}

	imported, err := h.importer.Run(r.Context(), ingest.Request{
		CSVContent:  req.CSVContent,
		OrgID:       req.OrgID,
		AccountID:   req.AccountID,
		AccountName: req.AccountName,
	})
	if err != nil {
		if msg, ok := ingest.CallerMessage(err); ok {
			middleware.WriteError(w, http.StatusBadRequest, msg)
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().
			Err(err).
			Str("kind", string(ingest.KindOf(err))).
			Str("org_id", req.OrgID).
			Msg("CSV import failed")
		middleware.WriteError(w, http.StatusInternalServerError, genericImportError)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"imported": imported,
	})
}

// LedgerReader is the read-only store surface behind the GET endpoints.
type LedgerReader interface {
	ListTransactions(ctx context.Context, orgID string) ([]*domain.LedgerTransaction, error)
	ListAccounts(ctx context.Context, orgID string) ([]*domain.Account, error)
}

// LedgerHandler handles read-only transaction and account endpoints.
type LedgerHandler struct {
	reader LedgerReader
	log    zerolog.Logger
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(reader LedgerReader, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{reader: reader, log: log}
}

// ListTransactions handles GET /api/transactions?orgId=...
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "orgId is required")
		return
	}

	transactions, err := h.reader.ListTransactions(r.Context(), orgID)
	if err != nil {
		h.log.Error().Err(err).Str("org_id", orgID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	if transactions == nil {
		transactions = []*domain.LedgerTransaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// ListAccounts handles GET /api/accounts?orgId=...
func (h *LedgerHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "orgId is required")
		return
	}

	accounts, err := h.reader.ListAccounts(r.Context(), orgID)
	if err != nil {
		h.log.Error().Err(err).Str("org_id", orgID).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	if accounts == nil {
		accounts = []*domain.Account{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}
