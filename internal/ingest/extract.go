package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/quillbooks/quillbooks/internal/domain"
)

// Extractor turns sanitized CSV text into typed transaction records.
type Extractor interface {
	Extract(ctx context.Context, csvText string) ([]domain.ExtractedTransaction, error)
}

// extractionPrompt is the fixed instruction sent with every request. The
// response shape itself is enforced through the schema-constrained call, not
// through the prose.
const extractionPrompt = "You are a bank transaction extractor for a bookkeeping system.\n\n" +
	"Task:\n" +
	"- Parse ALL transaction rows from the attached CSV text.\n" +
	"- The first line is usually a header; do not emit it as a transaction.\n" +
	"- Output one object per transaction row.\n\n" +
	"Field rules:\n" +
	"- \"date\": ISO format \"YYYY-MM-DD\". Convert other date formats.\n" +
	"- \"description\": the transaction description as written.\n" +
	"- \"amount\": number, negative for money OUT, positive for money IN.\n" +
	"  If the CSV has separate debit/credit columns, convert to one signed amount.\n" +
	"- \"category\": a short spending category, or omit if unclear.\n" +
	"- \"vendor\": the merchant or counterparty name, or omit if unclear.\n"

// transactionSchema is the required output contract: an array of transaction
// objects with at least date and description per item.
var transactionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":        {Type: genai.TypeString, Description: "ISO date, YYYY-MM-DD"},
			"description": {Type: genai.TypeString},
			"amount":      {Type: genai.TypeNumber, Description: "signed; negative = money out"},
			"category":    {Type: genai.TypeString},
			"vendor":      {Type: genai.TypeString},
		},
		Required: []string{"date", "description"},
	},
}

// GeminiExtractor calls the Gemini API with a schema-constrained request.
// One call per ingestion request; retries are a caller concern.
type GeminiExtractor struct {
	apiKey string
	model  string
	log    zerolog.Logger
}

// NewGeminiExtractor creates an extractor. The credential is checked per call
// rather than here, so a misconfigured deployment still starts and reports
// the problem on each import attempt.
func NewGeminiExtractor(apiKey, model string, log zerolog.Logger) *GeminiExtractor {
	return &GeminiExtractor{apiKey: apiKey, model: model, log: log}
}

// Extract sends the sanitized CSV to the model and validates the response
// into typed records. The service is instructed to respond only through the
// schema-constrained path, but the response is still treated as untrusted.
func (e *GeminiExtractor) Extract(ctx context.Context, csvText string) ([]domain.ExtractedTransaction, error) {
	if e.apiKey == "" {
		return nil, newError(KindConfiguration, "extraction service credential is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      e.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, wrapError(KindExtractionService, "create extraction client", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{Text: "CSV content:\n\n" + csvText},
			},
		},
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   transactionSchema,
	}

	resp, err := client.Models.GenerateContent(ctx, e.model, contents, cfg)
	if err != nil {
		// The upstream HTTP status is for the operator log only; it must
		// never reach the caller.
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			e.log.Error().Int("status", apiErr.Code).Str("api_status", apiErr.Status).Msg("Extraction service call failed")
		}
		return nil, wrapError(KindExtractionService, "extraction service call failed", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, newError(KindExtractionContract, "extraction service returned an empty response")
	}

	return decodeExtraction(rawText)
}

// decodeExtraction validates the raw model response into typed records.
// Nothing in the payload is trusted until it has passed through here.
func decodeExtraction(rawText string) ([]domain.ExtractedTransaction, error) {
	clean := stripCodeFences(rawText)

	var parsed interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, wrapError(KindExtractionContract, "extraction response is not valid JSON", err)
	}

	items, ok := parsed.([]interface{})
	if !ok {
		return nil, newError(KindExtractionContract, fmt.Sprintf("extraction response is %T, want array", parsed))
	}

	result := make([]domain.ExtractedTransaction, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, newError(KindExtractionContract, fmt.Sprintf("extraction element %d is %T, want object", i, item))
		}

		tx, err := decodeTransaction(obj)
		if err != nil {
			return nil, wrapError(KindExtractionContract, fmt.Sprintf("extraction element %d", i), err)
		}
		result = append(result, tx)
	}
	return result, nil
}

func decodeTransaction(obj map[string]interface{}) (domain.ExtractedTransaction, error) {
	var zero domain.ExtractedTransaction

	dateStr, err := getStringField(obj, "date", true)
	if err != nil {
		return zero, err
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return zero, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}

	desc, err := getStringField(obj, "description", true)
	if err != nil {
		return zero, err
	}

	amount, err := getOptionalNumberField(obj, "amount")
	if err != nil {
		return zero, err
	}

	category, err := getOptionalStringField(obj, "category")
	if err != nil {
		return zero, err
	}
	vendor, err := getOptionalStringField(obj, "vendor")
	if err != nil {
		return zero, err
	}

	return domain.ExtractedTransaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Category:    category,
		Vendor:      vendor,
	}, nil
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

// getOptionalNumberField returns zero when the field is absent or null.
func getOptionalNumberField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.Zero, nil
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), nil
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %q: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("field %q has type %T, want number or null", key, v)
	}
}

// stripCodeFences removes Markdown fences around the JSON payload in case the
// model ignores the response-format instruction.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
