package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeExtraction(t *testing.T) {
	raw := `[
		{"date": "2024-03-01", "description": "ACME PAYROLL", "amount": 2500.00, "category": "Income", "vendor": "ACME Corp"},
		{"date": "2024-03-02", "description": "COFFEE BAR", "amount": -4.75}
	]`

	txs, err := decodeExtraction(raw)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "ACME PAYROLL", txs[0].Description)
	assert.Equal(t, "2500", txs[0].Amount.String())
	require.NotNil(t, txs[0].Category)
	assert.Equal(t, "Income", *txs[0].Category)
	require.NotNil(t, txs[0].Vendor)
	assert.Equal(t, "ACME Corp", *txs[0].Vendor)
	assert.Equal(t, 2024, txs[0].Date.Year())

	assert.Equal(t, "-4.75", txs[1].Amount.String())
	assert.Nil(t, txs[1].Category)
	assert.Nil(t, txs[1].Vendor)
}

func TestDecodeExtractionMissingAmountDefaultsToZero(t *testing.T) {
	txs, err := decodeExtraction(`[{"date": "2024-03-01", "description": "UNKNOWN"}]`)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.IsZero())
}

func TestDecodeExtractionContractViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not JSON", "the statement contains 3 transactions"},
		{"object instead of array", `{"transactions": []}`},
		{"array of scalars", `[1, 2, 3]`},
		{"missing date", `[{"description": "x", "amount": 1}]`},
		{"missing description", `[{"date": "2024-01-01", "amount": 1}]`},
		{"empty description", `[{"date": "2024-01-01", "description": "  "}]`},
		{"malformed date", `[{"date": "01/02/2024", "description": "x"}]`},
		{"amount as string", `[{"date": "2024-01-01", "description": "x", "amount": "12.50"}]`},
		{"vendor as number", `[{"date": "2024-01-01", "description": "x", "vendor": 7}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeExtraction(tt.raw)
			require.Error(t, err)
			assert.Equal(t, KindExtractionContract, KindOf(err))
		})
	}
}

func TestDecodeExtractionStripsCodeFences(t *testing.T) {
	raw := "```json\n[{\"date\": \"2024-03-01\", \"description\": \"FENCED\", \"amount\": -1.00}]\n```"
	txs, err := decodeExtraction(raw)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "FENCED", txs[0].Description)
}

func TestDecodeExtractionNullOptionalFields(t *testing.T) {
	txs, err := decodeExtraction(`[{"date": "2024-03-01", "description": "x", "amount": -1, "category": null, "vendor": null}]`)
	require.NoError(t, err)
	assert.Nil(t, txs[0].Category)
	assert.Nil(t, txs[0].Vendor)
}

func TestDecodeExtractionEmptyArray(t *testing.T) {
	txs, err := decodeExtraction(`[]`)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestGeminiExtractorMissingCredential(t *testing.T) {
	e := NewGeminiExtractor("", "gemini-2.5-flash", testLogger())
	_, err := e.Extract(t.Context(), "date,description,amount\n2024-01-01,x,-1")
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
}
