package ingest

import "strings"

// sanitizeCSV neutralizes spreadsheet-formula-injection payloads in raw CSV
// text. Cells are the comma-split pieces of each line; quoted-field CSV
// semantics are deliberately not applied because the extraction service
// receives the result as a flat text blob. Sanitization protects any human
// who later opens the stored or re-exported CSV in spreadsheet software; it
// does not change extraction semantics.
//
// The guard applies uniformly to every cell, header row included, and is
// idempotent: the injected quote does not itself trigger the guard.
func sanitizeCSV(csvText string) string {
	lines := strings.Split(csvText, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		cells := strings.Split(line, ",")
		for j, cell := range cells {
			cells[j] = sanitizeCell(cell)
		}
		out[i] = strings.Join(cells, ",")
	}
	return strings.Join(out, "\n")
}

// sanitizeCell trims the cell and prepends a single quote when the first
// character could start a spreadsheet formula.
func sanitizeCell(cell string) string {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return trimmed
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + trimmed
	}
	return trimmed
}
