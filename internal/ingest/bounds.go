package ingest

import "strings"

// Ceilings for a single CSV upload. Both checks run before sanitization and
// before any external call, so a hostile upload is rejected at its cheapest
// point.
const (
	// maxCSVBytes is the UTF-8 byte ceiling for the raw CSV text.
	maxCSVBytes = 5 << 20 // 5 MiB

	// maxDataRows is the ceiling on non-blank data rows (1001 lines
	// including the header).
	maxDataRows = 1000
)

// checkBounds rejects oversized or empty CSV payloads. Size is checked first
// so that line counting never touches an oversized payload.
func checkBounds(csvText string) error {
	if len(csvText) > maxCSVBytes {
		return newError(KindPayloadTooLarge, "CSV file exceeds the 5 MiB size limit.")
	}

	lines := countNonBlankLines(csvText)
	if lines == 0 {
		return newError(KindEmptyInput, "CSV file contains no data.")
	}
	if lines > maxDataRows+1 {
		return newError(KindTooManyRows, "CSV file exceeds the maximum of 1000 transaction rows.")
	}
	return nil
}

func countNonBlankLines(csvText string) int {
	n := 0
	for _, line := range strings.Split(csvText, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
