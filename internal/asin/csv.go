package asin

import (
	"strings"

	"asindir/client/internal/domain"
)

const (
	csvHeader = "ASIN"

	ReasonInvalidFormat = "Invalid ASIN format"
)

// RowError describes a CSV row whose ASIN column failed validation. Row is
// 1-based with the header as row 1.
type RowError struct {
	Row    int    `json:"row"`
	Asin   string `json:"asin"`
	Reason string `json:"reason"`
}

type CsvResult struct {
	Asins  []string   `json:"asins"`
	Errors []RowError `json:"errors"`
}

// Duplicates returns the ASINs that occur more than once in Asins, once each,
// in order of their second occurrence. ParseCsvContent itself keeps repeats.
func (r CsvResult) Duplicates() []string {
	counts := make(map[string]int, len(r.Asins))
	var dups []string
	for _, a := range r.Asins {
		counts[a]++
		if counts[a] == 2 {
			dups = append(dups, a)
		}
	}
	return dups
}

// ParseCsvContent reads the ASIN column of csvText. The column is the header
// cell equal to "ASIN" ignoring case, or the first column when there is none.
// Fields are split on bare commas; quoted fields are not unescaped. Empty
// values are skipped and invalid ones are reported per row.
func ParseCsvContent(csvText string) CsvResult {
	result := CsvResult{
		Asins:  []string{},
		Errors: []RowError{},
	}

	lines := strings.Split(csvText, "\n")
	column := asinColumn(lines[0])

	for i := 1; i < len(lines); i++ {
		fields := strings.Split(lines[i], ",")
		if column >= len(fields) {
			continue
		}

		raw := strings.TrimSpace(fields[column])
		if raw == "" {
			continue
		}

		normalized, ok := Normalize(raw)
		if !ok {
			result.Errors = append(result.Errors, RowError{
				Row:    i + 1,
				Asin:   raw,
				Reason: ReasonInvalidFormat,
			})
			continue
		}
		result.Asins = append(result.Asins, normalized)
	}

	return result
}

func asinColumn(header string) int {
	for i, name := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(name), csvHeader) {
			return i
		}
	}
	return 0
}

// GenerateCsvContent writes a single-column CSV of the records' ASINs. Every
// line, the last included, ends in a newline.
func GenerateCsvContent(records []domain.AsinRecord) string {
	var b strings.Builder
	b.Grow(len(csvHeader) + 1 + len(records)*11)

	b.WriteString(csvHeader)
	b.WriteByte('\n')
	for _, r := range records {
		b.WriteString(r.ASIN)
		b.WriteByte('\n')
	}
	return b.String()
}
