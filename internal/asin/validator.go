// Package asin normalizes, validates and parses Amazon Standard Identification
// Numbers from free text and CSV files. Nothing in this package does I/O.
package asin

import (
	"regexp"
	"strings"
)

var (
	asinPattern    = regexp.MustCompile(`^B[0-9A-Z]{9}$`)
	bulkDelimiters = regexp.MustCompile(`[\n,;\s]+`)
)

// Normalize trims and uppercases input and reports whether the result is a
// well-formed ASIN: "B" followed by nine characters of [0-9A-Z].
func Normalize(input string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	if !asinPattern.MatchString(normalized) {
		return "", false
	}
	return normalized, true
}

// Valid is Normalize without the value.
func Valid(input string) bool {
	_, ok := Normalize(input)
	return ok
}

// BulkResult classifies the tokens of a pasted ASIN list. Each bucket keeps
// input order.
type BulkResult struct {
	Valid      []string `json:"valid"`
	Invalid    []string `json:"invalid"`
	Duplicates []string `json:"duplicates"`
}

// ParseBulkText splits text on runs of newlines, commas, semicolons and
// whitespace. The first occurrence of each ASIN goes to Valid, later ones to
// Duplicates; tokens that fail validation go to Invalid as written.
func ParseBulkText(text string) BulkResult {
	result := BulkResult{
		Valid:      []string{},
		Invalid:    []string{},
		Duplicates: []string{},
	}
	seen := make(map[string]struct{})

	for _, token := range bulkDelimiters.Split(text, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		normalized, ok := Normalize(token)
		if !ok {
			result.Invalid = append(result.Invalid, token)
			continue
		}

		if _, dup := seen[normalized]; dup {
			result.Duplicates = append(result.Duplicates, normalized)
			continue
		}
		seen[normalized] = struct{}{}
		result.Valid = append(result.Valid, normalized)
	}

	return result
}
