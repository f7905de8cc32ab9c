package domain

import "time"

// ImportResult is the backend response of the bulk-manual and bulk-csv endpoints.
type ImportResult struct {
	Added      int      `json:"added"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
}

// ImportSource tells which endpoint an import went through.
type ImportSource string

const (
	ImportSourceManual ImportSource = "manual"
	ImportSourceCSV    ImportSource = "csv"
)

// ImportRun is the archived outcome of a single import submission.
type ImportRun struct {
	Source      ImportSource  `json:"source"`
	Filename    string        `json:"filename,omitempty"`
	Submitted   int           `json:"submitted"`
	Result      *ImportResult `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
}
