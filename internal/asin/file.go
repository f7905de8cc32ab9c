package asin

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MaxImportFileSize is the upload limit enforced before a CSV is read.
const MaxImportFileSize int64 = 5 * 1024 * 1024

var (
	ErrNotCSV       = errors.New("only .csv files are accepted")
	ErrFileTooLarge = errors.New("file exceeds the import size limit")
)

// CheckImportFile rejects files the parser must never see. A non-positive
// limit means MaxImportFileSize.
func CheckImportFile(name string, size, limit int64) error {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return fmt.Errorf("%s: %w", name, ErrNotCSV)
	}
	if limit <= 0 {
		limit = MaxImportFileSize
	}
	if size > limit {
		return fmt.Errorf("%s is %d bytes, limit is %d: %w", name, size, limit, ErrFileTooLarge)
	}
	return nil
}

// ExportFilename is the default name of a directory export.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("asin-directory-%s.csv", now.UTC().Format("2006-01-02"))
}
