package task

// CsvImportTask carries the raw file content; the backend parses it again.
type CsvImportTask struct {
	Filename   string `json:"filename"`
	CsvData    string `json:"csv_data"`
	ValidCount int    `json:"valid_count"` // Valid rows seen in the local preview
}

func (t *CsvImportTask) TaskType() string {
	return TypeCsvImport
}

func (t *CsvImportTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
