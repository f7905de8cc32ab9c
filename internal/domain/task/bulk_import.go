package task

// BulkImportTask carries ASINs that already passed ParseBulkText.
type BulkImportTask struct {
	Asins []string `json:"asins"`
}

func (t *BulkImportTask) TaskType() string {
	return TypeBulkImport
}

func (t *BulkImportTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
