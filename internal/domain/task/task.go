package task

import (
	"encoding/json"
	"fmt"
)

type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

const (
	TypeBulkImport = "BulkImportTask"
	TypeCsvImport  = "CsvImportTask"
)

// Types lists every task type that has a stream.
var Types = []string{TypeBulkImport, TypeCsvImport}

// DefaultTaskValue provides a common implementation for TaskValue
func DefaultTaskValue(task interface{}) ([]byte, error) {
	return json.Marshal(task)
}

func UnmarshalTask[T Task](task []byte) (T, error) {
	var t T
	err := json.Unmarshal(task, &t)
	return t, err
}

// Decode rebuilds a task from its stream fields.
func Decode(taskType string, data []byte) (Task, error) {
	switch taskType {
	case TypeBulkImport:
		return UnmarshalTask[*BulkImportTask](data)
	case TypeCsvImport:
		return UnmarshalTask[*CsvImportTask](data)
	default:
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}
}
