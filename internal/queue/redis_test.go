package queue

import (
	"testing"

	"asindir/client/internal/domain/task"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamName(t *testing.T) {
	assert.Equal(t, "asindir:stream:BulkImportTask", StreamName(task.TypeBulkImport))
	assert.Equal(t, "asindir:stream:CsvImportTask", StreamName(task.TypeCsvImport))
}

func TestDecodeMessage(t *testing.T) {
	msg := redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			FieldTaskType: task.TypeBulkImport,
			FieldTaskData: `{"asins":["B08N5WRWNW"]}`,
		},
	}

	decoded, err := DecodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, &task.BulkImportTask{Asins: []string{"B08N5WRWNW"}}, decoded)
}

func TestDecodeMessage_MissingFields(t *testing.T) {
	_, err := DecodeMessage(redis.XMessage{ID: "1-0", Values: map[string]interface{}{}})
	assert.ErrorContains(t, err, "task_type")

	_, err = DecodeMessage(redis.XMessage{ID: "2-0", Values: map[string]interface{}{FieldTaskType: task.TypeCsvImport}})
	assert.ErrorContains(t, err, "task_data")
}
