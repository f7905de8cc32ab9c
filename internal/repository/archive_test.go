package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"asindir/client/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDB is a mock implementation of DB
type MockDB struct {
	mock.Mock
	batch *pgx.Batch
}

func (m *MockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(append([]any{ctx, sql}, arguments...)...)
	return pgconn.NewCommandTag(args.String(0)), args.Error(1)
}

func (m *MockDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	m.batch = b
	return m.Called(ctx, b).Get(0).(pgx.BatchResults)
}

// fakeBatchResults fails the exec at index failAt, if set.
type fakeBatchResults struct {
	execs  int
	failAt int
	closed bool
}

func (f *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	f.execs++
	if f.failAt > 0 && f.execs == f.failAt {
		return pgconn.CommandTag{}, errors.New("duplicate key")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not used") }
func (f *fakeBatchResults) QueryRow() pgx.Row        { return nil }
func (f *fakeBatchResults) Close() error {
	f.closed = true
	return nil
}

func TestSaveRecords_QueuesOneUpsertPerRecord(t *testing.T) {
	db := new(MockDB)
	results := &fakeBatchResults{}
	db.On("SendBatch", mock.Anything, mock.Anything).Return(results)
	repo := NewArchiveRepository(db)

	records := []domain.AsinRecord{{ID: "1", ASIN: "B08N5WRWNW"}, {ID: "2", ASIN: "B07K2G8Z4Q"}}
	require.NoError(t, repo.SaveRecords(context.Background(), records))

	require.NotNil(t, db.batch)
	assert.Equal(t, 2, db.batch.Len())
	assert.Equal(t, "B07K2G8Z4Q", db.batch.QueuedQueries[1].Arguments[0])
	assert.Equal(t, 2, results.execs)
	assert.True(t, results.closed)
}

func TestSaveRecords_ReportsFailingRecord(t *testing.T) {
	db := new(MockDB)
	db.On("SendBatch", mock.Anything, mock.Anything).Return(&fakeBatchResults{failAt: 2})
	repo := NewArchiveRepository(db)

	records := []domain.AsinRecord{{ID: "1", ASIN: "B08N5WRWNW"}, {ID: "2", ASIN: "B07K2G8Z4Q"}}
	err := repo.SaveRecords(context.Background(), records)

	assert.ErrorContains(t, err, "B07K2G8Z4Q")
}

func TestSaveRecords_EmptyIsNoop(t *testing.T) {
	db := new(MockDB)
	repo := NewArchiveRepository(db)

	require.NoError(t, repo.SaveRecords(context.Background(), nil))
	db.AssertNotCalled(t, "SendBatch", mock.Anything, mock.Anything)
}

func TestSaveImportResult(t *testing.T) {
	db := new(MockDB)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &domain.ImportResult{Added: 3, Duplicates: 1, Errors: []string{}}
	added, duplicates := 3, 1
	db.On("Exec", mock.Anything, mock.Anything,
		"manual", (*string)(nil), 4, &added, &duplicates, (*string)(nil), result, at,
	).Return("INSERT 0 1", nil)
	repo := NewArchiveRepository(db)

	err := repo.SaveImportResult(context.Background(), &domain.ImportRun{
		Source:      domain.ImportSourceManual,
		Submitted:   4,
		Result:      result,
		SubmittedAt: at,
	})

	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestSaveImportResult_FailedRun(t *testing.T) {
	db := new(MockDB)
	filename, message := "list.csv", "HTTP 500: boom"
	db.On("Exec", mock.Anything, mock.Anything,
		"csv", &filename, 2, (*int)(nil), (*int)(nil), &message, (*domain.ImportResult)(nil), mock.Anything,
	).Return("", errors.New("connection refused"))
	repo := NewArchiveRepository(db)

	err := repo.SaveImportResult(context.Background(), &domain.ImportRun{
		Source:    domain.ImportSourceCSV,
		Filename:  filename,
		Submitted: 2,
		Error:     message,
	})

	assert.ErrorContains(t, err, "failed to save import run")
}
