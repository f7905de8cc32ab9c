package repository

import (
	"context"
	"fmt"
	"time"

	"asindir/client/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the part of *pgxpool.Pool the archive uses.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type ArchiveRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveRecords(ctx context.Context, records []domain.AsinRecord) error
	SaveImportResult(ctx context.Context, run *domain.ImportRun) error
}

type archiveRepository struct {
	db  DB
	now func() time.Time
}

func NewArchiveRepository(db DB) ArchiveRepository {
	return &archiveRepository{
		db:  db,
		now: time.Now,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS asin_records (
	asin        TEXT PRIMARY KEY,
	id          TEXT NOT NULL,
	product_id  TEXT,
	data        JSONB NOT NULL,
	synced_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS import_runs (
	id            BIGSERIAL PRIMARY KEY,
	source        TEXT NOT NULL,
	filename      TEXT,
	submitted     INTEGER NOT NULL,
	added         INTEGER,
	duplicates    INTEGER,
	error         TEXT,
	result        JSONB,
	submitted_at  TIMESTAMPTZ NOT NULL
);`

func (r *archiveRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create archive tables: %w", err)
	}
	return nil
}

const upsertRecordQuery = `
INSERT INTO asin_records (asin, id, product_id, data, synced_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (asin)
DO UPDATE SET id = $2, product_id = $3, data = $4, synced_at = $5`

func (r *archiveRepository) recordsBatch(records []domain.AsinRecord) *pgx.Batch {
	syncedAt := r.now().UTC()
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(upsertRecordQuery, record.ASIN, record.ID, record.ProductID, record, syncedAt)
	}
	return batch
}

// SaveRecords upserts a directory snapshot keyed by ASIN, in one round trip.
func (r *archiveRepository) SaveRecords(ctx context.Context, records []domain.AsinRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := r.recordsBatch(records)
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for _, record := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save record %s: %w", record.ASIN, err)
		}
	}

	return nil
}

func (r *archiveRepository) SaveImportResult(ctx context.Context, run *domain.ImportRun) error {
	query := `
	INSERT INTO import_runs (source, filename, submitted, added, duplicates, error, result, submitted_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var added, duplicates *int
	if run.Result != nil {
		added, duplicates = &run.Result.Added, &run.Result.Duplicates
	}

	_, err := r.db.Exec(ctx, query,
		string(run.Source),
		nullable(run.Filename),
		run.Submitted,
		added,
		duplicates,
		nullable(run.Error),
		run.Result,
		run.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save import run: %w", err)
	}

	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
