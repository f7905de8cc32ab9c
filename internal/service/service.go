package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"asindir/client/internal/asin"
	"asindir/client/internal/domain"
	"asindir/client/internal/domain/task"
	"asindir/client/internal/queue"
	"asindir/client/internal/repository"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoValidAsins    = errors.New("no valid ASINs to import")
	ErrQueueDisabled   = errors.New("import queue is not configured")
	ErrArchiveDisabled = errors.New("archive database is not configured")
)

// Directory is the part of the backend client the service drives.
type Directory interface {
	GetAllDirectoryPages(ctx context.Context, search string) (*domain.DirectoryResults, error)
	BulkManual(ctx context.Context, asins []string) (*domain.ImportResult, error)
	BulkCsv(ctx context.Context, csvData string) (*domain.ImportResult, error)
}

// Submission is what an import call did with its input. Exactly one of
// MessageID and Result is set: queued imports get a stream message id, direct
// ones the backend's result.
type Submission struct {
	Source     domain.ImportSource
	Submitted  int
	Invalid    []string
	Duplicates []string
	RowErrors  []asin.RowError
	MessageID  string
	Result     *domain.ImportResult
}

type Service struct {
	directory   Directory
	repository  repository.ArchiveRepository
	queue       queue.Queue
	maxFileSize int64
	minIdleTime time.Duration
	now         func() time.Time
}

// NewService wires the import and archive flows. repository and queue may be
// nil; imports are then posted directly and nothing is archived.
func NewService(
	directory Directory,
	repository repository.ArchiveRepository,
	queue queue.Queue,
	maxFileSize int64,
	minIdleTime int,
) *Service {
	return &Service{
		directory:   directory,
		repository:  repository,
		queue:       queue,
		maxFileSize: maxFileSize,
		minIdleTime: time.Duration(minIdleTime) * time.Second,
		now:         time.Now,
	}
}

// SubmitBulkText validates pasted ASINs and hands the valid ones to the backend.
func (s *Service) SubmitBulkText(ctx context.Context, text string) (*Submission, error) {
	parsed := asin.ParseBulkText(text)
	sub := &Submission{
		Source:     domain.ImportSourceManual,
		Submitted:  len(parsed.Valid),
		Invalid:    parsed.Invalid,
		Duplicates: parsed.Duplicates,
	}
	if len(parsed.Valid) == 0 {
		return sub, ErrNoValidAsins
	}

	if s.queue != nil {
		msgID, err := s.queue.AddTask(ctx, &task.BulkImportTask{Asins: parsed.Valid})
		if err != nil {
			return sub, fmt.Errorf("failed to queue bulk import: %w", err)
		}
		sub.MessageID = msgID
		log.Infof("🔄 Queued %d ASINs for import (%s)", len(parsed.Valid), msgID)
		return sub, nil
	}

	result, err := s.importBulk(ctx, &task.BulkImportTask{Asins: parsed.Valid})
	sub.Result = result
	return sub, err
}

// SubmitCsvFile checks and previews a CSV file, then sends its raw content.
// The backend parses the file again; the preview only reports row errors early.
func (s *Service) SubmitCsvFile(ctx context.Context, name string, data []byte) (*Submission, error) {
	if err := asin.CheckImportFile(name, int64(len(data)), s.maxFileSize); err != nil {
		return nil, err
	}

	preview := asin.ParseCsvContent(string(data))
	sub := &Submission{
		Source:     domain.ImportSourceCSV,
		Submitted:  len(preview.Asins),
		Duplicates: preview.Duplicates(),
		RowErrors:  preview.Errors,
	}
	if len(preview.Asins) == 0 {
		return sub, ErrNoValidAsins
	}

	csvTask := &task.CsvImportTask{
		Filename:   name,
		CsvData:    string(data),
		ValidCount: len(preview.Asins),
	}

	if s.queue != nil {
		msgID, err := s.queue.AddTask(ctx, csvTask)
		if err != nil {
			return sub, fmt.Errorf("failed to queue CSV import: %w", err)
		}
		sub.MessageID = msgID
		log.Infof("🔄 Queued %s with %d valid rows for import (%s)", name, len(preview.Asins), msgID)
		return sub, nil
	}

	result, err := s.importCsv(ctx, csvTask)
	sub.Result = result
	return sub, err
}

// SyncDirectory walks the whole directory and archives every record.
func (s *Service) SyncDirectory(ctx context.Context, search string) (*domain.DirectoryResults, error) {
	if s.repository == nil {
		return nil, ErrArchiveDisabled
	}

	results, err := s.directory.GetAllDirectoryPages(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	records := flatten(results)
	if err := s.repository.SaveRecords(ctx, records); err != nil {
		return nil, err
	}

	log.Infof("✅ Archived %d records from %d pages", len(records), results.TotalPages)
	return results, nil
}

// ExportCsv writes every record matching search as a one-column CSV and
// returns how many records it wrote.
func (s *Service) ExportCsv(ctx context.Context, search string, w io.Writer) (int, error) {
	results, err := s.directory.GetAllDirectoryPages(ctx, search)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	records := flatten(results)
	if _, err := io.WriteString(w, asin.GenerateCsvContent(records)); err != nil {
		return 0, fmt.Errorf("failed to write export: %w", err)
	}
	return len(records), nil
}

func flatten(results *domain.DirectoryResults) []domain.AsinRecord {
	records := make([]domain.AsinRecord, 0, results.Total)
	for _, page := range results.Pages {
		records = append(records, page.Asins...)
	}
	return records
}

func (s *Service) importBulk(ctx context.Context, t *task.BulkImportTask) (*domain.ImportResult, error) {
	run := &domain.ImportRun{
		Source:      domain.ImportSourceManual,
		Submitted:   len(t.Asins),
		SubmittedAt: s.now().UTC(),
	}

	result, err := s.directory.BulkManual(ctx, t.Asins)
	s.recordRun(ctx, run, result, err)
	return result, err
}

func (s *Service) importCsv(ctx context.Context, t *task.CsvImportTask) (*domain.ImportResult, error) {
	run := &domain.ImportRun{
		Source:      domain.ImportSourceCSV,
		Filename:    t.Filename,
		Submitted:   t.ValidCount,
		SubmittedAt: s.now().UTC(),
	}

	result, err := s.directory.BulkCsv(ctx, t.CsvData)
	s.recordRun(ctx, run, result, err)
	return result, err
}

func (s *Service) recordRun(ctx context.Context, run *domain.ImportRun, result *domain.ImportResult, err error) {
	run.Result = result
	if err != nil {
		run.Error = err.Error()
		log.Errorf("❌ %s import of %d ASINs failed: %v", run.Source, run.Submitted, err)
	} else {
		log.Infof("✅ %s import: %d added, %d duplicates, %d errors",
			run.Source, result.Added, result.Duplicates, len(result.Errors))
	}

	if s.repository == nil {
		return
	}
	if saveErr := s.repository.SaveImportResult(ctx, run); saveErr != nil {
		log.Errorf("❌ Failed to archive import run: %v", saveErr)
	}
}

// RunWorkers consumes every import stream with numWorkers consumers each,
// plus one autoclaimer per stream, until ctx is done.
func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	if s.queue == nil {
		return ErrQueueDisabled
	}

	var wg sync.WaitGroup
	for _, taskType := range task.Types {
		s.runWorkersForStream(ctx, &wg, numWorkers, queue.StreamName(taskType), taskType)
	}

	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName, taskType string) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.autoclaim(ctx, streamName, taskType)
	}()

	for i := 1; i <= numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", taskType, workerID)
			log.Infof("🚀 Starting worker %s", consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 Worker %s stopping", consumer)
					return
				default:
				}

				msg, err := s.queue.GetTask(ctx, consumer, streamName)
				if err != nil {
					if ctx.Err() != nil {
						continue
					}
					log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
					sleep(ctx, time.Second)
					continue
				}
				if msg == nil {
					continue
				}
				if err := s.processMessage(ctx, streamName, msg); err != nil {
					log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
				}
			}
		}(i)
	}
}

// autoclaim takes over messages whose consumer died before acking them.
func (s *Service) autoclaim(ctx context.Context, streamName, taskType string) {
	if s.minIdleTime <= 0 {
		return
	}

	ticker := time.NewTicker(s.minIdleTime)
	defer ticker.Stop()
	consumer := fmt.Sprintf("%s-autoclaimer", taskType)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			claimed, err := s.queue.AutoClaim(ctx, consumer, streamName, s.minIdleTime)
			if err != nil {
				log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
				continue
			}
			if len(claimed) > 0 {
				log.Infof("🔄 Auto-claimed %d messages from %s", len(claimed), streamName)
			}
			for _, msg := range claimed {
				if err := s.processMessage(ctx, streamName, &msg); err != nil {
					log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
				}
			}
		}
	}
}

// processMessage runs one import and acks it whatever the outcome. Failed
// imports are archived with their error, never re-queued.
func (s *Service) processMessage(ctx context.Context, streamName string, msg *redis.XMessage) error {
	t, err := queue.DecodeMessage(*msg)
	if err != nil {
		log.Warnf("🚫 Dropping undecodable message %s: %v", msg.ID, err)
		if ackErr := s.queue.AckTask(ctx, streamName, msg.ID); ackErr != nil {
			return ackErr
		}
		return err
	}

	switch t := t.(type) {
	case *task.BulkImportTask:
		_, err = s.importBulk(ctx, t)
	case *task.CsvImportTask:
		_, err = s.importCsv(ctx, t)
	default:
		err = fmt.Errorf("no handler for task type %s", t.TaskType())
	}

	if ackErr := s.queue.AckTask(ctx, streamName, msg.ID); ackErr != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, ackErr)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
