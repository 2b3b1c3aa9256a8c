package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/notify"
)

// csvTimeLayout is the date_time column format of import files.
const csvTimeLayout = "2006-01-02T15:04:05"

// ImportConfig tunes the batch runner. Zero values fall back to the
// defaults below.
type ImportConfig struct {
	ChunkSize   int
	SkipLimit   int
	Concurrency int
}

const (
	defaultChunkSize   = 100
	defaultSkipLimit   = 10
	defaultConcurrency = 4
)

func (c ImportConfig) withDefaults() ImportConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.SkipLimit <= 0 {
		c.SkipLimit = defaultSkipLimit
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	return c
}

// ImportService runs batch CSV imports of transactions. An upload is
// copied aside, a job row is created, and processing continues in the
// background; callers poll the job by id.
type ImportService struct {
	store    Store
	currency *CurrencyService
	budgets  *BudgetService
	notifier notify.Notifier
	cfg      ImportConfig
	now      func() time.Time

	wg sync.WaitGroup
}

func NewImportService(store Store, currency *CurrencyService, budgets *BudgetService, notifier notify.Notifier, cfg ImportConfig) *ImportService {
	return &ImportService{
		store:    store,
		currency: currency,
		budgets:  budgets,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// StartImport stages the uploaded CSV and schedules processing. The
// returned job id is immediately pollable via Job.
func (s *ImportService) StartImport(ctx context.Context, userID uuid.UUID, file io.Reader) (uuid.UUID, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	tmp, err := os.CreateTemp("", "transactions-*.csv")
	if err != nil {
		return uuid.Nil, &core.IntegrationError{Op: "stage import file", Err: err}
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return uuid.Nil, &core.IntegrationError{Op: "stage import file", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return uuid.Nil, &core.IntegrationError{Op: "stage import file", Err: err}
	}
	job := core.ImportJob{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    core.JobRunning,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateImportJob(ctx, job); err != nil {
		os.Remove(tmp.Name())
		return uuid.Nil, fmt.Errorf("create import job: %w", err)
	}
	slog.InfoContext(ctx, "Transaction import started",
		applog.FieldJobID, job.ID, applog.FieldUserID, userID, "username", user.Username)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// The request context dies with the upload response; the job
		// keeps its own lifetime.
		s.run(context.WithoutCancel(ctx), user, job.ID, tmp.Name())
	}()
	return job.ID, nil
}

// Job returns one import job, enforcing ownership.
func (s *ImportService) Job(ctx context.Context, userID, jobID uuid.UUID) (core.ImportJob, error) {
	job, err := s.store.ImportJobByID(ctx, jobID)
	if err != nil {
		return core.ImportJob{}, err
	}
	if job.UserID != userID {
		return core.ImportJob{}, core.ErrNoRights
	}
	return job, nil
}

// Wait blocks until every in-flight job finishes. Called on shutdown.
func (s *ImportService) Wait() {
	s.wg.Wait()
}

// importTally accumulates row outcomes across chunk workers.
type importTally struct {
	mu           sync.Mutex
	read         int
	skipped      int
	written      int
	balanceDelta decimal.Decimal
}

var errSkipLimitExceeded = errors.New("import skip limit exceeded")

func (t *importTally) readRow() {
	t.mu.Lock()
	t.read++
	t.mu.Unlock()
}

func (t *importTally) skip() {
	t.mu.Lock()
	t.skipped++
	t.mu.Unlock()
}

func (t *importTally) skipCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skipped
}

func (t *importTally) wrote(typ core.TransactionType, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written++
	switch typ {
	case core.Income:
		t.balanceDelta = t.balanceDelta.Add(amount)
	case core.Expense:
		t.balanceDelta = t.balanceDelta.Sub(amount)
	}
}

func (s *ImportService) run(ctx context.Context, user core.User, jobID uuid.UUID, path string) {
	defer os.Remove(path)

	tally := &importTally{balanceDelta: decimal.Zero}
	err := s.processFile(ctx, user, jobID, path, tally)

	status := core.JobCompleted
	message := fmt.Sprintf("Transaction import finished: %d written, %d skipped", tally.written, tally.skipped)
	if err != nil {
		status = core.JobFailed
		message = "Transaction import failed"
		slog.ErrorContext(ctx, "Transaction import failed",
			applog.FieldJobID, jobID, applog.FieldUserID, user.ID, "error", err)
	}

	if status == core.JobCompleted && !tally.balanceDelta.IsZero() {
		if err := s.applyBalanceDelta(ctx, user.ID, tally.balanceDelta); err != nil {
			status = core.JobFailed
			message = "Transaction import failed"
			slog.ErrorContext(ctx, "Failed to apply import balance delta",
				applog.FieldJobID, jobID, applog.FieldUserID, user.ID, "error", err)
		}
	}

	finishedAt := s.now().UTC()
	if err := s.store.FinishImportJob(ctx, jobID, status, tally.read, tally.skipped, tally.written, finishedAt); err != nil {
		slog.ErrorContext(ctx, "Failed to finalize import job",
			applog.FieldJobID, jobID, "error", err)
	}
	if err := s.notifier.Publish(ctx, notify.JobsTopic(user.ID), notify.JobNotice{Message: message}); err != nil {
		slog.ErrorContext(ctx, "Failed to publish import notice",
			applog.FieldJobID, jobID, applog.FieldUserID, user.ID, "error", err)
	}
	slog.InfoContext(ctx, "Transaction import finished",
		applog.FieldJobID, jobID, "status", status,
		"read", tally.read, "skipped", tally.skipped, "written", tally.written)
}

// processFile streams the CSV in chunks. Rows inside a chunk run
// concurrently; chunks run in order so the skip limit is checked between
// them.
func (s *ImportService) processFile(ctx context.Context, user core.User, jobID uuid.UUID, path string, tally *importTally) error {
	f, err := os.Open(path)
	if err != nil {
		return &core.IntegrationError{Op: "open import file", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	// Header row carries column names, not data.
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &core.IntegrationError{Op: "read import header", Err: err}
	}

	for {
		chunk, err := s.readChunk(r, tally)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return nil
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Concurrency)
		for _, record := range chunk {
			record := record
			g.Go(func() error {
				return s.processRow(gctx, user, jobID, record, tally)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if tally.skipCount() > s.cfg.SkipLimit {
			return errSkipLimitExceeded
		}
	}
}

func (s *ImportService) readChunk(r *csv.Reader, tally *importTally) ([][]string, error) {
	chunk := make([][]string, 0, s.cfg.ChunkSize)
	for len(chunk) < s.cfg.ChunkSize {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return chunk, nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			tally.readRow()
			tally.skip()
			continue
		}
		if err != nil {
			return nil, &core.IntegrationError{Op: "read import file", Err: err}
		}
		tally.readRow()
		chunk = append(chunk, record)
	}
	return chunk, nil
}

// processRow validates, converts and inserts one record. Malformed data
// and budget breaches count as skips; storage faults abort the job.
func (s *ImportService) processRow(ctx context.Context, user core.User, jobID uuid.UUID, record []string, tally *importTally) error {
	tx, err := parseImportRecord(record)
	if err != nil {
		slog.WarnContext(ctx, "Skipping malformed import row", applog.FieldJobID, jobID, "error", err)
		tally.skip()
		return nil
	}
	amountBase := tx.InitialAmount
	if tx.InitialCurrency != user.BaseCurrency {
		amountBase, err = s.currency.ToBaseCurrency(ctx, tx.InitialAmount, tx.InitialCurrency, user.BaseCurrency)
		if err != nil {
			if errors.Is(err, core.ErrRateNotFound) {
				slog.WarnContext(ctx, "Skipping import row, no rate for currency",
					applog.FieldJobID, jobID, applog.FieldCurrency, tx.InitialCurrency)
				tally.skip()
				return nil
			}
			return err
		}
	}
	if err := s.budgets.CheckNotExceeded(ctx, s.store, user.ID, tx.Category, amountBase); err != nil {
		var exceeded *core.BudgetLimitExceededError
		if errors.As(err, &exceeded) {
			slog.WarnContext(ctx, "Skipping import row, budget limit exceeded",
				applog.FieldJobID, jobID, applog.FieldCategory, tx.Category, applog.FieldPeriod, exceeded.Period)
			tally.skip()
			return nil
		}
		return err
	}
	tx.ID = uuid.New()
	tx.UserID = user.ID
	tx.AmountBase = amountBase
	tx.JobID = &jobID
	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		return fmt.Errorf("insert imported transaction: %w", err)
	}
	tally.wrote(tx.Type, tx.InitialAmount)
	return nil
}

// parseImportRecord reads the columns
// type,category,amount,currency,date_time,description.
func parseImportRecord(record []string) (core.Transaction, error) {
	if len(record) < 5 {
		return core.Transaction{}, fmt.Errorf("%w: expected at least 5 columns, got %d", core.ErrBadData, len(record))
	}
	typ, err := core.ParseTransactionType(record[0])
	if err != nil {
		return core.Transaction{}, err
	}
	category, err := core.ParseCategory(record[1])
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(record[2])
	if err != nil {
		return core.Transaction{}, err
	}
	currency, err := core.ParseCurrency(record[3])
	if err != nil {
		return core.Transaction{}, err
	}
	dateTime, err := time.Parse(csvTimeLayout, record[4])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: bad date_time %q", core.ErrBadData, record[4])
	}
	var description string
	if len(record) > 5 {
		description = record[5]
	}
	return core.Transaction{
		Type:            typ,
		Category:        category,
		InitialAmount:   amount,
		InitialCurrency: currency,
		DateTime:        dateTime.UTC(),
		Description:     description,
	}, nil
}

func (s *ImportService) applyBalanceDelta(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) error {
	return s.store.InTx(ctx, func(st Store) error {
		user, err := st.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		return st.SaveUserBalance(ctx, userID, user.Balance.Add(delta))
	})
}
