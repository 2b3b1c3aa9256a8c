package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kopilka/internal/core"
)

// CreateImportJob inserts a job row in RUNNING state.
func (r *Repository) CreateImportJob(ctx context.Context, job core.ImportJob) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO import_jobs (id, user_id, status, read_count, skipped_count, written_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID.String(), job.UserID.String(), string(job.Status),
		job.ReadCount, job.SkippedCount, job.WrittenCount, job.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("insert import job: %w", err)
	}
	return nil
}

// FinishImportJob records the terminal status and row counts of a job.
func (r *Repository) FinishImportJob(ctx context.Context, id uuid.UUID, status core.ImportJobStatus, read, skipped, written int, finishedAt time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE import_jobs
		 SET status = ?, read_count = ?, skipped_count = ?, written_count = ?, finished_at = ?
		 WHERE id = ?`,
		string(status), read, skipped, written, finishedAt.UnixMicro(), id.String())
	if err != nil {
		return fmt.Errorf("finish import job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ImportJobByID loads a job or core.ErrNotFound.
func (r *Repository) ImportJobByID(ctx context.Context, id uuid.UUID) (core.ImportJob, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, status, read_count, skipped_count, written_count, created_at, finished_at
		 FROM import_jobs WHERE id = ?`, id.String())

	var (
		job             core.ImportJob
		jobID, userID   string
		status          string
		createdMicros   int64
		finishedMicros  sql.NullInt64
	)
	err := row.Scan(&jobID, &userID, &status, &job.ReadCount, &job.SkippedCount,
		&job.WrittenCount, &createdMicros, &finishedMicros)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ImportJob{}, core.ErrNotFound
		}
		return core.ImportJob{}, fmt.Errorf("scan import job: %w", err)
	}

	if job.ID, err = uuid.Parse(jobID); err != nil {
		return core.ImportJob{}, fmt.Errorf("parse job id: %w", err)
	}
	if job.UserID, err = uuid.Parse(userID); err != nil {
		return core.ImportJob{}, fmt.Errorf("parse job user id: %w", err)
	}
	job.Status = core.ImportJobStatus(status)
	job.CreatedAt = time.UnixMicro(createdMicros).UTC()
	if finishedMicros.Valid {
		t := time.UnixMicro(finishedMicros.Int64).UTC()
		job.FinishedAt = &t
	}
	return job, nil
}
