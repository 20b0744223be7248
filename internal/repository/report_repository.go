package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/aba-tracker-api/internal/models"
)

const (
	reportJobColumns = `id, account_id, params, status, progress, result_url, error_message, created_at, finished_at`

	insertReportJobQuery = `INSERT INTO report_jobs (` + reportJobColumns + `)
VALUES (:id, :account_id, :params, :status, :progress, :result_url, :error_message, :created_at, :finished_at)`

	defaultQueuedLimit   = 20
	defaultFinishedLimit = 50
)

// ReportRepository stores export jobs in report_jobs.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts job, filling ID, status and creation time when unset.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, insertReportJobQuery, job); err != nil {
		return fmt.Errorf("insert report job %s: %w", job.ID, err)
	}
	return nil
}

// GetByID returns sql.ErrNoRows unwrapped when the job does not exist.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, `SELECT `+reportJobColumns+` FROM report_jobs WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateReportJobParams lists the columns a worker may change. Nil fields
// are left as they are.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

func (p UpdateReportJobParams) assignments() ([]string, []interface{}) {
	var cols []string
	var args []interface{}
	set := func(col string, v interface{}) {
		args = append(args, v)
		cols = append(cols, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.Progress != nil {
		set("progress", *p.Progress)
	}
	if p.ResultURL != nil {
		set("result_url", *p.ResultURL)
	}
	if p.ErrorMessage != nil {
		set("error_message", *p.ErrorMessage)
	}
	if p.FinishedAt != nil {
		set("finished_at", *p.FinishedAt)
	}
	return cols, args
}

// Update applies the non-nil fields of params. An empty update is a no-op.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	cols, args := params.assignments()
	if len(cols) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d", strings.Join(cols, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update report job %s: %w", id, err)
	}
	return nil
}

// ListQueued returns the oldest QUEUED jobs, used to refill the queue after
// a restart.
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = defaultQueuedLimit
	}
	var jobs []models.ReportJob
	err := r.db.SelectContext(ctx, &jobs,
		`SELECT `+reportJobColumns+` FROM report_jobs WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued report jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns settled jobs (FINISHED or FAILED) whose
// finished_at is older than cutoff.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = defaultFinishedLimit
	}
	var jobs []models.ReportJob
	err := r.db.SelectContext(ctx, &jobs,
		`SELECT `+reportJobColumns+` FROM report_jobs WHERE status IN ('FINISHED', 'FAILED') AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`,
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list settled report jobs: %w", err)
	}
	return jobs, nil
}

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM report_jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete report job %s: %w", id, err)
	}
	return nil
}
