package service

import (
	"context"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	"github.com/noah-isme/aba-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/jobs"
)

// ReportJobType is the queue job type for behavior-log exports.
const ReportJobType = "behavior_log"

const (
	recoverBatch = 50
	cleanupBatch = 100
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
	Delete(ctx context.Context, id string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

// ReportService runs the behavior-log export lifecycle: create, poll,
// download and expire.
type ReportService struct {
	repo      reportJobStore
	queue     jobDispatcher
	exporter  *ExportService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
}

// ReportServiceConfig governs retention and the cleanup ticker.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload is an opened export ready to stream. Callers close File.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// NewReportService constructs the report service.
func NewReportService(repo reportJobStore, queue jobDispatcher, exporter *ExportService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		repo:      repo,
		queue:     queue,
		exporter:  exporter,
		metrics:   metrics,
		validator: ensureValidator(validate),
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob stores a QUEUED job for accountID and hands it to the worker
// queue. A job that cannot be queued is marked FAILED straight away.
func (s *ReportService) CreateJob(ctx context.Context, accountID string, params models.ReportJobParams) (*models.ReportJob, error) {
	params.Format = models.ReportFormat(strings.ToLower(strings.TrimSpace(string(params.Format))))
	if err := s.validator.Struct(params); err != nil {
		return nil, validationError(err)
	}
	if params.DateFrom != "" && params.DateTo != "" && params.DateFrom > params.DateTo {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateFrom must not be after dateTo")
	}

	job := &models.ReportJob{AccountID: accountID, Params: params, Status: models.ReportStatusQueued}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to create report job")
	}
	s.metrics.ObserveReportJob(params.Format, job.Status)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ReportJobType}); err != nil {
		update := finalUpdate(models.ReportStatusFailed)
		msg := "failed to enqueue job"
		update.ErrorMessage = &msg
		if updateErr := s.repo.Update(ctx, job.ID, update); updateErr != nil {
			s.logger.Warn("mark unqueued report failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		s.metrics.ObserveReportJob(params.Format, models.ReportStatusFailed)
		return nil, appErrors.ErrInternal.With(err, "failed to enqueue report job")
	}
	return job, nil
}

// GetStatus returns a job owned by accountID. Jobs of other accounts are
// reported as missing.
func (s *ReportService) GetStatus(ctx context.Context, accountID, id string) (*models.ReportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "report not found", "failed to load report job")
	}
	if job.AccountID != accountID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return job, nil
}

// ResolveDownload checks the signed token against the job's stored result URL
// and opens the file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	parsed, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, parsed.ID)
	if err != nil {
		return nil, storeError(err, "report not found", "failed to load report job")
	}
	switch {
	case extractToken(job.ResultURL) != token:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	case job.Status != models.ReportStatusFinished:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}

	file, err := s.exporter.Open(parsed.Path)
	if err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  path.Base(parsed.Path),
		Format:    job.Params.Format,
		ExpiresAt: parsed.ExpiresAt,
	}, nil
}

// RecoverPendingJobs re-enqueues jobs left QUEUED by a previous process.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, recoverBatch)
	if err != nil {
		s.logger.Warn("list queued reports", zap.Error(err))
		return
	}
	requeued := 0
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ReportJobType}); err != nil {
			s.logger.Warn("requeue report", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		requeued++
	}
	if requeued > 0 {
		s.logger.Info("recovered queued reports", zap.Int("count", requeued))
	}
}

// StartCleanup runs CleanupExpired every CleanupInterval until ctx ends.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.CleanupExpired(ctx); n > 0 {
					s.logger.Info("expired reports removed", zap.Int("count", n))
				}
			}
		}
	}()
}

// CleanupExpired removes the files and rows of jobs that finished more than
// ResultTTL ago, then sweeps orphaned files. It returns the rows removed.
func (s *ReportService) CleanupExpired(ctx context.Context) int {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	removed := 0
	for {
		batch, err := s.repo.ListFinishedBefore(ctx, cutoff, cleanupBatch)
		if err != nil {
			s.logger.Warn("list expired reports", zap.Error(err))
			return removed
		}
		for i := range batch {
			if err := s.purge(ctx, &batch[i]); err != nil {
				s.logger.Warn("delete expired report", zap.String("job_id", batch[i].ID), zap.Error(err))
				return removed
			}
			removed++
		}
		if len(batch) < cleanupBatch {
			break
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("sweep export directory", zap.Error(err))
	}
	return removed
}

// purge deletes the job row. A missing or unreadable file does not block it.
func (s *ReportService) purge(ctx context.Context, job *models.ReportJob) error {
	if token := extractToken(job.ResultURL); token != "" {
		if parsed, err := s.exporter.ParseToken(token, true); err == nil {
			if err := s.exporter.Delete(parsed.Path); err != nil {
				s.logger.Warn("delete export file", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}
	return s.repo.Delete(ctx, job.ID)
}

// extractToken returns the last path segment of a download URL.
func extractToken(url *string) string {
	if url == nil {
		return ""
	}
	idx := strings.LastIndex(*url, "/")
	return (*url)[idx+1:]
}

func statusUpdate(status models.ReportStatus, progress int) repository.UpdateReportJobParams {
	return repository.UpdateReportJobParams{Status: &status, Progress: &progress}
}

func finalUpdate(status models.ReportStatus) repository.UpdateReportJobParams {
	update := statusUpdate(status, 100)
	finished := time.Now().UTC()
	update.FinishedAt = &finished
	return update
}

// ReportWorker executes queued export jobs.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
}

// NewReportWorker constructs a worker. maxRetries is the attempt number at
// which a failing job is marked FAILED instead of going back to QUEUED.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, metrics *MetricsService, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger, maxRetries: maxRetries}
}

// Handle is the queue handler for ReportJobType.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record.Status.Terminal() {
		w.logger.Debug("skip settled report", zap.String("job_id", job.ID), zap.String("status", string(record.Status)))
		return nil
	}
	if err := w.repo.Update(ctx, job.ID, statusUpdate(models.ReportStatusProcessing, 10)); err != nil {
		return err
	}

	result, genErr := w.exporter.Generate(ctx, record)
	if genErr != nil {
		w.fail(ctx, job, record.Params.Format, genErr)
		return genErr
	}

	update := finalUpdate(models.ReportStatusFinished)
	cleared := ""
	update.ResultURL = &result.URL
	update.ErrorMessage = &cleared
	if err := w.repo.Update(ctx, job.ID, update); err != nil {
		w.logger.Warn("mark report finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.ObserveReportJob(record.Params.Format, models.ReportStatusFinished)
	w.logger.Info("report finished", zap.String("job_id", job.ID), zap.Int("rows", result.Rows))
	return nil
}

func (w *ReportWorker) fail(ctx context.Context, job jobs.Job, format models.ReportFormat, cause error) {
	final := job.Attempt >= w.maxRetries
	update := statusUpdate(models.ReportStatusQueued, 0)
	if final {
		update = finalUpdate(models.ReportStatusFailed)
	}
	msg := cause.Error()
	update.ErrorMessage = &msg
	if err := w.repo.Update(ctx, job.ID, update); err != nil {
		w.logger.Warn("record report failure", zap.String("job_id", job.ID), zap.Bool("final", final), zap.Error(err))
	}
	if final {
		w.metrics.ObserveReportJob(format, models.ReportStatusFailed)
	}
}
