package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	"github.com/noah-isme/aba-tracker-api/pkg/export"
	"github.com/noah-isme/aba-tracker-api/pkg/storage"
)

const reportTokenScope = "report"

type exportBehaviorSource interface {
	ListAll(ctx context.Context, accountID string, filter models.BehaviorFilter) ([]models.BehaviorEntry, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Write(filename string, fill func(io.Writer) error) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Write(w io.Writer, data export.Dataset) error
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	Rows         int
	ExpiresAt    time.Time
}

// ExportService renders behavior logs and stores them behind signed links.
type ExportService struct {
	behaviors exportBehaviorSource
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the csv and gofpdf exporters.
func NewExportService(behaviors exportBehaviorSource, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		behaviors: behaviors,
		storage:   files,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate renders the job's behavior log and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	entries, err := s.behaviors.ListAll(ctx, job.AccountID, models.BehaviorFilter{
		DateFrom:  job.Params.DateFrom,
		DateTo:    job.Params.DateTo,
		ProfileID: job.Params.ProfileID,
	})
	if err != nil {
		return nil, fmt.Errorf("load behaviors: %w", err)
	}
	relPath, err := s.store(s.buildFilename(job), job.Params, BehaviorDataset(entries))
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(reportTokenScope, job.ID, relPath)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("report rendered", zap.String("job_id", job.ID), zap.String("format", string(job.Params.Format)), zap.Int("rows", len(entries)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          s.downloadURL(token),
		Format:       job.Params.Format,
		Rows:         len(entries),
		ExpiresAt:    expiresAt,
	}, nil
}

// store renders data in the job's format under name. CSV streams straight to
// the file; gofpdf builds the PDF in memory first.
func (s *ExportService) store(name string, params models.ReportJobParams, data export.Dataset) (string, error) {
	switch params.Format {
	case models.ReportFormatCSV:
		return s.storage.Write(name, func(w io.Writer) error { return s.csv.Write(w, data) })
	case models.ReportFormatPDF:
		payload, err := s.pdf.Render(data, reportTitle(params))
		if err != nil {
			return "", err
		}
		return s.storage.Save(name, payload)
	default:
		return "", fmt.Errorf("unsupported format %q", params.Format)
	}
}

func (s *ExportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return prefix + "/reports/download/" + token
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (*storage.SignedToken, error) {
	return s.signer.Parse(reportTokenScope, token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured ResultTTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	from := job.Params.DateFrom
	if from == "" {
		from = "start"
	}
	to := job.Params.DateTo
	if to == "" {
		to = "now"
	}
	return fmt.Sprintf("behavior-log_%s_%s_%s.%s", from, to, s.now().UTC().Format("20060102_150405"), job.Params.Format)
}

var behaviorHeaders = []string{"Date", "Time", "Antecedent", "Behavior", "Consequence", "Severity", "Function", "Duration (min)", "Intensity", "Location", "Notes"}

// BehaviorDataset flattens entries into export rows in the given order.
func BehaviorDataset(entries []models.BehaviorEntry) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		duration := ""
		if e.Duration != nil {
			duration = strconv.Itoa(*e.Duration)
		}
		rows = append(rows, map[string]string{
			"Date":           e.Date,
			"Time":           e.Time,
			"Antecedent":     e.Antecedent,
			"Behavior":       e.Behavior,
			"Consequence":    e.Consequence,
			"Severity":       strconv.Itoa(e.Severity),
			"Function":       string(e.Function),
			"Duration (min)": duration,
			"Intensity":      string(e.Intensity),
			"Location":       e.Location,
			"Notes":          e.Notes,
		})
	}
	return export.Dataset{
		Headers: behaviorHeaders,
		Rows:    rows,
		Widths:  []float64{1.1, 0.7, 2, 2, 2, 0.8, 1, 0.9, 1, 1.3, 2},
	}
}

func reportTitle(params models.ReportJobParams) string {
	switch {
	case params.DateFrom != "" && params.DateTo != "":
		return fmt.Sprintf("Behavior log %s to %s", params.DateFrom, params.DateTo)
	case params.DateFrom != "":
		return "Behavior log since " + params.DateFrom
	case params.DateTo != "":
		return "Behavior log until " + params.DateTo
	default:
		return "Behavior log"
	}
}
