package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/logger"
)

type backupStore interface {
	Snapshot(ctx context.Context, accountID string) (*models.BackupData, error)
	Apply(ctx context.Context, accountID string, data *models.BackupData, mode models.ImportMode) error
}

// BackupService exports and restores every record of an account.
type BackupService struct {
	store     backupStore
	analytics analyticsInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBackupService constructs the service. analytics and metrics may be nil.
func NewBackupService(store backupStore, analytics analyticsInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		store:     store,
		analytics: analytics,
		metrics:   metrics,
		validator: ensureValidator(validate),
		logger:    logger,
		now:       time.Now,
	}
}

// Export returns a version 2 backup document.
func (s *BackupService) Export(ctx context.Context, accountID string) (*models.Backup, error) {
	data, err := s.store.Snapshot(ctx, accountID)
	if err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to export backup")
	}
	return &models.Backup{
		Version:    models.BackupVersion,
		ExportDate: s.now().UTC(),
		Data:       *data,
	}, nil
}

// Decode reads a backup document, rejecting unknown versions and trailing data.
func (s *BackupService) Decode(r io.Reader) (*models.Backup, error) {
	dec := json.NewDecoder(r)
	var doc models.Backup
	if err := dec.Decode(&doc); err != nil {
		return nil, appErrors.ErrValidation.With(err, "backup is not valid JSON")
	}
	if dec.More() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "backup contains trailing data")
	}
	if err := checkBackupVersion(doc.Version); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseImportMode defaults an empty mode to merge.
func ParseImportMode(raw string) (models.ImportMode, error) {
	switch models.ImportMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", models.ImportMerge:
		return models.ImportMerge, nil
	case models.ImportReplace:
		return models.ImportReplace, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown import mode %q", raw))
	}
}

// Import validates every record and then writes the whole document in one
// transaction. Nothing is written when any record is invalid.
func (s *BackupService) Import(ctx context.Context, accountID string, doc *models.Backup, mode models.ImportMode) (result *models.ImportResult, err error) {
	defer func() { s.metrics.ObserveBackupImport(mode, err) }()

	if doc == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "backup document is required")
	}
	if err = checkBackupVersion(doc.Version); err != nil {
		return nil, err
	}
	if mode != models.ImportMerge && mode != models.ImportReplace {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown import mode %q", mode))
	}

	data := doc.Data
	if doc.Version == models.BackupVersionLegacy {
		data.Profiles = nil
	}
	if err = s.validateData(&data); err != nil {
		return nil, err
	}

	if err = s.store.Apply(ctx, accountID, &data, mode); err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to import backup")
	}
	if s.analytics != nil {
		s.analytics.Invalidate(ctx, accountID)
	}

	result = &models.ImportResult{
		Version:         doc.Version,
		Mode:            mode,
		Behaviors:       len(data.Behaviors),
		Reinforcers:     len(data.Reinforcers),
		CrisisProtocols: len(data.CrisisProtocols),
		Profiles:        len(data.Profiles),
	}
	logger.With(ctx, s.logger).Info("backup imported",
		zap.String("account_id", accountID),
		zap.String("mode", string(mode)),
		zap.Int("version", doc.Version),
		zap.Int("behaviors", result.Behaviors),
		zap.Int("reinforcers", result.Reinforcers),
		zap.Int("crisis_protocols", result.CrisisProtocols),
		zap.Int("profiles", result.Profiles),
	)
	return result, nil
}

func checkBackupVersion(version int) error {
	if version == models.BackupVersion || version == models.BackupVersionLegacy {
		return nil
	}
	return appErrors.Clone(appErrors.ErrBackupVersion, fmt.Sprintf("unsupported backup version %d", version))
}

func (s *BackupService) validateData(data *models.BackupData) error {
	for i := range data.Behaviors {
		if err := s.validateRecord("behaviors", i, &data.Behaviors[i]); err != nil {
			return err
		}
	}
	for i := range data.Reinforcers {
		if err := s.validateRecord("reinforcers", i, &data.Reinforcers[i]); err != nil {
			return err
		}
	}
	for i := range data.CrisisProtocols {
		data.CrisisProtocols[i].Normalize()
		if err := s.validateRecord("crisisProtocols", i, &data.CrisisProtocols[i]); err != nil {
			return err
		}
	}
	active := 0
	for i := range data.Profiles {
		if err := s.validateRecord("profiles", i, &data.Profiles[i]); err != nil {
			return err
		}
		if data.Profiles[i].IsActive {
			active++
		}
	}
	if active > 1 {
		return appErrors.Clone(appErrors.ErrValidation, "backup marks more than one profile active")
	}
	return nil
}

func (s *BackupService) validateRecord(store string, index int, record interface{}) error {
	if err := s.validator.Struct(record); err != nil {
		verr := validationError(err)
		msg := verr.Error()
		if appErr, ok := verr.(*appErrors.Error); ok {
			msg = appErr.Message
		}
		return appErrors.ErrValidation.With(err, fmt.Sprintf("%s[%d]: %s", store, index, msg))
	}
	return nil
}
