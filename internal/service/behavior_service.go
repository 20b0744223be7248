package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
)

type behaviorRepository interface {
	List(ctx context.Context, accountID string, filter models.BehaviorFilter) ([]models.BehaviorEntry, int, error)
	FindByID(ctx context.Context, accountID, id string) (*models.BehaviorEntry, error)
	Create(ctx context.Context, entry *models.BehaviorEntry) error
	Delete(ctx context.Context, accountID, id string) error
}

type analyticsInvalidator interface {
	Invalidate(ctx context.Context, accountID string)
}

// BehaviorService handles ABC behavior entries.
type BehaviorService struct {
	repo      behaviorRepository
	analytics analyticsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBehaviorService constructs the service. analytics may be nil.
func NewBehaviorService(repo behaviorRepository, analytics analyticsInvalidator, validate *validator.Validate, logger *zap.Logger) *BehaviorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BehaviorService{repo: repo, analytics: analytics, validator: ensureValidator(validate), logger: logger}
}

// BehaviorListRequest describes filters for listing entries.
type BehaviorListRequest struct {
	DateFrom    string `form:"dateFrom" validate:"omitempty,datetime=2006-01-02"`
	DateTo      string `form:"dateTo" validate:"omitempty,datetime=2006-01-02"`
	Function    string `form:"function" validate:"omitempty,oneof=escape attention tangible sensory"`
	SeverityMin int    `form:"severityMin" validate:"omitempty,min=1,max=5"`
	SeverityMax int    `form:"severityMax" validate:"omitempty,min=1,max=5"`
	ProfileID   string `form:"profileId"`
	Page        int    `form:"page"`
	PageSize    int    `form:"pageSize"`
}

// CreateBehaviorRequest describes the create payload.
type CreateBehaviorRequest struct {
	Date        string                  `json:"date"`
	Time        string                  `json:"time"`
	Antecedent  string                  `json:"antecedent"`
	Behavior    string                  `json:"behavior"`
	Consequence string                  `json:"consequence"`
	Severity    int                     `json:"severity"`
	Function    models.BehaviorFunction `json:"function"`
	Duration    *int                    `json:"duration,omitempty"`
	Intensity   models.Intensity        `json:"intensity,omitempty"`
	Location    string                  `json:"location,omitempty"`
	Notes       string                  `json:"notes,omitempty"`
	ProfileID   string                  `json:"profileId,omitempty"`
}

func (r CreateBehaviorRequest) entry() models.BehaviorEntry {
	return models.BehaviorEntry{
		Date:        strings.TrimSpace(r.Date),
		Time:        strings.TrimSpace(r.Time),
		Antecedent:  strings.TrimSpace(r.Antecedent),
		Behavior:    strings.TrimSpace(r.Behavior),
		Consequence: strings.TrimSpace(r.Consequence),
		Severity:    r.Severity,
		Function:    models.BehaviorFunction(strings.ToLower(string(r.Function))),
		Duration:    r.Duration,
		Intensity:   models.Intensity(strings.ToLower(string(r.Intensity))),
		Location:    strings.TrimSpace(r.Location),
		Notes:       strings.TrimSpace(r.Notes),
		ProfileID:   r.ProfileID,
	}
}

// List returns behavior entries with pagination.
func (s *BehaviorService) List(ctx context.Context, accountID string, req BehaviorListRequest) ([]models.BehaviorEntry, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, validationError(err)
	}
	filter := models.BehaviorFilter{
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		Function:    models.BehaviorFunction(req.Function),
		SeverityMin: req.SeverityMin,
		SeverityMax: req.SeverityMax,
		ProfileID:   req.ProfileID,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	entries, total, err := s.repo.List(ctx, accountID, filter)
	if err != nil {
		return nil, nil, appErrors.ErrInternal.With(err, "failed to list behaviors")
	}
	if entries == nil {
		entries = []models.BehaviorEntry{}
	}
	return entries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one entry.
func (s *BehaviorService) Get(ctx context.Context, accountID, id string) (*models.BehaviorEntry, error) {
	entry, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, storeError(err, "behavior not found", "failed to load behavior")
	}
	return entry, nil
}

// Create records a new entry. profileID is used when the payload names none.
func (s *BehaviorService) Create(ctx context.Context, accountID, profileID string, req CreateBehaviorRequest) (*models.BehaviorEntry, error) {
	entry := req.entry()
	if err := s.ValidateEntry(&entry); err != nil {
		return nil, err
	}
	entry.AccountID = accountID
	if entry.ProfileID == "" {
		entry.ProfileID = profileID
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to create behavior")
	}
	s.invalidate(ctx, accountID)
	s.logger.Debug("behavior recorded", zap.String("account_id", accountID), zap.String("behavior_id", entry.ID), zap.Int("severity", entry.Severity))
	return &entry, nil
}

// CreateMany validates every entry first and then stores them in order.
func (s *BehaviorService) CreateMany(ctx context.Context, accountID, profileID string, entries []models.BehaviorEntry) ([]models.BehaviorEntry, error) {
	for i := range entries {
		if err := s.ValidateEntry(&entries[i]); err != nil {
			return nil, err
		}
	}
	saved := make([]models.BehaviorEntry, 0, len(entries))
	for i := range entries {
		entry := entries[i]
		entry.ID = ""
		entry.AccountID = accountID
		if entry.ProfileID == "" {
			entry.ProfileID = profileID
		}
		if err := s.repo.Create(ctx, &entry); err != nil {
			s.invalidate(ctx, accountID)
			return saved, appErrors.ErrInternal.With(err, "failed to create behavior")
		}
		saved = append(saved, entry)
	}
	if len(saved) > 0 {
		s.invalidate(ctx, accountID)
	}
	return saved, nil
}

// ValidateEntry checks the record-level rules shared by forms, AI drafts and backups.
func (s *BehaviorService) ValidateEntry(entry *models.BehaviorEntry) error {
	if err := s.validator.Struct(entry); err != nil {
		return validationError(err)
	}
	return nil
}

// Delete removes an entry.
func (s *BehaviorService) Delete(ctx context.Context, accountID, id string) error {
	if err := s.repo.Delete(ctx, accountID, id); err != nil {
		return storeError(err, "behavior not found", "failed to delete behavior")
	}
	s.invalidate(ctx, accountID)
	return nil
}

func (s *BehaviorService) invalidate(ctx context.Context, accountID string) {
	if s.analytics != nil {
		s.analytics.Invalidate(ctx, accountID)
	}
}
