package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
)

type reinforcerRepository interface {
	List(ctx context.Context, accountID string, filter models.ReinforcerFilter) ([]models.Reinforcer, int, error)
	ListAll(ctx context.Context, accountID string) ([]models.Reinforcer, error)
	FindByID(ctx context.Context, accountID, id string) (*models.Reinforcer, error)
	Create(ctx context.Context, item *models.Reinforcer) error
	Update(ctx context.Context, item *models.Reinforcer) error
	RecordUse(ctx context.Context, accountID, id string, usedAt time.Time) (*models.Reinforcer, error)
	Delete(ctx context.Context, accountID, id string) error
}

const defaultSuggestionLimit = 3

// ReinforcerService manages reinforcers and their satiation cooldowns.
type ReinforcerService struct {
	repo      reinforcerRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReinforcerService constructs the service.
func NewReinforcerService(repo reinforcerRepository, validate *validator.Validate, logger *zap.Logger) *ReinforcerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReinforcerService{repo: repo, validator: ensureValidator(validate), logger: logger, now: time.Now}
}

// ReinforcerListRequest filters reinforcer listings.
type ReinforcerListRequest struct {
	Type      string `form:"type" validate:"omitempty,oneof=edible tangible activity social"`
	Available bool   `form:"available"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// CreateReinforcerRequest is the create payload.
type CreateReinforcerRequest struct {
	Name                string                `json:"name"`
	Type                models.ReinforcerType `json:"type"`
	Effectiveness       int                   `json:"effectiveness"`
	AvoidRepetitionDays int                   `json:"avoidRepetitionDays"`
	Notes               string                `json:"notes"`
}

// List returns reinforcers with derived availability.
func (s *ReinforcerService) List(ctx context.Context, accountID string, req ReinforcerListRequest) ([]models.ReinforcerStatus, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, validationError(err)
	}
	now := s.now().UTC()
	filter := models.ReinforcerFilter{Type: models.ReinforcerType(req.Type), Page: req.Page, PageSize: req.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	if req.Available {
		filter.AvailableAt = &now
	}
	items, total, err := s.repo.List(ctx, accountID, filter)
	if err != nil {
		return nil, nil, appErrors.ErrInternal.With(err, "failed to list reinforcers")
	}
	out := make([]models.ReinforcerStatus, 0, len(items))
	for _, item := range items {
		out = append(out, models.NewReinforcerStatus(item, now))
	}
	return out, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one reinforcer.
func (s *ReinforcerService) Get(ctx context.Context, accountID, id string) (*models.ReinforcerStatus, error) {
	item, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, storeError(err, "reinforcer not found", "failed to load reinforcer")
	}
	status := models.NewReinforcerStatus(*item, s.now().UTC())
	return &status, nil
}

// Create adds a reinforcer with zero usage.
func (s *ReinforcerService) Create(ctx context.Context, accountID string, req CreateReinforcerRequest) (*models.ReinforcerStatus, error) {
	item := models.Reinforcer{
		AccountID:           accountID,
		Name:                strings.TrimSpace(req.Name),
		Type:                models.ReinforcerType(strings.ToLower(string(req.Type))),
		Effectiveness:       req.Effectiveness,
		AvoidRepetitionDays: req.AvoidRepetitionDays,
		Notes:               strings.TrimSpace(req.Notes),
	}
	if err := s.ValidateReinforcer(&item); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &item); err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to create reinforcer")
	}
	status := models.NewReinforcerStatus(item, s.now().UTC())
	return &status, nil
}

// Update changes the descriptive fields; usage counters are preserved.
func (s *ReinforcerService) Update(ctx context.Context, accountID, id string, req models.ReinforcerUpdate) (*models.ReinforcerStatus, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Type = models.ReinforcerType(strings.ToLower(string(req.Type)))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	item, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, storeError(err, "reinforcer not found", "failed to load reinforcer")
	}
	item.Name = req.Name
	item.Type = req.Type
	item.Effectiveness = req.Effectiveness
	item.AvoidRepetitionDays = req.AvoidRepetitionDays
	item.Notes = strings.TrimSpace(req.Notes)
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, storeError(err, "reinforcer not found", "failed to update reinforcer")
	}
	status := models.NewReinforcerStatus(*item, s.now().UTC())
	return &status, nil
}

// Use records one use. Using a reinforcer during its cooldown is allowed and
// the returned status reports it as unavailable.
func (s *ReinforcerService) Use(ctx context.Context, accountID, id string) (*models.ReinforcerStatus, error) {
	now := s.now().UTC()
	item, err := s.repo.RecordUse(ctx, accountID, id, now)
	if err != nil {
		return nil, storeError(err, "reinforcer not found", "failed to record reinforcer use")
	}
	status := models.NewReinforcerStatus(*item, now)
	s.logger.Debug("reinforcer used", zap.String("account_id", accountID), zap.String("reinforcer_id", id), zap.Int("usage_count", item.UsageCount))
	return &status, nil
}

// Suggest returns available reinforcers ordered by effectiveness (desc) then
// usage count (asc).
func (s *ReinforcerService) Suggest(ctx context.Context, accountID string, limit int) ([]models.ReinforcerStatus, error) {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	items, err := s.repo.ListAll(ctx, accountID)
	if err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to list reinforcers")
	}
	return SuggestReinforcers(items, s.now().UTC(), limit), nil
}

// SuggestReinforcers ranks available reinforcers at now.
func SuggestReinforcers(items []models.Reinforcer, now time.Time, limit int) []models.ReinforcerStatus {
	available := make([]models.ReinforcerStatus, 0, len(items))
	for _, item := range items {
		if item.IsAvailable(now) {
			available = append(available, models.NewReinforcerStatus(item, now))
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		if available[i].Effectiveness != available[j].Effectiveness {
			return available[i].Effectiveness > available[j].Effectiveness
		}
		return available[i].UsageCount < available[j].UsageCount
	})
	if limit > 0 && len(available) > limit {
		available = available[:limit]
	}
	return available
}

// ValidateReinforcer checks record-level rules.
func (s *ReinforcerService) ValidateReinforcer(item *models.Reinforcer) error {
	if err := s.validator.Struct(item); err != nil {
		return validationError(err)
	}
	return nil
}

// Delete removes a reinforcer.
func (s *ReinforcerService) Delete(ctx context.Context, accountID, id string) error {
	if err := s.repo.Delete(ctx, accountID, id); err != nil {
		return storeError(err, "reinforcer not found", "failed to delete reinforcer")
	}
	return nil
}
