package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
)

type profileRepository interface {
	List(ctx context.Context, accountID string) ([]models.Profile, error)
	FindByID(ctx context.Context, accountID, id string) (*models.Profile, error)
	FindActive(ctx context.Context, accountID string) (*models.Profile, error)
	Create(ctx context.Context, item *models.Profile) error
	Update(ctx context.Context, item *models.Profile) error
	Delete(ctx context.Context, accountID, id string) error
	Activate(ctx context.Context, accountID, id string) error
}

// ProfileService manages who is logging data on a device.
type ProfileService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs the service.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, validator: ensureValidator(validate), logger: logger}
}

// ProfileRequest is the create and update payload.
type ProfileRequest struct {
	Name  string             `json:"name"`
	Type  models.ProfileType `json:"type"`
	Color string             `json:"color"`
}

func (r ProfileRequest) apply(p *models.Profile) {
	p.Name = strings.TrimSpace(r.Name)
	p.Type = models.ProfileType(strings.ToLower(string(r.Type)))
	p.Color = strings.ToUpper(strings.TrimSpace(r.Color))
}

// List returns every profile of the account.
func (s *ProfileService) List(ctx context.Context, accountID string) ([]models.Profile, error) {
	items, err := s.repo.List(ctx, accountID)
	if err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to list profiles")
	}
	if items == nil {
		items = []models.Profile{}
	}
	return items, nil
}

// Get returns one profile.
func (s *ProfileService) Get(ctx context.Context, accountID, id string) (*models.Profile, error) {
	item, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, storeError(err, "profile not found", "failed to load profile")
	}
	return item, nil
}

// Active returns the account's active profile.
func (s *ProfileService) Active(ctx context.Context, accountID string) (*models.Profile, error) {
	item, err := s.repo.FindActive(ctx, accountID)
	if err != nil {
		return nil, storeError(err, "no active profile", "failed to load active profile")
	}
	return item, nil
}

// Create adds a profile. The first profile of an account becomes active.
func (s *ProfileService) Create(ctx context.Context, accountID string, req ProfileRequest) (*models.Profile, error) {
	item := &models.Profile{AccountID: accountID}
	req.apply(item)
	if err := s.ValidateProfile(item); err != nil {
		return nil, err
	}
	existing, err := s.repo.List(ctx, accountID)
	if err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to list profiles")
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to create profile")
	}
	if len(existing) == 0 {
		if err := s.repo.Activate(ctx, accountID, item.ID); err != nil {
			return nil, storeError(err, "profile not found", "failed to activate profile")
		}
		item.IsActive = true
	}
	return item, nil
}

// Update changes name, type and color.
func (s *ProfileService) Update(ctx context.Context, accountID, id string, req ProfileRequest) (*models.Profile, error) {
	item, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, storeError(err, "profile not found", "failed to load profile")
	}
	req.apply(item)
	if err := s.ValidateProfile(item); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, storeError(err, "profile not found", "failed to update profile")
	}
	return item, nil
}

// Delete removes a profile. Entries logged under it keep their profileId.
func (s *ProfileService) Delete(ctx context.Context, accountID, id string) error {
	if err := s.repo.Delete(ctx, accountID, id); err != nil {
		return storeError(err, "profile not found", "failed to delete profile")
	}
	return nil
}

// Activate makes id the only active profile.
func (s *ProfileService) Activate(ctx context.Context, accountID, id string) (*models.Profile, error) {
	if err := s.repo.Activate(ctx, accountID, id); err != nil {
		return nil, storeError(err, "profile not found", "failed to activate profile")
	}
	return s.Get(ctx, accountID, id)
}

// ValidateProfile checks record-level rules.
func (s *ProfileService) ValidateProfile(item *models.Profile) error {
	if err := s.validator.Struct(item); err != nil {
		return validationError(err)
	}
	return nil
}
