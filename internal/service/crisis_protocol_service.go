package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/export"
)

type crisisProtocolRepository interface {
	List(ctx context.Context, accountID string, filter models.CrisisProtocolFilter) ([]models.CrisisProtocol, int, error)
	FindByID(ctx context.Context, accountID, id string) (*models.CrisisProtocol, error)
	Create(ctx context.Context, item *models.CrisisProtocol) error
	Update(ctx context.Context, item *models.CrisisProtocol) error
	SetActive(ctx context.Context, accountID, id string, active bool) error
	Delete(ctx context.Context, accountID, id string) error
}

type documentRenderer interface {
	RenderDocument(doc export.Document) ([]byte, error)
}

// CrisisProtocolService manages crisis protocols and their printable plans.
type CrisisProtocolService struct {
	repo      crisisProtocolRepository
	pdf       documentRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCrisisProtocolService constructs the service. A nil renderer uses the gofpdf exporter.
func NewCrisisProtocolService(repo crisisProtocolRepository, pdf documentRenderer, validate *validator.Validate, logger *zap.Logger) *CrisisProtocolService {
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CrisisProtocolService{repo: repo, pdf: pdf, validator: ensureValidator(validate), logger: logger}
}

// CrisisProtocolRequest is the create and update payload.
type CrisisProtocolRequest struct {
	Name                   string                    `json:"name"`
	Triggers               []string                  `json:"triggers"`
	PreventionStrategies   []string                  `json:"preventionStrategies"`
	InterventionSteps      []string                  `json:"interventionSteps"`
	SafetyMeasures         []string                  `json:"safetyMeasures"`
	DeEscalationTechniques []string                  `json:"deEscalationTechniques"`
	FollowUpActions        []string                  `json:"followUpActions"`
	EmergencyContacts      []models.EmergencyContact `json:"emergencyContacts"`
	IsActive               bool                      `json:"isActive"`
}

func (r CrisisProtocolRequest) apply(p *models.CrisisProtocol) {
	p.Name = strings.TrimSpace(r.Name)
	p.Triggers = trimAll(r.Triggers)
	p.PreventionStrategies = trimAll(r.PreventionStrategies)
	p.InterventionSteps = trimAll(r.InterventionSteps)
	p.SafetyMeasures = trimAll(r.SafetyMeasures)
	p.DeEscalationTechniques = trimAll(r.DeEscalationTechniques)
	p.FollowUpActions = trimAll(r.FollowUpActions)
	p.EmergencyContacts = models.EmergencyContacts(r.EmergencyContacts)
	p.IsActive = r.IsActive
	p.Normalize()
}

// List returns protocols, optionally only active ones.
func (s *CrisisProtocolService) List(ctx context.Context, accountID string, activeOnly bool, page, pageSize int) ([]models.CrisisProtocol, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	items, total, err := s.repo.List(ctx, accountID, models.CrisisProtocolFilter{ActiveOnly: activeOnly, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, nil, appErrors.ErrInternal.With(err, "failed to list crisis protocols")
	}
	if items == nil {
		items = []models.CrisisProtocol{}
	}
	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one protocol.
func (s *CrisisProtocolService) Get(ctx context.Context, accountID, id string) (*models.CrisisProtocol, error) {
	item, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, storeError(err, "crisis protocol not found", "failed to load crisis protocol")
	}
	return item, nil
}

// Create stores a new protocol.
func (s *CrisisProtocolService) Create(ctx context.Context, accountID string, req CrisisProtocolRequest) (*models.CrisisProtocol, error) {
	item := &models.CrisisProtocol{AccountID: accountID}
	req.apply(item)
	if err := s.ValidateProtocol(item); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to create crisis protocol")
	}
	return item, nil
}

// Update replaces a protocol's content.
func (s *CrisisProtocolService) Update(ctx context.Context, accountID, id string, req CrisisProtocolRequest) (*models.CrisisProtocol, error) {
	item, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, storeError(err, "crisis protocol not found", "failed to load crisis protocol")
	}
	req.apply(item)
	if err := s.ValidateProtocol(item); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, storeError(err, "crisis protocol not found", "failed to update crisis protocol")
	}
	return item, nil
}

// SetActive toggles whether a protocol is in use.
func (s *CrisisProtocolService) SetActive(ctx context.Context, accountID, id string, active bool) (*models.CrisisProtocol, error) {
	if err := s.repo.SetActive(ctx, accountID, id, active); err != nil {
		return nil, storeError(err, "crisis protocol not found", "failed to update crisis protocol")
	}
	return s.Get(ctx, accountID, id)
}

// Delete removes a protocol.
func (s *CrisisProtocolService) Delete(ctx context.Context, accountID, id string) error {
	if err := s.repo.Delete(ctx, accountID, id); err != nil {
		return storeError(err, "crisis protocol not found", "failed to delete crisis protocol")
	}
	return nil
}

// ValidateProtocol checks record-level rules.
func (s *CrisisProtocolService) ValidateProtocol(item *models.CrisisProtocol) error {
	if err := s.validator.Struct(item); err != nil {
		return validationError(err)
	}
	return nil
}

// RenderPDF produces a printable plan and a suggested filename.
func (s *CrisisProtocolService) RenderPDF(ctx context.Context, accountID, id string) ([]byte, string, error) {
	item, err := s.Get(ctx, accountID, id)
	if err != nil {
		return nil, "", err
	}
	data, err := s.pdf.RenderDocument(ProtocolDocument(*item))
	if err != nil {
		return nil, "", appErrors.ErrInternal.With(err, "failed to render crisis protocol")
	}
	return data, fmt.Sprintf("crisis-protocol-%s.pdf", slugify(item.Name, item.ID)), nil
}

// ProtocolDocument lays out a protocol for printing.
func ProtocolDocument(p models.CrisisProtocol) export.Document {
	status := "Inactive"
	if p.IsActive {
		status = "Active"
	}
	contacts := make([]string, 0, len(p.EmergencyContacts))
	for _, c := range p.EmergencyContacts {
		line := c.Name
		if c.Relationship != "" {
			line += " (" + c.Relationship + ")"
		}
		if c.Phone != "" {
			line += ": " + c.Phone
		}
		contacts = append(contacts, line)
	}
	return export.Document{
		Title:    p.Name,
		Subtitle: fmt.Sprintf("Crisis protocol - %s - updated %s", status, p.UpdatedAt.Format("2006-01-02")),
		Sections: []export.Section{
			{Heading: "Triggers", Items: p.Triggers},
			{Heading: "Prevention strategies", Items: p.PreventionStrategies},
			{Heading: "De-escalation techniques", Items: p.DeEscalationTechniques},
			{Heading: "Intervention steps", Items: numbered(p.InterventionSteps)},
			{Heading: "Safety measures", Items: p.SafetyMeasures},
			{Heading: "Follow-up actions", Items: p.FollowUpActions},
			{Heading: "Emergency contacts", Items: contacts},
		},
	}
}

func numbered(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return out
}

func trimAll(in []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func slugify(name, fallback string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return fallback
	}
	return slug
}
