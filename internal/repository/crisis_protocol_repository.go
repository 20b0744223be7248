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

const crisisProtocolColumns = `id, account_id, name, triggers, prevention_strategies, intervention_steps, safety_measures,
de_escalation_techniques, follow_up_actions, emergency_contacts, is_active, created_at, updated_at`

const insertCrisisProtocolQuery = `INSERT INTO crisis_protocols (id, account_id, name, triggers, prevention_strategies, intervention_steps, safety_measures,
de_escalation_techniques, follow_up_actions, emergency_contacts, is_active, created_at, updated_at)
VALUES (:id, :account_id, :name, :triggers, :prevention_strategies, :intervention_steps, :safety_measures,
:de_escalation_techniques, :follow_up_actions, :emergency_contacts, :is_active, :created_at, :updated_at)`

// CrisisProtocolRepository persists crisis protocols.
type CrisisProtocolRepository struct {
	db *sqlx.DB
}

// NewCrisisProtocolRepository constructs the repository.
func NewCrisisProtocolRepository(db *sqlx.DB) *CrisisProtocolRepository {
	return &CrisisProtocolRepository{db: db}
}

// List returns protocols, most recently updated first.
func (r *CrisisProtocolRepository) List(ctx context.Context, accountID string, filter models.CrisisProtocolFilter) ([]models.CrisisProtocol, int, error) {
	where := []string{"account_id = $1"}
	args := []interface{}{accountID}
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	whereClause := strings.Join(where, " AND ")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s FROM crisis_protocols WHERE %s ORDER BY updated_at DESC, id ASC LIMIT %d OFFSET %d`,
		crisisProtocolColumns, whereClause, limit, offset)
	var items []models.CrisisProtocol
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list crisis protocols: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM crisis_protocols WHERE %s", whereClause), args...); err != nil {
		return nil, 0, fmt.Errorf("count crisis protocols: %w", err)
	}
	return items, total, nil
}

// ListAll returns every protocol of an account.
func (r *CrisisProtocolRepository) ListAll(ctx context.Context, accountID string) ([]models.CrisisProtocol, error) {
	return selectAllCrisisProtocols(ctx, r.db, accountID)
}

func selectAllCrisisProtocols(ctx context.Context, q sqlx.QueryerContext, accountID string) ([]models.CrisisProtocol, error) {
	query := fmt.Sprintf(`SELECT %s FROM crisis_protocols WHERE account_id = $1 ORDER BY created_at ASC, id ASC`, crisisProtocolColumns)
	var items []models.CrisisProtocol
	if err := sqlx.SelectContext(ctx, q, &items, query, accountID); err != nil {
		return nil, fmt.Errorf("list all crisis protocols: %w", err)
	}
	return items, nil
}

// FindByID fetches one protocol.
func (r *CrisisProtocolRepository) FindByID(ctx context.Context, accountID, id string) (*models.CrisisProtocol, error) {
	query := fmt.Sprintf(`SELECT %s FROM crisis_protocols WHERE account_id = $1 AND id = $2`, crisisProtocolColumns)
	var item models.CrisisProtocol
	if err := r.db.GetContext(ctx, &item, query, accountID, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a protocol.
func (r *CrisisProtocolRepository) Create(ctx context.Context, item *models.CrisisProtocol) error {
	return insertCrisisProtocol(ctx, r.db, item, false)
}

// Update rewrites a protocol's content and active flag.
func (r *CrisisProtocolRepository) Update(ctx context.Context, item *models.CrisisProtocol) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE crisis_protocols SET name = :name, triggers = :triggers, prevention_strategies = :prevention_strategies,
intervention_steps = :intervention_steps, safety_measures = :safety_measures, de_escalation_techniques = :de_escalation_techniques,
follow_up_actions = :follow_up_actions, emergency_contacts = :emergency_contacts, is_active = :is_active, updated_at = :updated_at
WHERE account_id = :account_id AND id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update crisis protocol: %w", err)
	}
	return requireAffected(res, "update crisis protocol")
}

// SetActive toggles the active flag.
func (r *CrisisProtocolRepository) SetActive(ctx context.Context, accountID, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE crisis_protocols SET is_active = $3, updated_at = $4 WHERE account_id = $1 AND id = $2",
		accountID, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set crisis protocol active: %w", err)
	}
	return requireAffected(res, "set crisis protocol active")
}

// Delete removes a protocol.
func (r *CrisisProtocolRepository) Delete(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM crisis_protocols WHERE account_id = $1 AND id = $2", accountID, id)
	if err != nil {
		return fmt.Errorf("delete crisis protocol: %w", err)
	}
	return requireAffected(res, "delete crisis protocol")
}

func insertCrisisProtocol(ctx context.Context, exec sqlx.ExtContext, item *models.CrisisProtocol, upsert bool) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	item.Normalize()
	query := insertCrisisProtocolQuery
	if upsert {
		query += ` ON CONFLICT (account_id, id) DO UPDATE SET name = EXCLUDED.name, triggers = EXCLUDED.triggers,
prevention_strategies = EXCLUDED.prevention_strategies, intervention_steps = EXCLUDED.intervention_steps,
safety_measures = EXCLUDED.safety_measures, de_escalation_techniques = EXCLUDED.de_escalation_techniques,
follow_up_actions = EXCLUDED.follow_up_actions, emergency_contacts = EXCLUDED.emergency_contacts, is_active = EXCLUDED.is_active,
created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at`
	}
	if _, err := sqlx.NamedExecContext(ctx, exec, query, item); err != nil {
		return fmt.Errorf("create crisis protocol: %w", err)
	}
	return nil
}
