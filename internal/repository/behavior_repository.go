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

const behaviorColumns = `id, account_id, COALESCE(profile_id, '') AS profile_id, date, time, antecedent, behavior, consequence,
severity, function, duration, COALESCE(intensity, '') AS intensity, COALESCE(location, '') AS location,
COALESCE(notes, '') AS notes, created_at`

const insertBehaviorQuery = `INSERT INTO behaviors (id, account_id, profile_id, date, time, antecedent, behavior, consequence, severity, function, duration, intensity, location, notes, created_at)
VALUES (:id, :account_id, NULLIF(:profile_id, ''), :date, :time, :antecedent, :behavior, :consequence, :severity, :function, :duration, NULLIF(:intensity, ''), NULLIF(:location, ''), NULLIF(:notes, ''), :created_at)`

// BehaviorRepository manages persistence for ABC behavior entries.
type BehaviorRepository struct {
	db *sqlx.DB
}

// NewBehaviorRepository constructs a new repository.
func NewBehaviorRepository(db *sqlx.DB) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

func behaviorWhere(accountID string, filter models.BehaviorFilter) (string, []interface{}) {
	where := []string{"account_id = $1"}
	args := []interface{}{accountID}
	if filter.DateFrom != "" {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}
	if filter.Function != "" {
		where = append(where, fmt.Sprintf("function = $%d", len(args)+1))
		args = append(args, filter.Function)
	}
	if filter.SeverityMin > 0 {
		where = append(where, fmt.Sprintf("severity >= $%d", len(args)+1))
		args = append(args, filter.SeverityMin)
	}
	if filter.SeverityMax > 0 {
		where = append(where, fmt.Sprintf("severity <= $%d", len(args)+1))
		args = append(args, filter.SeverityMax)
	}
	if filter.ProfileID != "" {
		where = append(where, fmt.Sprintf("profile_id = $%d", len(args)+1))
		args = append(args, filter.ProfileID)
	}
	return strings.Join(where, " AND "), args
}

// List returns a page of entries, newest first, with the total match count.
func (r *BehaviorRepository) List(ctx context.Context, accountID string, filter models.BehaviorFilter) ([]models.BehaviorEntry, int, error) {
	whereClause, args := behaviorWhere(accountID, filter)
	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM behaviors WHERE %s ORDER BY date DESC, time DESC, created_at DESC LIMIT %d OFFSET %d`,
		behaviorColumns, whereClause, limit, offset)
	var entries []models.BehaviorEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list behaviors: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM behaviors WHERE %s", whereClause), args...); err != nil {
		return nil, 0, fmt.Errorf("count behaviors: %w", err)
	}
	return entries, total, nil
}

// ListAll returns every matching entry in chronological order. Pagination
// fields on the filter are ignored.
func (r *BehaviorRepository) ListAll(ctx context.Context, accountID string, filter models.BehaviorFilter) ([]models.BehaviorEntry, error) {
	return selectAllBehaviors(ctx, r.db, accountID, filter)
}

func selectAllBehaviors(ctx context.Context, q sqlx.QueryerContext, accountID string, filter models.BehaviorFilter) ([]models.BehaviorEntry, error) {
	whereClause, args := behaviorWhere(accountID, filter)
	query := fmt.Sprintf(`SELECT %s FROM behaviors WHERE %s ORDER BY date ASC, time ASC, created_at ASC`, behaviorColumns, whereClause)
	var entries []models.BehaviorEntry
	if err := sqlx.SelectContext(ctx, q, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list all behaviors: %w", err)
	}
	return entries, nil
}

// FindByID fetches one entry.
func (r *BehaviorRepository) FindByID(ctx context.Context, accountID, id string) (*models.BehaviorEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM behaviors WHERE account_id = $1 AND id = $2`, behaviorColumns)
	var entry models.BehaviorEntry
	if err := r.db.GetContext(ctx, &entry, query, accountID, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create inserts a new entry, assigning an id and timestamp when absent.
func (r *BehaviorRepository) Create(ctx context.Context, entry *models.BehaviorEntry) error {
	return insertBehavior(ctx, r.db, entry, false)
}

// Delete removes an entry. sql.ErrNoRows is returned when nothing matched.
func (r *BehaviorRepository) Delete(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM behaviors WHERE account_id = $1 AND id = $2", accountID, id)
	if err != nil {
		return fmt.Errorf("delete behavior: %w", err)
	}
	return requireAffected(res, "delete behavior")
}

func insertBehavior(ctx context.Context, exec sqlx.ExtContext, entry *models.BehaviorEntry, upsert bool) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := insertBehaviorQuery
	if upsert {
		query += ` ON CONFLICT (account_id, id) DO UPDATE SET profile_id = EXCLUDED.profile_id, date = EXCLUDED.date, time = EXCLUDED.time,
antecedent = EXCLUDED.antecedent, behavior = EXCLUDED.behavior, consequence = EXCLUDED.consequence, severity = EXCLUDED.severity,
function = EXCLUDED.function, duration = EXCLUDED.duration, intensity = EXCLUDED.intensity, location = EXCLUDED.location,
notes = EXCLUDED.notes, created_at = EXCLUDED.created_at`
	}
	if _, err := sqlx.NamedExecContext(ctx, exec, query, entry); err != nil {
		return fmt.Errorf("create behavior: %w", err)
	}
	return nil
}
