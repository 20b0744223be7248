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

const reinforcerColumns = `id, account_id, name, type, usage_count, effectiveness, avoid_repetition_days, last_used,
COALESCE(notes, '') AS notes, created_at`

const insertReinforcerQuery = `INSERT INTO reinforcers (id, account_id, name, type, usage_count, effectiveness, avoid_repetition_days, last_used, notes, created_at)
VALUES (:id, :account_id, :name, :type, :usage_count, :effectiveness, :avoid_repetition_days, :last_used, NULLIF(:notes, ''), :created_at)`

// ReinforcerRepository persists reinforcers and their usage counters.
type ReinforcerRepository struct {
	db *sqlx.DB
}

// NewReinforcerRepository constructs the repository.
func NewReinforcerRepository(db *sqlx.DB) *ReinforcerRepository {
	return &ReinforcerRepository{db: db}
}

// List returns reinforcers ordered by name.
func (r *ReinforcerRepository) List(ctx context.Context, accountID string, filter models.ReinforcerFilter) ([]models.Reinforcer, int, error) {
	where := []string{"account_id = $1"}
	args := []interface{}{accountID}
	if filter.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.AvailableAt != nil {
		where = append(where, fmt.Sprintf("(last_used IS NULL OR last_used + make_interval(days => avoid_repetition_days) <= $%d)", len(args)+1))
		args = append(args, *filter.AvailableAt)
	}
	whereClause := strings.Join(where, " AND ")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s FROM reinforcers WHERE %s ORDER BY name ASC, id ASC LIMIT %d OFFSET %d`, reinforcerColumns, whereClause, limit, offset)
	var items []models.Reinforcer
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reinforcers: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM reinforcers WHERE %s", whereClause), args...); err != nil {
		return nil, 0, fmt.Errorf("count reinforcers: %w", err)
	}
	return items, total, nil
}

// ListAll returns every reinforcer of an account.
func (r *ReinforcerRepository) ListAll(ctx context.Context, accountID string) ([]models.Reinforcer, error) {
	return selectAllReinforcers(ctx, r.db, accountID)
}

func selectAllReinforcers(ctx context.Context, q sqlx.QueryerContext, accountID string) ([]models.Reinforcer, error) {
	query := fmt.Sprintf(`SELECT %s FROM reinforcers WHERE account_id = $1 ORDER BY name ASC, id ASC`, reinforcerColumns)
	var items []models.Reinforcer
	if err := sqlx.SelectContext(ctx, q, &items, query, accountID); err != nil {
		return nil, fmt.Errorf("list all reinforcers: %w", err)
	}
	return items, nil
}

// FindByID fetches one reinforcer.
func (r *ReinforcerRepository) FindByID(ctx context.Context, accountID, id string) (*models.Reinforcer, error) {
	query := fmt.Sprintf(`SELECT %s FROM reinforcers WHERE account_id = $1 AND id = $2`, reinforcerColumns)
	var item models.Reinforcer
	if err := r.db.GetContext(ctx, &item, query, accountID, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a reinforcer.
func (r *ReinforcerRepository) Create(ctx context.Context, item *models.Reinforcer) error {
	return insertReinforcer(ctx, r.db, item, false)
}

// Update rewrites the mutable fields. Usage counters are untouched.
func (r *ReinforcerRepository) Update(ctx context.Context, item *models.Reinforcer) error {
	const query = `UPDATE reinforcers SET name = :name, type = :type, effectiveness = :effectiveness,
avoid_repetition_days = :avoid_repetition_days, notes = NULLIF(:notes, '')
WHERE account_id = :account_id AND id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update reinforcer: %w", err)
	}
	return requireAffected(res, "update reinforcer")
}

// RecordUse increments usage_count by one and stamps last_used atomically,
// returning the updated row.
func (r *ReinforcerRepository) RecordUse(ctx context.Context, accountID, id string, usedAt time.Time) (*models.Reinforcer, error) {
	query := fmt.Sprintf(`UPDATE reinforcers SET usage_count = usage_count + 1, last_used = $3
WHERE account_id = $1 AND id = $2 RETURNING %s`, reinforcerColumns)
	var item models.Reinforcer
	if err := r.db.GetContext(ctx, &item, query, accountID, id, usedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes a reinforcer.
func (r *ReinforcerRepository) Delete(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reinforcers WHERE account_id = $1 AND id = $2", accountID, id)
	if err != nil {
		return fmt.Errorf("delete reinforcer: %w", err)
	}
	return requireAffected(res, "delete reinforcer")
}

func insertReinforcer(ctx context.Context, exec sqlx.ExtContext, item *models.Reinforcer, upsert bool) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	query := insertReinforcerQuery
	if upsert {
		query += ` ON CONFLICT (account_id, id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type, usage_count = EXCLUDED.usage_count,
effectiveness = EXCLUDED.effectiveness, avoid_repetition_days = EXCLUDED.avoid_repetition_days, last_used = EXCLUDED.last_used,
notes = EXCLUDED.notes, created_at = EXCLUDED.created_at`
	}
	if _, err := sqlx.NamedExecContext(ctx, exec, query, item); err != nil {
		return fmt.Errorf("create reinforcer: %w", err)
	}
	return nil
}
