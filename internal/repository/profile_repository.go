package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/aba-tracker-api/internal/models"
)

const profileColumns = `id, account_id, name, type, color, is_active, created_at`

const insertProfileQuery = `INSERT INTO profiles (id, account_id, name, type, color, is_active, created_at)
VALUES (:id, :account_id, :name, :type, :color, :is_active, :created_at)`

// ProfileRepository persists the family-member profiles of an account.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// List returns all profiles of an account in creation order.
func (r *ProfileRepository) List(ctx context.Context, accountID string) ([]models.Profile, error) {
	return selectProfiles(ctx, r.db, accountID)
}

func selectProfiles(ctx context.Context, q sqlx.QueryerContext, accountID string) ([]models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE account_id = $1 ORDER BY created_at ASC, id ASC`, profileColumns)
	var items []models.Profile
	if err := sqlx.SelectContext(ctx, q, &items, query, accountID); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return items, nil
}

// FindByID fetches one profile.
func (r *ProfileRepository) FindByID(ctx context.Context, accountID, id string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE account_id = $1 AND id = $2`, profileColumns)
	var item models.Profile
	if err := r.db.GetContext(ctx, &item, query, accountID, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindActive returns the active profile or sql.ErrNoRows.
func (r *ProfileRepository) FindActive(ctx context.Context, accountID string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE account_id = $1 AND is_active = TRUE ORDER BY created_at ASC LIMIT 1`, profileColumns)
	var item models.Profile
	if err := r.db.GetContext(ctx, &item, query, accountID); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a profile. New profiles start inactive; use Activate.
func (r *ProfileRepository) Create(ctx context.Context, item *models.Profile) error {
	item.IsActive = false
	return insertProfile(ctx, r.db, item, false)
}

// Update rewrites name, type and color.
func (r *ProfileRepository) Update(ctx context.Context, item *models.Profile) error {
	const query = `UPDATE profiles SET name = :name, type = :type, color = :color WHERE account_id = :account_id AND id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireAffected(res, "update profile")
}

// Delete removes a profile. Behavior entries keep their profile reference.
func (r *ProfileRepository) Delete(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE account_id = $1 AND id = $2", accountID, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return requireAffected(res, "delete profile")
}

const (
	lockProfilesQuery = `SELECT pg_advisory_xact_lock(hashtext('profiles:' || $1))`
	clearActiveQuery  = `UPDATE profiles SET is_active = FALSE WHERE account_id = $1 AND is_active = TRUE AND id <> $2`
	setActiveQuery    = `UPDATE profiles SET is_active = TRUE WHERE account_id = $1 AND id = $2`
)

// lockProfiles serializes writers of the account's active flag until tx ends.
// The partial unique index on profiles(account_id) WHERE is_active backs it.
func lockProfiles(ctx context.Context, tx *sqlx.Tx, accountID string) error {
	if _, err := tx.ExecContext(ctx, lockProfilesQuery, accountID); err != nil {
		return fmt.Errorf("lock profiles: %w", err)
	}
	return nil
}

// Activate marks id as the only active profile of the account.
func (r *ProfileRepository) Activate(ctx context.Context, accountID, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate profile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockProfiles(ctx, tx, accountID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, clearActiveQuery, accountID, id); err != nil {
		return fmt.Errorf("clear active profiles: %w", err)
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, setActiveQuery, accountID, id); err != nil {
		return fmt.Errorf("activate profile: %w", err)
	}
	if err = requireAffected(res, "activate profile"); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit activate profile: %w", err)
	}
	return nil
}

func insertProfile(ctx context.Context, exec sqlx.ExtContext, item *models.Profile, upsert bool) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	query := insertProfileQuery
	if upsert {
		query += ` ON CONFLICT (account_id, id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type, color = EXCLUDED.color,
is_active = EXCLUDED.is_active, created_at = EXCLUDED.created_at`
	}
	if _, err := sqlx.NamedExecContext(ctx, exec, query, item); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}
