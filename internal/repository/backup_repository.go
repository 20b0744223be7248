package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/aba-tracker-api/internal/models"
)

// BackupRepository reads and writes all four record stores of an account at once.
type BackupRepository struct {
	db *sqlx.DB
}

// NewBackupRepository constructs the repository.
func NewBackupRepository(db *sqlx.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

var snapshotTxOptions = &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}

// Snapshot loads every record of the account from one consistent view.
func (r *BackupRepository) Snapshot(ctx context.Context, accountID string) (*models.BackupData, error) {
	tx, err := r.db.BeginTxx(ctx, snapshotTxOptions)
	if err != nil {
		return nil, fmt.Errorf("begin backup snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	behaviors, err := selectAllBehaviors(ctx, tx, accountID, models.BehaviorFilter{})
	if err != nil {
		return nil, err
	}
	reinforcers, err := selectAllReinforcers(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	protocols, err := selectAllCrisisProtocols(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	profiles, err := selectProfiles(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit backup snapshot: %w", err)
	}
	return &models.BackupData{
		Behaviors:       nonNil(behaviors),
		Reinforcers:     nonNil(reinforcers),
		CrisisProtocols: nonNil(protocols),
		Profiles:        nonNil(profiles),
	}, nil
}

// Apply writes data for accountID in a single transaction. Replace mode
// deletes the account's existing records first; both modes upsert by id.
// At most one profile in data may be active.
func (r *BackupRepository) Apply(ctx context.Context, accountID string, data *models.BackupData, mode models.ImportMode) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin backup import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockProfiles(ctx, tx, accountID); err != nil {
		return err
	}
	if mode == models.ImportReplace {
		for _, table := range []string{"behaviors", "reinforcers", "crisis_protocols", "profiles"} {
			if _, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE account_id = $1", table), accountID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	// Clear before inserting so the single-active index never sees two rows.
	for _, p := range data.Profiles {
		if p.IsActive {
			if _, err = tx.ExecContext(ctx, clearActiveQuery, accountID, p.ID); err != nil {
				return fmt.Errorf("clear active profiles: %w", err)
			}
			break
		}
	}
	for i := range data.Profiles {
		data.Profiles[i].AccountID = accountID
		if err = insertProfile(ctx, tx, &data.Profiles[i], true); err != nil {
			return err
		}
	}
	for i := range data.Behaviors {
		data.Behaviors[i].AccountID = accountID
		if err = insertBehavior(ctx, tx, &data.Behaviors[i], true); err != nil {
			return err
		}
	}
	for i := range data.Reinforcers {
		data.Reinforcers[i].AccountID = accountID
		if err = insertReinforcer(ctx, tx, &data.Reinforcers[i], true); err != nil {
			return err
		}
	}
	for i := range data.CrisisProtocols {
		data.CrisisProtocols[i].AccountID = accountID
		if err = insertCrisisProtocol(ctx, tx, &data.CrisisProtocols[i], true); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit backup import: %w", err)
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
