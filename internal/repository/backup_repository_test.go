package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aba-tracker-api/internal/models"
)

func TestBackupRepositoryApplyReplace(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBackupRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).WithArgs("acc-1").WillReturnResult(sqlmock.NewResult(0, 0))
	for _, table := range []string{"behaviors", "reinforcers", "crisis_protocols", "profiles"} {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM " + table + " WHERE account_id = $1")).
			WithArgs("acc-1").
			WillReturnResult(sqlmock.NewResult(0, 3))
	}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET is_active = FALSE")).
		WithArgs("acc-1", "p-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO behaviors")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reinforcers")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO crisis_protocols")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	data := &models.BackupData{
		Profiles:        []models.Profile{{ID: "p-1", Name: "Dad", Type: models.ProfileParent, Color: "#123456", IsActive: true}},
		Behaviors:       []models.BehaviorEntry{{ID: "b-1", Date: "2024-01-01", Time: "08:00", Antecedent: "a", Behavior: "b", Consequence: "c", Severity: 1, Function: models.FunctionAttention}},
		Reinforcers:     []models.Reinforcer{{ID: "r-1", Name: "Stickers", Type: models.ReinforcerTangible, Effectiveness: 3}},
		CrisisProtocols: []models.CrisisProtocol{{ID: "cp-1", Name: "Plan"}},
	}
	require.NoError(t, repo.Apply(context.Background(), "acc-1", data, models.ImportReplace))
	assert.Equal(t, "acc-1", data.Behaviors[0].AccountID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackupRepositoryApplyRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBackupRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).WithArgs("acc-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO behaviors")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO behaviors")).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	data := &models.BackupData{Behaviors: []models.BehaviorEntry{{ID: "b-1"}, {ID: "b-2"}}}
	err := repo.Apply(context.Background(), "acc-1", data, models.ImportMerge)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackupRepositorySnapshotNeverReturnsNilSlices(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBackupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM behaviors")).WithArgs("acc-1").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reinforcers")).WithArgs("acc-1").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM crisis_protocols")).WithArgs("acc-1").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles")).WithArgs("acc-1").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	data, err := repo.Snapshot(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.NotNil(t, data.Behaviors)
	assert.NotNil(t, data.Reinforcers)
	assert.NotNil(t, data.CrisisProtocols)
	assert.NotNil(t, data.Profiles)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackupRepositorySnapshotReadsInOneTransaction(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBackupRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM behaviors")).WithArgs("acc-1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reinforcers")).WithArgs("acc-1").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Snapshot(context.Background(), "acc-1")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackupRepositoryApplyClearsActiveBeforeInsert(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBackupRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).WithArgs("acc-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET is_active = FALSE")).
		WithArgs("acc-1", "p-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	data := &models.BackupData{Profiles: []models.Profile{
		{ID: "p-1", Name: "Mum", Type: models.ProfileParent, Color: "#111111"},
		{ID: "p-2", Name: "Nan", Type: models.ProfileCaregiver, Color: "#222222", IsActive: true},
	}}
	require.NoError(t, repo.Apply(context.Background(), "acc-1", data, models.ImportMerge))
	require.NoError(t, mock.ExpectationsWereMet())
}
