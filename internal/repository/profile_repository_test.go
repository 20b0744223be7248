package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aba-tracker-api/internal/models"
)

func TestProfileRepositoryActivateCommits(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext('profiles:' || $1))")).
		WithArgs("acc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET is_active = FALSE WHERE account_id = $1 AND is_active = TRUE AND id <> $2")).
		WithArgs("acc-1", "p-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET is_active = TRUE WHERE account_id = $1 AND id = $2")).
		WithArgs("acc-1", "p-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Activate(context.Background(), "acc-1", "p-2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryActivateStopsWhenLockFails(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).WithArgs("acc-1").WillReturnError(context.Canceled)
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), "acc-1", "p-2")
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryActivateMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET is_active = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), "acc-1", "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryCreateStartsInactive(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WithArgs(sqlmock.AnyArg(), "acc-1", "Mum", models.ProfileParent, "#FF8800", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p := &models.Profile{AccountID: "acc-1", Name: "Mum", Type: models.ProfileParent, Color: "#FF8800", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.False(t, p.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}
