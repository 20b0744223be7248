package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aba-tracker-api/internal/models"
)

func TestAccountRepositoryLowercasesEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs(sqlmock.AnyArg(), "family@example.com", "The Smiths", "hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	account := &models.Account{Email: "Family@Example.com", Name: "The Smiths", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), account))
	assert.NotEmpty(t, account.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE email = $1")).
		WithArgs("family@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at"}).
			AddRow(account.ID, "family@example.com", "The Smiths", "hash", time.Now()))
	found, err := repo.FindByEmail(context.Background(), "FAMILY@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryUpdatePassword(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET password_hash = $1 WHERE id = $2")).
		WithArgs("new-hash", "acct-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(context.Background(), "acct-1", "new-hash"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET password_hash")).
		WithArgs("new-hash", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), "gone", "new-hash"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
