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

var behaviorRowColumns = []string{"id", "account_id", "profile_id", "date", "time", "antecedent", "behavior", "consequence",
	"severity", "function", "duration", "intensity", "location", "notes", "created_at"}

func TestBehaviorRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	rows := sqlmock.NewRows(behaviorRowColumns).
		AddRow("b-1", "acc-1", "p-1", "2024-03-04", "09:15", "asked to clean up", "threw toy", "removed toy", 3, "escape", 5, "moderate", "home", "", time.Now())
	mock.ExpectQuery(`SELECT .* FROM behaviors WHERE account_id = \$1 AND date >= \$2 AND date <= \$3 AND function = \$4 AND severity >= \$5 AND profile_id = \$6 ORDER BY date DESC, time DESC, created_at DESC LIMIT 10 OFFSET 10`).
		WithArgs("acc-1", "2024-03-01", "2024-03-31", models.FunctionEscape, 2, "p-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM behaviors WHERE account_id = $1")).
		WithArgs("acc-1", "2024-03-01", "2024-03-31", models.FunctionEscape, 2, "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	entries, total, err := repo.List(context.Background(), "acc-1", models.BehaviorFilter{
		DateFrom:    "2024-03-01",
		DateTo:      "2024-03-31",
		Function:    models.FunctionEscape,
		SeverityMin: 2,
		ProfileID:   "p-1",
		Page:        2,
		PageSize:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Severity)
	require.NotNil(t, entries[0].Duration)
	assert.Equal(t, 5, *entries[0].Duration)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO behaviors")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.BehaviorEntry{AccountID: "acc-1", Date: "2024-03-04", Time: "09:15", Antecedent: "a", Behavior: "b", Consequence: "c", Severity: 2, Function: models.FunctionSensory}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM behaviors WHERE account_id = $1 AND id = $2")).
		WithArgs("acc-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "acc-1", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
