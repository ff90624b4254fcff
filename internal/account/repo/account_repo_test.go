package repo

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

var accountColumns = []string{
	"id", "email", "first_name", "last_name", "phone_number", "gender", "major",
	"academic_year", "interests", "status", "roles", "password_hash", "created_at", "updated_at",
}

func newRepoWithMock(t *testing.T) (*AccountRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ids, err := utilities.NewIDNode(1)
	require.NoError(t, err)
	return NewAccountRepo(sqlx.NewDb(db, "postgres"), ids), mock
}

func sampleAccount() *entity.Account {
	return &entity.Account{
		Email:        "salma@example.com",
		FirstName:    "Salma",
		LastName:     "Idrissi",
		PhoneNumber:  "+212612345678",
		Gender:       "FEMALE",
		Major:        "COMPUTER_SCIENCE",
		AcademicYear: "THIRD_YEAR",
		Interests:    "robotics",
		Status:       entity.StatusInactive,
		Roles:        []string{entity.RoleUser},
		PasswordHash: "$2a$04$hash",
	}
}

func TestInsert_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+accounts\s*\(id,\s*email,.*RETURNING\s+created_at,\s*updated_at$`).
		WithArgs(sqlmock.AnyArg(), "salma@example.com", "Salma", "Idrissi", "+212612345678", "FEMALE",
			"COMPUTER_SCIENCE", "THIRD_YEAR", "robotics", "INACTIVE", pq.StringArray{"USER"}, "$2a$04$hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	a := sampleAccount()
	require.NoError(t, repo.Insert(context.Background(), a))
	assert.NotZero(t, a.ID)
	assert.Equal(t, now, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+accounts`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_accounts_email"})

	a := sampleAccount()
	err := repo.Insert(context.Background(), a)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Zero(t, a.ID)
}

func TestInsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+accounts`).WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), sampleAccount())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	assert.False(t, errors.Is(err, apperr.ErrConflict))
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,.*FROM\s+accounts\s+WHERE\s+email=\$1$`).
		WithArgs("salma@example.com").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(
			int64(7), "salma@example.com", "Salma", "Idrissi", "+212612345678", "FEMALE", "CS",
			"THIRD_YEAR", "", "ACTIVE", "{USER,ADMIN}", "$2a$04$hash", now, now))

	got, err := repo.FindByEmail(context.Background(), "salma@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, entity.StatusActive, got.Status)
	assert.Equal(t, []string{"USER", "ADMIN"}, got.Roles)
	assert.Equal(t, "$2a$04$hash", got.PasswordHash)
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT.*WHERE\s+email=\$1$`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindByID_OutsideTxDoesNotLock(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT.*WHERE\s+id=\$1$`).
		WithArgs(int64(999999)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 999999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_ActivateLocksAndCommits(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT.*WHERE\s+id=\$1\s+FOR\s+UPDATE$`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(
			int64(7), "salma@example.com", "Salma", "Idrissi", "+212612345678", "FEMALE", "CS",
			"THIRD_YEAR", "", "INACTIVE", "{USER}", "$2a$04$hash", now, now))
	mock.ExpectQuery(`(?s)^UPDATE\s+accounts\s+SET.*status=\$9.*WHERE\s+id=\$1\s+RETURNING\s+updated_at$`).
		WithArgs(int64(7), "Salma", "Idrissi", "+212612345678", "FEMALE", "CS", "THIRD_YEAR", "", "ACTIVE", pq.StringArray{"USER"}).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(s Store) error {
		a, err := s.FindByID(context.Background(), 7)
		if err != nil {
			return err
		}
		a.Activate()
		return s.Update(context.Background(), a)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_RollsBackOnUpdateFailure(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^UPDATE\s+accounts`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(s Store) error {
		return s.Update(context.Background(), &entity.Account{ID: 7, Status: entity.StatusActive, Roles: []string{"USER"}})
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_MissingRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^UPDATE\s+accounts`).WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &entity.Account{ID: 1, Roles: []string{"USER"}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEnsureTable(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)CREATE\s+TABLE\s+IF\s+NOT\s+EXISTS\s+accounts.*CREATE\s+UNIQUE\s+INDEX`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
