package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

const uniqueViolation = "23505"

const selectColumns = `SELECT id, email, first_name, last_name, phone_number, gender, major,
		academic_year, interests, status, roles, password_hash, created_at, updated_at
	  FROM accounts`

// AccountRepo provides data access for the accounts table using sqlx.
type AccountRepo struct {
	db   *sqlx.DB
	q    sqlx.ExtContext
	ids  *utilities.IDNode
	inTx bool
}

// NewAccountRepo returns a repo that assigns snowflake ids from ids.
func NewAccountRepo(db *sqlx.DB, ids *utilities.IDNode) *AccountRepo {
	return &AccountRepo{db: db, q: db, ids: ids}
}

// EnsureTable creates the accounts table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *AccountRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS accounts (
  id BIGINT PRIMARY KEY,
  email VARCHAR(100) NOT NULL,
  first_name VARCHAR(50) NOT NULL,
  last_name VARCHAR(50) NOT NULL,
  phone_number VARCHAR(50) NOT NULL,
  gender VARCHAR(50) NOT NULL,
  major VARCHAR(50) NOT NULL,
  academic_year VARCHAR(50) NOT NULL,
  interests VARCHAR(250) NOT NULL DEFAULT '',
  status VARCHAR(50) NOT NULL DEFAULT 'INACTIVE',
  roles TEXT[] NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  CONSTRAINT accounts_status_check CHECK (status IN ('INACTIVE', 'ACTIVE')),
  CONSTRAINT accounts_roles_check CHECK (cardinality(roles) > 0)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);
`
	_, err := r.q.ExecContext(ctx, ddl)
	return err
}

type accountRow struct {
	ID           int64          `db:"id"`
	Email        string         `db:"email"`
	FirstName    string         `db:"first_name"`
	LastName     string         `db:"last_name"`
	PhoneNumber  string         `db:"phone_number"`
	Gender       string         `db:"gender"`
	Major        string         `db:"major"`
	AcademicYear string         `db:"academic_year"`
	Interests    string         `db:"interests"`
	Status       string         `db:"status"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash string         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (row *accountRow) toEntity() *entity.Account {
	return &entity.Account{
		ID:           row.ID,
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		PhoneNumber:  row.PhoneNumber,
		Gender:       row.Gender,
		Major:        row.Major,
		AcademicYear: row.AcademicYear,
		Interests:    row.Interests,
		Status:       entity.Status(row.Status),
		Roles:        []string(row.Roles),
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// mapError folds driver errors into the apperr taxonomy.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, pqErr.Constraint)
	}
	return fmt.Errorf("db error: %w", err)
}

// Insert stores a new account. A duplicate email surfaces as apperr.ErrConflict.
func (r *AccountRepo) Insert(ctx context.Context, a *entity.Account) error {
	const q = `INSERT INTO accounts (id, email, first_name, last_name, phone_number, gender, major,
		academic_year, interests, status, roles, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`
	id := r.ids.Next()
	var ts struct {
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err := sqlx.GetContext(ctx, r.q, &ts, q,
		id, a.Email, a.FirstName, a.LastName, a.PhoneNumber, a.Gender, a.Major,
		a.AcademicYear, a.Interests, string(a.Status), pq.StringArray(a.Roles), a.PasswordHash)
	if err != nil {
		return mapError(err)
	}
	a.ID = id
	a.CreatedAt = ts.CreatedAt
	a.UpdatedAt = ts.UpdatedAt
	return nil
}

// FindByEmail returns the account with exactly this email.
func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var row accountRow
	if err := sqlx.GetContext(ctx, r.q, &row, selectColumns+` WHERE email=$1`, email); err != nil {
		return nil, mapError(err)
	}
	return row.toEntity(), nil
}

// FindByID fetches a full account row. Inside InTx the row stays locked
// until the transaction ends.
func (r *AccountRepo) FindByID(ctx context.Context, id int64) (*entity.Account, error) {
	q := selectColumns + ` WHERE id=$1`
	if r.inTx {
		q += ` FOR UPDATE`
	}
	var row accountRow
	if err := sqlx.GetContext(ctx, r.q, &row, q, id); err != nil {
		return nil, mapError(err)
	}
	return row.toEntity(), nil
}

// Update writes the mutable columns. Email and password hash are not touched.
func (r *AccountRepo) Update(ctx context.Context, a *entity.Account) error {
	const q = `UPDATE accounts SET first_name=$2, last_name=$3, phone_number=$4, gender=$5, major=$6,
		academic_year=$7, interests=$8, status=$9, roles=$10, updated_at=NOW()
		WHERE id=$1 RETURNING updated_at`
	var updatedAt time.Time
	err := sqlx.GetContext(ctx, r.q, &updatedAt, q,
		a.ID, a.FirstName, a.LastName, a.PhoneNumber, a.Gender, a.Major,
		a.AcademicYear, a.Interests, string(a.Status), pq.StringArray(a.Roles))
	if err != nil {
		return mapError(err)
	}
	a.UpdatedAt = updatedAt
	return nil
}

// InTx runs fn inside a single database transaction.
func (r *AccountRepo) InTx(ctx context.Context, fn func(s Store) error) error {
	if r.inTx {
		return fn(r)
	}
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&AccountRepo{db: r.db, q: tx, ids: r.ids, inTx: true})
	})
}

var _ Store = (*AccountRepo)(nil)
