package repo

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/account/entity"
)

// Store is durable storage for accounts keyed uniquely by email.
// Implementations map their failures onto apperr: a missing row is
// apperr.ErrNotFound and a duplicate email is apperr.ErrConflict.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	FindByID(ctx context.Context, id int64) (*entity.Account, error)
	// Insert assigns ID and timestamps on a.
	Insert(ctx context.Context, a *entity.Account) error
	Update(ctx context.Context, a *entity.Account) error
	// InTx runs fn against a Store bound to a single transaction. Reads made
	// through it lock the rows they return until fn finishes.
	InTx(ctx context.Context, fn func(s Store) error) error
}
