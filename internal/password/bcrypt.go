package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// MaxBytes is the longest input bcrypt accepts. Longer passwords are a
// client error, not a hashing failure.
const MaxBytes = 72

var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher defines the minimal hashing interface used by the account core.
type Hasher interface {
	Hash(pw string) (string, error)
	Verify(pw, hash string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct {
	Cost int

	// dummy is compared against when no stored hash exists so that lookups
	// for unknown accounts cost the same as a wrong password.
	dummy []byte
}

// NewBcryptHasher returns a hasher with the given cost; zero means DefaultCost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d,%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		return nil, err
	}
	return &BcryptHasher{Cost: cost, dummy: dummy}, nil
}

func (b *BcryptHasher) Hash(pw string) (string, error) {
	if pw == "" {
		return "", ErrEmptyPassword
	}
	if len(pw) > MaxBytes {
		return "", apperr.NewValidationError("password", "must be at most 72 bytes")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.NewValidationError("password", "must be at most 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether pw matches hash. It never fails loudly: a mismatch
// or a malformed hash both return false.
func (b *BcryptHasher) Verify(pw, hash string) bool {
	if hash == "" {
		b.Burn(pw)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Burn spends one comparison's worth of work and discards the result.
func (b *BcryptHasher) Burn(pw string) {
	if len(b.dummy) == 0 {
		return
	}
	_ = bcrypt.CompareHashAndPassword(b.dummy, []byte(pw))
}
