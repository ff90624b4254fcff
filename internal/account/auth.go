package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/password"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(subject string, authorities []string, ttl time.Duration) (string, error)
}

// Authenticator exchanges email and password for a signed token.
type Authenticator struct {
	store         repo.Store
	hasher        password.Hasher
	issuer        TokenIssuer
	requireActive bool
	logger        *zap.SugaredLogger
}

// NewAuthenticator returns an Authenticator. With requireActive set, INACTIVE
// accounts fail exactly like a wrong password.
func NewAuthenticator(store repo.Store, hasher password.Hasher, issuer TokenIssuer, requireActive bool, logger *zap.SugaredLogger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Authenticator{store: store, hasher: hasher, issuer: issuer, requireActive: requireActive, logger: logger}
}

// Authenticate returns a token carrying the account's authorities. Unknown
// email, wrong password and (optionally) inactive status are all reported
// as apperr.ErrAuthentication.
func (a *Authenticator) Authenticate(ctx context.Context, email, pw string) (string, error) {
	if err := (Credentials{Email: email, Password: pw}).Validate(); err != nil {
		return "", err
	}

	acc, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// same bcrypt work as a real account so timing does not leak existence
			a.hasher.Verify(pw, "")
			a.logger.Debugw("authentication failed", "reason", "unknown email")
			return "", apperr.ErrAuthentication
		}
		return "", err
	}
	if !a.hasher.Verify(pw, acc.PasswordHash) {
		a.logger.Debugw("authentication failed", "reason", "password mismatch", "account_id", acc.ID)
		return "", apperr.ErrAuthentication
	}
	if a.requireActive && !acc.IsActive() {
		a.logger.Debugw("authentication failed", "reason", "inactive", "account_id", acc.ID)
		return "", apperr.ErrAuthentication
	}

	tok, err := a.issuer.Issue(acc.Email, acc.Authorities(), 0)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	a.logger.Infow("account authenticated", "account_id", acc.ID)
	return tok, nil
}
