// Package token issues and verifies the signed bearer tokens handed to
// clients after authentication.
package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

// MinSecretLength is the HMAC-SHA256 key size in bytes.
const MinSecretLength = 32

// DefaultTTL is the token lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

var ErrWeakSecret = fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)

const keyInfo = "service-auth-go/token-signing-key"

// Claims is the token payload: subject (account email) plus its authorities.
type Claims struct {
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

// Options tune a Codec. The zero value is usable.
type Options struct {
	Issuer string
	TTL    time.Duration
	// AllowShortSecret extends secrets shorter than MinSecretLength with
	// HKDF instead of rejecting them. Extension does not add entropy.
	AllowShortSecret bool
	Now              func() time.Time
	Logger           *zap.SugaredLogger
}

// Codec signs tokens with HS256 using a key derived from a shared secret.
type Codec struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec derives the signing key from secret and returns a Codec.
func NewCodec(secret string, opts Options) (*Codec, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	key, extended, err := deriveKey(secret, opts.AllowShortSecret)
	if err != nil {
		return nil, err
	}
	if extended {
		logger.Warnw("jwt secret shorter than recommended; key extended with HKDF",
			"length", len(secret), "min_length", MinSecretLength)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(now),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	return &Codec{
		key:    key,
		issuer: opts.Issuer,
		ttl:    ttl,
		now:    now,
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

func deriveKey(secret string, allowShort bool) ([]byte, bool, error) {
	if secret == "" {
		return nil, false, errors.New("signing secret is required")
	}
	if len(secret) >= MinSecretLength {
		return []byte(secret), false, nil
	}
	if !allowShort {
		return nil, false, ErrWeakSecret
	}
	key := make([]byte, MinSecretLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, false, fmt.Errorf("derive signing key: %w", err)
	}
	return key, true, nil
}

// TTL returns the default token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for subject carrying authorities. ttl <= 0 uses the
// codec default.
func (c *Codec) Issue(subject string, authorities []string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()
	auths := make([]string, len(authorities))
	copy(auths, authorities)
	claims := Claims{
		Authorities: auths,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utilities.NewKSUID(),
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, then the time bounds. Every failure is
// reported as apperr.ErrTokenInvalid.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, apperr.ErrTokenInvalid
	}
	return claims, nil
}

// IsValid is Verify without the error.
func (c *Codec) IsValid(tokenString string) bool {
	_, err := c.Verify(tokenString)
	return err == nil
}
