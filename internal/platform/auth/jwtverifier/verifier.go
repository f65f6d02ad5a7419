package jwtverifier

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/platform/config"
)

var ErrUnauthorized = errors.New("unauthorized")

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	PersonID domain.PersonID
	Role     domain.Role
}

// Verifier checks HS256 bearer tokens against the shared-secret config.
type Verifier struct {
	cfg   config.JWTConfig
	clock Clock
}

func New(cfg config.JWTConfig) *Verifier {
	return NewWithClock(cfg, nil)
}

func NewWithClock(cfg config.JWTConfig, clock Clock) *Verifier {
	if clock == nil {
		clock = realClock{}
	}
	return &Verifier{cfg: cfg, clock: clock}
}

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Verify verifies a JWT and returns the authenticated identity.
//
// Verification:
// - HS256 signature with the shared secret
// - iss, aud, exp, and nbf (when present)
// - `sub` carries the person id, `role` the person's single role
func (v *Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	_ = ctx

	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(t *jwt.Token) (any, error) {
			return []byte(v.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.ClockSkew),
		jwt.WithTimeFunc(v.clock.Now),
	)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	if c.Subject == "" {
		return Identity{}, ErrUnauthorized
	}
	role := domain.Role(c.Role)
	if !domain.ValidRole(role) {
		return Identity{}, ErrUnauthorized
	}
	return Identity{PersonID: domain.PersonID(c.Subject), Role: role}, nil
}
