package jwtverifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/platform/config"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testCfg = config.JWTConfig{
	Secret:    "test-secret",
	Issuer:    "https://accounts.test",
	Audience:  "gym-manager-api",
	ClockSkew: 30 * time.Second,
}

func mint(t *testing.T, secret string, mutate func(*jwt.RegisteredClaims, *map[string]any)) string {
	t.Helper()
	reg := jwt.RegisteredClaims{
		Subject:   "person-1",
		Issuer:    testCfg.Issuer,
		Audience:  jwt.ClaimStrings{testCfg.Audience},
		ExpiresAt: jwt.NewNumericDate(time.Unix(2000, 0)),
		IssuedAt:  jwt.NewNumericDate(time.Unix(1000, 0)),
	}
	extra := map[string]any{"role": "trainer"}
	if mutate != nil {
		mutate(&reg, &extra)
	}

	mc := jwt.MapClaims{
		"iss": reg.Issuer,
		"aud": []string(reg.Audience),
		"iat": reg.IssuedAt.Unix(),
	}
	if reg.Subject != "" {
		mc["sub"] = reg.Subject
	}
	if reg.ExpiresAt != nil {
		mc["exp"] = reg.ExpiresAt.Unix()
	}
	for k, v := range extra {
		mc[k] = v
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token err=%v", err)
	}
	return signed
}

func newVerifier() *Verifier {
	return NewWithClock(testCfg, fixedClock{t: time.Unix(1500, 0)})
}

func TestVerify_ValidToken(t *testing.T) {
	t.Parallel()

	v := newVerifier()
	id, err := v.Verify(context.Background(), mint(t, testCfg.Secret, nil))
	if err != nil {
		t.Fatalf("Verify err=%v", err)
	}
	if id.PersonID != domain.PersonID("person-1") || id.Role != domain.RoleTrainer {
		t.Fatalf("identity=%+v", id)
	}
}

func TestVerify_Rejections(t *testing.T) {
	t.Parallel()

	v := newVerifier()
	cases := []struct {
		name   string
		secret string
		mutate func(*jwt.RegisteredClaims, *map[string]any)
	}{
		{"wrong secret", "other-secret", nil},
		{"expired", testCfg.Secret, func(reg *jwt.RegisteredClaims, _ *map[string]any) {
			reg.ExpiresAt = jwt.NewNumericDate(time.Unix(1200, 0))
		}},
		{"missing exp", testCfg.Secret, func(reg *jwt.RegisteredClaims, _ *map[string]any) {
			reg.ExpiresAt = nil
		}},
		{"wrong issuer", testCfg.Secret, func(reg *jwt.RegisteredClaims, _ *map[string]any) {
			reg.Issuer = "https://someone-else.test"
		}},
		{"wrong audience", testCfg.Secret, func(reg *jwt.RegisteredClaims, _ *map[string]any) {
			reg.Audience = jwt.ClaimStrings{"other-api"}
		}},
		{"missing sub", testCfg.Secret, func(reg *jwt.RegisteredClaims, _ *map[string]any) {
			reg.Subject = ""
		}},
		{"unknown role", testCfg.Secret, func(_ *jwt.RegisteredClaims, extra *map[string]any) {
			(*extra)["role"] = "janitor"
		}},
		{"missing role", testCfg.Secret, func(_ *jwt.RegisteredClaims, extra *map[string]any) {
			delete(*extra, "role")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), mint(t, tc.secret, tc.mutate))
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("err=%v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestVerify_RejectsUnsignedToken(t *testing.T) {
	t.Parallel()

	v := newVerifier()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "person-1",
		"iss":  testCfg.Issuer,
		"aud":  testCfg.Audience,
		"exp":  2000,
		"role": "trainer",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token err=%v", err)
	}
	if _, err := v.Verify(context.Background(), raw); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err=%v, want ErrUnauthorized", err)
	}
}

func TestVerify_ExpiryLeeway(t *testing.T) {
	t.Parallel()

	// Expired 10s ago, inside the 30s skew allowance.
	v := NewWithClock(testCfg, fixedClock{t: time.Unix(2010, 0)})
	if _, err := v.Verify(context.Background(), mint(t, testCfg.Secret, nil)); err != nil {
		t.Fatalf("Verify err=%v, token inside leeway must pass", err)
	}

	v = NewWithClock(testCfg, fixedClock{t: time.Unix(2060, 0)})
	if _, err := v.Verify(context.Background(), mint(t, testCfg.Secret, nil)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err=%v, token past leeway must fail", err)
	}
}
