package idempotency

import (
	"context"
	"time"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a request uniquely for idempotency purposes:
// key + actor + route + request body hash. Actor is the authenticated person
// id, or an anonymous marker for public routes. Route is HTTP method plus the
// normalized path template (e.g. "POST /member/renew").
type Fingerprint struct {
	Key      Key
	Actor    domain.PersonID
	Method   string
	Route    string
	BodyHash string
}

// Record is the stored response we can replay for a duplicate request.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records for replaying safe responses on retries.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
