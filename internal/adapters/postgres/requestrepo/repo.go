package requestrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/personrepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/requestrepo"
)

// Repo is a Postgres implementation of requestrepo.Repository.
//
// Decide-exactly-once is enforced with a conditional UPDATE on status =
// 'pending'; approval runs the status change and the two provisioning inserts
// in a single transaction.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const requestColumns = `
	id,
	full_name,
	email,
	phone,
	message,
	status,
	created_at,
	decided_at
`

func (r *Repo) Create(ctx context.Context, req domain.MembershipRequest) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(req.ID))
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO membership_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		id,
		req.FullName,
		req.Email,
		req.Phone,
		req.Message,
		string(req.Status),
		req.CreatedAt.UTC(),
		req.DecidedAt,
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return requestrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.RequestID) (domain.MembershipRequest, error) {
	if r.pool == nil {
		return domain.MembershipRequest{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.MembershipRequest{}, requestrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM membership_requests
		WHERE id = $1
	`, uid)
	return scanRequest(row)
}

func (r *Repo) List(ctx context.Context, status *domain.RequestStatus) ([]domain.MembershipRequest, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	where := ""
	args := []any{}
	if status != nil {
		where = "WHERE status = $1"
		args = append(args, string(*status))
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM membership_requests
		`+where+`
		ORDER BY created_at DESC, id DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MembershipRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Reject(ctx context.Context, id domain.RequestID, decidedAt time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return requestrepo.ErrNotFound
	}
	return markDecided(ctx, r.pool, uid, domain.RequestRejected, decidedAt)
}

func (r *Repo) Approve(ctx context.Context, id domain.RequestID, decidedAt time.Time, person domain.Person, profile domain.MembershipProfile) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return requestrepo.ErrNotFound
	}
	personID, err := uuid.Parse(string(person.ID))
	if err != nil {
		return fmt.Errorf("invalid person id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := markDecided(ctx, tx, uid, domain.RequestApproved, decidedAt); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO persons (
				id, full_name, email, phone, role, credential_ref, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			personID,
			person.FullName,
			person.Email,
			person.Phone,
			string(person.Role),
			person.CredentialRef,
			person.CreatedAt.UTC(),
			person.UpdatedAt.UTC(),
		)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "persons_email_unique" {
				return personrepo.ErrEmailInUse
			}
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO membership_profiles (
				person_id, trainer_id, plan_id, start_date, end_date, status, health_goals, created_at, updated_at
			) VALUES ($1, NULL, NULL, NULL, NULL, $2, $3, $4, $5)
		`,
			personID,
			string(profile.Status),
			profile.HealthGoals,
			profile.CreatedAt.UTC(),
			profile.UpdatedAt.UTC(),
		)
		return err
	})
}

// --- helpers ---

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// markDecided flips a pending request to its terminal status. The status
// filter in the WHERE clause is what makes a double decision impossible under
// concurrent admins.
func markDecided(ctx context.Context, q querier, id uuid.UUID, status domain.RequestStatus, decidedAt time.Time) error {
	ct, err := q.Exec(ctx, `
		UPDATE membership_requests
		SET status = $2, decided_at = $3
		WHERE id = $1 AND status = 'pending'
	`, id, string(status), decidedAt.UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		// Either the request does not exist or it was decided already.
		var exists bool
		row := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM membership_requests WHERE id = $1)`, id)
		if err := row.Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return requestrepo.ErrNotFound
		}
		return requestrepo.ErrAlreadyDecided
	}
	return nil
}

func scanRequest(row interface {
	Scan(dest ...any) error
}) (domain.MembershipRequest, error) {
	var (
		id     uuid.UUID
		status string
		req    domain.MembershipRequest
	)
	if err := row.Scan(
		&id,
		&req.FullName,
		&req.Email,
		&req.Phone,
		&req.Message,
		&status,
		&req.CreatedAt,
		&req.DecidedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MembershipRequest{}, requestrepo.ErrNotFound
		}
		return domain.MembershipRequest{}, err
	}
	req.ID = domain.RequestID(id.String())
	req.Status = domain.RequestStatus(status)
	req.CreatedAt = req.CreatedAt.UTC()
	if req.DecidedAt != nil {
		v := req.DecidedAt.UTC()
		req.DecidedAt = &v
	}
	return req, nil
}
