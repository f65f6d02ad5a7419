package sessionrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/sessionrepo"
)

// Repo is a Postgres implementation of sessionrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const sessionColumns = `
	id,
	trainer_id,
	member_id,
	start_at,
	duration_minutes,
	status,
	notes,
	created_at,
	updated_at
`

func (r *Repo) Create(ctx context.Context, s domain.Session) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	args, err := sessionArgs(s)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO training_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, args...)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return sessionrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, s domain.Session) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	args, err := sessionArgs(s)
	if err != nil {
		return err
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE training_sessions
		SET start_at = $4,
		    duration_minutes = $5,
		    status = $6,
		    notes = $7,
		    updated_at = $9
		WHERE id = $1
	`, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return sessionrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if r.pool == nil {
		return domain.Session{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Session{}, sessionrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM training_sessions
		WHERE id = $1
	`, uid)
	return scanSession(row)
}

func (r *Repo) ListByTrainer(ctx context.Context, trainerID domain.PersonID) ([]domain.Session, error) {
	return r.list(ctx, "trainer_id", trainerID)
}

func (r *Repo) ListByMember(ctx context.Context, memberID domain.PersonID) ([]domain.Session, error) {
	return r.list(ctx, "member_id", memberID)
}

func (r *Repo) CountsByTrainer(ctx context.Context, trainerID domain.PersonID) (sessionrepo.StatusCounts, error) {
	if r.pool == nil {
		return sessionrepo.StatusCounts{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(trainerID))
	if err != nil {
		return sessionrepo.StatusCounts{}, nil
	}
	var out sessionrepo.StatusCounts
	err = r.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'scheduled'),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'canceled')
		FROM training_sessions
		WHERE trainer_id = $1
	`, uid).Scan(&out.Total, &out.Scheduled, &out.Completed, &out.Canceled)
	if err != nil {
		return sessionrepo.StatusCounts{}, err
	}
	return out, nil
}

func (r *Repo) CountOnDay(ctx context.Context, trainerID domain.PersonID, day time.Time) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(trainerID))
	if err != nil {
		return 0, nil
	}
	d := domain.DateOnly(day)
	var n int
	err = r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM training_sessions
		WHERE trainer_id = $1
		  AND start_at >= $2
		  AND start_at < $3
	`, uid, d, d.AddDate(0, 0, 1)).Scan(&n)
	return n, err
}

// --- helpers ---

func (r *Repo) list(ctx context.Context, column string, personID domain.PersonID) ([]domain.Session, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(personID))
	if err != nil {
		return []domain.Session{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM training_sessions
		WHERE `+column+` = $1
		ORDER BY start_at ASC, id ASC
	`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func sessionArgs(s domain.Session) ([]any, error) {
	id, err := uuid.Parse(string(s.ID))
	if err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}
	trainerID, err := uuid.Parse(string(s.TrainerID))
	if err != nil {
		return nil, fmt.Errorf("invalid trainer id: %w", err)
	}
	memberID, err := uuid.Parse(string(s.MemberID))
	if err != nil {
		return nil, fmt.Errorf("invalid member id: %w", err)
	}
	return []any{
		id,
		trainerID,
		memberID,
		s.StartAt.UTC(),
		s.DurationMinutes,
		string(s.Status),
		s.Notes,
		s.CreatedAt.UTC(),
		s.UpdatedAt.UTC(),
	}, nil
}

func scanSession(row interface {
	Scan(dest ...any) error
}) (domain.Session, error) {
	var (
		id        uuid.UUID
		trainerID uuid.UUID
		memberID  uuid.UUID
		status    string
		s         domain.Session
	)
	if err := row.Scan(
		&id,
		&trainerID,
		&memberID,
		&s.StartAt,
		&s.DurationMinutes,
		&status,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, sessionrepo.ErrNotFound
		}
		return domain.Session{}, err
	}
	s.ID = domain.SessionID(id.String())
	s.TrainerID = domain.PersonID(trainerID.String())
	s.MemberID = domain.PersonID(memberID.String())
	s.Status = domain.SessionStatus(status)
	s.StartAt = s.StartAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
