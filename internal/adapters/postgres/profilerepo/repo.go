package profilerepo

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
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/profilerepo"
)

// Repo is a Postgres implementation of profilerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const profileColumns = `
	person_id,
	trainer_id,
	plan_id,
	start_date,
	end_date,
	status,
	health_goals,
	created_at,
	updated_at
`

func (r *Repo) Create(ctx context.Context, p domain.MembershipProfile) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	args, err := profileArgs(p)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO membership_profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, args...)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return profilerepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, p domain.MembershipProfile) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	args, err := profileArgs(p)
	if err != nil {
		return err
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE membership_profiles
		SET trainer_id = $2,
		    plan_id = $3,
		    start_date = $4,
		    end_date = $5,
		    status = $6,
		    health_goals = $7,
		    updated_at = $9
		WHERE person_id = $1
	`, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return profilerepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByPersonID(ctx context.Context, id domain.PersonID) (domain.MembershipProfile, error) {
	if r.pool == nil {
		return domain.MembershipProfile{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.MembershipProfile{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM membership_profiles
		WHERE person_id = $1
	`, uid)
	return scanProfile(row)
}

func (r *Repo) List(ctx context.Context) ([]domain.MembershipProfile, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	return r.list(ctx, `
		SELECT `+profileColumns+`
		FROM membership_profiles
		ORDER BY person_id ASC
	`)
}

func (r *Repo) ListByTrainer(ctx context.Context, trainerID domain.PersonID) ([]domain.MembershipProfile, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(trainerID))
	if err != nil {
		return []domain.MembershipProfile{}, nil
	}
	return r.list(ctx, `
		SELECT `+profileColumns+`
		FROM membership_profiles
		WHERE trainer_id = $1
		ORDER BY person_id ASC
	`, uid)
}

func (r *Repo) CountExpired(ctx context.Context, today time.Time) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM membership_profiles
		WHERE end_date IS NOT NULL AND end_date < $1
	`, domain.DateOnly(today)).Scan(&n)
	return n, err
}

func (r *Repo) CountByTrainer(ctx context.Context, trainerID domain.PersonID) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(trainerID))
	if err != nil {
		return 0, nil
	}
	var n int
	err = r.pool.QueryRow(ctx, `
		SELECT count(*) FROM membership_profiles WHERE trainer_id = $1
	`, uid).Scan(&n)
	return n, err
}

func (r *Repo) AnyWithPlan(ctx context.Context, planID domain.PlanID) (bool, error) {
	if r.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(planID))
	if err != nil {
		return false, nil
	}
	var exists bool
	err = r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM membership_profiles WHERE plan_id = $1)
	`, uid).Scan(&exists)
	return exists, err
}

// --- helpers ---

func (r *Repo) list(ctx context.Context, sql string, args ...any) ([]domain.MembershipProfile, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MembershipProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func profileArgs(p domain.MembershipProfile) ([]any, error) {
	personID, err := uuid.Parse(string(p.PersonID))
	if err != nil {
		return nil, fmt.Errorf("invalid person id: %w", err)
	}
	var trainerID, planID *uuid.UUID
	if p.TrainerID != nil {
		v, err := uuid.Parse(string(*p.TrainerID))
		if err != nil {
			return nil, fmt.Errorf("invalid trainer id: %w", err)
		}
		trainerID = &v
	}
	if p.PlanID != nil {
		v, err := uuid.Parse(string(*p.PlanID))
		if err != nil {
			return nil, fmt.Errorf("invalid plan id: %w", err)
		}
		planID = &v
	}
	var startDate, endDate *time.Time
	if p.StartDate != nil {
		v := domain.DateOnly(*p.StartDate)
		startDate = &v
	}
	if p.EndDate != nil {
		v := domain.DateOnly(*p.EndDate)
		endDate = &v
	}
	return []any{
		personID,
		trainerID,
		planID,
		startDate,
		endDate,
		string(p.Status),
		p.HealthGoals,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	}, nil
}

func scanProfile(row interface {
	Scan(dest ...any) error
}) (domain.MembershipProfile, error) {
	var (
		personID  uuid.UUID
		trainerID *uuid.UUID
		planID    *uuid.UUID
		startDate *time.Time
		endDate   *time.Time
		status    string
		goals     *string
		p         domain.MembershipProfile
	)
	if err := row.Scan(
		&personID,
		&trainerID,
		&planID,
		&startDate,
		&endDate,
		&status,
		&goals,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MembershipProfile{}, profilerepo.ErrNotFound
		}
		return domain.MembershipProfile{}, err
	}
	p.PersonID = domain.PersonID(personID.String())
	if trainerID != nil {
		v := domain.PersonID(trainerID.String())
		p.TrainerID = &v
	}
	if planID != nil {
		v := domain.PlanID(planID.String())
		p.PlanID = &v
	}
	if startDate != nil {
		v := domain.DateOnly(*startDate)
		p.StartDate = &v
	}
	if endDate != nil {
		v := domain.DateOnly(*endDate)
		p.EndDate = &v
	}
	p.Status = domain.MembershipStatus(status)
	p.HealthGoals = goals
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
