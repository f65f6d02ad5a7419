package planrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/planrepo"
)

// Repo is a Postgres implementation of planrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const planColumns = `
	id,
	name,
	duration_months,
	price_cents,
	description,
	status,
	created_at,
	updated_at
`

func (r *Repo) Create(ctx context.Context, p domain.Plan) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(p.ID))
	if err != nil {
		return fmt.Errorf("invalid plan id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO membership_plans (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		id,
		p.Name,
		p.DurationMonths,
		p.PriceCents,
		p.Description,
		string(p.Status),
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapPlanWriteErr(err)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, p domain.Plan) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(p.ID))
	if err != nil {
		return fmt.Errorf("invalid plan id: %w", err)
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE membership_plans
		SET name = $2,
		    duration_months = $3,
		    price_cents = $4,
		    description = $5,
		    status = $6,
		    updated_at = $7
		WHERE id = $1
	`,
		id,
		p.Name,
		p.DurationMonths,
		p.PriceCents,
		p.Description,
		string(p.Status),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapPlanWriteErr(err)
	}
	if ct.RowsAffected() == 0 {
		return planrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.PlanID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return planrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM membership_plans WHERE id = $1`, uid)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
			return planrepo.ErrInUse
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return planrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.PlanID) (domain.Plan, error) {
	if r.pool == nil {
		return domain.Plan{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Plan{}, planrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+planColumns+`
		FROM membership_plans
		WHERE id = $1
	`, uid)
	return scanPlan(row)
}

func (r *Repo) List(ctx context.Context) ([]domain.Plan, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+planColumns+`
		FROM membership_plans
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
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

// --- helpers ---

func mapPlanWriteErr(err error) error {
	if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
		switch pe.ConstraintName {
		case "membership_plans_name_unique":
			return planrepo.ErrNameInUse
		case "membership_plans_pkey":
			return planrepo.ErrAlreadyExists
		}
	}
	return err
}

func scanPlan(row interface {
	Scan(dest ...any) error
}) (domain.Plan, error) {
	var (
		id uuid.UUID
		p  domain.Plan
	)
	var status string
	if err := row.Scan(
		&id,
		&p.Name,
		&p.DurationMonths,
		&p.PriceCents,
		&p.Description,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Plan{}, planrepo.ErrNotFound
		}
		return domain.Plan{}, err
	}
	p.ID = domain.PlanID(id.String())
	p.Status = domain.PlanStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
