package personrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/personrepo"
)

// Repo is a Postgres implementation of personrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const personColumns = `
	id,
	full_name,
	email,
	phone,
	role,
	credential_ref,
	created_at,
	updated_at
`

func (r *Repo) Create(ctx context.Context, p domain.Person) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(p.ID))
	if err != nil {
		return fmt.Errorf("invalid person id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO persons (`+personColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		id,
		p.FullName,
		p.Email,
		p.Phone,
		string(p.Role),
		p.CredentialRef,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapPersonWriteErr(err)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, p domain.Person) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(p.ID))
	if err != nil {
		return fmt.Errorf("invalid person id: %w", err)
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE persons
		SET full_name = $2,
		    email = $3,
		    phone = $4,
		    role = $5,
		    credential_ref = $6,
		    updated_at = $7
		WHERE id = $1
	`,
		id,
		p.FullName,
		p.Email,
		p.Phone,
		string(p.Role),
		p.CredentialRef,
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapPersonWriteErr(err)
	}
	if ct.RowsAffected() == 0 {
		return personrepo.ErrNotFound
	}
	return nil
}

// Remove deletes a person record. Removing an unknown id is a no-op.
func (r *Repo) Remove(ctx context.Context, id domain.PersonID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return nil
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM persons WHERE id = $1`, uid)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.PersonID) (domain.Person, error) {
	if r.pool == nil {
		return domain.Person{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Person{}, personrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+personColumns+`
		FROM persons
		WHERE id = $1
	`, uid)
	return scanPerson(row)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.Person, error) {
	if r.pool == nil {
		return domain.Person{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+personColumns+`
		FROM persons
		WHERE lower(email) = lower($1)
	`, email)
	return scanPerson(row)
}

func (r *Repo) ListByRole(ctx context.Context, role domain.Role) ([]domain.Person, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+personColumns+`
		FROM persons
		WHERE role = $1
		ORDER BY created_at DESC, id DESC
	`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
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

func (r *Repo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM persons WHERE role = $1
	`, string(role)).Scan(&n)
	return n, err
}

// --- helpers ---

func mapPersonWriteErr(err error) error {
	if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
		switch pe.ConstraintName {
		case "persons_email_unique":
			return personrepo.ErrEmailInUse
		case "persons_pkey":
			return personrepo.ErrAlreadyExists
		}
	}
	return err
}

func scanPerson(row interface {
	Scan(dest ...any) error
}) (domain.Person, error) {
	var (
		id            uuid.UUID
		fullName      string
		email         string
		phone         *string
		role          string
		credentialRef string
		p             domain.Person
	)
	if err := row.Scan(
		&id,
		&fullName,
		&email,
		&phone,
		&role,
		&credentialRef,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Person{}, personrepo.ErrNotFound
		}
		return domain.Person{}, err
	}
	p.ID = domain.PersonID(id.String())
	p.FullName = fullName
	p.Email = email
	p.Phone = phone
	p.Role = domain.Role(role)
	p.CredentialRef = credentialRef
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
