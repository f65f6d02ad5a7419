package attendancerepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/postgres"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/attendancerepo"
)

// Repo is a Postgres implementation of attendancerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const attendanceColumns = `
	id,
	member_id,
	trainer_id,
	check_in_at,
	check_out_at,
	notes
`

func (r *Repo) Create(ctx context.Context, rec domain.AttendanceRecord) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(rec.ID))
	if err != nil {
		return fmt.Errorf("invalid attendance id: %w", err)
	}
	memberID, err := uuid.Parse(string(rec.MemberID))
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}
	var trainerID *uuid.UUID
	if rec.TrainerID != nil {
		v, err := uuid.Parse(string(*rec.TrainerID))
		if err != nil {
			return fmt.Errorf("invalid trainer id: %w", err)
		}
		trainerID = &v
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO attendance_records (`+attendanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		id,
		memberID,
		trainerID,
		rec.CheckInAt.UTC(),
		rec.CheckOutAt,
		rec.Notes,
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "attendance_records_pkey" {
			return attendancerepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, rec domain.AttendanceRecord) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(rec.ID))
	if err != nil {
		return attendancerepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE attendance_records
		SET check_out_at = $2, notes = $3
		WHERE id = $1
	`, id, rec.CheckOutAt, rec.Notes)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return attendancerepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetOpenByMember(ctx context.Context, memberID domain.PersonID) (domain.AttendanceRecord, error) {
	if r.pool == nil {
		return domain.AttendanceRecord{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(memberID))
	if err != nil {
		return domain.AttendanceRecord{}, attendancerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance_records
		WHERE member_id = $1 AND check_out_at IS NULL
	`, uid)
	return scanRecord(row)
}

func (r *Repo) ListByMember(ctx context.Context, memberID domain.PersonID) ([]domain.AttendanceRecord, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(memberID))
	if err != nil {
		return []domain.AttendanceRecord{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance_records
		WHERE member_id = $1
		ORDER BY check_in_at DESC, id DESC
	`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.AttendanceRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountOpen(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM attendance_records WHERE check_out_at IS NULL
	`).Scan(&n)
	return n, err
}

func scanRecord(row interface {
	Scan(dest ...any) error
}) (domain.AttendanceRecord, error) {
	var (
		id        uuid.UUID
		memberID  uuid.UUID
		trainerID *uuid.UUID
		rec       domain.AttendanceRecord
	)
	if err := row.Scan(
		&id,
		&memberID,
		&trainerID,
		&rec.CheckInAt,
		&rec.CheckOutAt,
		&rec.Notes,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AttendanceRecord{}, attendancerepo.ErrNotFound
		}
		return domain.AttendanceRecord{}, err
	}
	rec.ID = domain.AttendanceID(id.String())
	rec.MemberID = domain.PersonID(memberID.String())
	if trainerID != nil {
		v := domain.PersonID(trainerID.String())
		rec.TrainerID = &v
	}
	rec.CheckInAt = rec.CheckInAt.UTC()
	if rec.CheckOutAt != nil {
		v := rec.CheckOutAt.UTC()
		rec.CheckOutAt = &v
	}
	return rec, nil
}
