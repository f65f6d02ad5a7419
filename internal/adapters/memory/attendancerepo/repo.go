package attendancerepo

import (
	"context"
	"sort"
	"sync"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/attendancerepo"
)

// Repo is an in-memory implementation of attendancerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.AttendanceID]domain.AttendanceRecord
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.AttendanceID]domain.AttendanceRecord)}
}

func (r *Repo) Create(ctx context.Context, rec domain.AttendanceRecord) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[rec.ID]; ok {
		return attendancerepo.ErrAlreadyExists
	}
	r.byID[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *Repo) Update(ctx context.Context, rec domain.AttendanceRecord) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[rec.ID]; !ok {
		return attendancerepo.ErrNotFound
	}
	r.byID[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *Repo) GetOpenByMember(ctx context.Context, memberID domain.PersonID) (domain.AttendanceRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.byID {
		if rec.MemberID == memberID && rec.Open() {
			return cloneRecord(rec), nil
		}
	}
	return domain.AttendanceRecord{}, attendancerepo.ErrNotFound
}

func (r *Repo) ListByMember(ctx context.Context, memberID domain.PersonID) ([]domain.AttendanceRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.AttendanceRecord, 0)
	for _, rec := range r.byID {
		if rec.MemberID == memberID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CheckInAt.Equal(out[j].CheckInAt) {
			return string(out[i].ID) > string(out[j].ID)
		}
		return out[i].CheckInAt.After(out[j].CheckInAt)
	})
	return out, nil
}

func (r *Repo) CountOpen(ctx context.Context) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, rec := range r.byID {
		if rec.Open() {
			n++
		}
	}
	return n, nil
}

func cloneRecord(rec domain.AttendanceRecord) domain.AttendanceRecord {
	out := rec
	if rec.TrainerID != nil {
		v := *rec.TrainerID
		out.TrainerID = &v
	}
	if rec.CheckOutAt != nil {
		v := *rec.CheckOutAt
		out.CheckOutAt = &v
	}
	if rec.Notes != nil {
		v := *rec.Notes
		out.Notes = &v
	}
	return out
}
