package sessionrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/sessionrepo"
)

// Repo is an in-memory implementation of sessionrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.SessionID]domain.Session
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.SessionID]domain.Session)}
}

func (r *Repo) Create(ctx context.Context, s domain.Session) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; ok {
		return sessionrepo.ErrAlreadyExists
	}
	r.byID[s.ID] = cloneSession(s)
	return nil
}

func (r *Repo) Update(ctx context.Context, s domain.Session) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; !ok {
		return sessionrepo.ErrNotFound
	}
	r.byID[s.ID] = cloneSession(s)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return domain.Session{}, sessionrepo.ErrNotFound
	}
	return cloneSession(s), nil
}

func (r *Repo) ListByTrainer(ctx context.Context, trainerID domain.PersonID) ([]domain.Session, error) {
	return r.list(func(s domain.Session) bool { return s.TrainerID == trainerID }), nil
}

func (r *Repo) ListByMember(ctx context.Context, memberID domain.PersonID) ([]domain.Session, error) {
	return r.list(func(s domain.Session) bool { return s.MemberID == memberID }), nil
}

func (r *Repo) CountsByTrainer(ctx context.Context, trainerID domain.PersonID) (sessionrepo.StatusCounts, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out sessionrepo.StatusCounts
	for _, s := range r.byID {
		if s.TrainerID != trainerID {
			continue
		}
		out.Total++
		switch s.Status {
		case domain.SessionScheduled:
			out.Scheduled++
		case domain.SessionCompleted:
			out.Completed++
		case domain.SessionCanceled:
			out.Canceled++
		}
	}
	return out, nil
}

func (r *Repo) CountOnDay(ctx context.Context, trainerID domain.PersonID, day time.Time) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	day = domain.DateOnly(day)
	n := 0
	for _, s := range r.byID {
		if s.TrainerID == trainerID && domain.DateOnly(s.StartAt).Equal(day) {
			n++
		}
	}
	return n, nil
}

func (r *Repo) list(match func(domain.Session) bool) []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Session, 0)
	for _, s := range r.byID {
		if match(s) {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return string(out[i].ID) < string(out[j].ID)
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}

func cloneSession(s domain.Session) domain.Session {
	out := s
	if s.Notes != nil {
		v := *s.Notes
		out.Notes = &v
	}
	return out
}
