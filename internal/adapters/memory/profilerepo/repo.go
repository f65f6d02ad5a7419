package profilerepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/profilerepo"
)

// Repo is an in-memory implementation of profilerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu       sync.RWMutex
	byPerson map[domain.PersonID]domain.MembershipProfile
}

func NewRepo() *Repo {
	return &Repo{
		byPerson: make(map[domain.PersonID]domain.MembershipProfile),
	}
}

func (r *Repo) Create(ctx context.Context, p domain.MembershipProfile) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPerson[p.PersonID]; ok {
		return profilerepo.ErrAlreadyExists
	}
	r.byPerson[p.PersonID] = cloneProfile(p)
	return nil
}

func (r *Repo) Update(ctx context.Context, p domain.MembershipProfile) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPerson[p.PersonID]; !ok {
		return profilerepo.ErrNotFound
	}
	r.byPerson[p.PersonID] = cloneProfile(p)
	return nil
}

func (r *Repo) GetByPersonID(ctx context.Context, id domain.PersonID) (domain.MembershipProfile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byPerson[id]
	if !ok {
		return domain.MembershipProfile{}, profilerepo.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.MembershipProfile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.MembershipProfile, 0, len(r.byPerson))
	for _, p := range r.byPerson {
		out = append(out, cloneProfile(p))
	}
	sortProfiles(out)
	return out, nil
}

func (r *Repo) ListByTrainer(ctx context.Context, trainerID domain.PersonID) ([]domain.MembershipProfile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.MembershipProfile, 0)
	for _, p := range r.byPerson {
		if p.TrainerID != nil && *p.TrainerID == trainerID {
			out = append(out, cloneProfile(p))
		}
	}
	sortProfiles(out)
	return out, nil
}

func (r *Repo) CountExpired(ctx context.Context, today time.Time) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.byPerson {
		if p.IsExpired(today) {
			n++
		}
	}
	return n, nil
}

func (r *Repo) CountByTrainer(ctx context.Context, trainerID domain.PersonID) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.byPerson {
		if p.TrainerID != nil && *p.TrainerID == trainerID {
			n++
		}
	}
	return n, nil
}

func (r *Repo) AnyWithPlan(ctx context.Context, planID domain.PlanID) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.byPerson {
		if p.PlanID != nil && *p.PlanID == planID {
			return true, nil
		}
	}
	return false, nil
}

func cloneProfile(p domain.MembershipProfile) domain.MembershipProfile {
	out := p
	if p.TrainerID != nil {
		v := *p.TrainerID
		out.TrainerID = &v
	}
	if p.PlanID != nil {
		v := *p.PlanID
		out.PlanID = &v
	}
	if p.StartDate != nil {
		v := *p.StartDate
		out.StartDate = &v
	}
	if p.EndDate != nil {
		v := *p.EndDate
		out.EndDate = &v
	}
	if p.HealthGoals != nil {
		v := *p.HealthGoals
		out.HealthGoals = &v
	}
	return out
}

func sortProfiles(ps []domain.MembershipProfile) {
	sort.Slice(ps, func(i, j int) bool {
		return string(ps[i].PersonID) < string(ps[j].PersonID)
	})
}
