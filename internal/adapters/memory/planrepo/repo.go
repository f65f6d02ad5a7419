package planrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/planrepo"
)

// Repo is an in-memory implementation of planrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.PlanID]domain.Plan
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.PlanID]domain.Plan)}
}

func (r *Repo) Create(ctx context.Context, p domain.Plan) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; ok {
		return planrepo.ErrAlreadyExists
	}
	if r.nameTakenLocked(p.Name, p.ID) {
		return planrepo.ErrNameInUse
	}
	r.byID[p.ID] = clonePlan(p)
	return nil
}

func (r *Repo) Update(ctx context.Context, p domain.Plan) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; !ok {
		return planrepo.ErrNotFound
	}
	if r.nameTakenLocked(p.Name, p.ID) {
		return planrepo.ErrNameInUse
	}
	r.byID[p.ID] = clonePlan(p)
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.PlanID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return planrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.PlanID) (domain.Plan, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.Plan{}, planrepo.ErrNotFound
	}
	return clonePlan(p), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Plan, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Plan, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, clonePlan(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return string(out[i].ID) < string(out[j].ID)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repo) nameTakenLocked(name string, exclude domain.PlanID) bool {
	for id, p := range r.byID {
		if id != exclude && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func clonePlan(p domain.Plan) domain.Plan {
	out := p
	if p.Description != nil {
		v := *p.Description
		out.Description = &v
	}
	return out
}
