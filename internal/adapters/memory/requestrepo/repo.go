package requestrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	mempersonrepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/personrepo"
	memprofilerepo "github.com/Crestline-Fitness/gym-manager-api/internal/adapters/memory/profilerepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/requestrepo"
)

// Repo is an in-memory implementation of requestrepo.Repository.
// It is safe for concurrent use.
//
// Approve must create a person and profile together with the status change,
// so the memory adapter holds the person/profile memory repos, performs the
// three writes under its own lock, and undoes the person insert if the
// profile insert fails. This mirrors the single transaction the postgres
// adapter uses.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.RequestID]domain.MembershipRequest

	persons  *mempersonrepo.Repo
	profiles *memprofilerepo.Repo
}

func NewRepo(persons *mempersonrepo.Repo, profiles *memprofilerepo.Repo) *Repo {
	return &Repo{
		byID:     make(map[domain.RequestID]domain.MembershipRequest),
		persons:  persons,
		profiles: profiles,
	}
}

func (r *Repo) Create(ctx context.Context, req domain.MembershipRequest) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[req.ID]; ok {
		return requestrepo.ErrAlreadyExists
	}
	r.byID[req.ID] = cloneRequest(req)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.RequestID) (domain.MembershipRequest, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.byID[id]
	if !ok {
		return domain.MembershipRequest{}, requestrepo.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (r *Repo) List(ctx context.Context, status *domain.RequestStatus) ([]domain.MembershipRequest, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.MembershipRequest, 0, len(r.byID))
	for _, req := range r.byID {
		if status != nil && req.Status != *status {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return string(out[i].ID) > string(out[j].ID)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repo) Reject(ctx context.Context, id domain.RequestID, decidedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		return requestrepo.ErrNotFound
	}
	if req.Status != domain.RequestPending {
		return requestrepo.ErrAlreadyDecided
	}
	req.Status = domain.RequestRejected
	req.DecidedAt = &decidedAt
	r.byID[id] = req
	return nil
}

func (r *Repo) Approve(ctx context.Context, id domain.RequestID, decidedAt time.Time, person domain.Person, profile domain.MembershipProfile) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		return requestrepo.ErrNotFound
	}
	if req.Status != domain.RequestPending {
		return requestrepo.ErrAlreadyDecided
	}

	if err := r.persons.Create(ctx, person); err != nil {
		return err
	}
	if err := r.profiles.Create(ctx, profile); err != nil {
		// Roll the person insert back so the approval stays all-or-nothing.
		_ = r.persons.Remove(ctx, person.ID)
		return err
	}

	req.Status = domain.RequestApproved
	req.DecidedAt = &decidedAt
	r.byID[id] = req
	return nil
}

func cloneRequest(req domain.MembershipRequest) domain.MembershipRequest {
	out := req
	if req.Phone != nil {
		v := *req.Phone
		out.Phone = &v
	}
	if req.Message != nil {
		v := *req.Message
		out.Message = &v
	}
	if req.DecidedAt != nil {
		v := *req.DecidedAt
		out.DecidedAt = &v
	}
	return out
}
