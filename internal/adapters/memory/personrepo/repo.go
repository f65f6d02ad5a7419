package personrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/personrepo"
)

// Repo is an in-memory implementation of personrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID      map[domain.PersonID]domain.Person
	idByEmail map[string]domain.PersonID
}

func NewRepo() *Repo {
	return &Repo{
		byID:      make(map[domain.PersonID]domain.Person),
		idByEmail: make(map[string]domain.PersonID),
	}
}

func (r *Repo) Create(ctx context.Context, p domain.Person) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		return personrepo.ErrAlreadyExists
	}
	if _, ok := r.byID[p.ID]; ok {
		return personrepo.ErrAlreadyExists
	}
	key := emailKey(p.Email)
	if _, ok := r.idByEmail[key]; ok {
		return personrepo.ErrEmailInUse
	}
	r.byID[p.ID] = clonePerson(p)
	r.idByEmail[key] = p.ID
	return nil
}

// Remove deletes a person record. Removing an unknown id is a no-op.
func (r *Repo) Remove(ctx context.Context, id domain.PersonID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		delete(r.idByEmail, emailKey(p.Email))
		delete(r.byID, id)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, p domain.Person) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[p.ID]
	if !ok {
		return personrepo.ErrNotFound
	}
	key := emailKey(p.Email)
	if otherID, ok := r.idByEmail[key]; ok && otherID != p.ID {
		return personrepo.ErrEmailInUse
	}
	if oldKey := emailKey(existing.Email); oldKey != key {
		delete(r.idByEmail, oldKey)
	}
	r.byID[p.ID] = clonePerson(p)
	r.idByEmail[key] = p.ID
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.PersonID) (domain.Person, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.Person{}, personrepo.ErrNotFound
	}
	return clonePerson(p), nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.Person, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByEmail[emailKey(email)]
	if !ok {
		return domain.Person{}, personrepo.ErrNotFound
	}
	p, ok := r.byID[id]
	if !ok {
		return domain.Person{}, personrepo.ErrNotFound
	}
	return clonePerson(p), nil
}

func (r *Repo) ListByRole(ctx context.Context, role domain.Role) ([]domain.Person, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Person, 0)
	for _, p := range r.byID {
		if p.Role != role {
			continue
		}
		out = append(out, clonePerson(p))
	}
	sortPersonsNewestFirst(out)
	return out, nil
}

func (r *Repo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.byID {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func clonePerson(p domain.Person) domain.Person {
	out := p
	if p.Phone != nil {
		v := *p.Phone
		out.Phone = &v
	}
	return out
}

func sortPersonsNewestFirst(ps []domain.Person) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return string(ps[i].ID) > string(ps[j].ID)
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}
