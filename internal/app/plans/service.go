package plans

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Crestline-Fitness/gym-manager-api/internal/app/apperr"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	clockport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/clock"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/planrepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/profilerepo"
)

type Service struct {
	repo     planrepo.Repository
	profiles profilerepo.Repository
	clk      clockport.Clock

	newPlanID func() domain.PlanID
}

func NewService(repo planrepo.Repository, profiles profilerepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		clk:      clk,
		newPlanID: func() domain.PlanID {
			return domain.PlanID(uuid.NewString())
		},
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Plan, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Plan{}, validationErr("name", "must be non-empty")
	}
	if in.DurationMonths < 1 {
		return domain.Plan{}, validationErr("durationMonths", "must be a positive integer")
	}
	if in.PriceCents < 0 {
		return domain.Plan{}, validationErr("priceCents", "must be non-negative")
	}
	status := domain.PlanActive
	if in.Status != nil {
		if !validPlanStatus(*in.Status) {
			return domain.Plan{}, validationErr("status", "must be active or inactive")
		}
		status = *in.Status
	}

	now := s.clk.Now()
	p := domain.Plan{
		ID:             s.newPlanID(),
		Name:           name,
		DurationMonths: in.DurationMonths,
		PriceCents:     in.PriceCents,
		Description:    cloneStringPtr(in.Description),
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, planrepo.ErrNameInUse) {
			return domain.Plan{}, nameConflict(name)
		}
		return domain.Plan{}, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id domain.PlanID) (domain.Plan, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, planrepo.ErrNotFound) {
			return domain.Plan{}, planNotFound()
		}
		return domain.Plan{}, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Plan, error) {
	return s.repo.List(ctx)
}

// Update applies a partial edit. Writing values identical to the stored plan
// is a successful no-op, reported distinctly from NOT_FOUND.
func (s *Service) Update(ctx context.Context, id domain.PlanID, in UpdateInput) (UpdateResult, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, planrepo.ErrNotFound) {
			return UpdateResult{}, planNotFound()
		}
		return UpdateResult{}, err
	}
	before := p

	if in.Name.IsSpecified() {
		if in.Name.IsNull() {
			return UpdateResult{}, validationErr("name", "cannot be null")
		}
		name := strings.TrimSpace(in.Name.Value())
		if name == "" {
			return UpdateResult{}, validationErr("name", "must be non-empty")
		}
		p.Name = name
	}
	if in.DurationMonths.IsSpecified() {
		if in.DurationMonths.IsNull() {
			return UpdateResult{}, validationErr("durationMonths", "cannot be null")
		}
		if in.DurationMonths.Value() < 1 {
			return UpdateResult{}, validationErr("durationMonths", "must be a positive integer")
		}
		p.DurationMonths = in.DurationMonths.Value()
	}
	if in.PriceCents.IsSpecified() {
		if in.PriceCents.IsNull() {
			return UpdateResult{}, validationErr("priceCents", "cannot be null")
		}
		if in.PriceCents.Value() < 0 {
			return UpdateResult{}, validationErr("priceCents", "must be non-negative")
		}
		p.PriceCents = in.PriceCents.Value()
	}
	if in.Description.IsSpecified() {
		if in.Description.IsNull() {
			p.Description = nil
		} else {
			v := in.Description.Value()
			p.Description = &v
		}
	}
	if in.Status.IsSpecified() {
		if in.Status.IsNull() {
			return UpdateResult{}, validationErr("status", "cannot be null")
		}
		if !validPlanStatus(in.Status.Value()) {
			return UpdateResult{}, validationErr("status", "must be active or inactive")
		}
		p.Status = in.Status.Value()
	}

	if plansEqual(before, p) {
		return UpdateResult{Plan: before, Unchanged: true}, nil
	}

	p.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, planrepo.ErrNotFound):
			return UpdateResult{}, planNotFound()
		case errors.Is(err, planrepo.ErrNameInUse):
			return UpdateResult{}, nameConflict(p.Name)
		}
		return UpdateResult{}, err
	}
	return UpdateResult{Plan: p}, nil
}

// Delete removes a plan that no membership profile references. Plans in use
// must be deactivated instead.
func (s *Service) Delete(ctx context.Context, id domain.PlanID) error {
	inUse, err := s.profiles.AnyWithPlan(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return planInUse()
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, planrepo.ErrNotFound):
			return planNotFound()
		case errors.Is(err, planrepo.ErrInUse):
			// Backstop for a reference created between the check and the
			// delete; the database constraint has the final word.
			return planInUse()
		}
		return err
	}
	return nil
}

func plansEqual(a, b domain.Plan) bool {
	if a.Name != b.Name || a.DurationMonths != b.DurationMonths ||
		a.PriceCents != b.PriceCents || a.Status != b.Status {
		return false
	}
	switch {
	case a.Description == nil && b.Description == nil:
		return true
	case a.Description == nil || b.Description == nil:
		return false
	}
	return *a.Description == *b.Description
}

func validPlanStatus(s domain.PlanStatus) bool {
	return s == domain.PlanActive || s == domain.PlanInactive
}

func validationErr(field, msg string) *apperr.Error {
	return &apperr.Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "invalid " + field,
		Details: map[string]any{field: msg},
	}
}

func planNotFound() *apperr.Error {
	return &apperr.Error{
		Status:  404,
		Code:    "PLAN_NOT_FOUND",
		Message: "No plan exists with that id.",
	}
}

func nameConflict(name string) *apperr.Error {
	return &apperr.Error{
		Status:  409,
		Code:    "PLAN_NAME_IN_USE",
		Message: "A plan already exists with that name.",
		Details: map[string]any{"name": name},
	}
}

func planInUse() *apperr.Error {
	return &apperr.Error{
		Status:  409,
		Code:    "PLAN_IN_USE",
		Message: "The plan is enrolled by members and cannot be deleted; deactivate it instead.",
	}
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
