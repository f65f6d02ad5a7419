package memberships

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Crestline-Fitness/gym-manager-api/internal/app/apperr"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/attendancerepo"
	clockport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/clock"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/personrepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/planrepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/profilerepo"
)

type Service struct {
	persons    personrepo.Repository
	profiles   profilerepo.Repository
	plans      planrepo.Repository
	attendance attendancerepo.Repository
	clk        clockport.Clock

	newPersonID func() domain.PersonID
}

func NewService(
	persons personrepo.Repository,
	profiles profilerepo.Repository,
	plans planrepo.Repository,
	attendance attendancerepo.Repository,
	clk clockport.Clock,
) *Service {
	return &Service{
		persons:    persons,
		profiles:   profiles,
		plans:      plans,
		attendance: attendance,
		clk:        clk,
		newPersonID: func() domain.PersonID {
			return domain.PersonID(uuid.NewString())
		},
	}
}

// ProvisionMember creates a member directly: a person with role member plus an
// empty membership profile. This is the admin path; request approval is the
// public path and produces the same pair.
func (s *Service) ProvisionMember(ctx context.Context, in ProvisionInput) (MemberSummary, error) {
	fullName := domain.NormalizeHumanName(in.FullName)
	if fullName == "" {
		return MemberSummary{}, &apperr.Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid fullName",
			Details: map[string]any{"fullName": "must be non-empty"},
		}
	}
	email := strings.TrimSpace(in.Email)
	if err := validateEmail(email); err != nil {
		return MemberSummary{}, &apperr.Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid email",
			Details: map[string]any{"email": err.Error()},
		}
	}

	now := s.clk.Now()
	id := s.newPersonID()
	person := domain.Person{
		ID:            id,
		FullName:      fullName,
		Email:         email,
		Phone:         cloneStringPtr(in.Phone),
		Role:          domain.RoleMember,
		CredentialRef: "pending-setup",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.persons.Create(ctx, person); err != nil {
		if errors.Is(err, personrepo.ErrEmailInUse) {
			return MemberSummary{}, &apperr.Error{
				Status:  409,
				Code:    "EMAIL_ALREADY_IN_USE",
				Message: "A person already exists with that email address.",
			}
		}
		return MemberSummary{}, err
	}
	profile := domain.MembershipProfile{
		PersonID:    id,
		Status:      domain.MembershipInactive,
		HealthGoals: cloneStringPtr(in.HealthGoals),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		// Roll the person insert back so a failed provision leaves nothing
		// behind and the email stays free for a retry.
		_ = s.persons.Remove(ctx, id)
		return MemberSummary{}, err
	}
	return s.summarize(ctx, person, profile)
}

// AssignTrainerAndPlan applies a tri-state update to the member's trainer and
// plan assignment. A provided trainer must reference a person with role
// trainer and a provided plan must exist; the observed system skipped both
// checks, a gap closed here deliberately.
func (s *Service) AssignTrainerAndPlan(ctx context.Context, memberID domain.PersonID, in AssignInput) (MemberSummary, error) {
	profile, err := s.getProfile(ctx, memberID)
	if err != nil {
		return MemberSummary{}, err
	}

	if in.Trainer.IsSpecified() {
		if in.Trainer.IsNull() {
			profile.TrainerID = nil
		} else {
			trainerID := in.Trainer.Value()
			t, err := s.persons.GetByID(ctx, trainerID)
			if err != nil || t.Role != domain.RoleTrainer {
				if err != nil && !errors.Is(err, personrepo.ErrNotFound) {
					return MemberSummary{}, err
				}
				return MemberSummary{}, &apperr.Error{
					Status:  422,
					Code:    "VALIDATION_ERROR",
					Message: "invalid trainerId",
					Details: map[string]any{"trainerId": "must reference a person with role trainer"},
				}
			}
			profile.TrainerID = &trainerID
		}
	}

	if in.Plan.IsSpecified() {
		if in.Plan.IsNull() {
			profile.PlanID = nil
		} else {
			planID := in.Plan.Value()
			if _, err := s.plans.GetByID(ctx, planID); err != nil {
				if !errors.Is(err, planrepo.ErrNotFound) {
					return MemberSummary{}, err
				}
				return MemberSummary{}, &apperr.Error{
					Status:  422,
					Code:    "VALIDATION_ERROR",
					Message: "invalid planId",
					Details: map[string]any{"planId": "must reference an existing plan"},
				}
			}
			profile.PlanID = &planID
		}
	}

	profile.UpdatedAt = s.clk.Now()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return MemberSummary{}, err
	}
	return s.summarizeByID(ctx, memberID, profile)
}

// UpdateStatus sets the administrative status flag directly. No business rule
// ties it to the membership dates: the flag and the date-derived expiry state
// are allowed to diverge (see domain.MembershipStatus).
func (s *Service) UpdateStatus(ctx context.Context, memberID domain.PersonID, status domain.MembershipStatus) (MemberSummary, error) {
	if status != domain.MembershipActive && status != domain.MembershipInactive {
		return MemberSummary{}, &apperr.Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid status",
			Details: map[string]any{"status": "must be Active or Inactive"},
		}
	}
	profile, err := s.getProfile(ctx, memberID)
	if err != nil {
		return MemberSummary{}, err
	}
	profile.Status = status
	profile.UpdatedAt = s.clk.Now()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return MemberSummary{}, err
	}
	return s.summarizeByID(ctx, memberID, profile)
}

// UpdateDates sets both membership dates. Both are required, and start must
// not be after end: the observed system allowed inverted ranges, a deliberate
// strengthening here to uphold the profile invariant at every write.
func (s *Service) UpdateDates(ctx context.Context, memberID domain.PersonID, start, end time.Time) (MemberSummary, error) {
	if start.IsZero() || end.IsZero() {
		details := map[string]any{}
		if start.IsZero() {
			details["startDate"] = "must be provided"
		}
		if end.IsZero() {
			details["endDate"] = "must be provided"
		}
		return MemberSummary{}, &apperr.Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid membership dates",
			Details: details,
		}
	}
	startD := domain.DateOnly(start)
	endD := domain.DateOnly(end)
	if endD.Before(startD) {
		return MemberSummary{}, &apperr.Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid membership dates",
			Details: map[string]any{"end": "must not be before start"},
		}
	}
	profile, err := s.getProfile(ctx, memberID)
	if err != nil {
		return MemberSummary{}, err
	}
	profile.StartDate = &startD
	profile.EndDate = &endD
	profile.UpdatedAt = s.clk.Now()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return MemberSummary{}, err
	}
	return s.summarizeByID(ctx, memberID, profile)
}

// Renew extends the member's paid-through date by one duration of the
// currently assigned plan.
//
// Anchor rule: a lapsed or never-dated membership renews from today; a still
// valid one renews from the day after its current end date, contiguous with no
// gap or overlap. Only the end date and the status flag move; the start date
// keeps recording original enrollment.
func (s *Service) Renew(ctx context.Context, memberID domain.PersonID) (RenewalResult, error) {
	profile, err := s.getProfile(ctx, memberID)
	if err != nil {
		return RenewalResult{}, err
	}
	if profile.PlanID == nil {
		return RenewalResult{}, &apperr.Error{
			Status:  409,
			Code:    "NO_ACTIVE_PLAN",
			Message: "The member has no plan assigned to renew.",
		}
	}
	plan, err := s.plans.GetByID(ctx, *profile.PlanID)
	if err != nil {
		if errors.Is(err, planrepo.ErrNotFound) {
			return RenewalResult{}, &apperr.Error{
				Status:  500,
				Code:    "CONFIGURATION_ERROR",
				Message: "The assigned plan no longer exists.",
				Details: map[string]any{"planId": string(*profile.PlanID)},
			}
		}
		return RenewalResult{}, err
	}

	today := domain.DateOnly(s.clk.Now())
	anchor := today
	if profile.EndDate != nil && !domain.DateOnly(*profile.EndDate).Before(today) {
		anchor = domain.DateOnly(*profile.EndDate).AddDate(0, 0, 1)
	}
	newEnd := domain.AddMonths(anchor, plan.DurationMonths)

	profile.Status = domain.MembershipActive
	profile.EndDate = &newEnd
	profile.UpdatedAt = s.clk.Now()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return RenewalResult{}, err
	}
	return RenewalResult{PlanID: plan.ID, NewEndDate: newEnd}, nil
}

// ListMembers materializes the full joined member view, newest member first.
// No pagination: acceptable at a single gym's scale, a known ceiling beyond
// it.
func (s *Service) ListMembers(ctx context.Context) ([]MemberSummary, error) {
	members, err := s.persons.ListByRole(ctx, domain.RoleMember)
	if err != nil {
		return nil, err
	}
	trainerNames, err := s.trainerNames(ctx)
	if err != nil {
		return nil, err
	}
	planNames, err := s.planNames(ctx)
	if err != nil {
		return nil, err
	}
	today := domain.DateOnly(s.clk.Now())

	out := make([]MemberSummary, 0, len(members))
	for _, p := range members {
		profile, err := s.profiles.GetByPersonID(ctx, p.ID)
		if err != nil {
			if errors.Is(err, profilerepo.ErrNotFound) {
				// A member person without a profile should not exist; skip
				// rather than fail the whole listing.
				continue
			}
			return nil, err
		}
		out = append(out, buildSummary(p, profile, trainerNames, planNames, today))
	}
	return out, nil
}

// GetMember returns the joined view for one member.
func (s *Service) GetMember(ctx context.Context, memberID domain.PersonID) (MemberSummary, error) {
	profile, err := s.getProfile(ctx, memberID)
	if err != nil {
		return MemberSummary{}, err
	}
	return s.summarizeByID(ctx, memberID, profile)
}

// GetMemberPlan returns the member's currently assigned plan.
func (s *Service) GetMemberPlan(ctx context.Context, memberID domain.PersonID) (domain.Plan, error) {
	profile, err := s.getProfile(ctx, memberID)
	if err != nil {
		return domain.Plan{}, err
	}
	if profile.PlanID == nil {
		return domain.Plan{}, &apperr.Error{
			Status:  404,
			Code:    "NO_ACTIVE_PLAN",
			Message: "No membership plan is assigned to this member.",
		}
	}
	plan, err := s.plans.GetByID(ctx, *profile.PlanID)
	if err != nil {
		if errors.Is(err, planrepo.ErrNotFound) {
			return domain.Plan{}, &apperr.Error{
				Status:  500,
				Code:    "CONFIGURATION_ERROR",
				Message: "The assigned plan no longer exists.",
				Details: map[string]any{"planId": string(*profile.PlanID)},
			}
		}
		return domain.Plan{}, err
	}
	return plan, nil
}

// ListAssignedMembers returns the trainer's roster with a live checked-in
// flag per member.
func (s *Service) ListAssignedMembers(ctx context.Context, trainerID domain.PersonID) ([]AssignedMember, error) {
	profiles, err := s.profiles.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	out := make([]AssignedMember, 0, len(profiles))
	for _, profile := range profiles {
		p, err := s.persons.GetByID(ctx, profile.PersonID)
		if err != nil {
			if errors.Is(err, personrepo.ErrNotFound) {
				continue
			}
			return nil, err
		}
		checkedIn := false
		if _, err := s.attendance.GetOpenByMember(ctx, profile.PersonID); err == nil {
			checkedIn = true
		} else if !errors.Is(err, attendancerepo.ErrNotFound) {
			return nil, err
		}
		out = append(out, AssignedMember{
			MemberID:    p.ID,
			FullName:    p.FullName,
			Status:      profile.Status,
			IsCheckedIn: checkedIn,
		})
	}
	return out, nil
}

// --- helpers ---

func (s *Service) getProfile(ctx context.Context, memberID domain.PersonID) (domain.MembershipProfile, error) {
	profile, err := s.profiles.GetByPersonID(ctx, memberID)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return domain.MembershipProfile{}, &apperr.Error{
				Status:  404,
				Code:    "MEMBER_NOT_FOUND",
				Message: "No membership profile exists for that member.",
			}
		}
		return domain.MembershipProfile{}, err
	}
	return profile, nil
}

func (s *Service) summarizeByID(ctx context.Context, memberID domain.PersonID, profile domain.MembershipProfile) (MemberSummary, error) {
	p, err := s.persons.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, personrepo.ErrNotFound) {
			return MemberSummary{}, &apperr.Error{
				Status:  404,
				Code:    "MEMBER_NOT_FOUND",
				Message: "No membership profile exists for that member.",
			}
		}
		return MemberSummary{}, err
	}
	return s.summarize(ctx, p, profile)
}

func (s *Service) summarize(ctx context.Context, p domain.Person, profile domain.MembershipProfile) (MemberSummary, error) {
	trainerNames, err := s.trainerNames(ctx)
	if err != nil {
		return MemberSummary{}, err
	}
	planNames, err := s.planNames(ctx)
	if err != nil {
		return MemberSummary{}, err
	}
	return buildSummary(p, profile, trainerNames, planNames, domain.DateOnly(s.clk.Now())), nil
}

func (s *Service) trainerNames(ctx context.Context) (map[domain.PersonID]string, error) {
	trainers, err := s.persons.ListByRole(ctx, domain.RoleTrainer)
	if err != nil {
		return nil, err
	}
	names := make(map[domain.PersonID]string, len(trainers))
	for _, t := range trainers {
		names[t.ID] = t.FullName
	}
	return names, nil
}

func (s *Service) planNames(ctx context.Context) (map[domain.PlanID]string, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[domain.PlanID]string, len(plans))
	for _, p := range plans {
		names[p.ID] = p.Name
	}
	return names, nil
}

func buildSummary(
	p domain.Person,
	profile domain.MembershipProfile,
	trainerNames map[domain.PersonID]string,
	planNames map[domain.PlanID]string,
	today time.Time,
) MemberSummary {
	out := MemberSummary{
		MemberID:    p.ID,
		FullName:    p.FullName,
		Email:       p.Email,
		Phone:       cloneStringPtr(p.Phone),
		TrainerID:   profile.TrainerID,
		PlanID:      profile.PlanID,
		StartDate:   profile.StartDate,
		EndDate:     profile.EndDate,
		Status:      profile.Status,
		HealthGoals: cloneStringPtr(profile.HealthGoals),
		IsExpired:   profile.IsExpired(today),
		CreatedAt:   p.CreatedAt,
	}
	if profile.TrainerID != nil {
		if name, ok := trainerNames[*profile.TrainerID]; ok {
			out.TrainerName = &name
		}
	}
	if profile.PlanID != nil {
		if name, ok := planNames[*profile.PlanID]; ok {
			out.PlanName = &name
		}
	}
	return out
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
