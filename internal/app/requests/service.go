package requests

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/Crestline-Fitness/gym-manager-api/internal/app/apperr"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
	clockport "github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/clock"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/personrepo"
	"github.com/Crestline-Fitness/gym-manager-api/internal/ports/out/requestrepo"
)

// PlaceholderCredentialRef marks accounts provisioned through request approval
// before the person has set their own credential.
const PlaceholderCredentialRef = "pending-setup"

type Service struct {
	repo requestrepo.Repository
	clk  clockport.Clock

	newRequestID func() domain.RequestID
	newPersonID  func() domain.PersonID
}

func NewService(repo requestrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo: repo,
		clk:  clk,
		newRequestID: func() domain.RequestID {
			return domain.RequestID(uuid.NewString())
		},
		newPersonID: func() domain.PersonID {
			return domain.PersonID(uuid.NewString())
		},
	}
}

// Submit records a public membership request as pending.
//
// There is intentionally no duplicate-email check: any number of pending
// requests may share an email address, and deduplication is an admin concern
// at review time.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (domain.MembershipRequest, error) {
	fullName := domain.NormalizeHumanName(in.FullName)
	if fullName == "" {
		return domain.MembershipRequest{}, &apperr.Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid fullName",
			Details: map[string]any{"fullName": "must be non-empty"},
		}
	}
	email := strings.TrimSpace(in.Email)
	if err := validateEmail(email); err != nil {
		return domain.MembershipRequest{}, &apperr.Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid email",
			Details: map[string]any{"email": err.Error()},
		}
	}

	r := domain.MembershipRequest{
		ID:        s.newRequestID(),
		FullName:  fullName,
		Email:     email,
		Phone:     cloneStringPtr(in.Phone),
		Message:   cloneStringPtr(in.Message),
		Status:    domain.RequestPending,
		CreatedAt: s.clk.Now(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return domain.MembershipRequest{}, err
	}
	return r, nil
}

// Decide applies an admin's verdict to a pending request. A request is decided
// exactly once; the second decision fails with ALREADY_PROCESSED no matter the
// verdict.
//
// Approval provisions a member account: the status change and the creation of
// the person plus empty membership profile land atomically or not at all.
func (s *Service) Decide(ctx context.Context, id domain.RequestID, decision domain.RequestDecision) (DecideResult, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, requestrepo.ErrNotFound) {
			return DecideResult{}, &apperr.Error{
				Status:  404,
				Code:    "REQUEST_NOT_FOUND",
				Message: "No membership request exists with that id.",
			}
		}
		return DecideResult{}, err
	}
	if r.Status != domain.RequestPending {
		return DecideResult{}, alreadyProcessed(r.Status)
	}

	now := s.clk.Now()
	switch decision {
	case domain.DecisionRejected:
		if err := s.repo.Reject(ctx, id, now); err != nil {
			return DecideResult{}, mapDecideErr(err)
		}
		return DecideResult{Status: domain.RequestRejected}, nil

	case domain.DecisionApproved:
		personID := s.newPersonID()
		person := domain.Person{
			ID:            personID,
			FullName:      r.FullName,
			Email:         r.Email,
			Phone:         cloneStringPtr(r.Phone),
			Role:          domain.RoleMember,
			CredentialRef: PlaceholderCredentialRef,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		// The profile starts empty: no plan, trainer, or dates until an admin
		// assigns them. Inactive until the first assignment or renewal.
		profile := domain.MembershipProfile{
			PersonID:  personID,
			Status:    domain.MembershipInactive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Approve(ctx, id, now, person, profile); err != nil {
			return DecideResult{}, mapDecideErr(err)
		}
		return DecideResult{Status: domain.RequestApproved, MemberID: &personID}, nil

	default:
		return DecideResult{}, &apperr.Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid decision",
			Details: map[string]any{"decision": "must be approved or rejected"},
		}
	}
}

func (s *Service) Get(ctx context.Context, id domain.RequestID) (domain.MembershipRequest, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, requestrepo.ErrNotFound) {
			return domain.MembershipRequest{}, &apperr.Error{
				Status:  404,
				Code:    "REQUEST_NOT_FOUND",
				Message: "No membership request exists with that id.",
			}
		}
		return domain.MembershipRequest{}, err
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, status *domain.RequestStatus) ([]domain.MembershipRequest, error) {
	if status != nil {
		switch *status {
		case domain.RequestPending, domain.RequestApproved, domain.RequestRejected:
		default:
			return nil, &apperr.Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid status filter",
				Details: map[string]any{"status": "must be pending, approved, or rejected"},
			}
		}
	}
	return s.repo.List(ctx, status)
}

func mapDecideErr(err error) error {
	switch {
	case errors.Is(err, requestrepo.ErrNotFound):
		return &apperr.Error{
			Status:  404,
			Code:    "REQUEST_NOT_FOUND",
			Message: "No membership request exists with that id.",
		}
	case errors.Is(err, requestrepo.ErrAlreadyDecided):
		return &apperr.Error{
			Status:  409,
			Code:    "ALREADY_PROCESSED",
			Message: "The membership request has already been decided.",
		}
	case errors.Is(err, personrepo.ErrEmailInUse):
		return &apperr.Error{
			Status:  409,
			Code:    "EMAIL_ALREADY_IN_USE",
			Message: "A person already exists with the request's email address.",
		}
	}
	return err
}

func alreadyProcessed(status domain.RequestStatus) *apperr.Error {
	return &apperr.Error{
		Status:  409,
		Code:    "ALREADY_PROCESSED",
		Message: "The membership request has already been decided.",
		Details: map[string]any{"status": string(status)},
	}
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}
	// Ensure no "Name <email@x>" format sneaks in.
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
