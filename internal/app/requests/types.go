package requests

import "github.com/Crestline-Fitness/gym-manager-api/internal/domain"

type SubmitInput struct {
	FullName string
	Email    string
	Phone    *string
	Message  *string
}

// DecideResult reports the outcome of a decision. MemberID is set only when
// the request was approved and a member account was provisioned.
type DecideResult struct {
	Status   domain.RequestStatus
	MemberID *domain.PersonID
}
