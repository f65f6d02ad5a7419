package domain

import "time"

// RequestStatus is the lifecycle state of a membership request. A request
// transitions exactly once from pending to approved or rejected and is
// terminal thereafter.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// RequestDecision is an admin's verdict on a pending request.
type RequestDecision string

const (
	DecisionApproved RequestDecision = "approved"
	DecisionRejected RequestDecision = "rejected"
)

// MembershipRequest is a public-facing, pre-member application awaiting an
// admin decision.
type MembershipRequest struct {
	ID       RequestID
	FullName string
	Email    string
	Phone    *string
	Message  *string

	Status    RequestStatus
	CreatedAt time.Time
	DecidedAt *time.Time
}
