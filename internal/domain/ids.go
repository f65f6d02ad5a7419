package domain

// PersonID is an internal identifier for a person record (any role).
type PersonID string

// PlanID is an internal identifier for a membership plan.
type PlanID string

// RequestID is an internal identifier for a membership request.
type RequestID string

// SessionID is an internal identifier for a training session.
type SessionID string

// AttendanceID is an internal identifier for an attendance record.
type AttendanceID string
