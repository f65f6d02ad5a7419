package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Crestline-Fitness/gym-manager-api/internal/app/memberships"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/plans"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/requests"
	"github.com/Crestline-Fitness/gym-manager-api/internal/app/sessions"
	"github.com/Crestline-Fitness/gym-manager-api/internal/domain"
)

// --- membership requests ---

type submitRequestBody struct {
	FullName string              `json:"fullName"`
	Email    openapi_types.Email `json:"email"`
	Phone    *string             `json:"phone,omitempty"`
	Message  *string             `json:"message,omitempty"`
}

type membershipRequestDTO struct {
	RequestId string              `json:"requestId"`
	FullName  string              `json:"fullName"`
	Email     openapi_types.Email `json:"email"`
	Phone     *string             `json:"phone,omitempty"`
	Message   *string             `json:"message,omitempty"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	DecidedAt *time.Time          `json:"decidedAt,omitempty"`
}

func membershipRequestFromDomain(r domain.MembershipRequest) membershipRequestDTO {
	return membershipRequestDTO{
		RequestId: string(r.ID),
		FullName:  r.FullName,
		Email:     openapi_types.Email(r.Email),
		Phone:     r.Phone,
		Message:   r.Message,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		DecidedAt: r.DecidedAt,
	}
}

type decisionBody struct {
	Decision string `json:"decision"`
}

type decisionResponse struct {
	Status   string  `json:"status"`
	MemberId *string `json:"memberId,omitempty"`
}

func decisionFromResult(res requests.DecideResult) decisionResponse {
	out := decisionResponse{Status: string(res.Status)}
	if res.MemberID != nil {
		s := string(*res.MemberID)
		out.MemberId = &s
	}
	return out
}

// --- members ---

type provisionMemberBody struct {
	FullName    string              `json:"fullName"`
	Email       openapi_types.Email `json:"email"`
	Phone       *string             `json:"phone,omitempty"`
	HealthGoals *string             `json:"healthGoals,omitempty"`
}

type memberDTO struct {
	MemberId    string              `json:"memberId"`
	FullName    string              `json:"fullName"`
	Email       openapi_types.Email `json:"email"`
	Phone       *string             `json:"phone,omitempty"`
	TrainerId   *string             `json:"trainerId"`
	TrainerName *string             `json:"trainerName,omitempty"`
	PlanId      *string             `json:"planId"`
	PlanName    *string             `json:"planName,omitempty"`
	StartDate   *openapi_types.Date `json:"startDate"`
	EndDate     *openapi_types.Date `json:"endDate"`
	Status      string              `json:"status"`
	HealthGoals *string             `json:"healthGoals,omitempty"`
	IsExpired   bool                `json:"isExpired"`
	CreatedAt   time.Time           `json:"createdAt"`
}

func memberFromSummary(m memberships.MemberSummary) memberDTO {
	out := memberDTO{
		MemberId:    string(m.MemberID),
		FullName:    m.FullName,
		Email:       openapi_types.Email(m.Email),
		Phone:       m.Phone,
		TrainerName: m.TrainerName,
		PlanName:    m.PlanName,
		StartDate:   datePtr(m.StartDate),
		EndDate:     datePtr(m.EndDate),
		Status:      string(m.Status),
		HealthGoals: m.HealthGoals,
		IsExpired:   m.IsExpired,
		CreatedAt:   m.CreatedAt,
	}
	if m.TrainerID != nil {
		s := string(*m.TrainerID)
		out.TrainerId = &s
	}
	if m.PlanID != nil {
		s := string(*m.PlanID)
		out.PlanId = &s
	}
	return out
}

// assignmentBody carries tri-state fields: an omitted key leaves the
// assignment alone, an explicit null clears it, a value sets it.
type assignmentBody struct {
	TrainerId nullable.Nullable[string] `json:"trainerId,omitempty"`
	PlanId    nullable.Nullable[string] `json:"planId,omitempty"`
}

func (b assignmentBody) toInput() memberships.AssignInput {
	var in memberships.AssignInput
	in.Trainer = optionalID[domain.PersonID](b.TrainerId)
	in.Plan = optionalID[domain.PlanID](b.PlanId)
	return in
}

func optionalID[T ~string](n nullable.Nullable[string]) memberships.Optional[T] {
	if !n.IsSpecified() {
		return memberships.Unspecified[T]()
	}
	if n.IsNull() {
		return memberships.Null[T]()
	}
	v, err := n.Get()
	if err != nil {
		return memberships.Null[T]()
	}
	return memberships.Some(T(v))
}

type statusBody struct {
	Status string `json:"status"`
}

type datesBody struct {
	StartDate openapi_types.Date `json:"startDate"`
	EndDate   openapi_types.Date `json:"endDate"`
}

type renewalResponse struct {
	PlanId     string             `json:"planId"`
	NewEndDate openapi_types.Date `json:"newEndDate"`
}

func renewalFromResult(res memberships.RenewalResult) renewalResponse {
	return renewalResponse{
		PlanId:     string(res.PlanID),
		NewEndDate: openapi_types.Date{Time: res.NewEndDate},
	}
}

type assignedMemberDTO struct {
	MemberId    string `json:"memberId"`
	FullName    string `json:"fullName"`
	Status      string `json:"status"`
	IsCheckedIn bool   `json:"isCheckedIn"`
}

func assignedMemberFromDomain(m memberships.AssignedMember) assignedMemberDTO {
	return assignedMemberDTO{
		MemberId:    string(m.MemberID),
		FullName:    m.FullName,
		Status:      string(m.Status),
		IsCheckedIn: m.IsCheckedIn,
	}
}

// --- plans ---

type createPlanBody struct {
	Name           string  `json:"name"`
	DurationMonths int     `json:"durationMonths"`
	PriceCents     int64   `json:"priceCents"`
	Description    *string `json:"description,omitempty"`
	Status         *string `json:"status,omitempty"`
}

type updatePlanBody struct {
	Name           nullable.Nullable[string] `json:"name,omitempty"`
	DurationMonths nullable.Nullable[int]    `json:"durationMonths,omitempty"`
	PriceCents     nullable.Nullable[int64]  `json:"priceCents,omitempty"`
	Description    nullable.Nullable[string] `json:"description,omitempty"`
	Status         nullable.Nullable[string] `json:"status,omitempty"`
}

func (b updatePlanBody) toInput() plans.UpdateInput {
	return plans.UpdateInput{
		Name:           optionalValue(b.Name),
		DurationMonths: optionalValue(b.DurationMonths),
		PriceCents:     optionalValue(b.PriceCents),
		Description:    optionalValue(b.Description),
		Status:         optionalStatus(b.Status),
	}
}

func optionalValue[T any](n nullable.Nullable[T]) plans.Optional[T] {
	if !n.IsSpecified() {
		return plans.Unspecified[T]()
	}
	if n.IsNull() {
		return plans.Null[T]()
	}
	v, err := n.Get()
	if err != nil {
		return plans.Null[T]()
	}
	return plans.Some(v)
}

func optionalStatus(n nullable.Nullable[string]) plans.Optional[domain.PlanStatus] {
	if !n.IsSpecified() {
		return plans.Unspecified[domain.PlanStatus]()
	}
	if n.IsNull() {
		return plans.Null[domain.PlanStatus]()
	}
	v, err := n.Get()
	if err != nil {
		return plans.Null[domain.PlanStatus]()
	}
	return plans.Some(domain.PlanStatus(v))
}

type planDTO struct {
	PlanId         string    `json:"planId"`
	Name           string    `json:"name"`
	DurationMonths int       `json:"durationMonths"`
	PriceCents     int64     `json:"priceCents"`
	Description    *string   `json:"description,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func planFromDomain(p domain.Plan) planDTO {
	return planDTO{
		PlanId:         string(p.ID),
		Name:           p.Name,
		DurationMonths: p.DurationMonths,
		PriceCents:     p.PriceCents,
		Description:    p.Description,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// --- sessions ---

type scheduleSessionBody struct {
	MemberId        string    `json:"memberId"`
	StartAt         time.Time `json:"startAt"`
	DurationMinutes *int      `json:"durationMinutes,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
}

type updateSessionBody struct {
	StartAt         time.Time `json:"startAt"`
	DurationMinutes *int      `json:"durationMinutes,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
}

type sessionStatusBody struct {
	Status string `json:"status"`
}

type sessionDTO struct {
	SessionId       string    `json:"sessionId"`
	TrainerId       string    `json:"trainerId"`
	MemberId        string    `json:"memberId"`
	StartAt         time.Time `json:"startAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func sessionFromDomain(s domain.Session) sessionDTO {
	return sessionDTO{
		SessionId:       string(s.ID),
		TrainerId:       string(s.TrainerID),
		MemberId:        string(s.MemberID),
		StartAt:         s.StartAt,
		DurationMinutes: s.DurationMinutes,
		Status:          string(s.Status),
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func scheduleInputFromBody(b scheduleSessionBody) sessions.ScheduleInput {
	return sessions.ScheduleInput{
		MemberID:        domain.PersonID(b.MemberId),
		StartAt:         b.StartAt,
		DurationMinutes: b.DurationMinutes,
		Notes:           b.Notes,
	}
}

// --- attendance ---

type checkInBody struct {
	MemberId string `json:"memberId"`
}

type checkOutBody struct {
	MemberId string  `json:"memberId"`
	Notes    *string `json:"notes,omitempty"`
}

type attendanceDTO struct {
	AttendanceId string     `json:"attendanceId"`
	MemberId     string     `json:"memberId"`
	TrainerId    *string    `json:"trainerId,omitempty"`
	CheckInAt    time.Time  `json:"checkInAt"`
	CheckOutAt   *time.Time `json:"checkOutAt,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

func attendanceFromDomain(rec domain.AttendanceRecord) attendanceDTO {
	out := attendanceDTO{
		AttendanceId: string(rec.ID),
		MemberId:     string(rec.MemberID),
		CheckInAt:    rec.CheckInAt,
		CheckOutAt:   rec.CheckOutAt,
		Notes:        rec.Notes,
	}
	if rec.TrainerID != nil {
		s := string(*rec.TrainerID)
		out.TrainerId = &s
	}
	return out
}

// --- dashboards ---

type adminDashboardDTO struct {
	TotalMembers       int `json:"totalMembers"`
	ActiveTrainers     int `json:"activeTrainers"`
	ExpiredMemberships int `json:"expiredMemberships"`
	CheckedInNow       int `json:"checkedInNow"`
}

type trainerDashboardDTO struct {
	AssignedMembers   int `json:"assignedMembers"`
	TotalSessions     int `json:"totalSessions"`
	ScheduledSessions int `json:"scheduledSessions"`
	CompletedSessions int `json:"completedSessions"`
	CanceledSessions  int `json:"canceledSessions"`
	TodaySessions     int `json:"todaySessions"`
}

// --- shared helpers ---

func datePtr(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}
