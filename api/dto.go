/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags. Handlers run
  h.decode, which rejects malformed JSON and tag violations with a 400
  and a field -> rule map. Domain rules (balance, overlaps, workflow)
  are checked by the timeoff service, not here.

DATES:
  All dates are "YYYY-MM-DD"; timestamps are RFC 3339.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/leavetype.go: LeaveTypeJSON type
*/
package api

import (
	"context"
	"time"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/i18n"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	Email     string  `json:"email,omitempty"`
	HireDate  string  `json:"hire_date"`
	Active    bool    `json:"active"`
	ManagerID *string `json:"manager_id,omitempty"`
	Role      string  `json:"role"`
	ADManaged bool    `json:"ad_managed"`
}

// SaveEmployeeRequest creates (no id) or updates an employee.
type SaveEmployeeRequest struct {
	ID        string  `json:"id" validate:"omitempty,max=64"`
	FullName  string  `json:"full_name" validate:"required,max=200"`
	Email     string  `json:"email" validate:"omitempty,email"`
	HireDate  string  `json:"hire_date" validate:"required,datetime=2006-01-02"`
	ManagerID *string `json:"manager_id" validate:"omitempty"`
	Role      string  `json:"role" validate:"omitempty,oneof=employee manager hr hr_assistant"`
	ADManaged bool    `json:"ad_managed"`
	Active    *bool   `json:"active"`
}

func toEmployeeDTO(e timeoff.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:        string(e.ID),
		FullName:  e.FullName,
		Email:     e.Email,
		HireDate:  e.HireDate.String(),
		Active:    e.Active,
		Role:      string(e.Role),
		ADManaged: e.ADManaged,
	}
	if e.ManagerID != nil {
		m := string(*e.ManagerID)
		dto.ManagerID = &m
	}
	return dto
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

// LeaveTypeDTO represents a catalog entry.
type LeaveTypeDTO struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	RequiresBalance    bool   `json:"requires_balance"`
	DefaultDays        int    `json:"default_days"`
	ConsumptionType    string `json:"consumption_type"`
	RequiresAttachment bool   `json:"requires_attachment"`
	Builtin            bool   `json:"builtin"`
}

// CreateLeaveTypeRequest adds a catalog entry.
type CreateLeaveTypeRequest struct {
	Name               string `json:"name" validate:"required,max=100"`
	RequiresBalance    *bool  `json:"requires_balance"`
	DefaultDays        int    `json:"default_days" validate:"gte=0,lte=366"`
	ConsumptionType    string `json:"consumption_type" validate:"omitempty,oneof=flexible fixed"`
	RequiresAttachment bool   `json:"requires_attachment"`
}

func toLeaveTypeDTO(lt timeoff.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		ID:                 string(lt.ID),
		Name:               lt.Name,
		RequiresBalance:    lt.RequiresBalance,
		DefaultDays:        lt.DefaultDays,
		ConsumptionType:    string(lt.ConsumptionType),
		RequiresAttachment: lt.RequiresAttachment,
		Builtin:            lt.IsBuiltin(),
	}
}

// =============================================================================
// BALANCES AND BUCKETS
// =============================================================================

// BucketDTO is one yearly bucket.
type BucketDTO struct {
	EmployeeID  string  `json:"employee_id"`
	LeaveTypeID string  `json:"leave_type_id"`
	Year        int     `json:"year"`
	Accrued     float64 `json:"accrued"`
	Taken       float64 `json:"taken"`
	Remaining   float64 `json:"remaining"`
	Comment     string  `json:"comment,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// BalanceDTO is the aggregate balance of one leave type.
type BalanceDTO struct {
	EmployeeID  string      `json:"employee_id"`
	LeaveTypeID string      `json:"leave_type_id"`
	Accrued     float64     `json:"accrued"`
	Taken       float64     `json:"taken"`
	Available   float64     `json:"available"`
	Buckets     []BucketDTO `json:"buckets"`
}

// AddBucketRequest opens a bucket with an explicit accrual.
type AddBucketRequest struct {
	EmployeeID  string  `json:"employee_id" validate:"required"`
	LeaveTypeID string  `json:"leave_type_id"`
	Year        int     `json:"year" validate:"required,gte=1900,lte=9999"`
	Accrued     float64 `json:"accrued" validate:"gte=0"`
	Comment     string  `json:"comment" validate:"max=500"`
}

// OverrideBucketRequest sets accrued/taken directly.
type OverrideBucketRequest struct {
	Accrued float64 `json:"accrued" validate:"gte=0"`
	Taken   float64 `json:"taken" validate:"gte=0"`
	Comment string  `json:"comment" validate:"required,max=500"`
}

// AssignLeaveTypeRequest opens a current-year bucket of a leave type.
type AssignLeaveTypeRequest struct {
	LeaveTypeID string `json:"leave_type_id" validate:"required"`
}

// GenerateYearRequest opens vacation buckets for a year.
type GenerateYearRequest struct {
	Year int `json:"year" validate:"required,gte=1900,lte=9999"`
}

func toBucketDTO(b generic.Bucket) BucketDTO {
	dto := BucketDTO{
		EmployeeID:  string(b.EntityID),
		LeaveTypeID: string(b.ResourceID),
		Year:        b.Year,
		Accrued:     b.Accrued.Float64(),
		Taken:       b.Taken.Float64(),
		Remaining:   b.Remaining().Float64(),
		Comment:     b.Comment,
	}
	if !b.UpdatedAt.IsZero() {
		dto.UpdatedAt = b.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func toBalanceDTO(s generic.BalanceSummary) BalanceDTO {
	dto := BalanceDTO{
		EmployeeID:  string(s.EntityID),
		LeaveTypeID: string(s.ResourceID),
		Accrued:     s.Accrued.Float64(),
		Taken:       s.Taken.Float64(),
		Available:   s.Available().Float64(),
		Buckets:     make([]BucketDTO, 0, len(s.Buckets)),
	}
	for _, b := range s.Buckets {
		dto.Buckets = append(dto.Buckets, toBucketDTO(b))
	}
	return dto
}

// =============================================================================
// REQUESTS
// =============================================================================

// CreateRequestDTO is a new leave request.
type CreateRequestDTO struct {
	EmployeeID     string `json:"employee_id"`
	LeaveTypeID    string `json:"leave_type_id"`
	Type           string `json:"type" validate:"omitempty,oneof=full_day half_day"`
	StartDate      string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Turn           string `json:"turn" validate:"omitempty,oneof=morning afternoon"`
	ReplacementID  string `json:"replacement_id"`
	AttachmentPath string `json:"attachment_path" validate:"max=500"`
}

// ReasonRequest carries the mandatory reason of a cancellation request.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// InterruptRequest ends approved leave early.
type InterruptRequest struct {
	ReintegrationDate string `json:"reintegration_date" validate:"required,datetime=2006-01-02"`
	Reason            string `json:"reason" validate:"required,max=1000"`
}

// ModifyRequest moves approved leave.
type ModifyRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"required,max=1000"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID                  string   `json:"id"`
	EmployeeID          string   `json:"employee_id"`
	LeaveTypeID         string   `json:"leave_type_id"`
	Type                string   `json:"type"`
	StartDate           string   `json:"start_date"`
	EndDate             string   `json:"end_date"`
	Turn                string   `json:"turn,omitempty"`
	Days                float64  `json:"days"`
	ReplacementID       string   `json:"replacement_id,omitempty"`
	ReplacementName     string   `json:"replacement_name,omitempty"`
	Status              string   `json:"status"`
	StatusLabel         string   `json:"status_label"`
	AllowedActions      []string `json:"allowed_actions"`
	CancellationReason  string   `json:"cancellation_reason,omitempty"`
	InterruptionReason  string   `json:"interruption_reason,omitempty"`
	ModificationReason  string   `json:"modification_reason,omitempty"`
	AttachmentPath      string   `json:"attachment_path,omitempty"`
	RequestDate         string   `json:"request_date"`
	ManagerApprovalDate *string  `json:"manager_approval_date,omitempty"`
	HRApprovalDate      *string  `json:"hr_approval_date,omitempty"`
	CreatedBy           string   `json:"created_by,omitempty"`
}

func toRequestDTO(ctx context.Context, r timeoff.Request, actor timeoff.Actor) RequestDTO {
	dto := RequestDTO{
		ID:                  r.ID,
		EmployeeID:          string(r.EmployeeID),
		LeaveTypeID:         string(r.LeaveTypeID),
		Type:                string(r.Type),
		StartDate:           r.StartDate.String(),
		EndDate:             r.EndDate.String(),
		Turn:                r.StartTime,
		Days:                r.Days.Float64(),
		ReplacementID:       string(r.ReplacementID),
		ReplacementName:     r.ReplacementName,
		Status:              string(r.Status),
		StatusLabel:         i18n.StatusLabel(ctx, string(r.Status)),
		AllowedActions:      []string{},
		CancellationReason:  r.CancellationReason,
		InterruptionReason:  r.InterruptionReason,
		ModificationReason:  r.ModificationReason,
		AttachmentPath:      r.AttachmentPath,
		RequestDate:         r.RequestDate.Format(time.RFC3339),
		ManagerApprovalDate: formatOptional(r.ManagerApprovalDate),
		HRApprovalDate:      formatOptional(r.HRApprovalDate),
		CreatedBy:           string(r.CreatedBy),
	}
	for _, a := range timeoff.Allowed(r.Status, actor.Role) {
		dto.AllowedActions = append(dto.AllowedActions, string(a))
	}
	return dto
}

func toRequestDTOs(ctx context.Context, reqs []timeoff.Request, actor timeoff.Actor) []RequestDTO {
	out := make([]RequestDTO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestDTO(ctx, r, actor))
	}
	return out
}

// AuditEntryDTO is one history line of a request or bucket.
type AuditEntryDTO struct {
	ID          string         `json:"id"`
	Timestamp   string         `json:"timestamp"`
	ActorID     string         `json:"actor_id"`
	Action      string         `json:"action"`
	EmployeeID  string         `json:"employee_id,omitempty"`
	ReferenceID string         `json:"reference_id,omitempty"`
	FromStatus  string         `json:"from_status,omitempty"`
	ToStatus    string         `json:"to_status,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

func toAuditDTOs(entries []generic.AuditEntry) []AuditEntryDTO {
	out := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryDTO{
			ID:          e.ID,
			Timestamp:   e.Timestamp.Format(time.RFC3339),
			ActorID:     e.ActorID,
			Action:      string(e.Action),
			EmployeeID:  string(e.EntityID),
			ReferenceID: e.ReferenceID,
			FromStatus:  e.FromStatus,
			ToStatus:    e.ToStatus,
			Payload:     e.Payload,
		})
	}
	return out
}

// =============================================================================
// CALENDAR
// =============================================================================

// HolidayDTO is a stored holiday.
type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// CreateHolidayRequest adds a holiday.
type CreateHolidayRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required,max=200"`
	Recurring bool   `json:"recurring"`
}

// SaturdayDTO is one configured Saturday.
type SaturdayDTO struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Working bool   `json:"working"`
}

// GenerateSaturdaysRequest starts the alternating schedule.
type GenerateSaturdaysRequest struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
}

// NonWorkingDayDTO is a non-working date with its reason.
type NonWorkingDayDTO struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// DayOffDTO is one date of leave.
type DayOffDTO struct {
	Date        string  `json:"date"`
	LeaveTypeID string  `json:"leave_type_id"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	RequestID   string  `json:"request_id"`
}

// AbsenceDTO is an approved absence on the team calendar.
type AbsenceDTO struct {
	RequestID     string `json:"request_id"`
	EmployeeID    string `json:"employee_id"`
	EmployeeName  string `json:"employee_name"`
	LeaveTypeID   string `json:"leave_type_id"`
	LeaveTypeName string `json:"leave_type_name"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Status        string `json:"status"`
	StatusLabel   string `json:"status_label"`
}

// TeamCalendarDTO is the team calendar response.
type TeamCalendarDTO struct {
	Absences       []AbsenceDTO       `json:"absences"`
	NonWorkingDays []NonWorkingDayDTO `json:"non_working_days"`
}

// StatsDTO holds the HR dashboard counters.
type StatsDTO struct {
	Year             int     `json:"year"`
	ActiveEmployees  int     `json:"active_employees"`
	PendingRequests  int     `json:"pending_requests"`
	DaysApproved     float64 `json:"days_approved"`
	RequestsPerMonth []int   `json:"requests_per_month"`
}

func toTeamCalendarDTO(ctx context.Context, tc *timeoff.TeamCalendar) TeamCalendarDTO {
	dto := TeamCalendarDTO{
		Absences:       make([]AbsenceDTO, 0, len(tc.Absences)),
		NonWorkingDays: make([]NonWorkingDayDTO, 0, len(tc.NonWorkingDays)),
	}
	for _, a := range tc.Absences {
		dto.Absences = append(dto.Absences, AbsenceDTO{
			RequestID:     a.RequestID,
			EmployeeID:    string(a.EmployeeID),
			EmployeeName:  a.EmployeeName,
			LeaveTypeID:   string(a.LeaveTypeID),
			LeaveTypeName: a.LeaveTypeName,
			Start:         a.Start.String(),
			End:           a.End.String(),
			Status:        string(a.Status),
			StatusLabel:   i18n.StatusLabel(ctx, string(a.Status)),
		})
	}
	for _, d := range tc.NonWorkingDays {
		dto.NonWorkingDays = append(dto.NonWorkingDays, NonWorkingDayDTO{Date: d.Date.String(), Reason: d.Reason})
	}
	return dto
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, Recurring: h.Recurring}
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Kind    string            `json:"kind,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
