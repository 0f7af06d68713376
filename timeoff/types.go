// Package timeoff implements the leave-request domain on top of the generic
// bucket engine: employees and roles, the leave-type catalog, the request
// state machine, the working-day calendar and seniority accrual.
package timeoff

import (
	"strings"
	"time"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// ROLES AND ACTORS
// =============================================================================

// Role drives the permission tier of an employee.
type Role string

const (
	RoleEmployee    Role = "employee"
	RoleManager     Role = "manager"
	RoleHR          Role = "hr"
	RoleHRAssistant Role = "hr_assistant" // read-only HR views
	RoleSystem      Role = "system"       // time-driven transitions
)

// ParseRole accepts the canonical role names.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleEmployee, RoleManager, RoleHR, RoleHRAssistant:
		return r, nil
	}
	return "", generic.NewValidationError("role", "unknown role %q", s)
}

// Actor is whoever performs an operation. It is always passed in
// explicitly; the package never reads a current user from ambient state.
type Actor struct {
	ID   generic.EntityID
	Role Role
}

// SystemActor performs the lazy time-driven transitions.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// IsHR reports whether the actor can perform HR writes.
func (a Actor) IsHR() bool { return a.Role == RoleHR }

// CanReadAll reports whether the actor sees every employee's data.
func (a Actor) CanReadAll() bool { return a.Role == RoleHR || a.Role == RoleHRAssistant }

func requireHR(actor Actor, action string) error {
	if actor.IsHR() {
		return nil
	}
	return &generic.ForbiddenError{ActorID: string(actor.ID), Action: action, Reason: "requires the hr role"}
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is a roster entry. Employees are deactivated, never deleted.
type Employee struct {
	ID        generic.EntityID
	FullName  string
	Email     string
	HireDate  generic.TimePoint
	Active    bool
	ManagerID *generic.EntityID
	Role      Role
	ADManaged bool
}

// ManagedBy reports whether id is the employee's direct manager.
func (e Employee) ManagedBy(id generic.EntityID) bool {
	return e.ManagerID != nil && *e.ManagerID == id
}

// =============================================================================
// LEAVE TYPE
// =============================================================================

// ConsumptionType decides how a full-day request is counted.
type ConsumptionType string

const (
	ConsumptionFlexible ConsumptionType = "flexible" // working days between start and end
	ConsumptionFixed    ConsumptionType = "fixed"    // consecutive calendar days from start
)

func ParseConsumptionType(s string) (ConsumptionType, error) {
	switch c := ConsumptionType(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ConsumptionFlexible, nil
	case ConsumptionFlexible, ConsumptionFixed:
		return c, nil
	}
	return "", generic.NewValidationError("consumption_type", "unknown consumption type %q", s)
}

// LeaveType is a catalog entry.
type LeaveType struct {
	ID                 generic.ResourceID
	Name               string
	RequiresBalance    bool
	DefaultDays        int
	ConsumptionType    ConsumptionType
	RequiresAttachment bool
}

// IsBuiltin reports whether this is the undeletable vacation type.
func (lt LeaveType) IsBuiltin() bool {
	return lt.ID == VacationTypeID || strings.EqualFold(lt.Name, VacationTypeName)
}

// =============================================================================
// REQUEST
// =============================================================================

// RequestType distinguishes full-day ranges from single half days.
type RequestType string

const (
	RequestFullDay RequestType = "full_day"
	RequestHalfDay RequestType = "half_day"
)

// HalfDayTurn is recorded in StartTime for half-day requests.
type HalfDayTurn string

const (
	TurnMorning   HalfDayTurn = "morning"
	TurnAfternoon HalfDayTurn = "afternoon"
)

// HalfDay is the amount a half-day request consumes.
var HalfDay = generic.Days(0.5)

// Request is a single leave request. ReplacementName is a snapshot of the
// replacement's display name at submission time, not a live reference.
type Request struct {
	ID              string
	EmployeeID      generic.EntityID
	LeaveTypeID     generic.ResourceID
	Type            RequestType
	StartDate       generic.TimePoint
	EndDate         generic.TimePoint
	StartTime       string
	EndTime         string
	Days            generic.Amount
	ReplacementID   generic.EntityID
	ReplacementName string
	Status          Status

	CancellationReason string
	InterruptionReason string
	ModificationReason string
	AttachmentPath     string

	RequestDate         time.Time
	ManagerApprovalDate *time.Time
	HRApprovalDate      *time.Time
	CreatedBy           generic.EntityID
	UpdatedAt           time.Time
}

// Period is the inclusive date range of the request.
func (r Request) Period() generic.Period {
	return generic.Period{Start: r.StartDate, End: r.EndDate}
}

// HRInitiated reports whether HR created the request on the employee's
// behalf. Only meaningful while the request is Pending: a later HR
// approval also stamps HRApprovalDate.
func (r Request) HRInitiated() bool {
	return r.HRApprovalDate != nil
}

// =============================================================================
// CALENDAR RECORDS
// =============================================================================

// SaturdayConfig marks one specific Saturday as working or not. Saturdays
// without a row are non-working.
type SaturdayConfig struct {
	Date    generic.TimePoint
	Working bool
}
