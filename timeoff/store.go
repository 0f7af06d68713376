package timeoff

import (
	"context"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// STORE - Everything the leave service persists
// =============================================================================

// EmployeeStore is the roster. GetEmployee returns a NotFoundError for an
// unknown id.
type EmployeeStore interface {
	SaveEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id generic.EntityID) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

// LeaveTypeStore is the leave-type catalog. SaveLeaveType returns a
// ConflictError when another type already uses the name.
type LeaveTypeStore interface {
	SaveLeaveType(ctx context.Context, lt LeaveType) error
	GetLeaveType(ctx context.Context, id generic.ResourceID) (*LeaveType, error)
	ListLeaveTypes(ctx context.Context) ([]LeaveType, error)
	DeleteLeaveType(ctx context.Context, id generic.ResourceID) error
}

// RequestStore persists requests.
type RequestStore interface {
	CreateRequest(ctx context.Context, r Request) error
	GetRequest(ctx context.Context, id string) (*Request, error)

	// UpdateRequest writes r only if the stored row is still in status
	// expected; otherwise it returns generic.ErrConcurrentModification.
	UpdateRequest(ctx context.Context, r Request, expected Status) error

	// ListRequests returns matching requests ordered by start date, newest first.
	ListRequests(ctx context.Context, f RequestFilter) ([]Request, error)
}

// CalendarStore holds the holiday and Saturday tables. SaveHoliday
// returns a ConflictError when a different holiday already holds the date.
type CalendarStore interface {
	ListHolidays(ctx context.Context) ([]generic.Holiday, error)
	SaveHoliday(ctx context.Context, h generic.Holiday) error
	DeleteHoliday(ctx context.Context, id string) error

	ListSaturdays(ctx context.Context) ([]SaturdayConfig, error)
	SaveSaturday(ctx context.Context, s SaturdayConfig) error
	ClearSaturdays(ctx context.Context) error
}

// Store is the full persistence surface of the service.
type Store interface {
	generic.BucketStore
	generic.AuditLog
	EmployeeStore
	LeaveTypeStore
	RequestStore
	CalendarStore
}

// TxStore runs fn against a Store bound to one transaction. If fn returns
// an error nothing fn wrote is kept.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// REQUEST FILTER
// =============================================================================

// RequestFilter selects requests. Empty fields match everything.
type RequestFilter struct {
	EmployeeIDs []generic.EntityID
	Statuses    []Status
	Overlaps    *generic.Period

	// ReplacementID and ReplacementName select requests naming someone as
	// replacement. A request matches on the id, or on the name snapshot
	// when it has no replacement id.
	ReplacementID   generic.EntityID
	ReplacementName string
}

// Matches applies the filter to one request. Stores without a query
// language use it directly.
func (f RequestFilter) Matches(r Request) bool {
	if len(f.EmployeeIDs) > 0 && !containsEntity(f.EmployeeIDs, r.EmployeeID) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if f.Overlaps != nil && !f.Overlaps.Overlaps(r.Period()) {
		return false
	}
	if f.ReplacementID != "" || f.ReplacementName != "" {
		byID := f.ReplacementID != "" && r.ReplacementID == f.ReplacementID
		byName := f.ReplacementName != "" && r.ReplacementID == "" && r.ReplacementName == f.ReplacementName
		if !byID && !byName {
			return false
		}
	}
	return true
}

func containsEntity(ids []generic.EntityID, id generic.EntityID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func containsStatus(ss []Status, s Status) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
