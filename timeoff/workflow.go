/*
workflow.go - Request status enumeration and the transition table

PURPOSE:
  Every status change a request can make is listed in one table. The
  Transition function is the single place that decides whether an
  (status, action) pair is legal and which role may perform it; service
  code never compares status strings on its own.

STATE MACHINE:

  Pending --manager_approve--> ManagerApproved --hr_approve--> HRApproved
     |   \--manager_approve (HR-initiated)-----------------------^
     |                              |
     +--reject--> Rejected <--reject+

  HRApproved --activate--> Active --complete--> Completed
  HRApproved --complete--> Completed
  HRApproved --request_cancellation--> CancelRequestedByManager
  CancelRequestedByManager --manager_approve_cancellation--> CancelRequestedByHR
  CancelRequestedByHR --hr_approve_cancellation--> Cancelled
  CancelRequestedBy{Manager,HR} --reject_cancellation--> HRApproved
  HRApproved|Active --interrupt|modify--> (same status)

LEDGER EFFECTS (applied by the service, not here):
  Deduct: hr_approve, and manager_approve on an HR-initiated request
  Refund: hr_approve_cancellation; interrupt and modify by the delta

TIME-DRIVEN TRANSITIONS:
  activate and complete are performed by the system actor whenever a
  read path refreshes a request. See Advance.

SEE ALSO:
  - request.go: Service methods that drive these transitions
*/
package timeoff

import (
	"fmt"
	"sort"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the closed set of request states.
type Status string

const (
	StatusPending                  Status = "pending"
	StatusManagerApproved          Status = "manager_approved"
	StatusHRApproved               Status = "hr_approved"
	StatusActive                   Status = "active"
	StatusCompleted                Status = "completed"
	StatusRejected                 Status = "rejected"
	StatusCancelRequestedByManager Status = "cancel_requested_by_manager"
	StatusCancelRequestedByHR      Status = "cancel_requested_by_hr"
	StatusCancelled                Status = "cancelled"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{
	StatusPending,
	StatusManagerApproved,
	StatusHRApproved,
	StatusActive,
	StatusCompleted,
	StatusRejected,
	StatusCancelRequestedByManager,
	StatusCancelRequestedByHR,
	StatusCancelled,
}

// ParseStatus rejects anything outside the enumeration.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", generic.NewValidationError("status", "unknown status %q", s)
}

// IsTerminal reports whether no action can leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

// Commits reports whether days are booked against the ledger in this status.
func (s Status) Commits() bool {
	switch s {
	case StatusHRApproved, StatusActive, StatusCancelRequestedByManager, StatusCancelRequestedByHR:
		return true
	}
	return false
}

// OpenStatuses are the statuses that still claim the requested dates.
var OpenStatuses = []Status{
	StatusPending,
	StatusManagerApproved,
	StatusHRApproved,
	StatusActive,
	StatusCancelRequestedByManager,
	StatusCancelRequestedByHR,
}

// OnLeaveStatuses are the statuses in which the employee is away (or will be).
var OnLeaveStatuses = []Status{StatusHRApproved, StatusActive}

// =============================================================================
// ACTIONS AND THE TRANSITION TABLE
// =============================================================================

// Action names a request operation.
type Action string

const (
	ActionManagerApprove       Action = "manager_approve"
	ActionHRApprove            Action = "hr_approve"
	ActionReject               Action = "reject"
	ActionRequestCancellation  Action = "request_cancellation"
	ActionManagerApproveCancel Action = "manager_approve_cancellation"
	ActionHRApproveCancel      Action = "hr_approve_cancellation"
	ActionRejectCancellation   Action = "reject_cancellation"
	ActionInterrupt            Action = "interrupt"
	ActionModify               Action = "modify"
	ActionActivate             Action = "activate"
	ActionComplete             Action = "complete"
)

type rule struct {
	to    Status
	roles []Role

	// fastPath replaces to when the request was created by HR.
	fastPath Status
}

var (
	approvers  = []Role{RoleManager, RoleHR}
	hrOnly     = []Role{RoleHR}
	requesters = []Role{RoleEmployee, RoleManager, RoleHR, RoleHRAssistant}
	system     = []Role{RoleSystem}
)

var transitions = map[Status]map[Action]rule{
	StatusPending: {
		ActionManagerApprove: {to: StatusManagerApproved, roles: approvers, fastPath: StatusHRApproved},
		ActionReject:         {to: StatusRejected, roles: approvers},
	},
	StatusManagerApproved: {
		ActionHRApprove: {to: StatusHRApproved, roles: hrOnly},
		ActionReject:    {to: StatusRejected, roles: approvers},
	},
	StatusHRApproved: {
		ActionActivate:            {to: StatusActive, roles: system},
		ActionComplete:            {to: StatusCompleted, roles: system},
		ActionRequestCancellation: {to: StatusCancelRequestedByManager, roles: requesters},
		ActionInterrupt:           {to: StatusHRApproved, roles: hrOnly},
		ActionModify:              {to: StatusHRApproved, roles: hrOnly},
	},
	StatusActive: {
		ActionComplete:  {to: StatusCompleted, roles: system},
		ActionInterrupt: {to: StatusActive, roles: hrOnly},
		ActionModify:    {to: StatusActive, roles: hrOnly},
	},
	StatusCancelRequestedByManager: {
		ActionManagerApproveCancel: {to: StatusCancelRequestedByHR, roles: approvers},
		ActionRejectCancellation:   {to: StatusHRApproved, roles: hrOnly},
	},
	StatusCancelRequestedByHR: {
		ActionHRApproveCancel:    {to: StatusCancelled, roles: hrOnly},
		ActionRejectCancellation: {to: StatusHRApproved, roles: hrOnly},
	},
}

// Transition returns the status req moves to when role performs action.
// Pairs not in the table yield an InvalidTransitionError; a listed pair
// performed by the wrong role yields a ForbiddenError.
func Transition(req Request, action Action, actor Actor) (Status, error) {
	r, ok := transitions[req.Status][action]
	if !ok {
		return "", &generic.InvalidTransitionError{From: string(req.Status), Action: string(action)}
	}
	if !hasRole(r.roles, actor.Role) {
		return "", &generic.ForbiddenError{
			ActorID: string(actor.ID),
			Action:  string(action),
			Reason:  fmt.Sprintf("role %q cannot perform it", actor.Role),
		}
	}
	if r.fastPath != "" && req.HRInitiated() {
		return r.fastPath, nil
	}
	return r.to, nil
}

// Allowed lists the actions role may take on a request in status s.
func Allowed(s Status, role Role) []Action {
	var out []Action
	for a, r := range transitions[s] {
		if hasRole(r.roles, role) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func hasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// =============================================================================
// TIME-DRIVEN ADVANCE
// =============================================================================

// Advance computes the time-driven transition for req as of today:
// HRApproved covering today becomes Active, and HRApproved or Active past
// its end date becomes Completed. It is a pure function; ok is false when
// nothing changes.
func Advance(req Request, today generic.TimePoint) (Status, Action, bool) {
	var action Action
	switch {
	case (req.Status == StatusHRApproved || req.Status == StatusActive) && req.EndDate.Before(today):
		action = ActionComplete
	case req.Status == StatusHRApproved && req.Period().Contains(today):
		action = ActionActivate
	default:
		return req.Status, "", false
	}
	to, err := Transition(req, action, SystemActor)
	if err != nil {
		return req.Status, "", false
	}
	return to, action, true
}
