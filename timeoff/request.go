/*
request.go - Request lifecycle with transactional guarantees

PURPOSE:
  Creates requests and drives them through the workflow. Every operation
  runs in one store transaction:
    - loads the request and applies any pending time-driven transition
    - checks the (status, action, role) triple against the table
    - applies the ledger effect (deduct, refund) and field changes
    - writes the row with a conditional update on the prior status
    - appends an audit entry
  If ANY step fails, ALL changes are rolled back. Events are sent to the
  Notifier only after commit.

DAY COUNTS AT CREATION:
  FullDay + Flexible: working days in [start, end]
  FullDay + Fixed:    DefaultDays, or the whole available balance when
                      DefaultDays is zero; end = start + days - 1
                      calendar days
  HalfDay:            0.5 on a single working date

CREATION IS REJECTED WHEN:
  - end is before start, or the range holds no working day
  - the type needs balance and the balance is short
  - the type needs an attachment and none (or a missing one) is given
  - the replacement is on approved/active leave overlapping the range
  - the requester is someone's approved/active replacement in the range
  - the requester already has an open request overlapping the range

SEE ALSO:
  - workflow.go: The transition table
  - calendar.go: Working-day counting
  - generic/ledger.go: Deduct/refund
*/
package timeoff

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// CREATE
// =============================================================================

// CreateRequestInput is what a requester submits.
type CreateRequestInput struct {
	EmployeeID     generic.EntityID
	LeaveTypeID    generic.ResourceID
	Type           RequestType
	StartDate      generic.TimePoint
	EndDate        generic.TimePoint // ignored for half days and fixed types
	Turn           HalfDayTurn       // half days only
	ReplacementID  generic.EntityID
	AttachmentPath string
}

// CreateRequest validates and stores a new Pending request. When HR
// files it for someone else, HRApprovalDate is stamped so the manager's
// approval finalizes it.
func (s *Service) CreateRequest(ctx context.Context, actor Actor, now time.Time, in CreateRequestInput) (*Request, error) {
	var created Request
	err := s.Store.WithTx(ctx, func(tx Store) error {
		r, err := s.buildRequest(ctx, tx, actor, now, in)
		if err != nil {
			return err
		}
		if err := tx.CreateRequest(ctx, *r); err != nil {
			return err
		}
		created = *r
		return s.audit(ctx, tx, now, generic.AuditEntry{
			ActorID:     string(actor.ID),
			Action:      generic.AuditRequestCreated,
			EntityID:    r.EmployeeID,
			ReferenceID: r.ID,
			ToStatus:    string(r.Status),
			Payload: map[string]any{
				"leave_type":   string(r.LeaveTypeID),
				"start":        r.StartDate.String(),
				"end":          r.EndDate.String(),
				"days":         r.Days.String(),
				"hr_initiated": r.HRInitiated(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"request_id":  created.ID,
		"employee_id": created.EmployeeID,
		"leave_type":  created.LeaveTypeID,
		"days":        created.Days.String(),
	}).Info("request created")
	s.notify(ctx, []Event{{Action: EventCreated, Request: created, Actor: actor, To: created.Status, At: now}})
	return &created, nil
}

// PreviewRequest runs every creation check and returns the request that
// would be stored, without storing it.
func (s *Service) PreviewRequest(ctx context.Context, actor Actor, now time.Time, in CreateRequestInput) (*Request, error) {
	return s.buildRequest(ctx, s.Store, actor, now, in)
}

func (s *Service) buildRequest(ctx context.Context, store Store, actor Actor, now time.Time, in CreateRequestInput) (*Request, error) {
	if in.EmployeeID == "" {
		in.EmployeeID = actor.ID
	}
	if in.EmployeeID != actor.ID && !actor.IsHR() {
		return nil, &generic.ForbiddenError{ActorID: string(actor.ID), Action: "create request", Reason: "only hr files requests for others"}
	}
	emp, err := store.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !emp.Active {
		return nil, generic.NewValidationError("employee_id", "employee %s is inactive", emp.ID)
	}
	lt, err := s.leaveType(ctx, store, in.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if in.StartDate.IsZero() {
		return nil, generic.NewValidationError("start_date", "start date is required")
	}

	ledger := s.ledger(store, now)
	balance, err := ledger.Balance(ctx, emp.ID, lt.ID)
	if err != nil {
		return nil, err
	}
	cal, err := LoadCalendar(ctx, store)
	if err != nil {
		return nil, err
	}

	r := &Request{
		ID:          s.newID(),
		EmployeeID:  emp.ID,
		LeaveTypeID: lt.ID,
		Type:        in.Type,
		StartDate:   in.StartDate,
		Status:      StatusPending,
		RequestDate: now,
		CreatedBy:   actor.ID,
		UpdatedAt:   now,
	}
	if r.Type == "" {
		r.Type = RequestFullDay
	}

	switch {
	case r.Type == RequestHalfDay:
		if in.Turn != TurnMorning && in.Turn != TurnAfternoon {
			return nil, generic.NewValidationError("turn", "half-day requests need morning or afternoon")
		}
		if !cal.IsWorkingDay(in.StartDate) {
			return nil, generic.NewValidationError("start_date", "%s is not a working day", in.StartDate)
		}
		r.EndDate = in.StartDate
		r.StartTime = string(in.Turn)
		r.Days = HalfDay

	case r.Type == RequestFullDay && lt.ConsumptionType == ConsumptionFixed:
		// The whole balance goes in one block; types without a ledger use
		// their default length.
		days := balance
		if !lt.RequiresBalance {
			days = generic.NewAmountFromInt(lt.DefaultDays, generic.UnitDays)
		}
		if !days.IsPositive() {
			return nil, generic.NewValidationError("days", "no days available for %s", lt.Name)
		}
		r.EndDate = in.StartDate.AddDays(days.CeilInt() - 1)
		r.Days = days

	case r.Type == RequestFullDay:
		if in.EndDate.IsZero() {
			return nil, generic.NewValidationError("end_date", "end date is required")
		}
		if in.EndDate.Before(in.StartDate) {
			return nil, generic.NewValidationError("end_date", "end date %s is before start date %s", in.EndDate, in.StartDate)
		}
		r.EndDate = in.EndDate
		r.Days = cal.CountDays(ConsumptionFlexible, in.StartDate, in.EndDate)
		if r.Days.IsZero() {
			return nil, generic.NewValidationError("end_date", "the range %s holds no working day", r.Period())
		}

	default:
		return nil, generic.NewValidationError("type", "unknown request type %q", in.Type)
	}

	if lt.RequiresBalance && balance.LessThan(r.Days) {
		return nil, &generic.InsufficientBalanceError{
			EntityID:   emp.ID,
			ResourceID: lt.ID,
			Available:  balance,
			Requested:  r.Days,
			Shortfall:  r.Days.Sub(balance),
		}
	}

	if lt.RequiresAttachment {
		path := strings.TrimSpace(in.AttachmentPath)
		if path == "" {
			return nil, generic.NewValidationError("attachment", "%s requires an attachment", lt.Name)
		}
		if s.Attachments != nil && !s.Attachments.Exists(ctx, path) {
			return nil, generic.NewValidationError("attachment", "attachment %q was not found", path)
		}
	}
	r.AttachmentPath = strings.TrimSpace(in.AttachmentPath)

	hrInitiated := actor.IsHR() && actor.ID != emp.ID
	if hrInitiated {
		if in.ReplacementID == "" {
			return nil, generic.NewValidationError("replacement_id", "a replacement is required for requests filed by hr")
		}
		stamp := now
		r.HRApprovalDate = &stamp
	}

	if err := checkAvailability(ctx, store, *emp, in.ReplacementID, r); err != nil {
		return nil, err
	}
	return r, nil
}

// checkAvailability resolves the replacement and enforces the overlap rules.
func checkAvailability(ctx context.Context, store Store, emp Employee, replacementID generic.EntityID, r *Request) error {
	period := r.Period()

	own, err := store.ListRequests(ctx, RequestFilter{
		EmployeeIDs: []generic.EntityID{emp.ID},
		Statuses:    OpenStatuses,
		Overlaps:    &period,
	})
	if err != nil {
		return err
	}
	if len(own) > 0 {
		return &generic.ConflictError{Reason: "the range overlaps request " + own[0].ID}
	}

	if replacementID != "" {
		if replacementID == emp.ID {
			return generic.NewValidationError("replacement_id", "an employee cannot replace themselves")
		}
		rep, err := store.GetEmployee(ctx, replacementID)
		if err != nil {
			return err
		}
		if !rep.Active {
			return generic.NewValidationError("replacement_id", "replacement %s is inactive", rep.ID)
		}
		away, err := store.ListRequests(ctx, RequestFilter{
			EmployeeIDs: []generic.EntityID{rep.ID},
			Statuses:    OnLeaveStatuses,
			Overlaps:    &period,
		})
		if err != nil {
			return err
		}
		if len(away) > 0 {
			return &generic.ConflictError{Reason: rep.FullName + " is on leave during the requested range"}
		}
		r.ReplacementID = rep.ID
		r.ReplacementName = rep.FullName
	}

	covering, err := store.ListRequests(ctx, RequestFilter{
		Statuses:        OnLeaveStatuses,
		Overlaps:        &period,
		ReplacementID:   emp.ID,
		ReplacementName: emp.FullName,
	})
	if err != nil {
		return err
	}
	if len(covering) > 0 {
		return &generic.ConflictError{Reason: emp.FullName + " is the replacement for request " + covering[0].ID + " during the requested range"}
	}
	return nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// change is the mutable context an action's effect works on.
type change struct {
	ctx       context.Context
	tx        Store
	req       *Request
	leaveType LeaveType
	ledger    *generic.Ledger
	to        Status
	now       time.Time
	payload   map[string]any
	log       logrus.FieldLogger
}

func (c *change) deduct(amount generic.Amount) error {
	if !c.leaveType.RequiresBalance || !amount.IsPositive() {
		return nil
	}
	dist, err := c.ledger.Deduct(c.ctx, c.req.EmployeeID, c.leaveType.ID, amount)
	if err != nil {
		return err
	}
	c.payload["deducted"] = dist.Placed.String()
	c.payload["deducted_from"] = allocations(dist)
	c.log.WithFields(logrus.Fields{"leave_type": c.leaveType.ID, "amount": dist.Placed.String()}).Debug("days deducted")
	return nil
}

func (c *change) refund(amount generic.Amount) error {
	if !c.leaveType.RequiresBalance || !amount.IsPositive() {
		return nil
	}
	dist, err := c.ledger.Refund(c.ctx, c.req.EmployeeID, c.leaveType.ID, amount)
	if err != nil {
		return err
	}
	c.payload["refunded"] = dist.Placed.String()
	c.payload["refunded_to"] = allocations(dist)
	if dist.Unplaced.IsPositive() {
		c.payload["unplaced"] = dist.Unplaced.String()
		c.log.WithFields(logrus.Fields{"leave_type": c.leaveType.ID, "unplaced": dist.Unplaced.String()}).Warn("refund exceeds days taken")
	}
	c.log.WithFields(logrus.Fields{"leave_type": c.leaveType.ID, "amount": dist.Placed.String()}).Debug("days refunded")
	return nil
}

func allocations(d generic.Distribution) map[int]string {
	out := make(map[int]string, len(d.Allocations))
	for _, a := range d.Allocations {
		out[a.Year] = a.Amount.String()
	}
	return out
}

type effect func(c *change) error

// apply is the shared read-check-write path of every actor transition.
func (s *Service) apply(ctx context.Context, actor Actor, now time.Time, id string, action Action, auditAction generic.AuditAction, fx effect) (*Request, error) {
	var out Request
	var from Status
	var events []Event
	err := s.Store.WithTx(ctx, func(tx Store) error {
		events = events[:0]
		r, err := tx.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if ev, err := s.refresh(ctx, tx, r, now); err != nil {
			return err
		} else if ev != nil {
			events = append(events, *ev)
		}

		to, err := Transition(*r, action, actor)
		if err != nil {
			return err
		}
		owner, err := tx.GetEmployee(ctx, r.EmployeeID)
		if err != nil {
			return err
		}
		if err := authorize(actor, *owner, action); err != nil {
			return err
		}
		lt, err := s.leaveType(ctx, tx, r.LeaveTypeID)
		if err != nil {
			return err
		}

		from = r.Status
		c := &change{
			ctx:       ctx,
			tx:        tx,
			req:       r,
			leaveType: lt,
			ledger:    s.ledger(tx, now),
			to:        to,
			now:       now,
			payload:   map[string]any{"action": string(action)},
			log:       s.Log.WithField("request_id", r.ID),
		}
		if fx != nil {
			if err := fx(c); err != nil {
				return err
			}
		}
		to = c.to
		r.Status = to
		r.UpdatedAt = now
		if err := updateRequest(ctx, tx, *r, from, action); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, now, generic.AuditEntry{
			ActorID:     string(actor.ID),
			Action:      auditAction,
			EntityID:    r.EmployeeID,
			ReferenceID: r.ID,
			FromStatus:  string(from),
			ToStatus:    string(to),
			Payload:     c.payload,
		}); err != nil {
			return err
		}
		out = *r
		events = append(events, Event{Action: action, Request: *r, Actor: actor, From: from, To: to, At: now})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"request_id":  out.ID,
		"employee_id": out.EmployeeID,
		"action":      action,
		"actor_id":    actor.ID,
		"from":        from,
		"to":          out.Status,
	}).Info("request transitioned")
	s.notify(ctx, events)
	return &out, nil
}

// ManagerApprove signs off a Pending request. A request HR filed goes
// straight to HRApproved and its days are deducted now.
func (s *Service) ManagerApprove(ctx context.Context, actor Actor, now time.Time, id string) (*Request, error) {
	return s.apply(ctx, actor, now, id, ActionManagerApprove, generic.AuditRequestTransitioned, func(c *change) error {
		stamp := c.now
		c.req.ManagerApprovalDate = &stamp
		if c.to == StatusHRApproved {
			return c.deduct(c.req.Days)
		}
		return nil
	})
}

// HRApprove finalizes a ManagerApproved request and deducts its days.
func (s *Service) HRApprove(ctx context.Context, actor Actor, now time.Time, id string) (*Request, error) {
	return s.apply(ctx, actor, now, id, ActionHRApprove, generic.AuditRequestTransitioned, func(c *change) error {
		stamp := c.now
		c.req.HRApprovalDate = &stamp
		return c.deduct(c.req.Days)
	})
}

// Reject ends a Pending or ManagerApproved request. Nothing was deducted yet.
func (s *Service) Reject(ctx context.Context, actor Actor, now time.Time, id string) (*Request, error) {
	return s.apply(ctx, actor, now, id, ActionReject, generic.AuditRequestTransitioned, nil)
}

// RequestCancellation is the requester asking to cancel approved leave.
func (s *Service) RequestCancellation(ctx context.Context, actor Actor, now time.Time, id, reason string) (*Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, generic.NewValidationError("reason", "a cancellation reason is required")
	}
	return s.apply(ctx, actor, now, id, ActionRequestCancellation, generic.AuditRequestTransitioned, func(c *change) error {
		c.req.CancellationReason = reason
		c.payload["reason"] = reason
		return nil
	})
}

// ApproveCancellationByManager forwards a cancellation to HR.
func (s *Service) ApproveCancellationByManager(ctx context.Context, actor Actor, now time.Time, id string) (*Request, error) {
	return s.apply(ctx, actor, now, id, ActionManagerApproveCancel, generic.AuditRequestTransitioned, nil)
}

// ApproveCancellationByHR cancels the request and refunds its days,
// newest bucket first.
func (s *Service) ApproveCancellationByHR(ctx context.Context, actor Actor, now time.Time, id string) (*Request, error) {
	return s.apply(ctx, actor, now, id, ActionHRApproveCancel, generic.AuditRequestTransitioned, func(c *change) error {
		return c.refund(c.req.Days)
	})
}

// RejectCancellation returns a cancellation request to HRApproved.
func (s *Service) RejectCancellation(ctx context.Context, actor Actor, now time.Time, id string) (*Request, error) {
	return s.apply(ctx, actor, now, id, ActionRejectCancellation, generic.AuditRequestTransitioned, nil)
}

// Interrupt shortens approved or active leave when the employee returns
// early. The leave now ends the day before reintegration and the
// difference in days is refunded.
func (s *Service) Interrupt(ctx context.Context, actor Actor, now time.Time, id string, reintegration generic.TimePoint, reason string) (*Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, generic.NewValidationError("reason", "an interruption reason is required")
	}
	if reintegration.IsZero() {
		return nil, generic.NewValidationError("reintegration_date", "reintegration date is required")
	}
	return s.apply(ctx, actor, now, id, ActionInterrupt, generic.AuditRequestInterrupted, func(c *change) error {
		r := c.req
		if r.Type == RequestHalfDay {
			return generic.NewValidationError("reintegration_date", "half-day requests cannot be interrupted")
		}
		if !reintegration.After(r.StartDate) {
			return generic.NewValidationError("reintegration_date", "reintegration %s must be after the start date %s", reintegration, r.StartDate)
		}
		if reintegration.After(r.EndDate) {
			return generic.NewValidationError("reintegration_date", "reintegration %s is after the end date %s", reintegration, r.EndDate)
		}
		cal, err := LoadCalendar(c.ctx, c.tx)
		if err != nil {
			return err
		}
		oldDays, oldEnd := r.Days, r.EndDate
		r.EndDate = reintegration.AddDays(-1)
		r.Days = cal.CountDays(c.leaveType.ConsumptionType, r.StartDate, r.EndDate)
		r.InterruptionReason = reason
		c.payload["reason"] = reason
		c.payload["old_end"] = oldEnd.String()
		c.payload["new_end"] = r.EndDate.String()
		c.payload["old_days"] = oldDays.String()
		c.payload["new_days"] = r.Days.String()
		return c.refund(oldDays.Sub(r.Days))
	})
}

// Modify changes the dates of approved or active leave. Extra days are
// deducted (all or nothing), fewer days are refunded. Active leave moved
// to start after today goes back to HRApproved.
func (s *Service) Modify(ctx context.Context, actor Actor, now time.Time, id string, start, end generic.TimePoint, reason string) (*Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, generic.NewValidationError("reason", "a modification reason is required")
	}
	if start.IsZero() || end.IsZero() {
		return nil, generic.NewValidationError("start_date", "start and end dates are required")
	}
	if end.Before(start) {
		return nil, generic.NewValidationError("end_date", "end date %s is before start date %s", end, start)
	}
	return s.apply(ctx, actor, now, id, ActionModify, generic.AuditRequestModified, func(c *change) error {
		r := c.req
		cal, err := LoadCalendar(c.ctx, c.tx)
		if err != nil {
			return err
		}
		var days generic.Amount
		if r.Type == RequestHalfDay {
			if !start.Equal(end) {
				return generic.NewValidationError("end_date", "a half-day request covers a single date")
			}
			if !cal.IsWorkingDay(start) {
				return generic.NewValidationError("start_date", "%s is not a working day", start)
			}
			days = HalfDay
		} else {
			days = cal.CountDays(c.leaveType.ConsumptionType, start, end)
		}
		if days.IsZero() {
			return generic.NewValidationError("end_date", "the range %s holds no working day", generic.Period{Start: start, End: end})
		}
		if start.Equal(r.StartDate) && end.Equal(r.EndDate) && days.Equal(r.Days) {
			return generic.NewValidationError("dates", "no changes")
		}

		diff := days.Sub(r.Days)
		c.payload["reason"] = reason
		c.payload["old_start"] = r.StartDate.String()
		c.payload["old_end"] = r.EndDate.String()
		c.payload["old_days"] = r.Days.String()
		c.payload["new_days"] = days.String()
		switch {
		case diff.IsPositive():
			if err := c.deduct(diff); err != nil {
				return err
			}
		case diff.IsNegative():
			if err := c.refund(diff.Neg()); err != nil {
				return err
			}
		}
		r.StartDate, r.EndDate, r.Days = start, end, days
		r.ModificationReason = reason
		// Leave moved entirely into the future has not started yet.
		if c.to == StatusActive && start.After(generic.DateOf(c.now)) {
			c.to = StatusHRApproved
		}
		return nil
	})
}

// =============================================================================
// LAZY TIME-DRIVEN REFRESH
// =============================================================================

// refresh applies Advance to r and persists the result.
func (s *Service) refresh(ctx context.Context, tx Store, r *Request, now time.Time) (*Event, error) {
	to, action, ok := Advance(*r, generic.DateOf(now))
	if !ok {
		return nil, nil
	}
	from := r.Status
	r.Status = to
	r.UpdatedAt = now
	if err := tx.UpdateRequest(ctx, *r, from); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, tx, now, generic.AuditEntry{
		ActorID:     string(SystemActor.ID),
		Action:      generic.AuditStatusRefreshed,
		EntityID:    r.EmployeeID,
		ReferenceID: r.ID,
		FromStatus:  string(from),
		ToStatus:    string(to),
	}); err != nil {
		return nil, err
	}
	return &Event{Action: action, Request: *r, Actor: SystemActor, From: from, To: to, At: now}, nil
}

// RefreshStatuses moves approved leave to Active or Completed as of now.
// It runs at the start of every listing; there is no scheduler. Rows
// changed concurrently are skipped and picked up by the next read.
func (s *Service) RefreshStatuses(ctx context.Context, now time.Time) (int, error) {
	var events []Event
	err := s.Store.WithTx(ctx, func(tx Store) error {
		events = events[:0]
		reqs, err := tx.ListRequests(ctx, RequestFilter{Statuses: OnLeaveStatuses})
		if err != nil {
			return err
		}
		for i := range reqs {
			ev, err := s.refresh(ctx, tx, &reqs[i], now)
			if errors.Is(err, generic.ErrConcurrentModification) {
				continue
			}
			if err != nil {
				return err
			}
			if ev != nil {
				events = append(events, *ev)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(events) > 0 {
		s.Log.WithField("count", len(events)).Debug("request statuses refreshed")
	}
	s.notify(ctx, events)
	return len(events), nil
}

// =============================================================================
// READS
// =============================================================================

// GetRequest returns one request, refreshed as of now.
func (s *Service) GetRequest(ctx context.Context, actor Actor, now time.Time, id string) (*Request, error) {
	var out Request
	var events []Event
	err := s.Store.WithTx(ctx, func(tx Store) error {
		events = events[:0]
		r, err := tx.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		owner, err := tx.GetEmployee(ctx, r.EmployeeID)
		if err != nil {
			return err
		}
		if !canSee(actor, *owner) {
			return &generic.ForbiddenError{ActorID: string(actor.ID), Action: "view request", Reason: "not visible to this actor"}
		}
		ev, err := s.refresh(ctx, tx, r, now)
		if err != nil {
			return err
		}
		if ev != nil {
			events = append(events, *ev)
		}
		out = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, events)
	return &out, nil
}

// ListRequests refreshes statuses and returns the requests actor may see
// that match f.
func (s *Service) ListRequests(ctx context.Context, actor Actor, now time.Time, f RequestFilter) ([]Request, error) {
	if _, err := s.RefreshStatuses(ctx, now); err != nil {
		return nil, err
	}
	if !actor.CanReadAll() {
		visible, err := s.visibleEmployees(ctx, actor)
		if err != nil {
			return nil, err
		}
		f.EmployeeIDs = intersect(f.EmployeeIDs, visible)
		if len(f.EmployeeIDs) == 0 {
			return nil, nil
		}
	}
	return s.Store.ListRequests(ctx, f)
}

// Inbox lists the requests waiting on actor: team requests at the
// manager stage, and for HR everything at the HR stage.
func (s *Service) Inbox(ctx context.Context, actor Actor, now time.Time) ([]Request, error) {
	if _, err := s.RefreshStatuses(ctx, now); err != nil {
		return nil, err
	}
	var out []Request
	team, err := s.team(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(team) > 0 && (actor.Role == RoleManager || actor.Role == RoleHR) {
		reqs, err := s.Store.ListRequests(ctx, RequestFilter{
			EmployeeIDs: team,
			Statuses:    []Status{StatusPending, StatusCancelRequestedByManager},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, reqs...)
	}
	if actor.IsHR() {
		reqs, err := s.Store.ListRequests(ctx, RequestFilter{
			Statuses: []Status{StatusManagerApproved, StatusCancelRequestedByHR},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, reqs...)
	}
	return out, nil
}

// History returns the audit trail of one request.
func (s *Service) History(ctx context.Context, actor Actor, id string) ([]generic.AuditEntry, error) {
	r, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.Store.GetEmployee(ctx, r.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, *owner) {
		return nil, &generic.ForbiddenError{ActorID: string(actor.ID), Action: "view history", Reason: "not visible to this actor"}
	}
	return s.Store.QueryAudit(ctx, generic.AuditFilter{ReferenceID: &id})
}

func (s *Service) team(ctx context.Context, managerID generic.EntityID) ([]generic.EntityID, error) {
	emps, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	var ids []generic.EntityID
	for _, e := range emps {
		if e.ManagedBy(managerID) {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

func (s *Service) visibleEmployees(ctx context.Context, actor Actor) ([]generic.EntityID, error) {
	ids := []generic.EntityID{actor.ID}
	if actor.Role != RoleManager {
		return ids, nil
	}
	team, err := s.team(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return append(ids, team...), nil
}

// intersect narrows requested to allowed; an empty request means all allowed.
func intersect(requested, allowed []generic.EntityID) []generic.EntityID {
	if len(requested) == 0 {
		return allowed
	}
	var out []generic.EntityID
	for _, id := range requested {
		if containsEntity(allowed, id) {
			out = append(out, id)
		}
	}
	return out
}
