/*
daysoff.go - Day-level views of leave requests

PURPOSE:
  Requests store a date range and a day count. People planning work
  think in single dates: "is Ana off on the 14th?", "who is out next
  week?". This file expands requests into those views.

QUERYING:
  - DaysOff(employee, from, to): every date an employee is (or will be) off
  - IsDayOff(employee, date): single-date check
  - TeamCalendar(from, to): approved absences of the whole roster plus
    the non-working dates in the range
  - Stats(year): HR dashboard counters

DAY EXPANSION:
  Flexible types count working days only, so their non-working dates are
  left out. Fixed types run on consecutive calendar days and every date
  is listed. A half day is one date worth 0.5.

SEE ALSO:
  - calendar.go: Working-day rules
  - workflow.go: Status sets
*/
package timeoff

import (
	"context"
	"sort"
	"time"

	"github.com/warp/leave-engine/generic"
)

// DayOff is one date of leave.
type DayOff struct {
	Date        generic.TimePoint
	EmployeeID  generic.EntityID
	LeaveTypeID generic.ResourceID
	Amount      generic.Amount
	Status      DayOffStatus
	RequestID   string
}

// DayOffStatus folds the request workflow into what a planner cares about.
type DayOffStatus string

const (
	DayOffApproved DayOffStatus = "approved"
	DayOffPending  DayOffStatus = "pending"
)

func dayOffStatus(s Status) (DayOffStatus, bool) {
	switch s {
	case StatusPending, StatusManagerApproved:
		return DayOffPending, true
	case StatusHRApproved, StatusActive, StatusCompleted,
		StatusCancelRequestedByManager, StatusCancelRequestedByHR:
		return DayOffApproved, true
	}
	return "", false
}

// Absence is an approved request as shown on the team calendar.
type Absence struct {
	RequestID     string
	EmployeeID    generic.EntityID
	EmployeeName  string
	LeaveTypeID   generic.ResourceID
	LeaveTypeName string
	Start         generic.TimePoint
	End           generic.TimePoint
	Status        Status
}

// TeamCalendar is the shared view of who is away and which dates are
// not worked.
type TeamCalendar struct {
	Absences       []Absence
	NonWorkingDays []NonWorkingDay
}

// Stats are the HR dashboard counters for one year.
type Stats struct {
	Year             int
	ActiveEmployees  int
	PendingRequests  int
	DaysApproved     generic.Amount
	RequestsPerMonth [12]int
}

// =============================================================================
// DAYS OFF
// =============================================================================

// DaysOff lists the dates in [from, to] employeeID is off or has asked
// to be off, ordered by date.
func (s *Service) DaysOff(ctx context.Context, actor Actor, now time.Time, employeeID generic.EntityID, from, to generic.TimePoint) ([]DayOff, error) {
	period, err := generic.NewPeriod(from, to)
	if err != nil {
		return nil, err
	}
	owner, err := s.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, *owner) {
		return nil, &generic.ForbiddenError{ActorID: string(actor.ID), Action: "view days off", Reason: "not visible to this actor"}
	}
	if _, err := s.RefreshStatuses(ctx, now); err != nil {
		return nil, err
	}
	reqs, err := s.Store.ListRequests(ctx, RequestFilter{
		EmployeeIDs: []generic.EntityID{employeeID},
		Statuses:    append(append([]Status{}, OpenStatuses...), StatusCompleted),
		Overlaps:    &period,
	})
	if err != nil {
		return nil, err
	}
	cal, err := LoadCalendar(ctx, s.Store)
	if err != nil {
		return nil, err
	}
	types, err := s.leaveTypeIndex(ctx)
	if err != nil {
		return nil, err
	}

	var out []DayOff
	for _, r := range reqs {
		status, ok := dayOffStatus(r.Status)
		if !ok {
			continue
		}
		out = append(out, expand(r, types[r.LeaveTypeID], cal, period, status)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// IsDayOff reports whether employeeID is off on date, returning the day
// when so.
func (s *Service) IsDayOff(ctx context.Context, actor Actor, now time.Time, employeeID generic.EntityID, date generic.TimePoint) (bool, *DayOff, error) {
	days, err := s.DaysOff(ctx, actor, now, employeeID, date, date)
	if err != nil {
		return false, nil, err
	}
	for _, d := range days {
		if d.Date.Equal(date) {
			return true, &d, nil
		}
	}
	return false, nil, nil
}

func expand(r Request, lt LeaveType, cal *Calendar, window generic.Period, status DayOffStatus) []DayOff {
	day := DayOff{EmployeeID: r.EmployeeID, LeaveTypeID: r.LeaveTypeID, Status: status, RequestID: r.ID}
	if r.Type == RequestHalfDay {
		day.Date = r.StartDate
		day.Amount = HalfDay
		return []DayOff{day}
	}
	var out []DayOff
	for _, d := range r.Period().Days() {
		if !window.Contains(d) {
			continue
		}
		if lt.ConsumptionType != ConsumptionFixed && !cal.IsWorkingDay(d) {
			continue
		}
		day.Date = d
		day.Amount = generic.Days(1)
		out = append(out, day)
	}
	return out
}

func (s *Service) leaveTypeIndex(ctx context.Context) (map[generic.ResourceID]LeaveType, error) {
	types, err := s.ListLeaveTypes(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[generic.ResourceID]LeaveType, len(types))
	for _, lt := range types {
		idx[lt.ID] = lt
	}
	return idx, nil
}

// =============================================================================
// TEAM CALENDAR
// =============================================================================

// TeamCalendar lists approved absences overlapping [from, to] across the
// roster, plus the non-working dates of the range. Every employee may
// read it; it carries names and leave types only.
func (s *Service) TeamCalendar(ctx context.Context, actor Actor, now time.Time, from, to generic.TimePoint) (*TeamCalendar, error) {
	period, err := generic.NewPeriod(from, to)
	if err != nil {
		return nil, err
	}
	if _, err := s.RefreshStatuses(ctx, now); err != nil {
		return nil, err
	}
	reqs, err := s.Store.ListRequests(ctx, RequestFilter{
		Statuses: []Status{StatusHRApproved, StatusActive, StatusCompleted,
			StatusCancelRequestedByManager, StatusCancelRequestedByHR},
		Overlaps: &period,
	})
	if err != nil {
		return nil, err
	}
	emps, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[generic.EntityID]string, len(emps))
	for _, e := range emps {
		names[e.ID] = e.FullName
	}
	types, err := s.leaveTypeIndex(ctx)
	if err != nil {
		return nil, err
	}
	cal, err := LoadCalendar(ctx, s.Store)
	if err != nil {
		return nil, err
	}

	out := &TeamCalendar{NonWorkingDays: cal.NonWorkingDays(from, to)}
	for _, r := range reqs {
		out.Absences = append(out.Absences, Absence{
			RequestID:     r.ID,
			EmployeeID:    r.EmployeeID,
			EmployeeName:  names[r.EmployeeID],
			LeaveTypeID:   r.LeaveTypeID,
			LeaveTypeName: types[r.LeaveTypeID].Name,
			Start:         r.StartDate,
			End:           r.EndDate,
			Status:        r.Status,
		})
	}
	sort.SliceStable(out.Absences, func(i, j int) bool { return out.Absences[i].Start.Before(out.Absences[j].Start) })
	return out, nil
}

// =============================================================================
// STATS
// =============================================================================

// Stats computes the HR dashboard counters for year. HR and HR
// assistants only.
func (s *Service) Stats(ctx context.Context, actor Actor, now time.Time, year int) (*Stats, error) {
	if !actor.CanReadAll() {
		return nil, &generic.ForbiddenError{ActorID: string(actor.ID), Action: "view stats", Reason: "requires an hr role"}
	}
	if _, err := s.RefreshStatuses(ctx, now); err != nil {
		return nil, err
	}
	emps, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := s.Store.ListRequests(ctx, RequestFilter{})
	if err != nil {
		return nil, err
	}

	st := &Stats{Year: year, DaysApproved: generic.Days(0)}
	for _, e := range emps {
		if e.Active {
			st.ActiveEmployees++
		}
	}
	for _, r := range reqs {
		switch r.Status {
		case StatusPending, StatusManagerApproved:
			st.PendingRequests++
		case StatusHRApproved, StatusActive, StatusCompleted:
			if r.StartDate.Year() == year {
				st.DaysApproved = st.DaysApproved.Add(r.Days)
			}
		}
		if r.RequestDate.Year() == year {
			st.RequestsPerMonth[r.RequestDate.Month()-1]++
		}
	}
	return st, nil
}
