/*
calendar.go - Working days, holidays and the Saturday schedule

PURPOSE:
  Answers "which dates in this range are non-working" and "how many
  working days lie between two dates". The answer is a pure function of a
  Calendar snapshot (holiday table + Saturday table), so it can be
  computed anywhere without locks.

NON-WORKING RULES (any one is enough):
  1. The date is a Sunday.
  2. The date is a holiday. Literal holidays match their stored date;
     recurring ones match month/day in every year from the range start
     through one year past the range end.
  3. The date is a Saturday without an explicit working row.

BOOKKEEPING:
  CalendarService also owns the HR-facing upkeep of those tables:
  rolling recurring holidays forward past today and generating an
  alternating working/non-working Saturday schedule. Neither affects the
  working-day computation, which re-projects recurring holidays for every
  query.

SEE ALSO:
  - generic/time.go: Holiday projection helpers
  - request.go: Counts days when requests are created or edited
*/
package timeoff

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// CALENDAR SNAPSHOT - pure computation
// =============================================================================

// Calendar is an immutable snapshot of the holiday and Saturday tables.
type Calendar struct {
	holidays  []generic.Holiday
	saturdays map[string]bool
}

// NonWorkingDay is a non-working date with the rule that made it so.
type NonWorkingDay struct {
	Date   generic.TimePoint
	Reason string
}

const (
	ReasonSunday   = "sunday"
	ReasonSaturday = "saturday"
)

func NewCalendar(holidays []generic.Holiday, saturdays []SaturdayConfig) *Calendar {
	c := &Calendar{
		holidays:  append([]generic.Holiday(nil), holidays...),
		saturdays: make(map[string]bool, len(saturdays)),
	}
	for _, s := range saturdays {
		c.saturdays[s.Date.String()] = s.Working
	}
	return c
}

// holidaySet projects every holiday onto the years the range touches,
// plus one more.
func (c *Calendar) holidaySet(p generic.Period) map[string]string {
	set := make(map[string]string)
	for _, h := range c.holidays {
		for _, d := range h.OccurrencesIn(p.Start.Year(), p.End.Year()+1) {
			set[d.String()] = h.Name
		}
	}
	return set
}

func (c *Calendar) reason(d generic.TimePoint, holidays map[string]string) (string, bool) {
	if d.IsSunday() {
		return ReasonSunday, true
	}
	if name, ok := holidays[d.String()]; ok {
		return "holiday: " + name, true
	}
	if d.IsSaturday() && !c.saturdays[d.String()] {
		return ReasonSaturday, true
	}
	return "", false
}

// NonWorkingDays lists the non-working dates in [start, end] in order.
func (c *Calendar) NonWorkingDays(start, end generic.TimePoint) []NonWorkingDay {
	p := generic.Period{Start: start, End: end}
	holidays := c.holidaySet(p)
	var out []NonWorkingDay
	for _, d := range p.Days() {
		if why, ok := c.reason(d, holidays); ok {
			out = append(out, NonWorkingDay{Date: d, Reason: why})
		}
	}
	return out
}

// NonWorkingDates is NonWorkingDays without the reasons.
func (c *Calendar) NonWorkingDates(start, end generic.TimePoint) []generic.TimePoint {
	days := c.NonWorkingDays(start, end)
	out := make([]generic.TimePoint, len(days))
	for i, d := range days {
		out[i] = d.Date
	}
	return out
}

// IsWorkingDay reports whether d counts toward a flexible request.
func (c *Calendar) IsWorkingDay(d generic.TimePoint) bool {
	_, off := c.reason(d, c.holidaySet(generic.Period{Start: d, End: d}))
	return !off
}

// WorkingDaysBetween counts working days in [start, end] inclusive.
// A reversed range counts zero; callers reject it before asking.
func (c *Calendar) WorkingDaysBetween(start, end generic.TimePoint) int {
	if end.Before(start) {
		return 0
	}
	p := generic.Period{Start: start, End: end}
	holidays := c.holidaySet(p)
	n := 0
	for _, d := range p.Days() {
		if _, off := c.reason(d, holidays); !off {
			n++
		}
	}
	return n
}

// CountDays returns what a full-day request over [start, end] consumes
// under the given consumption type.
func (c *Calendar) CountDays(ct ConsumptionType, start, end generic.TimePoint) generic.Amount {
	if ct == ConsumptionFixed {
		return generic.NewAmountFromInt(generic.Period{Start: start, End: end}.Length(), generic.UnitDays)
	}
	return generic.NewAmountFromInt(c.WorkingDaysBetween(start, end), generic.UnitDays)
}

// LoadCalendar snapshots the holiday and Saturday tables of store.
func LoadCalendar(ctx context.Context, store CalendarStore) (*Calendar, error) {
	holidays, err := store.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	saturdays, err := store.ListSaturdays(ctx)
	if err != nil {
		return nil, fmt.Errorf("load saturday schedule: %w", err)
	}
	return NewCalendar(holidays, saturdays), nil
}

// =============================================================================
// BOOKKEEPING - pure helpers
// =============================================================================

// RollForward returns the recurring holidays whose stored date is before
// today, moved to their next occurrence. A move onto a date already held
// by another holiday is skipped. Running it twice changes nothing more.
func RollForward(holidays []generic.Holiday, today generic.TimePoint) []generic.Holiday {
	taken := make(map[string]string, len(holidays))
	for _, h := range holidays {
		taken[h.Date.String()] = h.ID
	}
	var moved []generic.Holiday
	for _, h := range holidays {
		next := h.NextOccurrence(today)
		if next.Equal(h.Date) {
			continue
		}
		if owner, ok := taken[next.String()]; ok && owner != h.ID {
			continue
		}
		delete(taken, h.Date.String())
		taken[next.String()] = h.ID
		h.Date = next
		moved = append(moved, h)
	}
	return moved
}

// AlternatingSaturdays marks start as working and alternates
// non-working/working every week through the end of start's year.
func AlternatingSaturdays(start generic.TimePoint) ([]SaturdayConfig, error) {
	if !start.IsSaturday() {
		return nil, generic.NewValidationError("start_date", "%s is not a Saturday", start)
	}
	end := generic.EndOfYear(start.Year())
	var out []SaturdayConfig
	working := true
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(7) {
		out = append(out, SaturdayConfig{Date: d, Working: working})
		working = !working
	}
	return out, nil
}

// =============================================================================
// CALENDAR SERVICE - store-backed operations
// =============================================================================

// CalendarService exposes the calendar to callers and HR upkeep.
type CalendarService struct {
	Store CalendarStore
	Log   logrus.FieldLogger
}

func NewCalendarService(store CalendarStore, log logrus.FieldLogger) *CalendarService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CalendarService{Store: store, Log: log}
}

// WorkingDaysBetween counts working days in [start, end].
func (s *CalendarService) WorkingDaysBetween(ctx context.Context, start, end generic.TimePoint) (int, error) {
	if end.Before(start) {
		return 0, generic.NewValidationError("end_date", "end date %s is before start date %s", end, start)
	}
	cal, err := LoadCalendar(ctx, s.Store)
	if err != nil {
		return 0, err
	}
	return cal.WorkingDaysBetween(start, end), nil
}

// NonWorkingDays lists non-working dates in [start, end] with reasons.
func (s *CalendarService) NonWorkingDays(ctx context.Context, start, end generic.TimePoint) ([]NonWorkingDay, error) {
	if end.Before(start) {
		return nil, generic.NewValidationError("end_date", "end date %s is before start date %s", end, start)
	}
	cal, err := LoadCalendar(ctx, s.Store)
	if err != nil {
		return nil, err
	}
	return cal.NonWorkingDays(start, end), nil
}

// ListHolidays returns the holiday table ordered by date.
func (s *CalendarService) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	hs, err := s.Store.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i].Date.Before(hs[j].Date) })
	return hs, nil
}

// AddHoliday stores a holiday. A recurring holiday whose date has already
// passed is stored at its next occurrence.
func (s *CalendarService) AddHoliday(ctx context.Context, actor Actor, today generic.TimePoint, h generic.Holiday) (*generic.Holiday, error) {
	if err := requireHR(actor, "add holiday"); err != nil {
		return nil, err
	}
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return nil, generic.NewValidationError("name", "description is required")
	}
	if h.Date.IsZero() {
		return nil, generic.NewValidationError("date", "date is required")
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.Date = h.NextOccurrence(today)
	if err := s.Store.SaveHoliday(ctx, h); err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"holiday": h.Name, "date": h.Date.String(), "recurring": h.Recurring}).
		Info("holiday added")
	return &h, nil
}

func (s *CalendarService) DeleteHoliday(ctx context.Context, actor Actor, id string) error {
	if err := requireHR(actor, "delete holiday"); err != nil {
		return err
	}
	return s.Store.DeleteHoliday(ctx, id)
}

// RollForwardRecurring moves stale recurring holidays past today and
// returns how many moved.
func (s *CalendarService) RollForwardRecurring(ctx context.Context, today generic.TimePoint) (int, error) {
	hs, err := s.Store.ListHolidays(ctx)
	if err != nil {
		return 0, err
	}
	moved := RollForward(hs, today)
	for _, h := range moved {
		if err := s.Store.SaveHoliday(ctx, h); err != nil {
			return 0, fmt.Errorf("roll holiday %s forward: %w", h.ID, err)
		}
	}
	if len(moved) > 0 {
		s.Log.WithField("moved", len(moved)).Info("recurring holidays rolled forward")
	}
	return len(moved), nil
}

// ListSaturdays returns the configured Saturdays ordered by date.
func (s *CalendarService) ListSaturdays(ctx context.Context) ([]SaturdayConfig, error) {
	sats, err := s.Store.ListSaturdays(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(sats, func(i, j int) bool { return sats[i].Date.Before(sats[j].Date) })
	return sats, nil
}

// SetSaturday records whether one Saturday is working.
func (s *CalendarService) SetSaturday(ctx context.Context, actor Actor, cfg SaturdayConfig) error {
	if err := requireHR(actor, "configure saturday"); err != nil {
		return err
	}
	if !cfg.Date.IsSaturday() {
		return generic.NewValidationError("date", "%s is not a Saturday", cfg.Date)
	}
	return s.Store.SaveSaturday(ctx, cfg)
}

// GenerateAlternatingSaturdays writes the alternating schedule from start
// to year end, replacing rows for the same dates. Returns rows written.
func (s *CalendarService) GenerateAlternatingSaturdays(ctx context.Context, actor Actor, start generic.TimePoint) (int, error) {
	if err := requireHR(actor, "generate saturday schedule"); err != nil {
		return 0, err
	}
	rows, err := AlternatingSaturdays(start)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		if err := s.Store.SaveSaturday(ctx, r); err != nil {
			return 0, fmt.Errorf("save saturday %s: %w", r.Date, err)
		}
	}
	s.Log.WithFields(logrus.Fields{"from": start.String(), "rows": len(rows)}).Info("saturday schedule generated")
	return len(rows), nil
}

// ClearSaturdays removes every Saturday row, making all Saturdays non-working.
func (s *CalendarService) ClearSaturdays(ctx context.Context, actor Actor) error {
	if err := requireHR(actor, "clear saturday schedule"); err != nil {
		return err
	}
	return s.Store.ClearSaturdays(ctx)
}
