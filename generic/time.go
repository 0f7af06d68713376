package generic

import (
	"time"
)

// =============================================================================
// TIME POINT - A calendar date (leave is always booked in whole dates)
// =============================================================================

// DateLayout is the ISO layout used for every stored and transported date.
const DateLayout = "2006-01-02"

// TimePoint is a calendar date at UTC midnight.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping the date as seen in t's location.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, err
	}
	return DateOf(t), nil
}

func MustParseDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsSaturday() bool      { return tp.Weekday() == time.Saturday }
func (tp TimePoint) IsSunday() bool        { return tp.Weekday() == time.Sunday }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) String() string        { return tp.Time.Format(DateLayout) }

// =============================================================================
// HOLIDAY - A non-working date, literal or recurring every year
// =============================================================================

// Holiday is a company holiday. A recurring holiday applies on its
// month/day in every year; the stored year only matters for bookkeeping.
type Holiday struct {
	ID        string
	Date      TimePoint
	Name      string
	Recurring bool
}

// OccurrencesIn returns the dates the holiday falls on for years
// fromYear..toYear inclusive. A recurring Feb 29 is skipped in common years.
func (h Holiday) OccurrencesIn(fromYear, toYear int) []TimePoint {
	if !h.Recurring {
		if h.Date.Year() < fromYear || h.Date.Year() > toYear {
			return nil
		}
		return []TimePoint{h.Date}
	}
	var out []TimePoint
	for y := fromYear; y <= toYear; y++ {
		d := NewTimePoint(y, h.Date.Month(), h.Date.Day())
		if d.Month() != h.Date.Month() {
			continue
		}
		out = append(out, d)
	}
	return out
}

// NextOccurrence moves a recurring holiday to its first date on or after
// today. A Feb 29 holiday lands on Mar 1 in common years.
func (h Holiday) NextOccurrence(today TimePoint) TimePoint {
	if !h.Recurring || !h.Date.Before(today) {
		return h.Date
	}
	candidate := anniversaryIn(h.Date, today.Year())
	if candidate.Before(today) {
		candidate = anniversaryIn(h.Date, today.Year()+1)
	}
	return candidate
}

func anniversaryIn(d TimePoint, year int) TimePoint {
	c := NewTimePoint(year, d.Month(), d.Day())
	if c.Month() != d.Month() {
		return NewTimePoint(year, time.March, 1)
	}
	return c
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns the signed number of calendar days from -> to.
func DaysBetween(from, to TimePoint) int { return int(to.Time.Sub(from.Time).Hours() / 24) }
func StartOfYear(year int) TimePoint     { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint       { return NewTimePoint(year, time.December, 31) }
