package timeoff_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/store/memory"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// CALENDAR SNAPSHOT
// =============================================================================

func TestCalendar_WorkingDays(t *testing.T) {
	// GIVEN: A holiday on Wednesday and a working Saturday in the same week
	cal := timeoff.NewCalendar(
		[]generic.Holiday{{ID: "h1", Date: d("2025-03-05"), Name: "Carnaval"}},
		[]timeoff.SaturdayConfig{{Date: d("2025-03-08"), Working: true}},
	)

	// THEN: Mon, Tue, Thu, Fri and the Saturday count
	assert.Equal(t, 5, cal.WorkingDaysBetween(d("2025-03-03"), d("2025-03-09")))
	assert.False(t, cal.IsWorkingDay(d("2025-03-05")))
	assert.True(t, cal.IsWorkingDay(d("2025-03-08")))
	assert.False(t, cal.IsWorkingDay(d("2025-03-15")), "unconfigured saturdays are off")
	assert.False(t, cal.IsWorkingDay(d("2025-03-09")))

	// AND: Fixed counting ignores all of it
	assert.Equal(t, 7.0, cal.CountDays(timeoff.ConsumptionFixed, d("2025-03-03"), d("2025-03-09")).Float64())
	assert.Equal(t, 5.0, cal.CountDays(timeoff.ConsumptionFlexible, d("2025-03-03"), d("2025-03-09")).Float64())
}

func TestCalendar_ReversedRangeIsZero(t *testing.T) {
	cal := timeoff.NewCalendar(nil, nil)

	assert.Zero(t, cal.WorkingDaysBetween(d("2025-03-07"), d("2025-03-03")))
}

func TestCalendar_RecurringHolidayAppliesEveryYear(t *testing.T) {
	cal := timeoff.NewCalendar(
		[]generic.Holiday{{ID: "may", Date: d("2024-05-01"), Name: "Dia del Trabajador", Recurring: true}},
		nil,
	)

	assert.False(t, cal.IsWorkingDay(d("2025-05-01")))
	assert.False(t, cal.IsWorkingDay(d("2027-05-01")))
	assert.True(t, cal.IsWorkingDay(d("2025-05-02")))
}

func TestCalendar_NonWorkingDaysCarryReasons(t *testing.T) {
	cal := timeoff.NewCalendar([]generic.Holiday{{ID: "h1", Date: d("2025-03-05"), Name: "Carnaval"}}, nil)

	days := cal.NonWorkingDays(d("2025-03-03"), d("2025-03-09"))

	require.Len(t, days, 3)
	assert.Equal(t, "2025-03-05", days[0].Date.String())
	assert.Equal(t, "holiday: Carnaval", days[0].Reason)
	assert.Equal(t, timeoff.ReasonSaturday, days[1].Reason)
	assert.Equal(t, timeoff.ReasonSunday, days[2].Reason)
	assert.Len(t, cal.NonWorkingDates(d("2025-03-03"), d("2025-03-09")), 3)
}

func TestCalendar_SingleDayCountsZeroOrOne(t *testing.T) {
	cal := timeoff.NewCalendar(
		[]generic.Holiday{{ID: "h1", Date: d("2025-03-05"), Name: "Carnaval"}},
		[]timeoff.SaturdayConfig{{Date: d("2025-03-08"), Working: true}},
	)

	tests := []struct {
		name string
		day  string
		want int
	}{
		{"weekday", "2025-03-04", 1},
		{"sunday", "2025-03-09", 0},
		{"holiday", "2025-03-05", 0},
		{"unconfigured saturday", "2025-03-15", 0},
		{"working saturday", "2025-03-08", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := d(tt.day)
			assert.Equal(t, tt.want, cal.WorkingDaysBetween(day, day))
			assert.Equal(t, tt.want == 1, cal.IsWorkingDay(day))
		})
	}
}

func TestCalendar_CountIsMonotonic(t *testing.T) {
	cal := timeoff.NewCalendar(
		[]generic.Holiday{
			{ID: "h1", Date: d("2025-03-05"), Name: "Carnaval"},
			{ID: "may", Date: d("2024-05-01"), Name: "Dia del Trabajador", Recurring: true},
		},
		[]timeoff.SaturdayConfig{{Date: d("2025-03-08"), Working: true}},
	)

	tests := []struct {
		name            string
		start, mid, end string
	}{
		{"same week", "2025-03-03", "2025-03-05", "2025-03-09"},
		{"across a working saturday", "2025-03-07", "2025-03-08", "2025-03-10"},
		{"across a recurring holiday", "2025-04-28", "2025-05-01", "2025-05-04"},
		{"year boundary", "2025-12-29", "2025-12-31", "2026-01-09"},
		{"mid equals start", "2025-03-03", "2025-03-03", "2025-03-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, mid, end := d(tt.start), d(tt.mid), d(tt.end)

			short := cal.WorkingDaysBetween(start, mid)
			long := cal.WorkingDaysBetween(start, end)

			assert.LessOrEqual(t, short, long)
			assert.Equal(t, long, short+cal.WorkingDaysBetween(mid.AddDays(1), end),
				"splitting a range keeps the total")
		})
	}
}

// =============================================================================
// HOLIDAY AND SATURDAY UPKEEP
// =============================================================================

func TestRollForward_MovesPastRecurringOnly(t *testing.T) {
	holidays := []generic.Holiday{
		{ID: "may", Date: d("2024-05-01"), Name: "Trabajo", Recurring: true},
		{ID: "xmas", Date: d("2024-12-25"), Name: "Navidad", Recurring: true},
		{ID: "once", Date: d("2024-03-01"), Name: "Elecciones"},
		{ID: "soon", Date: d("2025-09-01"), Name: "Futuro", Recurring: true},
	}

	moved := timeoff.RollForward(holidays, d("2025-06-10"))

	require.Len(t, moved, 2)
	assert.Equal(t, "may", moved[0].ID)
	assert.Equal(t, "2026-05-01", moved[0].Date.String())
	assert.Equal(t, "xmas", moved[1].ID)
	assert.Equal(t, "2025-12-25", moved[1].Date.String())

	// AND: Running it again on the result moves nothing
	assert.Empty(t, timeoff.RollForward(moved, d("2025-06-10")))
}

func TestRollForward_SkipsTakenDate(t *testing.T) {
	holidays := []generic.Holiday{
		{ID: "old", Date: d("2024-05-01"), Name: "Trabajo", Recurring: true},
		{ID: "new", Date: d("2026-05-01"), Name: "Trabajo 2026"},
	}

	assert.Empty(t, timeoff.RollForward(holidays, d("2025-06-10")))
}

func TestAlternatingSaturdays(t *testing.T) {
	_, err := timeoff.AlternatingSaturdays(d("2025-01-06"))
	assert.ErrorIs(t, err, generic.ErrValidation)

	rows, err := timeoff.AlternatingSaturdays(d("2025-01-04"))
	require.NoError(t, err)

	require.Len(t, rows, 52)
	assert.True(t, rows[0].Working)
	assert.False(t, rows[1].Working)
	assert.True(t, rows[2].Working)
	assert.Equal(t, "2025-01-11", rows[1].Date.String())
	assert.Equal(t, "2025-12-27", rows[51].Date.String())
}

func newCalendarService(t *testing.T) (*timeoff.CalendarService, *memory.Memory) {
	t.Helper()
	store := memory.New()
	return timeoff.NewCalendarService(store, discardLogger()), store
}

func TestCalendarService_HolidayUpkeep(t *testing.T) {
	ctx := context.Background()
	cs, _ := newCalendarService(t)
	today := d("2025-06-10")

	_, err := cs.AddHoliday(ctx, ana, today, generic.Holiday{Date: d("2025-07-05"), Name: "Independencia"})
	assert.ErrorIs(t, err, generic.ErrForbidden)

	_, err = cs.AddHoliday(ctx, hr, today, generic.Holiday{Date: d("2025-07-05")})
	assert.ErrorIs(t, err, generic.ErrValidation)

	// WHEN: A recurring holiday is entered with a past date
	h, err := cs.AddHoliday(ctx, hr, today, generic.Holiday{Date: d("2024-01-01"), Name: "Año Nuevo", Recurring: true})
	require.NoError(t, err)

	// THEN: It is stored at its next occurrence
	assert.Equal(t, "2026-01-01", h.Date.String())
	assert.NotEmpty(t, h.ID)

	// AND: A second holiday on the same date conflicts
	_, err = cs.AddHoliday(ctx, hr, today, generic.Holiday{Date: d("2026-01-01"), Name: "Otro"})
	assert.ErrorIs(t, err, generic.ErrConflict)

	n, err := cs.WorkingDaysBetween(ctx, d("2025-12-29"), d("2026-01-02"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, cs.DeleteHoliday(ctx, hr, h.ID))
	list, err := cs.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCalendarService_RangeValidation(t *testing.T) {
	cs, _ := newCalendarService(t)

	_, err := cs.WorkingDaysBetween(context.Background(), d("2025-03-07"), d("2025-03-03"))
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = cs.NonWorkingDays(context.Background(), d("2025-03-07"), d("2025-03-03"))
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestCalendarService_RollForwardRecurring(t *testing.T) {
	ctx := context.Background()
	cs, store := newCalendarService(t)
	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{ID: "may", Date: d("2023-05-01"), Name: "Trabajo", Recurring: true}))

	moved, err := cs.RollForwardRecurring(ctx, d("2025-06-10"))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	list, err := cs.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2026-05-01", list[0].Date.String())

	moved, err = cs.RollForwardRecurring(ctx, d("2025-06-10"))
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestCalendarService_SaturdaySchedule(t *testing.T) {
	ctx := context.Background()
	cs, _ := newCalendarService(t)

	err := cs.SetSaturday(ctx, hr, timeoff.SaturdayConfig{Date: d("2025-03-10"), Working: true})
	assert.ErrorIs(t, err, generic.ErrValidation)

	err = cs.SetSaturday(ctx, mgr, timeoff.SaturdayConfig{Date: d("2025-03-08"), Working: true})
	assert.ErrorIs(t, err, generic.ErrForbidden)

	require.NoError(t, cs.SetSaturday(ctx, hr, timeoff.SaturdayConfig{Date: d("2025-03-08"), Working: true}))
	n, err := cs.WorkingDaysBetween(ctx, d("2025-03-03"), d("2025-03-09"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	written, err := cs.GenerateAlternatingSaturdays(ctx, hr, d("2025-11-01"))
	require.NoError(t, err)
	assert.Equal(t, 9, written)
	sats, err := cs.ListSaturdays(ctx)
	require.NoError(t, err)
	assert.Len(t, sats, 10)

	require.NoError(t, cs.ClearSaturdays(ctx, hr))
	sats, err = cs.ListSaturdays(ctx)
	require.NoError(t, err)
	assert.Empty(t, sats)
}

// =============================================================================
// ACCRUAL
// =============================================================================

func TestAccruedDays_SeniorityTiers(t *testing.T) {
	cases := []struct {
		name  string
		hired string
		today string
		want  int
	}{
		{"first year", "2025-01-02", "2025-06-01", 12},
		{"just under five years", "2020-06-01", "2025-06-01", 12},
		{"six years", "2019-03-01", "2025-06-01", 18},
		{"ten years exactly", "2015-06-02", "2025-06-01", 18},
		{"past ten years", "2014-01-01", "2025-06-01", 30},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, timeoff.AccruedDays(d(c.hired), d(c.today)))
		})
	}
}

func TestEntitlementRuleFor_DefaultDaysOverrideSeniority(t *testing.T) {
	hired, today := d("2010-01-01"), d("2025-06-01")

	paternity := timeoff.LeaveType{ID: "paternidad", DefaultDays: 14}
	assert.Equal(t, 14.0, timeoff.EntitlementRuleFor(paternity).Entitlement(hired, today).Float64())

	assert.Equal(t, 30.0, timeoff.EntitlementRuleFor(timeoff.VacationType()).Entitlement(hired, today).Float64())
}

func TestGenerateYear_OpensMissingBuckets(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GenerateYear(f.ctx, mgr, f.now, 2026)
	assert.ErrorIs(t, err, generic.ErrForbidden)

	// WHEN: HR generates 2025, where Ana already has a bucket
	opened, err := f.svc.GenerateYear(f.ctx, hr, f.now, 2025)
	require.NoError(t, err)

	// THEN: Only the other three are opened, sized by seniority
	assert.Equal(t, 3, opened)
	b, err := f.store.Bucket(f.ctx, generic.BucketKey{EntityID: "luis", ResourceID: timeoff.VacationTypeID, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, 12.0, b.Accrued.Float64())
	b, err = f.store.Bucket(f.ctx, generic.BucketKey{EntityID: "hr", ResourceID: timeoff.VacationTypeID, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, 30.0, b.Accrued.Float64())

	// AND: Running it again opens nothing
	opened, err = f.svc.GenerateYear(f.ctx, hr, f.now, 2025)
	require.NoError(t, err)
	assert.Zero(t, opened)
}

func TestBuckets_ManualMaintenance(t *testing.T) {
	f := newFixture(t)
	key := generic.BucketKey{EntityID: "luis", ResourceID: timeoff.VacationTypeID, Year: 2024}

	_, err := f.svc.AddBucket(f.ctx, hr, f.now, key, generic.Days(4), "carried over")
	require.NoError(t, err)

	_, err = f.svc.AddBucket(f.ctx, hr, f.now, key, generic.Days(4), "again")
	assert.ErrorIs(t, err, generic.ErrConflict)

	_, err = f.svc.OverrideBucket(f.ctx, hr, f.now, key, generic.Days(5), generic.Days(1), "")
	assert.ErrorIs(t, err, generic.ErrValidation)

	b, err := f.svc.OverrideBucket(f.ctx, hr, f.now, key, generic.Days(5), generic.Days(1), "agreement with payroll")
	require.NoError(t, err)
	assert.Equal(t, "agreement with payroll", b.Comment)

	sum, err := f.svc.Balance(f.ctx, luis, "luis", "")
	require.NoError(t, err)
	assert.Equal(t, 4.0, sum.Available().Float64())

	_, err = f.svc.Balance(f.ctx, luis, "ana", "")
	assert.ErrorIs(t, err, generic.ErrForbidden)

	all, err := f.svc.Balances(f.ctx, hr, "ana")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 20.0, all[0].Available().Float64())
}
