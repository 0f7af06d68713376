package timeoff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

func TestDaysOff_ExpandsRequests(t *testing.T) {
	f := newFixture(t)

	// GIVEN: An approved flexible week and a pending half day
	f.approved(ana, vacation("2025-03-03", "2025-03-09"))
	f.create(ana, timeoff.CreateRequestInput{Type: timeoff.RequestHalfDay, Turn: timeoff.TurnMorning, StartDate: d("2025-03-12")})

	// WHEN: Listing March
	days, err := f.svc.DaysOff(f.ctx, ana, f.now, "ana", d("2025-03-01"), d("2025-03-31"))
	require.NoError(t, err)

	// THEN: The weekend is left out and the half day is worth 0.5
	require.Len(t, days, 6)
	assert.Equal(t, "2025-03-03", days[0].Date.String())
	assert.Equal(t, timeoff.DayOffApproved, days[0].Status)
	assert.Equal(t, "2025-03-07", days[4].Date.String())
	assert.Equal(t, "2025-03-12", days[5].Date.String())
	assert.Equal(t, 0.5, days[5].Amount.Float64())
	assert.Equal(t, timeoff.DayOffPending, days[5].Status)
}

func TestDaysOff_FixedListsEveryDate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AssignLeaveType(f.ctx, hr, f.now, "luis", "paternidad")
	require.NoError(t, err)
	f.create(luis, timeoff.CreateRequestInput{LeaveTypeID: "paternidad", StartDate: d("2025-03-03"), AttachmentPath: "cert.pdf"})

	days, err := f.svc.DaysOff(f.ctx, mgr, f.now, "luis", d("2025-03-08"), d("2025-03-09"))
	require.NoError(t, err)

	require.Len(t, days, 2)
	assert.Equal(t, generic.ResourceID("paternidad"), days[0].LeaveTypeID)
}

func TestDaysOff_Visibility(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.DaysOff(f.ctx, luis, f.now, "ana", d("2025-03-01"), d("2025-03-31"))
	assert.ErrorIs(t, err, generic.ErrForbidden)

	_, err = f.svc.DaysOff(f.ctx, ana, f.now, "ana", d("2025-03-31"), d("2025-03-01"))
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

func TestIsDayOff(t *testing.T) {
	f := newFixture(t)
	r := f.approved(ana, vacation("2025-03-03", "2025-03-07"))

	off, day, err := f.svc.IsDayOff(f.ctx, hr, f.now, "ana", d("2025-03-04"))
	require.NoError(t, err)
	assert.True(t, off)
	assert.Equal(t, r.ID, day.RequestID)

	off, _, err = f.svc.IsDayOff(f.ctx, hr, f.now, "ana", d("2025-03-10"))
	require.NoError(t, err)
	assert.False(t, off)
}

func TestTeamCalendar_ShowsApprovedAbsencesOnly(t *testing.T) {
	f := newFixture(t)
	f.approved(ana, vacation("2025-03-03", "2025-03-07"))
	f.create(luis, permiso("2025-03-10", "2025-03-10"))

	tc, err := f.svc.TeamCalendar(f.ctx, luis, f.now, d("2025-03-01"), d("2025-03-31"))
	require.NoError(t, err)

	require.Len(t, tc.Absences, 1)
	assert.Equal(t, "Ana Torres", tc.Absences[0].EmployeeName)
	assert.Equal(t, timeoff.VacationTypeName, tc.Absences[0].LeaveTypeName)
	assert.Len(t, tc.NonWorkingDays, 10)
}

func TestStats_HROnly(t *testing.T) {
	f := newFixture(t)
	f.approved(ana, vacation("2025-03-03", "2025-03-07"))
	f.create(luis, permiso("2025-03-10", "2025-03-10"))

	_, err := f.svc.Stats(f.ctx, mgr, f.now, 2025)
	assert.ErrorIs(t, err, generic.ErrForbidden)

	st, err := f.svc.Stats(f.ctx, hr, f.now, 2025)
	require.NoError(t, err)
	assert.Equal(t, 4, st.ActiveEmployees)
	assert.Equal(t, 1, st.PendingRequests)
	assert.Equal(t, 5.0, st.DaysApproved.Float64())
	assert.Equal(t, 2, st.RequestsPerMonth[1])
}

func TestBootstrapHR(t *testing.T) {
	f := newFixture(t)

	// GIVEN: A roster that already has people
	created, err := f.svc.BootstrapHR(f.ctx, timeoff.Employee{ID: "root", FullName: "Root", HireDate: d("2025-01-01")})
	require.NoError(t, err)
	assert.False(t, created)

	// WHEN: The roster is empty
	f.store.Reset()
	created, err = f.svc.BootstrapHR(f.ctx, timeoff.Employee{ID: "root", FullName: "Root", HireDate: d("2025-01-01")})
	require.NoError(t, err)

	// THEN: The account is stored as active HR
	assert.True(t, created)
	e, err := f.store.GetEmployee(f.ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, timeoff.RoleHR, e.Role)
	assert.True(t, e.Active)
}

func TestRoster_HRWritesEveryoneReadsTheirOwn(t *testing.T) {
	f := newFixture(t)
	mgrID := generic.EntityID("mgr")

	_, err := f.svc.SaveEmployee(f.ctx, mgr, timeoff.Employee{FullName: "Nuevo", HireDate: d("2025-02-01")})
	assert.ErrorIs(t, err, generic.ErrForbidden)

	e, err := f.svc.SaveEmployee(f.ctx, hr, timeoff.Employee{FullName: " Sofia Diaz ", HireDate: d("2025-02-01"), ManagerID: &mgrID})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.True(t, e.Active)
	assert.Equal(t, timeoff.RoleEmployee, e.Role)
	assert.Equal(t, "Sofia Diaz", e.FullName)

	ghost := generic.EntityID("ghost")
	_, err = f.svc.SaveEmployee(f.ctx, hr, timeoff.Employee{FullName: "X", HireDate: d("2025-02-01"), ManagerID: &ghost})
	assert.ErrorIs(t, err, generic.ErrNotFound)

	team, err := f.svc.ListEmployees(f.ctx, mgr)
	require.NoError(t, err)
	assert.Len(t, team, 4)

	own, err := f.svc.ListEmployees(f.ctx, ana)
	require.NoError(t, err)
	assert.Len(t, own, 1)
}

func TestCatalog_VacationIsBuiltin(t *testing.T) {
	f := newFixture(t)

	err := f.svc.DeleteLeaveType(f.ctx, hr, timeoff.VacationTypeID)
	assert.ErrorIs(t, err, generic.ErrValidation)

	lt, err := f.svc.CreateLeaveType(f.ctx, hr, timeoff.LeaveType{Name: "Estudio", DefaultDays: 3})
	require.NoError(t, err)
	assert.Equal(t, timeoff.ConsumptionFlexible, lt.ConsumptionType)

	_, err = f.svc.CreateLeaveType(f.ctx, hr, timeoff.LeaveType{Name: "estudio"})
	assert.ErrorIs(t, err, generic.ErrConflict)

	require.NoError(t, f.svc.DeleteLeaveType(f.ctx, hr, lt.ID))

	added, err := f.svc.EnsureCatalog(f.ctx, timeoff.PresetTypes())
	require.NoError(t, err)
	assert.Zero(t, added)
}
