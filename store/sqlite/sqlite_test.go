package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/store/sqlite"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

// seed stores a manager and one report, in that order for the foreign key.
func seed(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	mgr := generic.EntityID("mgr")
	require.NoError(t, store.SaveEmployee(ctx, timeoff.Employee{
		ID: "mgr", FullName: "Carlos Vega", HireDate: date("2014-05-12"), Active: true, Role: timeoff.RoleManager,
	}))
	require.NoError(t, store.SaveEmployee(ctx, timeoff.Employee{
		ID: "ana", FullName: "Ana Torres", Email: "ana@example.com", HireDate: date("2015-01-10"),
		Active: true, Role: timeoff.RoleEmployee, ManagerID: &mgr,
	}))
}

func request(id string, start, end string) timeoff.Request {
	return timeoff.Request{
		ID:          id,
		EmployeeID:  "ana",
		LeaveTypeID: timeoff.VacationTypeID,
		Type:        timeoff.RequestFullDay,
		StartDate:   date(start),
		EndDate:     date(end),
		Days:        generic.Days(4.5),
		Status:      timeoff.StatusPending,
		RequestDate: time.Date(2025, time.February, 3, 9, 30, 0, 0, time.UTC),
		CreatedBy:   "ana",
		UpdatedAt:   time.Date(2025, time.February, 3, 9, 30, 0, 0, time.UTC),
	}
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestEmployee_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	e, err := store.GetEmployee(context.Background(), "ana")
	require.NoError(t, err)

	assert.Equal(t, "Ana Torres", e.FullName)
	assert.Equal(t, "ana@example.com", e.Email)
	assert.Equal(t, "2015-01-10", e.HireDate.String())
	require.NotNil(t, e.ManagerID)
	assert.Equal(t, generic.EntityID("mgr"), *e.ManagerID)
	assert.True(t, e.Active)

	_, err = store.GetEmployee(context.Background(), "ghost")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestBucket_DecimalPrecision(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)

	require.NoError(t, store.SaveBucket(ctx, generic.Bucket{
		EntityID: "ana", ResourceID: timeoff.VacationTypeID, Year: 2025,
		Accrued: generic.Days(18), Taken: generic.Days(2.5), Comment: "carried over",
	}))

	b, err := store.Bucket(ctx, generic.BucketKey{EntityID: "ana", ResourceID: timeoff.VacationTypeID, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, 15.5, b.Remaining().Float64())
	assert.Equal(t, "carried over", b.Comment)
}

func TestRequest_RoundTripAndConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)

	r := request("r1", "2025-03-03", "2025-03-07")
	r.ReplacementID = "mgr"
	r.ReplacementName = "Carlos Vega"
	require.NoError(t, store.CreateRequest(ctx, r))
	assert.ErrorIs(t, store.CreateRequest(ctx, r), generic.ErrConflict)

	got, err := store.GetRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07", got.EndDate.String())
	assert.Equal(t, 4.5, got.Days.Float64())
	assert.Equal(t, "Carlos Vega", got.ReplacementName)
	assert.True(t, got.RequestDate.Equal(r.RequestDate))
	assert.Nil(t, got.HRApprovalDate)

	// WHEN: The request moves on, then a stale writer tries again
	stamp := time.Date(2025, time.February, 4, 10, 0, 0, 0, time.UTC)
	got.Status = timeoff.StatusManagerApproved
	got.ManagerApprovalDate = &stamp
	require.NoError(t, store.UpdateRequest(ctx, *got, timeoff.StatusPending))

	got.Status = timeoff.StatusRejected
	err = store.UpdateRequest(ctx, *got, timeoff.StatusPending)

	// THEN: Only the first write lands
	assert.ErrorIs(t, err, generic.ErrConcurrentModification)
	final, err := store.GetRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, timeoff.StatusManagerApproved, final.Status)
	require.NotNil(t, final.ManagerApprovalDate)
	assert.True(t, final.ManagerApprovalDate.Equal(stamp))

	missing := request("nope", "2025-03-03", "2025-03-03")
	assert.ErrorIs(t, store.UpdateRequest(ctx, missing, timeoff.StatusPending), generic.ErrNotFound)
}

func TestListRequests_Filters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)

	legacy := request("r3", "2025-05-05", "2025-05-06")
	legacy.ReplacementName = "Luis Mora"
	rejected := request("r2", "2025-04-01", "2025-04-02")
	rejected.Status = timeoff.StatusRejected
	for _, r := range []timeoff.Request{request("r1", "2025-03-03", "2025-03-07"), rejected, legacy} {
		require.NoError(t, store.CreateRequest(ctx, r))
	}

	all, err := store.ListRequests(ctx, timeoff.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r3", all[0].ID)

	march := generic.Period{Start: date("2025-03-07"), End: date("2025-04-01")}
	got, err := store.ListRequests(ctx, timeoff.RequestFilter{Overlaps: &march, Statuses: timeoff.OpenStatuses})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)

	got, err = store.ListRequests(ctx, timeoff.RequestFilter{ReplacementID: "luis", ReplacementName: "Luis Mora"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r3", got[0].ID)
}

func TestLeaveType_UniqueName(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveLeaveType(ctx, timeoff.VacationType()))
	err := store.SaveLeaveType(ctx, timeoff.LeaveType{ID: "other", Name: "VACACIONES", ConsumptionType: timeoff.ConsumptionFlexible})
	assert.ErrorIs(t, err, generic.ErrConflict)

	lt, err := store.GetLeaveType(ctx, timeoff.VacationTypeID)
	require.NoError(t, err)
	assert.True(t, lt.RequiresBalance)
	assert.Equal(t, timeoff.ConsumptionFlexible, lt.ConsumptionType)
}

func TestCalendar_Tables(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{ID: "h1", Date: date("2025-05-01"), Name: "Trabajo", Recurring: true}))
	assert.ErrorIs(t, store.SaveHoliday(ctx, generic.Holiday{ID: "h2", Date: date("2025-05-01"), Name: "Otro"}), generic.ErrConflict)

	hs, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.True(t, hs[0].Recurring)

	require.NoError(t, store.SaveSaturday(ctx, timeoff.SaturdayConfig{Date: date("2025-03-08"), Working: true}))
	require.NoError(t, store.SaveSaturday(ctx, timeoff.SaturdayConfig{Date: date("2025-03-08"), Working: false}))
	sats, err := store.ListSaturdays(ctx)
	require.NoError(t, err)
	require.Len(t, sats, 1)
	assert.False(t, sats[0].Working)

	require.NoError(t, store.ClearSaturdays(ctx))
	require.NoError(t, store.DeleteHoliday(ctx, "h1"))
	assert.ErrorIs(t, store.DeleteHoliday(ctx, "h1"), generic.ErrNotFound)
}

func TestAudit_PayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ref := "r1"

	require.NoError(t, store.AppendAudit(ctx, generic.AuditEntry{
		ID: "a1", Timestamp: time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC),
		ActorID: "hr", Action: generic.AuditRequestTransitioned, EntityID: "ana", ReferenceID: ref,
		FromStatus: "pending", ToStatus: "manager_approved",
		Payload: map[string]any{"deducted": "2.5"},
	}))
	require.NoError(t, store.AppendAudit(ctx, generic.AuditEntry{
		ID: "a2", Timestamp: time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC),
		ActorID: "hr", Action: generic.AuditManualAdjust, EntityID: "ana", ReferenceID: "bucket:vacaciones:2025",
	}))

	got, err := store.QueryAudit(ctx, generic.AuditFilter{ReferenceID: &ref})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2.5", got[0].Payload["deducted"])
	assert.Equal(t, "manager_approved", got[0].ToStatus)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx timeoff.Store) error {
		require.NoError(t, tx.CreateRequest(ctx, request("r1", "2025-03-03", "2025-03-07")))
		require.NoError(t, tx.SaveBucket(ctx, generic.Bucket{
			EntityID: "ana", ResourceID: timeoff.VacationTypeID, Year: 2025,
			Accrued: generic.Days(12), Taken: generic.Days(0),
		}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, err = store.GetRequest(ctx, "r1")
	assert.ErrorIs(t, err, generic.ErrNotFound)
	_, err = store.Bucket(ctx, generic.BucketKey{EntityID: "ana", ResourceID: timeoff.VacationTypeID, Year: 2025})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestReset_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)
	require.NoError(t, store.CreateRequest(ctx, request("r1", "2025-03-03", "2025-03-07")))

	require.NoError(t, store.Reset(ctx))

	emps, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, emps)
}

func TestNew_FileDatabasePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leave.db")

	store, err := sqlite.New(path)
	require.NoError(t, err)
	seed(t, store)
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	emps, err := reopened.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, emps, 2)
}
