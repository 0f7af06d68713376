package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/store/memory"
	"github.com/warp/leave-engine/timeoff"
)

func request(id string, emp generic.EntityID, start, end string, status timeoff.Status) timeoff.Request {
	return timeoff.Request{
		ID:          id,
		EmployeeID:  emp,
		LeaveTypeID: timeoff.VacationTypeID,
		Type:        timeoff.RequestFullDay,
		StartDate:   generic.MustParseDate(start),
		EndDate:     generic.MustParseDate(end),
		Days:        generic.Days(1),
		Status:      status,
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	boom := errors.New("boom")

	// WHEN: A transaction writes a bucket and then fails
	err := m.WithTx(ctx, func(tx timeoff.Store) error {
		require.NoError(t, tx.SaveBucket(ctx, generic.Bucket{EntityID: "ana", ResourceID: "vacaciones", Year: 2025, Accrued: generic.Days(12), Taken: generic.Days(0)}))
		require.NoError(t, tx.CreateRequest(ctx, request("r1", "ana", "2025-03-03", "2025-03-03", timeoff.StatusPending)))
		return boom
	})

	// THEN: Neither write is visible
	assert.ErrorIs(t, err, boom)
	_, err = m.Bucket(ctx, generic.BucketKey{EntityID: "ana", ResourceID: "vacaciones", Year: 2025})
	assert.ErrorIs(t, err, generic.ErrNotFound)
	_, err = m.GetRequest(ctx, "r1")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	err := m.WithTx(ctx, func(tx timeoff.Store) error {
		return tx.CreateRequest(ctx, request("r1", "ana", "2025-03-03", "2025-03-03", timeoff.StatusPending))
	})

	require.NoError(t, err)
	r, err := m.GetRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, timeoff.StatusPending, r.Status)
}

func TestUpdateRequest_ConditionalOnStatus(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	r := request("r1", "ana", "2025-03-03", "2025-03-07", timeoff.StatusPending)
	require.NoError(t, m.CreateRequest(ctx, r))

	r.Status = timeoff.StatusManagerApproved
	require.NoError(t, m.UpdateRequest(ctx, r, timeoff.StatusPending))

	// WHEN: A second writer still believes the request is pending
	r.Status = timeoff.StatusRejected
	err := m.UpdateRequest(ctx, r, timeoff.StatusPending)

	// THEN: The write is refused
	assert.ErrorIs(t, err, generic.ErrConcurrentModification)
	got, err := m.GetRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, timeoff.StatusManagerApproved, got.Status)

	assert.ErrorIs(t, m.UpdateRequest(ctx, request("nope", "ana", "2025-03-03", "2025-03-03", timeoff.StatusPending), timeoff.StatusPending), generic.ErrNotFound)
}

func TestListRequests_Filters(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	covered := request("r3", "luis", "2025-03-04", "2025-03-05", timeoff.StatusHRApproved)
	covered.ReplacementName = "Ana Torres"
	for _, r := range []timeoff.Request{
		request("r1", "ana", "2025-03-03", "2025-03-07", timeoff.StatusPending),
		request("r2", "ana", "2025-04-01", "2025-04-02", timeoff.StatusRejected),
		covered,
	} {
		require.NoError(t, m.CreateRequest(ctx, r))
	}

	all, err := m.ListRequests(ctx, timeoff.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r2", all[0].ID, "newest start first")

	march := generic.Period{Start: generic.MustParseDate("2025-03-01"), End: generic.MustParseDate("2025-03-31")}
	got, err := m.ListRequests(ctx, timeoff.RequestFilter{
		EmployeeIDs: []generic.EntityID{"ana"},
		Statuses:    timeoff.OpenStatuses,
		Overlaps:    &march,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)

	// A legacy row without a replacement id matches on the name snapshot
	got, err = m.ListRequests(ctx, timeoff.RequestFilter{ReplacementID: "ana", ReplacementName: "Ana Torres"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r3", got[0].ID)
}

func TestCalendarTables(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	require.NoError(t, m.SaveHoliday(ctx, generic.Holiday{ID: "h1", Date: generic.MustParseDate("2025-05-01"), Name: "Trabajo"}))
	err := m.SaveHoliday(ctx, generic.Holiday{ID: "h2", Date: generic.MustParseDate("2025-05-01"), Name: "Otro"})
	assert.ErrorIs(t, err, generic.ErrConflict)
	assert.ErrorIs(t, m.DeleteHoliday(ctx, "h2"), generic.ErrNotFound)

	sat := generic.MustParseDate("2025-03-08")
	require.NoError(t, m.SaveSaturday(ctx, timeoff.SaturdayConfig{Date: sat, Working: true}))
	require.NoError(t, m.SaveSaturday(ctx, timeoff.SaturdayConfig{Date: sat, Working: false}))
	sats, err := m.ListSaturdays(ctx)
	require.NoError(t, err)
	require.Len(t, sats, 1)
	assert.False(t, sats[0].Working)

	m.Reset()
	hs, err := m.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Empty(t, hs)
}
