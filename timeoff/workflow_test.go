package timeoff_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

func TestTransition_Table(t *testing.T) {
	stamp := time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		req    timeoff.Request
		action timeoff.Action
		actor  timeoff.Actor
		want   timeoff.Status
		err    error
	}{
		{"manager approves", timeoff.Request{Status: timeoff.StatusPending}, timeoff.ActionManagerApprove, mgr, timeoff.StatusManagerApproved, nil},
		{"hr-initiated fast path", timeoff.Request{Status: timeoff.StatusPending, HRApprovalDate: &stamp}, timeoff.ActionManagerApprove, mgr, timeoff.StatusHRApproved, nil},
		{"hr approves", timeoff.Request{Status: timeoff.StatusManagerApproved}, timeoff.ActionHRApprove, hr, timeoff.StatusHRApproved, nil},
		{"manager cannot hr-approve", timeoff.Request{Status: timeoff.StatusManagerApproved}, timeoff.ActionHRApprove, mgr, "", generic.ErrForbidden},
		{"employee requests cancellation", timeoff.Request{Status: timeoff.StatusHRApproved}, timeoff.ActionRequestCancellation, ana, timeoff.StatusCancelRequestedByManager, nil},
		{"hr may forward a cancellation", timeoff.Request{Status: timeoff.StatusCancelRequestedByManager}, timeoff.ActionManagerApproveCancel, hr, timeoff.StatusCancelRequestedByHR, nil},
		{"cancellation rejected", timeoff.Request{Status: timeoff.StatusCancelRequestedByHR}, timeoff.ActionRejectCancellation, hr, timeoff.StatusHRApproved, nil},
		{"interrupt keeps status", timeoff.Request{Status: timeoff.StatusActive}, timeoff.ActionInterrupt, hr, timeoff.StatusActive, nil},
		{"pending cannot be cancelled", timeoff.Request{Status: timeoff.StatusPending}, timeoff.ActionRequestCancellation, ana, "", generic.ErrInvalidTransition},
		{"completed is terminal", timeoff.Request{Status: timeoff.StatusCompleted}, timeoff.ActionModify, hr, "", generic.ErrInvalidTransition},
		{"users cannot activate", timeoff.Request{Status: timeoff.StatusHRApproved}, timeoff.ActionActivate, hr, "", generic.ErrForbidden},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := timeoff.Transition(c.req, c.action, c.actor)
			if c.err != nil {
				assert.ErrorIs(t, err, c.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestAllowed(t *testing.T) {
	assert.Empty(t, timeoff.Allowed(timeoff.StatusPending, timeoff.RoleEmployee))
	assert.Equal(t, []timeoff.Action{timeoff.ActionRequestCancellation},
		timeoff.Allowed(timeoff.StatusHRApproved, timeoff.RoleEmployee))
	assert.Equal(t, []timeoff.Action{timeoff.ActionManagerApprove, timeoff.ActionReject},
		timeoff.Allowed(timeoff.StatusPending, timeoff.RoleManager))
	for _, s := range []timeoff.Status{timeoff.StatusCompleted, timeoff.StatusRejected, timeoff.StatusCancelled} {
		assert.True(t, s.IsTerminal())
		assert.Empty(t, timeoff.Allowed(s, timeoff.RoleHR))
	}
}

func TestAdvance(t *testing.T) {
	week := timeoff.Request{StartDate: d("2025-03-03"), EndDate: d("2025-03-07")}

	cases := []struct {
		name   string
		status timeoff.Status
		today  string
		want   timeoff.Status
		ok     bool
	}{
		{"approved before start", timeoff.StatusHRApproved, "2025-03-02", timeoff.StatusHRApproved, false},
		{"approved on start", timeoff.StatusHRApproved, "2025-03-03", timeoff.StatusActive, true},
		{"approved on last day", timeoff.StatusHRApproved, "2025-03-07", timeoff.StatusActive, true},
		{"approved after end", timeoff.StatusHRApproved, "2025-03-08", timeoff.StatusCompleted, true},
		{"active after end", timeoff.StatusActive, "2025-03-08", timeoff.StatusCompleted, true},
		{"active during", timeoff.StatusActive, "2025-03-05", timeoff.StatusActive, false},
		{"pending after end", timeoff.StatusPending, "2025-03-08", timeoff.StatusPending, false},
		{"cancel requested after end", timeoff.StatusCancelRequestedByManager, "2025-03-08", timeoff.StatusCancelRequestedByManager, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := week
			req.Status = c.status

			got, _, ok := timeoff.Advance(req, d(c.today))

			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := timeoff.ParseStatus("cancel_requested_by_hr")
	require.NoError(t, err)
	assert.Equal(t, timeoff.StatusCancelRequestedByHR, s)

	_, err = timeoff.ParseStatus("approved")
	assert.ErrorIs(t, err, generic.ErrValidation)
}
