package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// REQUEST HANDLERS
// =============================================================================
//
//   GET    /api/requests                         ?employee_id=&status=&from=&to=
//   POST   /api/requests                         Create
//   POST   /api/requests/preview                 Dry-run create
//   GET    /api/requests/inbox                   Waiting on the actor
//   GET    /api/requests/{id}
//   GET    /api/requests/{id}/history
//   POST   /api/requests/{id}/approve            Manager approval
//   POST   /api/requests/{id}/hr-approve
//   POST   /api/requests/{id}/reject
//   POST   /api/requests/{id}/cancel             Ask for cancellation
//   POST   /api/requests/{id}/cancel/approve     Manager stage
//   POST   /api/requests/{id}/cancel/hr-approve  HR stage, refunds
//   POST   /api/requests/{id}/cancel/reject
//   POST   /api/requests/{id}/interrupt
//   POST   /api/requests/{id}/modify

func (h *Handler) createInput(w http.ResponseWriter, r *http.Request) (timeoff.CreateRequestInput, bool) {
	var req CreateRequestDTO
	if !h.decode(w, r, &req) {
		return timeoff.CreateRequestInput{}, false
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		h.fail(w, r, err)
		return timeoff.CreateRequestInput{}, false
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		h.fail(w, r, err)
		return timeoff.CreateRequestInput{}, false
	}
	typ := timeoff.RequestType(req.Type)
	if typ == "" {
		typ = timeoff.RequestFullDay
	}
	return timeoff.CreateRequestInput{
		EmployeeID:     generic.EntityID(req.EmployeeID),
		LeaveTypeID:    generic.ResourceID(req.LeaveTypeID),
		Type:           typ,
		StartDate:      start,
		EndDate:        end,
		Turn:           timeoff.HalfDayTurn(req.Turn),
		ReplacementID:  generic.EntityID(req.ReplacementID),
		AttachmentPath: req.AttachmentPath,
	}, true
}

// CreateRequest files a new leave request.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	in, ok := h.createInput(w, r)
	if !ok {
		return
	}
	actor := actorFrom(r)
	req, err := h.Service.CreateRequest(r.Context(), actor, h.now(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(r.Context(), *req, actor))
}

// PreviewRequest runs every create check without storing anything.
func (h *Handler) PreviewRequest(w http.ResponseWriter, r *http.Request) {
	in, ok := h.createInput(w, r)
	if !ok {
		return
	}
	actor := actorFrom(r)
	req, err := h.Service.PreviewRequest(r.Context(), actor, h.now(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(r.Context(), *req, actor))
}

// ListRequests returns the requests visible to the actor.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f timeoff.RequestFilter
	if id := q.Get("employee_id"); id != "" {
		f.EmployeeIDs = []generic.EntityID{generic.EntityID(id)}
	}
	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, err := timeoff.ParseStatus(strings.TrimSpace(part))
			if err != nil {
				h.fail(w, r, err)
				return
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	if q.Get("from") != "" || q.Get("to") != "" {
		from, err := parseDate("from", q.Get("from"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		to, err := parseDate("to", q.Get("to"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if from.IsZero() {
			from = to
		}
		if to.IsZero() {
			to = from
		}
		p, err := generic.NewPeriod(from, to)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		f.Overlaps = &p
	}

	actor := actorFrom(r)
	reqs, err := h.Service.ListRequests(r.Context(), actor, h.now(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(r.Context(), reqs, actor))
}

// Inbox returns the requests waiting on the actor's decision.
func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	reqs, err := h.Service.Inbox(r.Context(), actor, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(r.Context(), reqs, actor))
}

// GetRequest returns one request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	req, err := h.Service.GetRequest(r.Context(), actor, h.now(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(r.Context(), *req, actor))
}

// RequestHistory returns the audit trail of one request.
func (h *Handler) RequestHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.History(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditDTOs(entries))
}

// =============================================================================
// TRANSITIONS
// =============================================================================

type transitionFunc func(h *Handler, r *http.Request, actor timeoff.Actor, id string) (*timeoff.Request, error)

// transition adapts a body-less lifecycle operation to a handler.
func (h *Handler) transition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		req, err := fn(h, r, actor, chi.URLParam(r, "id"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toRequestDTO(r.Context(), *req, actor))
	}
}

// ManagerApprove is the manager's approval.
func (h *Handler) ManagerApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(func(h *Handler, r *http.Request, a timeoff.Actor, id string) (*timeoff.Request, error) {
		return h.Service.ManagerApprove(r.Context(), a, h.now(), id)
	})(w, r)
}

// HRApprove is HR's approval; it deducts the balance.
func (h *Handler) HRApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(func(h *Handler, r *http.Request, a timeoff.Actor, id string) (*timeoff.Request, error) {
		return h.Service.HRApprove(r.Context(), a, h.now(), id)
	})(w, r)
}

// Reject declines a pending request.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(func(h *Handler, r *http.Request, a timeoff.Actor, id string) (*timeoff.Request, error) {
		return h.Service.Reject(r.Context(), a, h.now(), id)
	})(w, r)
}

// RequestCancellation asks to cancel approved leave.
func (h *Handler) RequestCancellation(w http.ResponseWriter, r *http.Request) {
	var body ReasonRequest
	if !h.decode(w, r, &body) {
		return
	}
	h.transition(func(h *Handler, r *http.Request, a timeoff.Actor, id string) (*timeoff.Request, error) {
		return h.Service.RequestCancellation(r.Context(), a, h.now(), id, body.Reason)
	})(w, r)
}

// ManagerApproveCancellation forwards a cancellation to HR.
func (h *Handler) ManagerApproveCancellation(w http.ResponseWriter, r *http.Request) {
	h.transition(func(h *Handler, r *http.Request, a timeoff.Actor, id string) (*timeoff.Request, error) {
		return h.Service.ApproveCancellationByManager(r.Context(), a, h.now(), id)
	})(w, r)
}

// HRApproveCancellation cancels the leave and refunds its days.
func (h *Handler) HRApproveCancellation(w http.ResponseWriter, r *http.Request) {
	h.transition(func(h *Handler, r *http.Request, a timeoff.Actor, id string) (*timeoff.Request, error) {
		return h.Service.ApproveCancellationByHR(r.Context(), a, h.now(), id)
	})(w, r)
}

// RejectCancellation restores the approved status.
func (h *Handler) RejectCancellation(w http.ResponseWriter, r *http.Request) {
	h.transition(func(h *Handler, r *http.Request, a timeoff.Actor, id string) (*timeoff.Request, error) {
		return h.Service.RejectCancellation(r.Context(), a, h.now(), id)
	})(w, r)
}

// Interrupt ends leave early and refunds the unused days.
func (h *Handler) Interrupt(w http.ResponseWriter, r *http.Request) {
	var body InterruptRequest
	if !h.decode(w, r, &body) {
		return
	}
	reint, err := parseDate("reintegration_date", body.ReintegrationDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.transition(func(h *Handler, r *http.Request, a timeoff.Actor, id string) (*timeoff.Request, error) {
		return h.Service.Interrupt(r.Context(), a, h.now(), id, reint, body.Reason)
	})(w, r)
}

// Modify moves approved leave to new dates.
func (h *Handler) Modify(w http.ResponseWriter, r *http.Request) {
	var body ModifyRequest
	if !h.decode(w, r, &body) {
		return
	}
	start, err := parseDate("start_date", body.StartDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := parseDate("end_date", body.EndDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.transition(func(h *Handler, r *http.Request, a timeoff.Actor, id string) (*timeoff.Request, error) {
		return h.Service.Modify(r.Context(), a, h.now(), id, start, end, body.Reason)
	})(w, r)
}
