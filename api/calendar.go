package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================
//
//   GET    /api/calendar/working-days        ?start=&end=
//   GET    /api/calendar/non-working-days    ?start=&end=
//   GET    /api/calendar/team                ?start=&end=
//   GET    /api/employees/{id}/days-off      ?start=&end=
//   GET    /api/holidays
//   POST   /api/holidays                     (HR)
//   DELETE /api/holidays/{id}                (HR)
//   POST   /api/holidays/roll-forward        (HR)
//   GET    /api/saturdays
//   PUT    /api/saturdays                    (HR) one date
//   POST   /api/saturdays/generate           (HR) alternating schedule
//   DELETE /api/saturdays                    (HR) all Saturdays non-working

func (h *Handler) rangeParams(w http.ResponseWriter, r *http.Request) (generic.TimePoint, generic.TimePoint, bool) {
	q := r.URL.Query()
	start, err := parseDate("start", q.Get("start"))
	if err == nil && start.IsZero() {
		err = generic.NewValidationError("start", "start is required")
	}
	if err != nil {
		h.fail(w, r, err)
		return generic.TimePoint{}, generic.TimePoint{}, false
	}
	end, err := parseDate("end", q.Get("end"))
	if err != nil {
		h.fail(w, r, err)
		return generic.TimePoint{}, generic.TimePoint{}, false
	}
	if end.IsZero() {
		end = start
	}
	return start, end, true
}

// WorkingDays counts working days in [start, end].
func (h *Handler) WorkingDays(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	n, err := h.Calendar.WorkingDaysBetween(r.Context(), start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start":        start.String(),
		"end":          end.String(),
		"working_days": n,
	})
}

// NonWorkingDays lists non-working dates in [start, end] with reasons.
func (h *Handler) NonWorkingDays(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	days, err := h.Calendar.NonWorkingDays(r.Context(), start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]NonWorkingDayDTO, 0, len(days))
	for _, d := range days {
		dtos = append(dtos, NonWorkingDayDTO{Date: d.Date.String(), Reason: d.Reason})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// TeamCalendar lists approved absences and non-working dates.
func (h *Handler) TeamCalendar(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	tc, err := h.Service.TeamCalendar(r.Context(), actorFrom(r), h.now(), start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamCalendarDTO(r.Context(), tc))
}

// DaysOff lists one employee's dates of leave.
func (h *Handler) DaysOff(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	id := generic.EntityID(chi.URLParam(r, "id"))
	days, err := h.Service.DaysOff(r.Context(), actorFrom(r), h.now(), id, start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]DayOffDTO, 0, len(days))
	for _, d := range days {
		dtos = append(dtos, DayOffDTO{
			Date:        d.Date.String(),
			LeaveTypeID: string(d.LeaveTypeID),
			Amount:      d.Amount.Float64(),
			Status:      string(d.Status),
			RequestID:   d.RequestID,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	hs, err := h.Calendar.ListHolidays(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(hs))
	for _, hol := range hs {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	hol, err := h.Calendar.AddHoliday(r.Context(), actorFrom(r), h.today(), generic.Holiday{
		Date:      date,
		Name:      req.Name,
		Recurring: req.Recurring,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(*hol))
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Calendar.DeleteHoliday(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RollForwardHolidays moves past recurring holidays to their next date.
func (h *Handler) RollForwardHolidays(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).IsHR() {
		h.fail(w, r, &generic.ForbiddenError{ActorID: string(actorFrom(r).ID), Action: "roll holidays forward", Reason: "requires the hr role"})
		return
	}
	n, err := h.Calendar.RollForwardRecurring(r.Context(), h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"moved": n})
}

// =============================================================================
// SATURDAYS
// =============================================================================

func (h *Handler) ListSaturdays(w http.ResponseWriter, r *http.Request) {
	sats, err := h.Calendar.ListSaturdays(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]SaturdayDTO, 0, len(sats))
	for _, s := range sats {
		dtos = append(dtos, SaturdayDTO{Date: s.Date.String(), Working: s.Working})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SetSaturday(w http.ResponseWriter, r *http.Request) {
	var req SaturdayDTO
	if !h.decode(w, r, &req) {
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Calendar.SetSaturday(r.Context(), actorFrom(r), timeoff.SaturdayConfig{Date: date, Working: req.Working}); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) GenerateSaturdays(w http.ResponseWriter, r *http.Request) {
	var req GenerateSaturdaysRequest
	if !h.decode(w, r, &req) {
		return
	}
	start, err := parseDate("start", req.Start)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.Calendar.GenerateAlternatingSaturdays(r.Context(), actorFrom(r), start)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"written": n})
}

func (h *Handler) ClearSaturdays(w http.ResponseWriter, r *http.Request) {
	if err := h.Calendar.ClearSaturdays(r.Context(), actorFrom(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
