/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the timeoff service.

ENDPOINTS:
  Employees:
    GET    /api/employees                    List visible employees
    POST   /api/employees                    Create or update employee (HR)
    GET    /api/employees/{id}               Get employee details
    POST   /api/employees/{id}/deactivate    Deactivate (HR)
    GET    /api/employees/{id}/balances      Balance per leave type
    GET    /api/employees/{id}/balance       Balance of ?leave_type_id
    POST   /api/employees/{id}/leave-types   Assign a leave type (HR)

  Catalog and buckets (HR):
    GET/POST /api/leave-types, DELETE /api/leave-types/{id}
    POST     /api/buckets
    PUT      /api/buckets/{employee}/{leave_type}/{year}
    POST     /api/admin/generate-year
    POST     /api/admin/refresh-statuses

  Requests, calendar and scenarios: see requests.go, calendar.go and
  scenarios.go.

ACTOR:
  Every /api route except scenarios needs the X-Actor-ID header. The id
  is resolved against the roster and the employee's role becomes the
  actor's role. Authentication itself is out of scope: whoever fronts
  this API vouches for the header.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing or unknown actor
  - 403: Role or ownership mismatch
  - 404: Resource not found
  - 409: Invalid transition, conflict, concurrent modification
  - 422: Insufficient balance
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/i18n"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *timeoff.Service
	Calendar *timeoff.CalendarService
	Factory  *factory.LeaveTypeFactory
	Log      logrus.FieldLogger

	// Now is the clock used for every operation. Tests pin it.
	Now func() time.Time

	// Reset wipes the backing store before a scenario loads.
	Reset func(ctx context.Context) error

	// Uploads is where attachments go. Nil disables uploads.
	Uploads *AttachmentDir

	validate *validator.Validate

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler over store.
func NewHandler(store timeoff.TxStore, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Service:  timeoff.NewService(store, log),
		Calendar: timeoff.NewCalendarService(store, log),
		Factory:  factory.NewLeaveTypeFactory(),
		Log:      log,
		Now:      time.Now,
		validate: validator.New(),
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) today() generic.TimePoint {
	return generic.DateOf(h.now())
}

// =============================================================================
// ACTOR AND LOCALE MIDDLEWARE
// =============================================================================

type actorKey struct{}

// ActorHeader names the employee performing the call.
const ActorHeader = "X-Actor-ID"

// WithActor resolves X-Actor-ID into a timeoff.Actor on the context.
func (h *Handler) WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ActorHeader)
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing "+ActorHeader+" header", nil)
			return
		}
		emp, err := h.Service.Store.GetEmployee(r.Context(), generic.EntityID(id))
		if err != nil {
			if generic.IsNotFound(err) {
				writeError(w, http.StatusUnauthorized, "unknown actor", err)
				return
			}
			h.fail(w, r, err)
			return
		}
		if !emp.Active {
			writeError(w, http.StatusUnauthorized, "actor is inactive", nil)
			return
		}
		actor := timeoff.Actor{ID: emp.ID, Role: emp.Role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

// WithLocale picks the response language from Accept-Language.
func WithLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if loc := i18n.Match(r.Header.Get("Accept-Language")); loc != "" {
			r = r.WithContext(i18n.WithLocale(r.Context(), loc))
		}
		next.ServeHTTP(w, r)
	})
}

func actorFrom(r *http.Request) timeoff.Actor {
	a, _ := r.Context().Value(actorKey{}).(timeoff.Actor)
	return a
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// Me returns the calling employee.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	emp, err := h.Service.GetEmployee(r.Context(), actor, actor.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// ListEmployees returns the employees visible to the actor.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.Service.ListEmployees(r.Context(), actorFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]EmployeeDTO, 0, len(emps))
	for _, e := range emps {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.GetEmployee(r.Context(), actorFrom(r), generic.EntityID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// SaveEmployee creates or updates an employee.
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	hire, err := generic.ParseDate(req.HireDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	emp := timeoff.Employee{
		ID:        generic.EntityID(req.ID),
		FullName:  req.FullName,
		Email:     req.Email,
		HireDate:  hire,
		Active:    true,
		Role:      timeoff.Role(req.Role),
		ADManaged: req.ADManaged,
	}
	if req.Active != nil {
		emp.Active = *req.Active
	}
	if req.ManagerID != nil && *req.ManagerID != "" {
		m := generic.EntityID(*req.ManagerID)
		emp.ManagerID = &m
	}

	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	saved, err := h.Service.SaveEmployee(r.Context(), actorFrom(r), emp)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, toEmployeeDTO(*saved))
}

// DeactivateEmployee marks an employee inactive.
func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	id := generic.EntityID(chi.URLParam(r, "id"))
	if err := h.Service.DeactivateEmployee(r.Context(), actorFrom(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalances returns one balance per leave type the employee holds.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	id := generic.EntityID(chi.URLParam(r, "id"))
	sums, err := h.Service.Balances(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]BalanceDTO, 0, len(sums))
	for _, s := range sums {
		dtos = append(dtos, toBalanceDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBalance returns the balance of ?leave_type_id (vacation by default).
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := generic.EntityID(chi.URLParam(r, "id"))
	lt := generic.ResourceID(r.URL.Query().Get("leave_type_id"))
	sum, err := h.Service.Balance(r.Context(), actorFrom(r), id, lt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(sum))
}

// AssignLeaveType opens a current-year bucket of a leave type.
func (h *Handler) AssignLeaveType(w http.ResponseWriter, r *http.Request) {
	var req AssignLeaveTypeRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := generic.EntityID(chi.URLParam(r, "id"))
	b, err := h.Service.AssignLeaveType(r.Context(), actorFrom(r), h.now(), id, generic.ResourceID(req.LeaveTypeID))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBucketDTO(*b))
}

// AddBucket opens a bucket with an explicit accrual.
func (h *Handler) AddBucket(w http.ResponseWriter, r *http.Request) {
	var req AddBucketRequest
	if !h.decode(w, r, &req) {
		return
	}
	key := generic.BucketKey{
		EntityID:   generic.EntityID(req.EmployeeID),
		ResourceID: generic.ResourceID(req.LeaveTypeID),
		Year:       req.Year,
	}
	b, err := h.Service.AddBucket(r.Context(), actorFrom(r), h.now(), key, generic.Days(req.Accrued), req.Comment)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBucketDTO(*b))
}

// OverrideBucket sets a bucket's accrued and taken days by hand.
func (h *Handler) OverrideBucket(w http.ResponseWriter, r *http.Request) {
	var req OverrideBucketRequest
	if !h.decode(w, r, &req) {
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		h.fail(w, r, generic.NewValidationError("year", "invalid year %q", chi.URLParam(r, "year")))
		return
	}
	key := generic.BucketKey{
		EntityID:   generic.EntityID(chi.URLParam(r, "employee")),
		ResourceID: generic.ResourceID(chi.URLParam(r, "leaveType")),
		Year:       year,
	}
	b, err := h.Service.OverrideBucket(r.Context(), actorFrom(r), h.now(), key,
		generic.Days(req.Accrued), generic.Days(req.Taken), req.Comment)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBucketDTO(*b))
}

// GenerateYear opens vacation buckets for every active employee.
func (h *Handler) GenerateYear(w http.ResponseWriter, r *http.Request) {
	var req GenerateYearRequest
	if !h.decode(w, r, &req) {
		return
	}
	n, err := h.Service.GenerateYear(r.Context(), actorFrom(r), h.now(), req.Year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"year": req.Year, "opened": n})
}

// RefreshStatuses applies the time-driven transitions now.
func (h *Handler) RefreshStatuses(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.RefreshStatuses(r.Context(), h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// Stats returns the HR dashboard counters of ?year (current by default).
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	year := h.now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, r, generic.NewValidationError("year", "invalid year %q", raw))
			return
		}
		year = y
	}
	st, err := h.Service.Stats(r.Context(), actorFrom(r), h.now(), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsDTO{
		Year:             st.Year,
		ActiveEmployees:  st.ActiveEmployees,
		PendingRequests:  st.PendingRequests,
		DaysApproved:     st.DaysApproved.Float64(),
		RequestsPerMonth: st.RequestsPerMonth[:],
	})
}

// =============================================================================
// LEAVE TYPE HANDLERS
// =============================================================================

// ListLeaveTypes returns the catalog.
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListLeaveTypes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]LeaveTypeDTO, 0, len(types))
	for _, lt := range types {
		dtos = append(dtos, toLeaveTypeDTO(lt))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLeaveType adds a catalog entry.
func (h *Handler) CreateLeaveType(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveTypeRequest
	if !h.decode(w, r, &req) {
		return
	}
	lt, err := h.Factory.FromJSON(factory.LeaveTypeJSON{
		Name:               req.Name,
		RequiresBalance:    req.RequiresBalance,
		DefaultDays:        req.DefaultDays,
		ConsumptionType:    req.ConsumptionType,
		RequiresAttachment: req.RequiresAttachment,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.Service.CreateLeaveType(r.Context(), actorFrom(r), lt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveTypeDTO(*created))
}

// DeleteLeaveType removes a catalog entry.
func (h *Handler) DeleteLeaveType(w http.ResponseWriter, r *http.Request) {
	id := generic.ResourceID(chi.URLParam(r, "id"))
	if err := h.Service.DeleteLeaveType(r.Context(), actorFrom(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into dst and runs its validate tags. On
// failure it writes the 400 and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   i18n.ErrorLabel(r.Context(), "validation"),
			Kind:    "validation",
			Details: "invalid request body: " + err.Error(),
		})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		resp := ErrorResponse{
			Error:   i18n.ErrorLabel(r.Context(), "validation"),
			Kind:    "validation",
			Details: err.Error(),
		}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			resp.Fields = make(map[string]string, len(ve))
			for _, fe := range ve {
				resp.Fields[fe.Field()] = fe.Tag()
			}
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

// classify maps a domain error to its HTTP status and kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, generic.ErrValidation), errors.Is(err, generic.ErrInvalidPeriod):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, generic.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, generic.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, generic.ErrInvalidTransition), errors.Is(err, generic.ErrConcurrentModification):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, generic.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, generic.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "insufficient_balance"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes err with the status of its kind. Internal errors are
// logged and their details hidden.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	resp := ErrorResponse{
		Error: i18n.ErrorLabel(r.Context(), kind),
		Kind:  kind,
	}
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeJSON(w, status, resp)
		return
	}
	resp.Details = err.Error()

	var ve *generic.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		resp.Fields = map[string]string{ve.Field: ve.Message}
	}
	var ib *generic.InsufficientBalanceError
	if errors.As(err, &ib) {
		resp.Details = i18n.T(r.Context(), "balance.shortfall", map[string]any{
			"Shortfall": ib.Shortfall.String(),
			"Available": ib.Available.String(),
		})
	}
	writeJSON(w, status, resp)
}

func parseDate(field, s string) (generic.TimePoint, error) {
	if s == "" {
		return generic.TimePoint{}, nil
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}, generic.NewValidationError(field, "invalid date %q (use YYYY-MM-DD)", s)
	}
	return d, nil
}
