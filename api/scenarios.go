/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario builds on the same small
	roster and then exercises one area of the leave engine.

AVAILABLE SCENARIOS:

	team-basics:      HR, a manager and two reports with vacation buckets
	                  and a pending request waiting in the manager's inbox
	multi-year:       Two vacation buckets; an approved request drains the
	                  older one first
	fixed-leave:      Paternity leave taken as a fixed 14-day block
	saturday-rota:    Alternating working Saturdays for the current year

ROSTER (all scenarios):

	hr-laura     Laura Gómez     hr
	mgr-carlos   Carlos Pérez    manager   reports to hr-laura
	emp-ana      Ana Torres      employee  reports to mgr-carlos, hired 2016
	emp-luis     Luis Medina     employee  reports to mgr-carlos, hired 2023

	Use these ids in the X-Actor-ID header.

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed the leave type catalog and holidays
 3. Create the roster, managers before their reports
 4. Open buckets and file requests through the service, acting as the
    people involved, so every step is audited like a real call

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "multi-year"}

ADDING NEW SCENARIOS:
 1. Add an entry to the 'scenarios' slice with ID, name, description
 2. Point its load field at a loader function

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and actor middleware
  - timeoff/policies.go: Preset leave types
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	load func(ctx context.Context, h *Handler) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "team-basics",
			Name:        "Team Basics",
			Description: "Small team with vacation buckets and one pending request",
		},
		load: loadTeamBasics,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "multi-year",
			Name:        "Multi-Year Balance",
			Description: "Leftover days from last year are consumed before this year's",
		},
		load: loadMultiYear,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "fixed-leave",
			Name:        "Fixed Leave",
			Description: "Paternity leave booked as a 14 calendar day block",
		},
		load: loadFixedLeave,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "saturday-rota",
			Name:        "Saturday Rota",
			Description: "Every other Saturday is a working day",
		},
		load: loadSaturdayRota,
	},
}

// Roster ids shared by every scenario.
const (
	scenarioHR      generic.EntityID = "hr-laura"
	scenarioManager generic.EntityID = "mgr-carlos"
	scenarioAna     generic.EntityID = "emp-ana"
	scenarioLuis    generic.EntityID = "emp-luis"
)

// seedActor performs the HR setup steps of a scenario.
var seedActor = timeoff.Actor{ID: scenarioHR, Role: timeoff.RoleHR}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, s.ScenarioDTO)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if s, ok := findScenario(h.currentScenario); ok {
		writeJSON(w, http.StatusOK, s.ScenarioDTO)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		h.fail(w, r, generic.NewValidationError("scenario_id", "unknown scenario %q", req.ScenarioID))
		return
	}

	ctx := r.Context()
	if err := h.reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset database", err)
		return
	}
	if err := s.load(ctx, h); err != nil {
		h.Log.WithError(err).WithField("scenario", s.ID).Error("scenario load failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = s.ID
	h.Log.WithField("scenario", s.ID).Info("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": s.ID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) reset(ctx context.Context) error {
	h.currentScenario = ""
	if h.Reset == nil {
		return fmt.Errorf("reset is not supported by this store")
	}
	return h.Reset(ctx)
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedTeam loads the catalog, the recurring holidays and the roster.
func seedTeam(ctx context.Context, h *Handler) error {
	if _, err := h.Service.EnsureCatalog(ctx, timeoff.PresetTypes()); err != nil {
		return err
	}

	today := h.today()
	holidays := []generic.Holiday{
		{Date: generic.NewTimePoint(today.Year(), time.January, 1), Name: "Año Nuevo", Recurring: true},
		{Date: generic.NewTimePoint(today.Year(), time.May, 1), Name: "Día del Trabajo", Recurring: true},
		{Date: generic.NewTimePoint(today.Year(), time.December, 25), Name: "Navidad", Recurring: true},
	}
	for _, hol := range holidays {
		if _, err := h.Calendar.AddHoliday(ctx, seedActor, today, hol); err != nil {
			return fmt.Errorf("holiday %s: %w", hol.Name, err)
		}
	}

	hr := scenarioHR
	mgr := scenarioManager
	roster := []timeoff.Employee{
		{ID: scenarioHR, FullName: "Laura Gómez", Email: "laura@example.com", Role: timeoff.RoleHR,
			HireDate: generic.NewTimePoint(2012, time.March, 1)},
		{ID: scenarioManager, FullName: "Carlos Pérez", Email: "carlos@example.com", Role: timeoff.RoleManager,
			HireDate: generic.NewTimePoint(2014, time.June, 16), ManagerID: &hr},
		{ID: scenarioAna, FullName: "Ana Torres", Email: "ana@example.com", Role: timeoff.RoleEmployee,
			HireDate: generic.NewTimePoint(2016, time.February, 1), ManagerID: &mgr},
		{ID: scenarioLuis, FullName: "Luis Medina", Email: "luis@example.com", Role: timeoff.RoleEmployee,
			HireDate: generic.NewTimePoint(2023, time.September, 4), ManagerID: &mgr},
	}
	// The first HR record bootstraps itself; nobody exists yet to create it.
	if _, err := h.Service.BootstrapHR(ctx, roster[0]); err != nil {
		return err
	}
	for _, e := range roster[1:] {
		if _, err := h.Service.SaveEmployee(ctx, seedActor, activate(e)); err != nil {
			return fmt.Errorf("employee %s: %w", e.ID, err)
		}
	}
	return nil
}

func activate(e timeoff.Employee) timeoff.Employee {
	e.Active = true
	return e
}

func loadTeamBasics(ctx context.Context, h *Handler) error {
	if err := seedTeam(ctx, h); err != nil {
		return err
	}
	now := h.now()
	if _, err := h.Service.GenerateYear(ctx, seedActor, now, now.Year()); err != nil {
		return err
	}

	// Ana asks for a week off in three weeks; Luis covers for her.
	start := nextMonday(h.today().AddDays(21))
	ana := timeoff.Actor{ID: scenarioAna, Role: timeoff.RoleEmployee}
	_, err := h.Service.CreateRequest(ctx, ana, now, timeoff.CreateRequestInput{
		LeaveTypeID:   timeoff.VacationTypeID,
		Type:          timeoff.RequestFullDay,
		StartDate:     start,
		EndDate:       start.AddDays(4),
		ReplacementID: scenarioLuis,
	})
	return err
}

func loadMultiYear(ctx context.Context, h *Handler) error {
	if err := seedTeam(ctx, h); err != nil {
		return err
	}
	now := h.now()
	year := now.Year()
	buckets := []struct {
		year    int
		accrued float64
		comment string
	}{
		{year - 1, 5, "remaining from last year"},
		{year, 18, ""},
	}
	for _, b := range buckets {
		key := generic.BucketKey{EntityID: scenarioAna, ResourceID: timeoff.VacationTypeID, Year: b.year}
		if _, err := h.Service.AddBucket(ctx, seedActor, now, key, generic.Days(b.accrued), b.comment); err != nil {
			return err
		}
	}

	// Seven working days unless a holiday intervenes: five come out of
	// last year, the rest out of this one.
	start := nextMonday(h.today().AddDays(14))
	ana := timeoff.Actor{ID: scenarioAna, Role: timeoff.RoleEmployee}
	req, err := h.Service.CreateRequest(ctx, ana, now, timeoff.CreateRequestInput{
		LeaveTypeID:   timeoff.VacationTypeID,
		Type:          timeoff.RequestFullDay,
		StartDate:     start,
		EndDate:       start.AddDays(8),
		ReplacementID: scenarioLuis,
	})
	if err != nil {
		return err
	}
	manager := timeoff.Actor{ID: scenarioManager, Role: timeoff.RoleManager}
	if _, err := h.Service.ManagerApprove(ctx, manager, now, req.ID); err != nil {
		return err
	}
	_, err = h.Service.HRApprove(ctx, seedActor, now, req.ID)
	return err
}

func loadFixedLeave(ctx context.Context, h *Handler) error {
	if err := seedTeam(ctx, h); err != nil {
		return err
	}
	now := h.now()
	types, err := h.Service.ListLeaveTypes(ctx)
	if err != nil {
		return err
	}
	var paternity *timeoff.LeaveType
	for i := range types {
		if types[i].DefaultDays == 14 && types[i].ConsumptionType == timeoff.ConsumptionFixed {
			paternity = &types[i]
			break
		}
	}
	if paternity == nil {
		return fmt.Errorf("no fixed 14-day leave type in catalog")
	}
	if _, err := h.Service.AssignLeaveType(ctx, seedActor, now, scenarioLuis, paternity.ID); err != nil {
		return err
	}

	attachment := "birth-certificate.pdf"
	if h.Uploads != nil {
		if attachment, err = h.Uploads.Save(attachment, strings.NewReader("demo certificate")); err != nil {
			return err
		}
	}

	// HR files it on Luis's behalf; Ana covers.
	_, err = h.Service.CreateRequest(ctx, seedActor, now, timeoff.CreateRequestInput{
		EmployeeID:     scenarioLuis,
		LeaveTypeID:    paternity.ID,
		Type:           timeoff.RequestFullDay,
		StartDate:      nextMonday(h.today().AddDays(7)),
		ReplacementID:  scenarioAna,
		AttachmentPath: attachment,
	})
	return err
}

func loadSaturdayRota(ctx context.Context, h *Handler) error {
	if err := seedTeam(ctx, h); err != nil {
		return err
	}
	first := generic.StartOfYear(h.today().Year())
	for !first.IsSaturday() {
		first = first.AddDays(1)
	}
	_, err := h.Calendar.GenerateAlternatingSaturdays(ctx, seedActor, first)
	return err
}

// nextMonday returns d if it is a Monday, else the following Monday.
func nextMonday(d generic.TimePoint) generic.TimePoint {
	for d.Weekday() != time.Monday {
		d = d.AddDays(1)
	}
	return d
}
