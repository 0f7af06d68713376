package timeoff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// ROSTER
// =============================================================================

// SaveEmployee creates or updates a roster entry. HR only.
func (s *Service) SaveEmployee(ctx context.Context, actor Actor, e Employee) (*Employee, error) {
	if err := requireHR(actor, "save employee"); err != nil {
		return nil, err
	}
	e.FullName = strings.TrimSpace(e.FullName)
	if e.FullName == "" {
		return nil, generic.NewValidationError("full_name", "name is required")
	}
	if e.HireDate.IsZero() {
		return nil, generic.NewValidationError("hire_date", "hire date is required")
	}
	if e.Role == "" {
		e.Role = RoleEmployee
	}
	if _, err := ParseRole(string(e.Role)); err != nil {
		return nil, err
	}
	if e.ID == "" {
		e.ID = generic.EntityID(s.newID())
		e.Active = true
	}
	if e.ManagedBy(e.ID) {
		return nil, generic.NewValidationError("manager_id", "an employee cannot manage themselves")
	}
	if e.ManagerID != nil {
		if _, err := s.Store.GetEmployee(ctx, *e.ManagerID); err != nil {
			return nil, err
		}
	}
	if err := s.Store.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// BootstrapHR stores e as an active HR employee when the roster is
// empty, so a fresh install has someone able to call SaveEmployee. It
// reports whether e was stored.
func (s *Service) BootstrapHR(ctx context.Context, e Employee) (bool, error) {
	all, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return false, err
	}
	if len(all) > 0 {
		return false, nil
	}
	if e.ID == "" || strings.TrimSpace(e.FullName) == "" || e.HireDate.IsZero() {
		return false, generic.NewValidationError("bootstrap", "id, name and hire date are required")
	}
	e.Role = RoleHR
	e.Active = true
	e.ManagerID = nil
	if err := s.Store.SaveEmployee(ctx, e); err != nil {
		return false, err
	}
	s.Log.WithField("employee_id", e.ID).Warn("empty roster, bootstrap hr account created")
	return true, nil
}

// GetEmployee returns one roster entry visible to actor.
func (s *Service) GetEmployee(ctx context.Context, actor Actor, id generic.EntityID) (*Employee, error) {
	e, err := s.Store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, *e) {
		return nil, &generic.ForbiddenError{ActorID: string(actor.ID), Action: "view employee", Reason: "not visible to this actor"}
	}
	return e, nil
}

// ListEmployees returns the roster visible to actor.
func (s *Service) ListEmployees(ctx context.Context, actor Actor) ([]Employee, error) {
	all, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	if actor.CanReadAll() {
		return all, nil
	}
	var out []Employee
	for _, e := range all {
		if canSee(actor, e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// DeactivateEmployee marks an employee inactive. Employees are never
// deleted; their requests and buckets stay readable.
func (s *Service) DeactivateEmployee(ctx context.Context, actor Actor, id generic.EntityID) error {
	if err := requireHR(actor, "deactivate employee"); err != nil {
		return err
	}
	e, err := s.Store.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	if !e.Active {
		return nil
	}
	e.Active = false
	if err := s.Store.SaveEmployee(ctx, *e); err != nil {
		return err
	}
	s.Log.WithField("employee_id", id).Info("employee deactivated")
	return nil
}

// =============================================================================
// LEAVE TYPE CATALOG
// =============================================================================

// CreateLeaveType adds a catalog entry. Names are unique.
func (s *Service) CreateLeaveType(ctx context.Context, actor Actor, lt LeaveType) (*LeaveType, error) {
	if err := requireHR(actor, "create leave type"); err != nil {
		return nil, err
	}
	lt.Name = strings.TrimSpace(lt.Name)
	if lt.Name == "" {
		return nil, generic.NewValidationError("name", "name is required")
	}
	if lt.DefaultDays < 0 {
		return nil, generic.NewValidationError("default_days", "must not be negative")
	}
	if lt.ConsumptionType == "" {
		lt.ConsumptionType = ConsumptionFlexible
	}
	if _, err := ParseConsumptionType(string(lt.ConsumptionType)); err != nil {
		return nil, err
	}
	if lt.ID == "" {
		lt.ID = generic.ResourceID(uuid.NewString())
	}
	if err := s.Store.SaveLeaveType(ctx, lt); err != nil {
		return nil, err
	}
	return &lt, nil
}

// ListLeaveTypes returns the catalog, vacation included even before seeding.
func (s *Service) ListLeaveTypes(ctx context.Context) ([]LeaveType, error) {
	types, err := s.Store.ListLeaveTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, lt := range types {
		if lt.IsBuiltin() {
			return types, nil
		}
	}
	return append([]LeaveType{VacationType()}, types...), nil
}

// DeleteLeaveType removes a catalog entry. The vacation type stays.
func (s *Service) DeleteLeaveType(ctx context.Context, actor Actor, id generic.ResourceID) error {
	if err := requireHR(actor, "delete leave type"); err != nil {
		return err
	}
	lt, err := s.leaveType(ctx, s.Store, id)
	if err != nil {
		return err
	}
	if lt.IsBuiltin() {
		return generic.NewValidationError("leave_type_id", "%s cannot be deleted", lt.Name)
	}
	return s.Store.DeleteLeaveType(ctx, id)
}

// EnsureCatalog stores the vacation type and every type in extra whose
// name is not taken yet. It returns how many were added.
func (s *Service) EnsureCatalog(ctx context.Context, extra []LeaveType) (int, error) {
	existing, err := s.Store.ListLeaveTypes(ctx)
	if err != nil {
		return 0, err
	}
	taken := make(map[string]bool, len(existing))
	for _, lt := range existing {
		taken[strings.ToLower(lt.Name)] = true
	}
	added := 0
	for _, lt := range append([]LeaveType{VacationType()}, extra...) {
		if taken[strings.ToLower(lt.Name)] {
			continue
		}
		if lt.ID == "" {
			lt.ID = generic.ResourceID(uuid.NewString())
		}
		if err := s.Store.SaveLeaveType(ctx, lt); err != nil {
			return added, fmt.Errorf("seed leave type %s: %w", lt.Name, err)
		}
		taken[strings.ToLower(lt.Name)] = true
		added++
	}
	if added > 0 {
		s.Log.WithField("added", added).Info("leave type catalog seeded")
	}
	return added, nil
}

// =============================================================================
// BUCKETS
// =============================================================================

// GenerateYear opens a vacation bucket for year for every active employee
// who has none, sized by seniority as of now. Returns how many were opened.
func (s *Service) GenerateYear(ctx context.Context, actor Actor, now time.Time, year int) (int, error) {
	if err := requireHR(actor, "generate year"); err != nil {
		return 0, err
	}
	if year < 1 {
		return 0, generic.NewValidationError("year", "invalid year %d", year)
	}
	opened := 0
	err := s.Store.WithTx(ctx, func(tx Store) error {
		opened = 0
		emps, err := tx.ListEmployees(ctx)
		if err != nil {
			return err
		}
		ledger := s.ledger(tx, now)
		today := generic.DateOf(now)
		for _, e := range emps {
			if !e.Active {
				continue
			}
			key := generic.BucketKey{EntityID: e.ID, ResourceID: VacationTypeID, Year: year}
			accrued := SeniorityAccrual{}.Entitlement(e.HireDate, today)
			b, err := ledger.Open(ctx, key, accrued, "")
			if errors.Is(err, generic.ErrConflict) {
				continue
			}
			if err != nil {
				return err
			}
			if err := s.auditBucket(ctx, tx, actor, now, *b, generic.AuditBucketCreated, ""); err != nil {
				return err
			}
			opened++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.Log.WithFields(logrus.Fields{"year": year, "opened": opened}).Info("vacation year generated")
	return opened, nil
}

// AssignLeaveType opens a bucket of leaveTypeID for the current year,
// sized by the type's entitlement rule.
func (s *Service) AssignLeaveType(ctx context.Context, actor Actor, now time.Time, employeeID generic.EntityID, leaveTypeID generic.ResourceID) (*generic.Bucket, error) {
	if err := requireHR(actor, "assign leave type"); err != nil {
		return nil, err
	}
	var out generic.Bucket
	err := s.Store.WithTx(ctx, func(tx Store) error {
		emp, err := tx.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		lt, err := s.leaveType(ctx, tx, leaveTypeID)
		if err != nil {
			return err
		}
		today := generic.DateOf(now)
		accrued := EntitlementRuleFor(lt).Entitlement(emp.HireDate, today)
		key := generic.BucketKey{EntityID: emp.ID, ResourceID: lt.ID, Year: today.Year()}
		b, err := s.ledger(tx, now).Open(ctx, key, accrued, "")
		if err != nil {
			return err
		}
		out = *b
		return s.auditBucket(ctx, tx, actor, now, *b, generic.AuditBucketCreated, "")
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddBucket opens a bucket with an explicit accrual.
func (s *Service) AddBucket(ctx context.Context, actor Actor, now time.Time, key generic.BucketKey, accrued generic.Amount, comment string) (*generic.Bucket, error) {
	if err := requireHR(actor, "add bucket"); err != nil {
		return nil, err
	}
	var out generic.Bucket
	err := s.Store.WithTx(ctx, func(tx Store) error {
		if _, err := tx.GetEmployee(ctx, key.EntityID); err != nil {
			return err
		}
		lt, err := s.leaveType(ctx, tx, key.ResourceID)
		if err != nil {
			return err
		}
		key.ResourceID = lt.ID
		b, err := s.ledger(tx, now).Open(ctx, key, accrued, strings.TrimSpace(comment))
		if err != nil {
			return err
		}
		out = *b
		return s.auditBucket(ctx, tx, actor, now, *b, generic.AuditBucketCreated, comment)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// OverrideBucket sets a bucket's accrued and taken days directly. A
// comment is mandatory and kept on the bucket.
func (s *Service) OverrideBucket(ctx context.Context, actor Actor, now time.Time, key generic.BucketKey, accrued, taken generic.Amount, comment string) (*generic.Bucket, error) {
	if err := requireHR(actor, "override bucket"); err != nil {
		return nil, err
	}
	var out generic.Bucket
	err := s.Store.WithTx(ctx, func(tx Store) error {
		before, err := tx.Bucket(ctx, key)
		if err != nil {
			return err
		}
		b, err := s.ledger(tx, now).Override(ctx, key, accrued, taken, comment)
		if err != nil {
			return err
		}
		out = *b
		return s.audit(ctx, tx, now, generic.AuditEntry{
			ActorID:     string(actor.ID),
			Action:      generic.AuditManualAdjust,
			EntityID:    key.EntityID,
			ReferenceID: bucketRef(key),
			Payload: map[string]any{
				"old_accrued": before.Accrued.String(),
				"old_taken":   before.Taken.String(),
				"accrued":     b.Accrued.String(),
				"taken":       b.Taken.String(),
				"comment":     b.Comment,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{
		"employee_id": key.EntityID,
		"leave_type":  key.ResourceID,
		"year":        key.Year,
		"actor_id":    actor.ID,
	}).Warn("bucket overridden by hand")
	return &out, nil
}

// Balance is the aggregate available days of one leave type.
func (s *Service) Balance(ctx context.Context, actor Actor, employeeID generic.EntityID, leaveTypeID generic.ResourceID) (generic.BalanceSummary, error) {
	if _, err := s.GetEmployee(ctx, actor, employeeID); err != nil {
		return generic.BalanceSummary{}, err
	}
	if leaveTypeID == "" {
		leaveTypeID = VacationTypeID
	}
	return generic.NewLedger(s.Store).Summary(ctx, employeeID, leaveTypeID)
}

// Balances summarizes every leave type the employee holds buckets for.
func (s *Service) Balances(ctx context.Context, actor Actor, employeeID generic.EntityID) ([]generic.BalanceSummary, error) {
	if _, err := s.GetEmployee(ctx, actor, employeeID); err != nil {
		return nil, err
	}
	buckets, err := s.Store.EntityBuckets(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	byType := map[generic.ResourceID][]generic.Bucket{}
	var order []generic.ResourceID
	for _, b := range buckets {
		if _, ok := byType[b.ResourceID]; !ok {
			order = append(order, b.ResourceID)
		}
		byType[b.ResourceID] = append(byType[b.ResourceID], b)
	}
	out := make([]generic.BalanceSummary, 0, len(order))
	for _, id := range order {
		out = append(out, generic.Summarize(employeeID, id, byType[id]))
	}
	return out, nil
}

func (s *Service) auditBucket(ctx context.Context, tx Store, actor Actor, now time.Time, b generic.Bucket, action generic.AuditAction, comment string) error {
	return s.audit(ctx, tx, now, generic.AuditEntry{
		ActorID:     string(actor.ID),
		Action:      action,
		EntityID:    b.EntityID,
		ReferenceID: bucketRef(b.Key()),
		Payload: map[string]any{
			"accrued": b.Accrued.String(),
			"comment": comment,
		},
	})
}

func bucketRef(k generic.BucketKey) string {
	return fmt.Sprintf("bucket:%s:%d", k.ResourceID, k.Year)
}
