package timeoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// SERVICE - Request lifecycle and administration over a TxStore
// =============================================================================

// AttachmentChecker tells whether an uploaded attachment token exists.
// The service never reads file contents.
type AttachmentChecker interface {
	Exists(ctx context.Context, path string) bool
}

// AttachmentCheckerFunc adapts a function to AttachmentChecker.
type AttachmentCheckerFunc func(ctx context.Context, path string) bool

func (f AttachmentCheckerFunc) Exists(ctx context.Context, path string) bool { return f(ctx, path) }

// Service runs every mutating operation as one store transaction: bucket
// changes, the request row and the audit entry commit together.
type Service struct {
	Store    TxStore
	Log      logrus.FieldLogger
	Notifier Notifier

	// Attachments is optional; without it any non-empty path is accepted.
	Attachments AttachmentChecker

	NewID func() string
}

func NewService(store TxStore, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		Store:    store,
		Log:      log,
		Notifier: nopNotifier{},
		NewID:    uuid.NewString,
	}
}

func (s *Service) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

func (s *Service) ledger(store generic.BucketStore, now time.Time) *generic.Ledger {
	l := generic.NewLedger(store)
	l.Now = func() time.Time { return now }
	return l
}

func (s *Service) notify(ctx context.Context, events []Event) {
	if s.Notifier == nil {
		return
	}
	for _, e := range events {
		s.Notifier.Notify(ctx, e)
	}
}

func (s *Service) audit(ctx context.Context, store generic.AuditLog, now time.Time, e generic.AuditEntry) error {
	e.ID = s.newID()
	e.Timestamp = now
	if err := store.AppendAudit(ctx, e); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// leaveType resolves a request's leave type; empty means vacation. The
// vacation type is always available even before the catalog is seeded.
func (s *Service) leaveType(ctx context.Context, store LeaveTypeStore, id generic.ResourceID) (LeaveType, error) {
	if id == "" {
		id = VacationTypeID
	}
	lt, err := store.GetLeaveType(ctx, id)
	if err != nil {
		if id == VacationTypeID && generic.IsNotFound(err) {
			return VacationType(), nil
		}
		return LeaveType{}, err
	}
	return *lt, nil
}

// =============================================================================
// AUTHORIZATION - team and ownership rules on top of the role table
// =============================================================================

func authorize(actor Actor, owner Employee, action Action) error {
	deny := func(reason string) error {
		return &generic.ForbiddenError{ActorID: string(actor.ID), Action: string(action), Reason: reason}
	}
	switch action {
	case ActionManagerApprove, ActionReject, ActionManagerApproveCancel:
		if actor.ID == owner.ID && action != ActionReject {
			return deny("cannot approve own request")
		}
		if actor.Role == RoleManager && !owner.ManagedBy(actor.ID) {
			return deny("not the employee's manager")
		}
	case ActionHRApprove, ActionHRApproveCancel:
		if actor.ID == owner.ID {
			return deny("cannot approve own request")
		}
	case ActionRequestCancellation:
		if actor.ID != owner.ID {
			return deny("only the requester may ask to cancel")
		}
	}
	return nil
}

// canSee reports whether actor may read requests of owner.
func canSee(actor Actor, owner Employee) bool {
	return actor.CanReadAll() || actor.ID == owner.ID || owner.ManagedBy(actor.ID)
}

// =============================================================================
// CONDITIONAL UPDATE
// =============================================================================

func updateRequest(ctx context.Context, store RequestStore, r Request, expected Status, action Action) error {
	err := store.UpdateRequest(ctx, r, expected)
	if errors.Is(err, generic.ErrConcurrentModification) {
		return &generic.InvalidTransitionError{
			From:   string(expected),
			Action: string(action),
			Reason: "request was changed by someone else",
		}
	}
	return err
}
