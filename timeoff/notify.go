package timeoff

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// EVENTS - what collaborators hear after a change commits
// =============================================================================

// EventCreated is the Action reported for a new request.
const EventCreated Action = "created"

// Event describes one committed request change.
type Event struct {
	Action  Action
	Request Request
	Actor   Actor
	From    Status
	To      Status
	At      time.Time
}

// Notifier receives events after commit. Delivery (email, chat) is the
// collaborator's business; failures there never undo the change.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event)

func (f NotifierFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// LogNotifier writes every event to a logger.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Notify(_ context.Context, e Event) {
	n.Log.WithFields(logrus.Fields{
		"event":       e.Action,
		"request_id":  e.Request.ID,
		"employee_id": e.Request.EmployeeID,
		"actor_id":    e.Actor.ID,
		"from":        e.From,
		"to":          e.To,
	}).Info("request event")
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}
