/*
store.go - Persistence interfaces for buckets and the audit trail

PURPOSE:
  Defines the interface between the ledger and the database. Different
  implementations can use SQLite or in-memory storage; the ledger only
  sees this contract.

KEY INTERFACES:
  BucketStore: Load and save yearly buckets
  AuditLog:    Append-only record of who did what when

ATOMICITY:
  BucketStore itself is not transactional. Callers that must change
  several buckets and another record together (approving a request,
  cancelling it) run inside the domain store's WithTx, which hands them a
  BucketStore bound to the transaction. See timeoff/store.go.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for tests and demos

SEE ALSO:
  - ledger.go: Higher-level operations using BucketStore
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// BUCKET STORE
// =============================================================================

// BucketStore persists yearly buckets.
type BucketStore interface {
	// Buckets returns every bucket for entity+resource, in any order.
	Buckets(ctx context.Context, entityID EntityID, resourceID ResourceID) ([]Bucket, error)

	// Bucket returns one bucket, or a NotFoundError.
	Bucket(ctx context.Context, key BucketKey) (*Bucket, error)

	// SaveBucket inserts or replaces a bucket.
	SaveBucket(ctx context.Context, b Bucket) error

	// EntityBuckets returns every bucket an entity holds, across resources.
	EntityBuckets(ctx context.Context, entityID EntityID) ([]Bucket, error)
}

// =============================================================================
// AUDIT LOG - Separate from buckets, tracks who did what when
// =============================================================================

// AuditEntry records who did what when.
type AuditEntry struct {
	ID          string
	Timestamp   time.Time
	ActorID     string
	Action      AuditAction
	EntityID    EntityID
	ReferenceID string // request id, or empty for bucket edits
	FromStatus  string
	ToStatus    string
	Payload     map[string]any
}

type AuditAction string

const (
	AuditRequestCreated      AuditAction = "request_created"
	AuditRequestTransitioned AuditAction = "request_transitioned"
	AuditRequestInterrupted  AuditAction = "request_interrupted"
	AuditRequestModified     AuditAction = "request_modified"
	AuditManualAdjust        AuditAction = "manual_adjustment"
	AuditBucketCreated       AuditAction = "bucket_created"
	AuditStatusRefreshed     AuditAction = "status_refreshed"
)

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	EntityID    *EntityID
	ReferenceID *string
	Actions     []AuditAction
}

// Matches reports whether e passes every set field of the filter.
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.EntityID != nil && e.EntityID != *f.EntityID {
		return false
	}
	if f.ReferenceID != nil && e.ReferenceID != *f.ReferenceID {
		return false
	}
	if len(f.Actions) == 0 {
		return true
	}
	for _, a := range f.Actions {
		if e.Action == a {
			return true
		}
	}
	return false
}
