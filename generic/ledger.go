/*
ledger.go - Bucket ledger: balance, deduct, refund, override

PURPOSE:
  The Ledger is the only writer of bucket Taken amounts outside an
  explicit HR override. It answers "how many days are left" and moves
  days in and out of yearly buckets.

CRITICAL INVARIANTS:
  1. ALL-OR-NOTHING DEDUCTION: a deduction that would take the aggregate
     balance below zero fails before any bucket is written.
  2. ORDER: deduct oldest year first, refund newest year first.
  3. BEST-EFFORT REFUND: refunds never fail for lack of room; the
     unplaced remainder is reported to the caller.
  4. OVERRIDES CARRY A COMMENT: a hand edit without a comment is rejected.

ATOMICITY:
  The ledger plans every movement before writing. Writes that span
  several buckets are only atomic against storage failures when the
  BucketStore passed in is bound to a transaction (see timeoff.TxStore).

EXAMPLE FLOW:
  1. 2023 bucket: 12 accrued, 10 taken; 2024 bucket: 12 accrued, 2 taken
  2. Deduct 5  -> 2023 taken 12, 2024 taken 5
  3. Refund 3  -> 2024 taken 2
  4. Balance   -> 10

SEE ALSO:
  - distribution.go: The ordering rules
  - store.go: BucketStore
  - timeoff/request.go: Calls the ledger on approval, cancellation, edits
*/
package generic

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger applies balance movements to yearly buckets.
type Ledger struct {
	Store BucketStore

	// Now stamps UpdatedAt on written buckets. Defaults to time.Now.
	Now func() time.Time
}

func NewLedger(store BucketStore) *Ledger {
	return &Ledger{Store: store, Now: time.Now}
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

// Balance returns the sum of (accrued - taken) across the entity's buckets
// for resource. No buckets means a zero balance.
func (l *Ledger) Balance(ctx context.Context, entityID EntityID, resourceID ResourceID) (Amount, error) {
	summary, err := l.Summary(ctx, entityID, resourceID)
	if err != nil {
		return Amount{}, err
	}
	return summary.Available(), nil
}

// Summary returns the balance together with its buckets, oldest first.
func (l *Ledger) Summary(ctx context.Context, entityID EntityID, resourceID ResourceID) (BalanceSummary, error) {
	buckets, err := l.Store.Buckets(ctx, entityID, resourceID)
	if err != nil {
		return BalanceSummary{}, fmt.Errorf("load buckets: %w", err)
	}
	return Summarize(entityID, resourceID, buckets), nil
}

// Deduct draws amount from the buckets, oldest year first. On an
// InsufficientBalanceError no bucket has been written.
func (l *Ledger) Deduct(ctx context.Context, entityID EntityID, resourceID ResourceID, amount Amount) (Distribution, error) {
	buckets, err := l.Store.Buckets(ctx, entityID, resourceID)
	if err != nil {
		return Distribution{}, fmt.Errorf("load buckets: %w", err)
	}
	dist, err := DistributeDeduction(buckets, amount)
	if err != nil {
		if ib, ok := err.(*InsufficientBalanceError); ok {
			ib.EntityID, ib.ResourceID = entityID, resourceID
		}
		return Distribution{}, err
	}
	if err := l.save(ctx, dist.Updated); err != nil {
		return Distribution{}, err
	}
	return dist, nil
}

// Refund returns amount to the buckets, newest year first. It does not
// fail when the buckets cannot absorb all of it; see Distribution.Unplaced.
func (l *Ledger) Refund(ctx context.Context, entityID EntityID, resourceID ResourceID, amount Amount) (Distribution, error) {
	buckets, err := l.Store.Buckets(ctx, entityID, resourceID)
	if err != nil {
		return Distribution{}, fmt.Errorf("load buckets: %w", err)
	}
	dist := DistributeRefund(buckets, amount)
	if err := l.save(ctx, dist.Updated); err != nil {
		return Distribution{}, err
	}
	return dist, nil
}

// Override sets a bucket's accrued and taken amounts directly, bypassing
// the ordering rules. The bucket must exist and comment must be non-empty.
func (l *Ledger) Override(ctx context.Context, key BucketKey, accrued, taken Amount, comment string) (*Bucket, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, NewValidationError("comment", "a comment is required when editing a bucket by hand")
	}
	if accrued.IsNegative() || taken.IsNegative() {
		return nil, NewValidationError("amount", "accrued and taken must not be negative")
	}
	b, err := l.Store.Bucket(ctx, key)
	if err != nil {
		return nil, err
	}
	b.Accrued = accrued
	b.Taken = taken
	b.Comment = strings.TrimSpace(comment)
	b.UpdatedAt = l.now()
	if err := l.Store.SaveBucket(ctx, *b); err != nil {
		return nil, fmt.Errorf("save bucket %d: %w", key.Year, err)
	}
	return b, nil
}

// Open creates a bucket with the given accrual. It returns a ConflictError
// when the bucket already exists.
func (l *Ledger) Open(ctx context.Context, key BucketKey, accrued Amount, comment string) (*Bucket, error) {
	if accrued.IsNegative() {
		return nil, NewValidationError("accrued", "must not be negative")
	}
	_, err := l.Store.Bucket(ctx, key)
	switch {
	case err == nil:
		return nil, &ConflictError{Reason: fmt.Sprintf("bucket %s/%s/%d already exists", key.EntityID, key.ResourceID, key.Year)}
	case !IsNotFound(err):
		return nil, err
	}
	b := Bucket{
		EntityID:   key.EntityID,
		ResourceID: key.ResourceID,
		Year:       key.Year,
		Accrued:    accrued,
		Taken:      Days(0),
		Comment:    comment,
		UpdatedAt:  l.now(),
	}
	if err := l.Store.SaveBucket(ctx, b); err != nil {
		return nil, fmt.Errorf("save bucket %d: %w", key.Year, err)
	}
	return &b, nil
}

func (l *Ledger) save(ctx context.Context, buckets []Bucket) error {
	now := l.now()
	for _, b := range buckets {
		b.UpdatedAt = now
		if err := l.Store.SaveBucket(ctx, b); err != nil {
			return fmt.Errorf("save bucket %d: %w", b.Year, err)
		}
	}
	return nil
}
