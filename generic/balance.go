/*
balance.go - Yearly buckets and balance aggregation

PURPOSE:
  A bucket is one (entity, year, resource) balance record: what was
  accrued for that year and how much of it has been taken. The balance an
  employee sees for a leave type is the sum of every bucket's remaining
  capacity for that type.

KEY INSIGHT:
  Buckets are mutable counters, not an event log. Only the ledger's
  deduct/refund operations or an explicit override (with a comment) touch
  Taken, so a bucket can only go over its accrual through an override.

BALANCE COMPONENTS:
  Accrued:   total_days_accrued for the year
  Taken:     days_taken for the year
  Remaining: Accrued - Taken (may be negative after an override)

EXAMPLE:
  2023: accrued 12, taken 10 -> remaining 2
  2024: accrued 12, taken 2  -> remaining 10
  Balance = 12

SEE ALSO:
  - distribution.go: Decides which buckets a deduction or refund touches
  - ledger.go: Applies those decisions through a Store
*/
package generic

import (
	"sort"
	"time"
)

// =============================================================================
// BUCKET - One (entity, year, resource) balance record
// =============================================================================

// BucketKey uniquely identifies a bucket.
type BucketKey struct {
	EntityID   EntityID
	ResourceID ResourceID
	Year       int
}

// Bucket is the persisted per-year balance record.
type Bucket struct {
	EntityID   EntityID
	ResourceID ResourceID
	Year       int
	Accrued    Amount
	Taken      Amount

	// Comment is required when the bucket was edited by hand.
	Comment   string
	UpdatedAt time.Time
}

func (b Bucket) Key() BucketKey {
	return BucketKey{EntityID: b.EntityID, ResourceID: b.ResourceID, Year: b.Year}
}

// Remaining is Accrued - Taken.
func (b Bucket) Remaining() Amount {
	return b.Accrued.Sub(b.Taken)
}

// Capacity is what a deduction may still draw from this bucket (never negative).
func (b Bucket) Capacity() Amount {
	r := b.Remaining()
	if r.IsNegative() {
		return r.Zero()
	}
	return r
}

// =============================================================================
// BALANCE SUMMARY - Aggregate over all of an entity's buckets for a resource
// =============================================================================

// BalanceSummary aggregates the buckets for one (entity, resource).
type BalanceSummary struct {
	EntityID   EntityID
	ResourceID ResourceID
	Accrued    Amount
	Taken      Amount
	Buckets    []Bucket
}

// Available returns the sum of (accrued - taken) across buckets.
func (s BalanceSummary) Available() Amount {
	return s.Accrued.Sub(s.Taken)
}

// Summarize aggregates buckets, sorted oldest year first.
func Summarize(entityID EntityID, resourceID ResourceID, buckets []Bucket) BalanceSummary {
	sorted := SortByYear(buckets, true)
	s := BalanceSummary{
		EntityID:   entityID,
		ResourceID: resourceID,
		Accrued:    Days(0),
		Taken:      Days(0),
		Buckets:    sorted,
	}
	for _, b := range sorted {
		s.Accrued = s.Accrued.Add(b.Accrued)
		s.Taken = s.Taken.Add(b.Taken)
	}
	return s
}

// SortByYear returns a copy of buckets ordered by year.
func SortByYear(buckets []Bucket, ascending bool) []Bucket {
	out := make([]Bucket, len(buckets))
	copy(out, buckets)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Year < out[j].Year
		}
		return out[i].Year > out[j].Year
	})
	return out
}
