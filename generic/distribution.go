/*
distribution.go - Deciding which yearly buckets a movement touches

PURPOSE:
  An employee can hold several buckets for the same leave type, one per
  year. When days are deducted or refunded, something has to decide how
  the amount spreads across those buckets. That decision lives here as
  pure functions, so it can be tested without a store and applied by the
  ledger in one write batch.

ORDERING:
  Deduction: oldest year first. Each bucket gives up to its capacity
             (accrued - taken, floored at zero).
  Refund:    newest year first. Each bucket takes back up to its current
             taken amount. Refunds are best effort: whatever cannot be
             placed is reported as Unplaced, never as an error.

  Refund is a heuristic. It does not remember which bucket a request was
  originally drawn from, so a refund after a year rollover may credit a
  newer bucket than the one that paid.

EXAMPLE:
  Buckets: 2023 remaining 2, 2024 remaining 10
  DistributeDeduction(buckets, 5)
    -> 2023: 2, 2024: 3

SEE ALSO:
  - balance.go: Bucket definition
  - ledger.go: Applies a Distribution through the Store
*/
package generic

// =============================================================================
// DISTRIBUTION RESULT
// =============================================================================

// Allocation is the share of a movement assigned to one bucket.
type Allocation struct {
	Year   int
	Amount Amount
}

// Distribution is the planned effect of a deduct or refund.
type Distribution struct {
	Allocations []Allocation

	// Updated holds the buckets with Taken already adjusted, ready to save.
	Updated []Bucket

	// Placed is the sum of the allocations.
	Placed Amount

	// Unplaced is the part of a refund no bucket could absorb.
	Unplaced Amount
}

// =============================================================================
// DEDUCTION - oldest first, all or nothing
// =============================================================================

// DistributeDeduction plans drawing amount from buckets, oldest year first.
// It returns an InsufficientBalanceError, and no plan, when the aggregate
// balance is below amount.
func DistributeDeduction(buckets []Bucket, amount Amount) (Distribution, error) {
	if amount.IsNegative() {
		return Distribution{}, NewValidationError("amount", "must not be negative")
	}

	var entityID EntityID
	var resourceID ResourceID
	if len(buckets) > 0 {
		entityID, resourceID = buckets[0].EntityID, buckets[0].ResourceID
	}

	summary := Summarize(entityID, resourceID, buckets)
	available := summary.Available()
	if available.LessThan(amount) {
		return Distribution{}, &InsufficientBalanceError{
			EntityID:   entityID,
			ResourceID: resourceID,
			Available:  available,
			Requested:  amount,
			Shortfall:  amount.Sub(available),
		}
	}

	dist := Distribution{Placed: Days(0), Unplaced: Days(0)}
	left := amount
	for _, b := range summary.Buckets {
		if !left.IsPositive() {
			break
		}
		take := b.Capacity().Min(left)
		if !take.IsPositive() {
			continue
		}
		b.Taken = b.Taken.Add(take)
		left = left.Sub(take)
		dist.Allocations = append(dist.Allocations, Allocation{Year: b.Year, Amount: take})
		dist.Updated = append(dist.Updated, b)
		dist.Placed = dist.Placed.Add(take)
	}
	return dist, nil
}

// =============================================================================
// REFUND - newest first, best effort
// =============================================================================

// DistributeRefund plans returning amount to buckets, newest year first.
// Each bucket gives back at most what it has taken.
func DistributeRefund(buckets []Bucket, amount Amount) Distribution {
	dist := Distribution{Placed: Days(0), Unplaced: Days(0)}
	if !amount.IsPositive() {
		return dist
	}

	left := amount
	for _, b := range SortByYear(buckets, false) {
		if !left.IsPositive() {
			break
		}
		give := b.Taken.Min(left)
		if !give.IsPositive() {
			continue
		}
		b.Taken = b.Taken.Sub(give)
		left = left.Sub(give)
		dist.Allocations = append(dist.Allocations, Allocation{Year: b.Year, Amount: give})
		dist.Updated = append(dist.Updated, b)
		dist.Placed = dist.Placed.Add(give)
	}
	dist.Unplaced = left
	return dist
}
