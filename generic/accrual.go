package generic

import "sort"

// =============================================================================
// ENTITLEMENT RULE - Interface for how many days a bucket is seeded with
// =============================================================================

// EntitlementRule decides the accrual of a new yearly bucket.
// Implementations define the business logic (seniority tiers, flat amount).
type EntitlementRule interface {
	// Entitlement returns the days granted to someone hired on hireDate,
	// evaluated as of asOf.
	Entitlement(hireDate, asOf TimePoint) Amount
}

// =============================================================================
// TENURE TIERS
// =============================================================================

// DaysPerYear is the length of a year used for seniority, leap years averaged in.
const DaysPerYear = 365.25

// SeniorityYears returns (asOf - hireDate) / 365.25.
func SeniorityYears(hireDate, asOf TimePoint) float64 {
	return float64(DaysBetween(hireDate, asOf)) / DaysPerYear
}

// TenureTier grants Days to anyone with seniority up to UpToYears inclusive.
// A zero UpToYears marks the open-ended top tier.
type TenureTier struct {
	UpToYears float64
	Days      int
}

// TierFor picks the first tier whose bound covers years. Tiers are
// evaluated in ascending bound order with the open-ended tier last.
func TierFor(tiers []TenureTier, years float64) (TenureTier, bool) {
	sorted := make([]TenureTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].UpToYears, sorted[j].UpToYears
		if a == 0 {
			return false
		}
		if b == 0 {
			return true
		}
		return a < b
	})
	for _, t := range sorted {
		if t.UpToYears == 0 || years <= t.UpToYears {
			return t, true
		}
	}
	return TenureTier{}, false
}

// FlatEntitlement grants the same amount regardless of seniority.
type FlatEntitlement struct {
	Amount Amount
}

func (f FlatEntitlement) Entitlement(_, _ TimePoint) Amount { return f.Amount }
