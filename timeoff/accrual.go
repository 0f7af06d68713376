/*
accrual.go - Seniority-based yearly entitlement

PURPOSE:
  Decides how many days a new yearly bucket is seeded with.

SENIORITY FORMULA:
  seniority = (today - hire_date) / 365.25 years
    <= 5 years  -> 12 days
    <= 10 years -> 18 days
    > 10 years  -> 30 days

PER LEAVE TYPE:
  A leave type with a nonzero DefaultDays grants exactly that many days.
  Otherwise the seniority formula applies, the same as for vacations.

EXAMPLE:
  hired 2019-03-01, today 2025-06-01 -> 6.25 years -> 18 days

SEE ALSO:
  - generic/accrual.go: EntitlementRule and TenureTier
  - admin.go: GenerateYear / AssignLeaveType seed buckets with these rules
*/
package timeoff

import (
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// SENIORITY ACCRUAL
// =============================================================================

// DefaultSeniorityTiers is the statutory vacation scale.
var DefaultSeniorityTiers = []generic.TenureTier{
	{UpToYears: 5, Days: 12},
	{UpToYears: 10, Days: 18},
	{Days: 30},
}

// SeniorityAccrual implements generic.EntitlementRule with tenure tiers.
type SeniorityAccrual struct {
	Tiers []generic.TenureTier
}

// Compile-time check
var _ generic.EntitlementRule = SeniorityAccrual{}

func (a SeniorityAccrual) Entitlement(hireDate, asOf generic.TimePoint) generic.Amount {
	tiers := a.Tiers
	if len(tiers) == 0 {
		tiers = DefaultSeniorityTiers
	}
	tier, ok := generic.TierFor(tiers, generic.SeniorityYears(hireDate, asOf))
	if !ok {
		return generic.Days(0)
	}
	return generic.NewAmountFromInt(tier.Days, generic.UnitDays)
}

// AccruedDays is the yearly vacation entitlement for someone hired on
// hireDate, as of today.
func AccruedDays(hireDate, today generic.TimePoint) int {
	return int(SeniorityAccrual{}.Entitlement(hireDate, today).Value.IntPart())
}

// EntitlementRuleFor returns the rule that seeds buckets of lt.
func EntitlementRuleFor(lt LeaveType) generic.EntitlementRule {
	if lt.DefaultDays > 0 {
		return generic.FlatEntitlement{Amount: generic.NewAmountFromInt(lt.DefaultDays, generic.UnitDays)}
	}
	return SeniorityAccrual{}
}
