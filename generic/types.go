/*
Package generic provides the core leave-balance engine.

PURPOSE:
  This package contains the domain-agnostic types and algorithms behind the
  leave system: day quantities, calendar dates, yearly balance buckets, the
  bucket ledger (deduct oldest-first, refund newest-first) and the error
  kinds every layer above reports with.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of days (0.5 for half days), backed by decimal
  - EntityID: Who owns a bucket (an employee)
  - ResourceID: What the bucket holds (a leave type)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so 0.5 + 0.5 is exactly 1
  2. Type Safety: Distinct ID types prevent mixing employees and leave types
  3. No hidden clock: every time-dependent function takes "now" explicitly

USAGE:
  half := generic.Days(0.5)
  total := generic.NewAmountFromInt(12, generic.UnitDays).Sub(half)

SEE ALSO:
  - balance.go: Buckets and balance aggregation
  - distribution.go: Deduction and refund planning
  - ledger.go: Bucket ledger over a Store
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays Unit = "days"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// Days is shorthand for an Amount in UnitDays.
func Days(value float64) Amount { return NewAmount(value, UnitDays) }

// ParseDays parses a decimal string such as "14.5" into days.
func ParseDays(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d, Unit: UnitDays}, nil
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.unit(b)} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.unit(b)} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Float64() float64             { return a.Value.InexactFloat64() }
func (a Amount) String() string               { return a.Value.String() }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// CeilInt rounds the amount up to whole days (a 14.5-day balance spans 15 calendar days).
func (a Amount) CeilInt() int { return int(a.Value.Ceil().IntPart()) }

// unit keeps the receiver's unit unless it is the zero value.
func (a Amount) unit(b Amount) Unit {
	if a.Unit == "" {
		return b.Unit
	}
	return a.Unit
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// EntityID identifies the owner of a bucket (an employee).
type EntityID string

// ResourceID identifies what a bucket holds (a leave type).
type ResourceID string
