/*
Package factory provides JSON to Go leave-type conversion.

PURPOSE:
  Converts JSON leave-type definitions into timeoff.LeaveType values. This
  enables catalog configuration without code changes - HR can define
  leave types in JSON, and the factory creates the proper Go structs.

JSON SCHEMA:
  {
    "id": "paternidad",
    "name": "Paternidad",
    "requires_balance": true,
    "default_days": 14,
    "consumption_type": "fixed",
    "requires_attachment": true
  }

  A catalog file is either a single object or an array of them.

DEFAULTS:
  requires_balance:  true
  consumption_type:  "flexible"
  default_days:      0 (seniority formula / whole balance for fixed types)

USAGE:
  f := NewLeaveTypeFactory()

  // From JSON string
  lt, err := f.ParseLeaveType(jsonString)

  // From a seed file
  types, err := f.ParseCatalog(fileBytes)
  svc.EnsureCatalog(ctx, types)

SEE ALSO:
  - timeoff/types.go: LeaveType definition
  - timeoff/policies.go: Built-in and preset types
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LeaveTypeJSON is the JSON representation of a leave type.
type LeaveTypeJSON struct {
	ID                 string `json:"id,omitempty"`
	Name               string `json:"name"`
	RequiresBalance    *bool  `json:"requires_balance,omitempty"` // Default true
	DefaultDays        int    `json:"default_days,omitempty"`
	ConsumptionType    string `json:"consumption_type,omitempty"`
	RequiresAttachment bool   `json:"requires_attachment,omitempty"`
}

// =============================================================================
// LEAVE TYPE FACTORY
// =============================================================================

// LeaveTypeFactory converts JSON leave types to Go structs.
type LeaveTypeFactory struct{}

// NewLeaveTypeFactory creates a new leave-type factory.
func NewLeaveTypeFactory() *LeaveTypeFactory {
	return &LeaveTypeFactory{}
}

// ParseLeaveType parses a JSON string into a LeaveType.
func (f *LeaveTypeFactory) ParseLeaveType(jsonStr string) (*timeoff.LeaveType, error) {
	var lj LeaveTypeJSON
	if err := json.Unmarshal([]byte(jsonStr), &lj); err != nil {
		return nil, fmt.Errorf("failed to parse leave type JSON: %w", err)
	}
	lt, err := f.FromJSON(lj)
	if err != nil {
		return nil, err
	}
	return &lt, nil
}

// ParseCatalog parses a single object or an array of leave types.
func (f *LeaveTypeFactory) ParseCatalog(data []byte) ([]timeoff.LeaveType, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var items []LeaveTypeJSON
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to parse leave type catalog: %w", err)
		}
	} else {
		var one LeaveTypeJSON
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("failed to parse leave type catalog: %w", err)
		}
		items = []LeaveTypeJSON{one}
	}

	seen := make(map[string]bool, len(items))
	out := make([]timeoff.LeaveType, 0, len(items))
	for i, lj := range items {
		lt, err := f.FromJSON(lj)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		key := strings.ToLower(lt.Name)
		if seen[key] {
			return nil, fmt.Errorf("entry %d: %w", i, &generic.ConflictError{Reason: fmt.Sprintf("leave type %q is listed twice", lt.Name)})
		}
		seen[key] = true
		out = append(out, lt)
	}
	return out, nil
}

// LoadCatalogFile reads and parses a catalog seed file.
func (f *LeaveTypeFactory) LoadCatalogFile(path string) ([]timeoff.LeaveType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read leave type catalog: %w", err)
	}
	return f.ParseCatalog(data)
}

// FromJSON converts LeaveTypeJSON to timeoff.LeaveType.
func (f *LeaveTypeFactory) FromJSON(lj LeaveTypeJSON) (timeoff.LeaveType, error) {
	name := strings.TrimSpace(lj.Name)
	if name == "" {
		return timeoff.LeaveType{}, generic.NewValidationError("name", "name is required")
	}
	if lj.DefaultDays < 0 {
		return timeoff.LeaveType{}, generic.NewValidationError("default_days", "must not be negative")
	}
	ct, err := timeoff.ParseConsumptionType(lj.ConsumptionType)
	if err != nil {
		return timeoff.LeaveType{}, err
	}

	lt := timeoff.LeaveType{
		ID:                 generic.ResourceID(strings.TrimSpace(lj.ID)),
		Name:               name,
		RequiresBalance:    true,
		DefaultDays:        lj.DefaultDays,
		ConsumptionType:    ct,
		RequiresAttachment: lj.RequiresAttachment,
	}
	if lj.RequiresBalance != nil {
		lt.RequiresBalance = *lj.RequiresBalance
	}
	return lt, nil
}

// ToJSON converts a LeaveType to LeaveTypeJSON.
func (f *LeaveTypeFactory) ToJSON(lt timeoff.LeaveType) LeaveTypeJSON {
	requires := lt.RequiresBalance
	return LeaveTypeJSON{
		ID:                 string(lt.ID),
		Name:               lt.Name,
		RequiresBalance:    &requires,
		DefaultDays:        lt.DefaultDays,
		ConsumptionType:    string(lt.ConsumptionType),
		RequiresAttachment: lt.RequiresAttachment,
	}
}

// PresetCatalogJSON renders the preset types as a seed file.
func PresetCatalogJSON() string {
	f := NewLeaveTypeFactory()
	var items []LeaveTypeJSON
	for _, lt := range timeoff.PresetTypes() {
		items = append(items, f.ToJSON(lt))
	}
	data, _ := json.MarshalIndent(items, "", "  ")
	return string(data)
}
