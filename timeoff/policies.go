/*
policies.go - Built-in leave types

PURPOSE:
  The catalog always contains the vacation type. Legacy requests without
  a leave type are treated as vacation, and it cannot be deleted.

AVAILABLE PRESETS:
  VacationType:  balance-backed, flexible (working-day counting)
  PresetTypes:   common optional types a deployment may seed

CUSTOMIZATION:
  Presets are starting points; deployments load their own catalog from
  JSON (see factory/leavetype.go) on top of the built-in vacation type.

SEE ALSO:
  - factory/leavetype.go: JSON-based catalog creation
  - admin.go: EnsureCatalog seeds these on startup
*/
package timeoff

import "github.com/warp/leave-engine/generic"

// =============================================================================
// BUILT-IN VACATION TYPE
// =============================================================================

const (
	VacationTypeID   generic.ResourceID = "vacaciones"
	VacationTypeName                    = "Vacaciones"
)

// VacationType returns the built-in vacation leave type.
func VacationType() LeaveType {
	return LeaveType{
		ID:              VacationTypeID,
		Name:            VacationTypeName,
		RequiresBalance: true,
		ConsumptionType: ConsumptionFlexible,
	}
}

// =============================================================================
// PRESETS
// =============================================================================

// PresetTypes are optional types commonly found next to vacation.
func PresetTypes() []LeaveType {
	return []LeaveType{
		{
			ID:                 "maternidad",
			Name:               "Maternidad",
			RequiresBalance:    true,
			DefaultDays:        126,
			ConsumptionType:    ConsumptionFixed,
			RequiresAttachment: true,
		},
		{
			ID:                 "paternidad",
			Name:               "Paternidad",
			RequiresBalance:    true,
			DefaultDays:        14,
			ConsumptionType:    ConsumptionFixed,
			RequiresAttachment: true,
		},
		{
			ID:                 "reposo",
			Name:               "Reposo Medico",
			RequiresBalance:    false,
			ConsumptionType:    ConsumptionFlexible,
			RequiresAttachment: true,
		},
		{
			ID:              "permiso",
			Name:            "Permiso Personal",
			RequiresBalance: false,
			ConsumptionType: ConsumptionFlexible,
		},
	}
}
