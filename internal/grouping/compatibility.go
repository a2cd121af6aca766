package grouping

import (
	"errors"
	"fmt"

	"github.com/iliyamo/rideshare-groups/internal/model"
)

// Hard rejections.  Any of these aborts the move without touching state.
var (
	ErrDateMismatch      = errors.New("rider date differs from group date")
	ErrGroupFull         = errors.New("group already has the maximum number of riders")
	ErrAirportMismatch   = errors.New("rider airport differs from group airport")
	ErrDirectionMismatch = errors.New("rider direction differs from group direction")
)

// Warning codes for soft, overridable failures.
const (
	WarnBagCapacity    = "BAG_CAPACITY"
	WarnNoVehicleClass = "NO_VEHICLE_CLASS"
)

// Warning is an advisory the operator may dismiss by confirming.
type Warning struct {
	Code    string
	Message string
}

// Assessment is the outcome of a successful hard check.  Warnings may still
// be present; BagUnits and VehicleClass describe the group after the rider
// joins.
type Assessment struct {
	Warnings     []Warning
	BagUnits     int
	VehicleClass model.VehicleClass
}

// Validator decides whether a rider may join a group.
type Validator struct {
	AdvisoryLimit int
}

// NewValidator returns a validator with the given soft bag limit.  A
// non-positive limit falls back to DefaultAdvisoryLimit.
func NewValidator(limit int) Validator {
	if limit <= 0 {
		limit = DefaultAdvisoryLimit
	}
	return Validator{AdvisoryLimit: limit}
}

// TimeCompatible requires the same travel date and overlapping windows.
func TimeCompatible(g model.Group, r model.Rider) bool {
	if !model.DateOnly(g.Date).Equal(model.DateOnly(r.Date)) {
		return false
	}
	return r.Window.Overlaps(GroupWindow(g))
}

// CapacityCompatible is the soft bag check: the grown group must stay at or
// under limit.
func CapacityCompatible(g model.Group, r model.Rider, limit int) bool {
	return BagUnits(g.Riders)+BagUnits([]model.Rider{r}) <= limit
}

// CheckAssignment runs the hard checks and then collects soft warnings.
// A non-nil error is a hard rejection.
func (v Validator) CheckAssignment(g model.Group, r model.Rider) (Assessment, error) {
	if len(g.Riders) >= model.MaxGroupSize {
		return Assessment{}, ErrGroupFull
	}
	if g.Airport != "" && r.Airport != g.Airport {
		return Assessment{}, ErrAirportMismatch
	}
	if g.Direction != "" && r.Direction != g.Direction {
		return Assessment{}, ErrDirectionMismatch
	}
	if !model.DateOnly(g.Date).Equal(model.DateOnly(r.Date)) {
		return Assessment{}, ErrDateMismatch
	}
	if !TimeCompatible(g, r) {
		return Assessment{}, ErrNoOverlap
	}

	grown := append(append([]model.Rider{}, g.Riders...), r)
	a := Assessment{
		BagUnits:     BagUnits(grown),
		VehicleClass: ClassifyGroup(grown),
	}
	if !CapacityCompatible(g, r, v.AdvisoryLimit) {
		a.Warnings = append(a.Warnings, Warning{
			Code:    WarnBagCapacity,
			Message: fmt.Sprintf("group would carry %d bag units, above the advisory limit of %d", a.BagUnits, v.AdvisoryLimit),
		})
	}
	if a.VehicleClass == model.VehicleNone {
		a.Warnings = append(a.Warnings, Warning{
			Code:    WarnNoVehicleClass,
			Message: fmt.Sprintf("no vehicle fits %d riders with %d bag units", len(grown), a.BagUnits),
		})
	}
	return a, nil
}
