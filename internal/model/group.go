package model

import "time"

// VehicleClass is a capacity tier.  The empty value means no vehicle fits.
type VehicleClass string

const (
    VehicleNone VehicleClass = ""
    VehicleX    VehicleClass = "X"
    VehicleXL   VehicleClass = "XL"
    VehicleXXL  VehicleClass = "XXL"
)

// Group size limits.
const (
    MinGroupSize = 2
    MaxGroupSize = 6
    // SubsidyThreshold is the rider count from which a ride is subsidized.
    SubsidyThreshold = 3
)

// Group is a shared ride built from the match rows that carry the same
// ride_id.  Date and Time hold the agreed pickup; riders keep their own
// individual windows.
type Group struct {
    RideID       uint64
    Airport      string
    Direction    Direction
    Date         time.Time
    Time         string // pickup clock, HH:MM
    Voucher      string
    Subsidized   bool   // stored flag from matches.is_subsidized
    VehicleClass VehicleClass
    Riders       []Rider
}

// PickupAt returns the stored pickup instant.
func (g Group) PickupAt() (time.Time, error) { return At(g.Date, g.Time) }

// IsSubsidized is the derived subsidy rule: three or more riders.
func (g Group) IsSubsidized() bool { return len(g.Riders) >= SubsidyThreshold }

// HasRider reports whether the flight is a member of the group.
func (g Group) HasRider(flightID uint64) bool {
    for _, r := range g.Riders {
        if r.FlightID == flightID {
            return true
        }
    }
    return false
}

// FlightIDs lists the members' flight ids in stored order.
func (g Group) FlightIDs() []uint64 {
    ids := make([]uint64, 0, len(g.Riders))
    for _, r := range g.Riders {
        ids = append(ids, r.FlightID)
    }
    return ids
}

// GroupFilter narrows group listings.  Zero values mean "any".
type GroupFilter struct {
    Date      *time.Time
    Airport   string
    Direction Direction
}

// NewGroup is everything needed to persist a freshly created group.
type NewGroup struct {
    FlightIDs    []uint64
    Airport      string
    Direction    Direction
    Date         time.Time
    Time         string
    Voucher      string
    Subsidized   bool
    VehicleClass VehicleClass
}
