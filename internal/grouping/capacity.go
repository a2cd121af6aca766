package grouping

import "github.com/iliyamo/rideshare-groups/internal/model"

// DefaultAdvisoryLimit is the soft bag-unit ceiling checked when a rider is
// added to an existing group.
const DefaultAdvisoryLimit = 10

// bagRange maps an inclusive bag-unit interval to a vehicle class.
type bagRange struct {
	lo, hi int
	class  model.VehicleClass
}

var smallGroup = []bagRange{
	{0, 4, model.VehicleX},
	{5, 10, model.VehicleXL},
	{11, 12, model.VehicleXXL},
}

// vehicleTable is keyed by group size.  Sizes not listed have no vehicle.
var vehicleTable = map[int][]bagRange{
	2: smallGroup,
	3: smallGroup,
	4: {
		{0, 3, model.VehicleX},
		{4, 7, model.VehicleXL},
		{8, 10, model.VehicleXXL},
	},
	5: {
		{0, 5, model.VehicleXL},
		{6, 8, model.VehicleXXL},
	},
	6: {
		{0, 3, model.VehicleXL},
		{4, 6, model.VehicleXXL},
	},
}

// BagUnits weighs checked bags twice a carry-on.  Personal items cost nothing.
func BagUnits(riders []model.Rider) int {
	checked, carry := 0, 0
	for _, r := range riders {
		checked += r.CheckedBags
		carry += r.CarryOnBags
	}
	return checked*2 + carry
}

// VehicleClassFor looks up the vehicle for a group of size riders carrying
// units bag units.  The per-size ceiling is the only cap; anything outside
// the table yields model.VehicleNone.
func VehicleClassFor(size, units int) model.VehicleClass {
	if units < 0 {
		return model.VehicleNone
	}
	for _, br := range vehicleTable[size] {
		if units >= br.lo && units <= br.hi {
			return br.class
		}
	}
	return model.VehicleNone
}

// MaxBagUnits returns the table ceiling for size, or -1 when no vehicle
// exists for that size.
func MaxBagUnits(size int) int {
	ranges := vehicleTable[size]
	if len(ranges) == 0 {
		return -1
	}
	return ranges[len(ranges)-1].hi
}

// ClassifyGroup derives the vehicle class of a group from its members.
func ClassifyGroup(riders []model.Rider) model.VehicleClass {
	return VehicleClassFor(len(riders), BagUnits(riders))
}
