package service

import (
	"context"
	"time"

	"github.com/iliyamo/rideshare-groups/internal/model"
	"github.com/iliyamo/rideshare-groups/internal/repository"
)

// GroupStore is the persistence the engine needs.  *repository.SQLStore
// satisfies it.
type GroupStore interface {
	ListUnmatched(ctx context.Context) ([]model.Rider, error)
	ListCorral(ctx context.Context) ([]model.Rider, error)
	GetRider(ctx context.Context, flightID uint64) (model.Rider, model.Placement, error)
	RidersByFlightIDs(ctx context.Context, ids []uint64) ([]model.Rider, error)
	AddFlight(ctx context.Context, in model.FlightInput) (uint64, error)
	UpdateRiderDetails(ctx context.Context, flightID uint64, d model.RiderDetails) error

	ListGroups(ctx context.Context, f model.GroupFilter) ([]model.Group, error)
	GetGroup(ctx context.Context, rideID uint64) (model.Group, error)
	CreateGroup(ctx context.Context, ng model.NewGroup) (uint64, error)
	DeleteGroup(ctx context.Context, rideID uint64) ([]uint64, error)
	UpdateGroupSchedule(ctx context.Context, rideID uint64, date time.Time, clock string) error
	UpdateVoucher(ctx context.Context, rideID uint64, voucher string) error

	ParkInCorral(ctx context.Context, mv repository.CorralMove) error
	UnparkToUnmatched(ctx context.Context, flightID uint64) error
	AttachToGroup(ctx context.Context, flightID, rideID uint64, class model.VehicleClass) error
}

// ChangeLogStore persists audit entries.
type ChangeLogStore interface {
	Append(ctx context.Context, e model.ChangeLogEntry) error
	Query(ctx context.Context, f model.ChangeLogFilter) ([]model.ChangeLogEntry, error)
}
