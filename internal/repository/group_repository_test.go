package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rideshare-groups/internal/model"
)

type groupFixture struct {
	s       *SQLStore
	a, b, c uint64
	rideID  uint64
}

// newGroupFixture groups a and b together and leaves c unmatched.
func newGroupFixture(t *testing.T) groupFixture {
	t.Helper()
	s := newTestStore(t)
	u1 := seedUser(t, s, "Ada")
	u2 := seedUser(t, s, "Grace")
	u3 := seedUser(t, s, "Linus")
	f := groupFixture{
		s: s,
		a: seedFlight(t, s, u1, "2026-03-01", "09:00", "11:00", 1, 0),
		b: seedFlight(t, s, u2, "2026-03-01", "10:00", "12:00", 1, 1),
		c: seedFlight(t, s, u3, "2026-03-01", "10:30", "11:30", 0, 1),
	}
	id, err := s.CreateGroup(context.Background(), newGroup(t, "2026-03-01", "10:00", f.a, f.b))
	require.NoError(t, err)
	f.rideID = id
	return f
}

func TestCreateGroup_PlacesRiders(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	g, err := f.s.GetGroup(ctx, f.rideID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", g.Time)
	assert.Equal(t, "LAX", g.Airport)
	assert.Equal(t, model.DirectionToAirport, g.Direction)
	assert.Equal(t, model.VehicleX, g.VehicleClass)
	assert.Equal(t, []uint64{f.a, f.b}, g.FlightIDs())

	unmatched, err := f.s.ListUnmatched(ctx)
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	assert.Equal(t, f.c, unmatched[0].FlightID)

	_, p, err := f.s.GetRider(ctx, f.a)
	require.NoError(t, err)
	assert.Equal(t, model.ContainerGroup, p.Container)
	assert.Equal(t, f.rideID, p.GroupID)
}

func TestCreateGroup_AllOrNothing(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	rides := countRows(t, f.s.FlightRepo.DB(), "rides")

	// a is already grouped, so c must not be written either
	_, err := f.s.CreateGroup(ctx, newGroup(t, "2026-03-01", "10:30", f.c, f.a))
	assert.ErrorIs(t, err, ErrWrongContainer)

	assert.Equal(t, rides, countRows(t, f.s.FlightRepo.DB(), "rides"))
	_, p, err := f.s.GetRider(ctx, f.c)
	require.NoError(t, err)
	assert.Equal(t, model.ContainerUnmatched, p.Container)

	_, err = f.s.CreateGroup(ctx, newGroup(t, "2026-03-01", "10:30", f.c, 999))
	assert.ErrorIs(t, err, ErrRiderNotFound)
	assert.Equal(t, rides, countRows(t, f.s.FlightRepo.DB(), "rides"))
}

func TestListGroups_Filters(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	all, err := f.s.ListGroups(ctx, model.GroupFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	other, _ := model.ParseDate("2026-03-02")
	none, err := f.s.ListGroups(ctx, model.GroupFilter{Date: &other})
	require.NoError(t, err)
	assert.Empty(t, none)

	byAirport, err := f.s.ListGroups(ctx, model.GroupFilter{Airport: "lax", Direction: model.DirectionToAirport})
	require.NoError(t, err)
	assert.Len(t, byAirport, 1)
}

func TestParkInCorral_FromGroupAndBack(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	rideID := f.rideID

	require.NoError(t, f.s.ParkInCorral(ctx, CorralMove{
		FlightID:    f.b,
		Origin:      model.Origin{Type: model.ContainerGroup, GroupID: &rideID},
		ActorUserID: 1,
		GroupClass:  model.VehicleNone,
	}))

	g, err := f.s.GetGroup(ctx, rideID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{f.a}, g.FlightIDs())
	assert.Equal(t, model.VehicleNone, g.VehicleClass)

	corral, err := f.s.ListCorral(ctx)
	require.NoError(t, err)
	require.Len(t, corral, 1)
	require.NotNil(t, corral[0].Origin)
	assert.Equal(t, model.ContainerGroup, corral[0].Origin.Type)
	assert.Equal(t, rideID, *corral[0].Origin.GroupID)

	require.NoError(t, f.s.AttachToGroup(ctx, f.b, rideID, model.VehicleX))
	g, err = f.s.GetGroup(ctx, rideID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{f.a, f.b}, g.FlightIDs())
	assert.Equal(t, model.VehicleX, g.VehicleClass)

	corral, err = f.s.ListCorral(ctx)
	require.NoError(t, err)
	assert.Empty(t, corral)
}

func TestParkInCorral_StaleOrigin(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	rideID := f.rideID

	// c is unmatched, not in the group
	err := f.s.ParkInCorral(ctx, CorralMove{
		FlightID: f.c,
		Origin:   model.Origin{Type: model.ContainerGroup, GroupID: &rideID},
	})
	assert.ErrorIs(t, err, ErrWrongContainer)

	err = f.s.ParkInCorral(ctx, CorralMove{FlightID: f.a, Origin: model.Origin{Type: model.ContainerUnmatched}})
	assert.ErrorIs(t, err, ErrWrongContainer)

	require.NoError(t, f.s.ParkInCorral(ctx, CorralMove{FlightID: f.c, Origin: model.Origin{Type: model.ContainerUnmatched}}))
	// a second park finds it in the corral already
	err = f.s.ParkInCorral(ctx, CorralMove{FlightID: f.c, Origin: model.Origin{Type: model.ContainerUnmatched}})
	assert.ErrorIs(t, err, ErrWrongContainer)
}

func TestUnparkToUnmatched(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.s.UnparkToUnmatched(ctx, f.c), ErrWrongContainer)

	require.NoError(t, f.s.ParkInCorral(ctx, CorralMove{FlightID: f.c, Origin: model.Origin{Type: model.ContainerUnmatched}}))
	unmatched, err := f.s.ListUnmatched(ctx)
	require.NoError(t, err)
	assert.Empty(t, unmatched)

	require.NoError(t, f.s.UnparkToUnmatched(ctx, f.c))
	unmatched, err = f.s.ListUnmatched(ctx)
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	assert.Equal(t, f.c, unmatched[0].FlightID)
}

func TestAttachToGroup_RequiresCorral(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.s.AttachToGroup(ctx, f.c, f.rideID, model.VehicleX), ErrWrongContainer)
	assert.ErrorIs(t, f.s.AttachToGroup(ctx, f.c, 999, model.VehicleX), ErrGroupNotFound)
}

func TestAttachToGroup_FullRide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	var ids []uint64
	for i := 0; i < model.MaxGroupSize; i++ {
		ids = append(ids, seedFlight(t, s, seedUser(t, s, "Member"), "2026-03-01", "09:00", "11:00", 0, 0))
	}
	rideID, err := s.CreateGroup(ctx, newGroup(t, "2026-03-01", "10:00", ids...))
	require.NoError(t, err)

	extra := seedFlight(t, s, seedUser(t, s, "Late"), "2026-03-01", "09:00", "11:00", 0, 0)
	require.NoError(t, s.ParkInCorral(ctx, CorralMove{FlightID: extra, Origin: model.Origin{Type: model.ContainerUnmatched}}))

	assert.ErrorIs(t, s.AttachToGroup(ctx, extra, rideID, model.VehicleX), ErrGroupFull)

	g, err := s.GetGroup(ctx, rideID)
	require.NoError(t, err)
	assert.Len(t, g.Riders, model.MaxGroupSize)
	_, p, err := s.GetRider(ctx, extra)
	require.NoError(t, err)
	assert.Equal(t, model.ContainerCorral, p.Container)
}

func TestDeleteGroup_ReleasesMembersAndOrigins(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	rideID := f.rideID

	require.NoError(t, f.s.ParkInCorral(ctx, CorralMove{
		FlightID: f.b,
		Origin:   model.Origin{Type: model.ContainerGroup, GroupID: &rideID},
	}))

	released, err := f.s.DeleteGroup(ctx, rideID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{f.a}, released)

	_, err = f.s.GetGroup(ctx, rideID)
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, p, err := f.s.GetRider(ctx, f.a)
	require.NoError(t, err)
	assert.Equal(t, model.ContainerUnmatched, p.Container)

	corral, err := f.s.ListCorral(ctx)
	require.NoError(t, err)
	require.Len(t, corral, 1)
	assert.Equal(t, model.ContainerUnmatched, corral[0].Origin.Type)
	assert.Nil(t, corral[0].Origin.GroupID)

	_, err = f.s.DeleteGroup(ctx, rideID)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestUpdateGroupScheduleAndVoucher(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	d, _ := model.ParseDate("2026-03-02")

	require.NoError(t, f.s.UpdateGroupSchedule(ctx, f.rideID, d, "07:45"))
	require.NoError(t, f.s.UpdateVoucher(ctx, f.rideID, "LYFT-123"))

	g, err := f.s.GetGroup(ctx, f.rideID)
	require.NoError(t, err)
	assert.Equal(t, "07:45", g.Time)
	assert.True(t, d.Equal(g.Date))
	assert.Equal(t, "LYFT-123", g.Voucher)

	var voucher string
	require.NoError(t, f.s.FlightRepo.DB().QueryRow(
		"SELECT voucher FROM matches WHERE flight_id = ?", f.a).Scan(&voucher))
	assert.Equal(t, "LYFT-123", voucher)

	assert.ErrorIs(t, f.s.UpdateVoucher(ctx, 999, "X"), ErrGroupNotFound)
	assert.ErrorIs(t, f.s.UpdateGroupSchedule(ctx, 999, d, "08:00"), ErrGroupNotFound)
}
