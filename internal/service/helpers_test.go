package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rideshare-groups/internal/database"
	"github.com/iliyamo/rideshare-groups/internal/model"
	"github.com/iliyamo/rideshare-groups/internal/queue"
	"github.com/iliyamo/rideshare-groups/internal/repository"
)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *repository.SQLStore
	changes *ChangeLog
	engine  *GroupEngine
	events  *recordingPublisher
	logs    *test.Hook
	admin   model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DialectSQLite))

	store := repository.NewSQLStore(db)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	changes := NewChangeLog(store)
	changes.now = ticker(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	events := &recordingPublisher{}

	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   store,
		changes: changes,
		engine:  NewGroupEngine(store, changes, events, logger, 0),
		events:  events,
		logs:    hook,
	}
	f.admin = model.Actor{UserID: f.user("Ada Admin"), Role: "ADMIN"}
	return f
}

// ticker returns a clock that advances one second per call.
func ticker(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}

func (f *fixture) user(name string) uint64 {
	f.t.Helper()
	id, err := f.store.Users.Create(f.ctx, model.User{Name: name, Role: "STUDENT"})
	require.NoError(f.t, err)
	return id
}

// flight seeds a LAX departure straight through the store, so it does not
// show up in the change log.
func (f *fixture) flight(date, earliest, latest string, checked, carry int) uint64 {
	f.t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(f.t, err)
	id, err := f.store.AddFlight(f.ctx, model.FlightInput{
		UserID:       f.user("Rider"),
		Date:         d,
		EarliestTime: earliest,
		LatestTime:   latest,
		Airport:      "LAX",
		Direction:    model.DirectionToAirport,
		CheckedBags:  checked,
		CarryOnBags:  carry,
	})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) group(date, clock string, ids ...uint64) uint64 {
	f.t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(f.t, err)
	res, err := f.engine.CreateGroup(f.ctx, f.admin, CreateGroupInput{FlightIDs: ids, Date: d, Time: clock})
	require.NoError(f.t, err)
	return res.Group.RideID
}

func (f *fixture) placement(flightID uint64) model.Placement {
	f.t.Helper()
	_, p, err := f.store.GetRider(f.ctx, flightID)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) entries() []model.ChangeLogEntry {
	f.t.Helper()
	out, err := f.changes.Query(f.ctx, model.ChangeLogFilter{SortBy: model.SortByDate})
	require.NoError(f.t, err)
	return out
}

func (f *fixture) actions() []model.Action {
	f.t.Helper()
	var out []model.Action
	for _, e := range f.entries() {
		out = append(out, e.Action)
	}
	return out
}

// assertExclusive checks that every flight sits in exactly one container.
func (f *fixture) assertExclusive(ids ...uint64) {
	f.t.Helper()
	seen := map[uint64]int{}
	unmatched, err := f.engine.Unmatched(f.ctx)
	require.NoError(f.t, err)
	for _, r := range unmatched {
		seen[r.FlightID]++
	}
	corral, err := f.engine.Corral(f.ctx)
	require.NoError(f.t, err)
	for _, r := range corral {
		seen[r.FlightID]++
	}
	groups, err := f.engine.Groups(f.ctx, model.GroupFilter{})
	require.NoError(f.t, err)
	for _, g := range groups {
		for _, r := range g.Riders {
			seen[r.FlightID]++
		}
	}
	for _, id := range ids {
		require.Equal(f.t, 1, seen[id], "flight %d must be in exactly one container", id)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.GroupChangedEvent
	err    error
}

func (p *recordingPublisher) PublishGroupChanged(_ context.Context, ev queue.GroupChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) last() queue.GroupChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

// brokenChangeLog accepts nothing.
type brokenChangeLog struct{}

func (brokenChangeLog) Append(context.Context, model.ChangeLogEntry) error {
	return errors.New("change_log: disk full")
}

func (brokenChangeLog) Query(context.Context, model.ChangeLogFilter) ([]model.ChangeLogEntry, error) {
	return nil, nil
}

// staleGroupStore serves group reads that miss members who joined after
// the read, as a concurrent request would see them.
type staleGroupStore struct {
	GroupStore
	keep int
}

func (s staleGroupStore) GetGroup(ctx context.Context, rideID uint64) (model.Group, error) {
	g, err := s.GroupStore.GetGroup(ctx, rideID)
	if len(g.Riders) > s.keep {
		g.Riders = g.Riders[:s.keep]
	}
	return g, err
}
