package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rideshare-groups/internal/grouping"
	"github.com/iliyamo/rideshare-groups/internal/model"
	"github.com/iliyamo/rideshare-groups/internal/queue"
	"github.com/iliyamo/rideshare-groups/internal/repository"
)

// GroupEngine is the only way riders move between the unmatched pool, the
// corral and groups.  Every successful mutation writes exactly one change
// log entry and then announces the change on the event publisher.
type GroupEngine struct {
	store     GroupStore
	changes   *ChangeLog
	validator grouping.Validator
	events    EventPublisher
	log       logrus.FieldLogger
}

// NewGroupEngine wires the engine.  A nil publisher disables events and a
// non-positive advisoryLimit falls back to the default bag limit.
func NewGroupEngine(store GroupStore, changes *ChangeLog, events EventPublisher, log logrus.FieldLogger, advisoryLimit int) *GroupEngine {
	if store == nil || changes == nil {
		panic("nil dependency passed to NewGroupEngine")
	}
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GroupEngine{
		store:     store,
		changes:   changes,
		validator: grouping.NewValidator(advisoryLimit),
		events:    events,
		log:       log,
	}
}

// MoveResult describes a rider move.  Change is nil for a no-op.
type MoveResult struct {
	FlightID uint64
	From     model.Placement
	To       model.Placement
	Change   *model.ChangeLogEntry
	Warnings []grouping.Warning
}

// CreateGroupInput is a manual group creation request.  Subsidized nil
// means the default rule (three or more riders).
type CreateGroupInput struct {
	FlightIDs  []uint64
	Date       time.Time
	Time       string
	Voucher    string
	Subsidized *bool
}

// GroupResult is returned by operations that act on a whole group.
type GroupResult struct {
	Group  model.Group
	Change *model.ChangeLogEntry
}

// ---- reads ----

func (e *GroupEngine) Unmatched(ctx context.Context) ([]model.Rider, error) {
	return e.store.ListUnmatched(ctx)
}

func (e *GroupEngine) Corral(ctx context.Context) ([]model.Rider, error) {
	return e.store.ListCorral(ctx)
}

func (e *GroupEngine) Groups(ctx context.Context, f model.GroupFilter) ([]model.Group, error) {
	return e.store.ListGroups(ctx, f)
}

func (e *GroupEngine) Group(ctx context.Context, rideID uint64) (model.Group, error) {
	return e.store.GetGroup(ctx, rideID)
}

// ChangeLog exposes the recorder for read views.
func (e *GroupEngine) ChangeLog() *ChangeLog { return e.changes }

// PreviewWindow derives the consensus pickup for a prospective group
// without writing anything.
func (e *GroupEngine) PreviewWindow(ctx context.Context, flightIDs []uint64) (grouping.Consensus, error) {
	riders, err := e.store.RidersByFlightIDs(ctx, dedupe(flightIDs))
	if err != nil {
		return grouping.Consensus{}, err
	}
	c, err := grouping.Consolidate(riders)
	if err != nil {
		return grouping.Consensus{}, hardRejection(err)
	}
	return c, nil
}

// ---- corral moves ----

// MoveToCorral parks a rider from the unmatched pool or from its group.
// It never fails validation.  A rider already in the corral is left alone.
func (e *GroupEngine) MoveToCorral(ctx context.Context, actor model.Actor, flightID uint64) (MoveResult, error) {
	rd, from, err := e.store.GetRider(ctx, flightID)
	if err != nil {
		return MoveResult{}, err
	}
	res := MoveResult{FlightID: flightID, From: from}
	entry := model.ChangeLogEntry{
		ActorUserID:  actor.UserID,
		ActorRole:    actor.Role,
		TargetUserID: ptr(rd.UserID),
	}
	ev := queue.GroupChangedEvent{FlightIDs: []uint64{flightID}}

	switch from.Container {
	case model.ContainerCorral:
		res.To = from
		return res, nil

	case model.ContainerUnmatched:
		origin := model.Origin{Type: model.ContainerUnmatched}
		if err := e.store.ParkInCorral(ctx, repository.CorralMove{
			FlightID: flightID, Origin: origin, ActorUserID: actor.UserID,
		}); err != nil {
			return MoveResult{}, err
		}
		entry.Action = model.ActionUpdateRiderDetails
		entry.Metadata = map[string]any{
			"flight_id": flightID,
			"from":      string(model.ContainerUnmatched),
			"to":        string(model.ContainerCorral),
		}
		res.To = model.Placement{Container: model.ContainerCorral, Origin: &origin}

	case model.ContainerGroup:
		g, err := e.store.GetGroup(ctx, from.GroupID)
		if err != nil {
			return MoveResult{}, err
		}
		remaining := without(g.Riders, flightID)
		after := grouping.ClassifyGroup(remaining)
		gid := g.RideID
		origin := model.Origin{Type: model.ContainerGroup, GroupID: &gid}
		if err := e.store.ParkInCorral(ctx, repository.CorralMove{
			FlightID: flightID, Origin: origin, ActorUserID: actor.UserID, GroupClass: after,
		}); err != nil {
			return MoveResult{}, err
		}
		entry.Action = model.ActionRemoveFromGroup
		entry.TargetGroupID = ptr(gid)
		entry.Metadata = map[string]any{
			"flight_id":            flightID,
			"from":                 string(model.ContainerGroup),
			"to":                   string(model.ContainerCorral),
			"size_before":          len(g.Riders),
			"size_after":           len(remaining),
			"vehicle_class_before": string(g.VehicleClass),
			"vehicle_class_after":  string(after),
		}
		ev.RideID = gid
		ev.VehicleClass = string(after)
		res.To = model.Placement{Container: model.ContainerCorral, Origin: &origin}
	}

	res.Change, err = e.record(ctx, entry, ev)
	return res, err
}

// ReturnFromCorral sends a parked rider back where it came from: its
// origin group when that group still exists and has room, the unmatched
// pool otherwise.
func (e *GroupEngine) ReturnFromCorral(ctx context.Context, actor model.Actor, flightID uint64) (MoveResult, error) {
	rd, from, err := e.store.GetRider(ctx, flightID)
	if err != nil {
		return MoveResult{}, err
	}
	if from.Container != model.ContainerCorral {
		return MoveResult{}, ErrNotInCorral
	}
	res := MoveResult{FlightID: flightID, From: from}
	entry := model.ChangeLogEntry{
		ActorUserID:  actor.UserID,
		ActorRole:    actor.Role,
		TargetUserID: ptr(rd.UserID),
	}
	ev := queue.GroupChangedEvent{FlightIDs: []uint64{flightID}}

	meta := map[string]any{"flight_id": flightID, "from": string(model.ContainerCorral), "returned": true}
	if o := from.Origin; o != nil && o.Type == model.ContainerGroup && o.GroupID != nil {
		g, err := e.store.GetGroup(ctx, *o.GroupID)
		switch {
		case errors.Is(err, repository.ErrGroupNotFound):
			meta["origin_group_missing"] = *o.GroupID
		case err != nil:
			return MoveResult{}, err
		case len(g.Riders) >= model.MaxGroupSize:
			meta["origin_group_full"] = g.RideID
		default:
			class := grouping.ClassifyGroup(append(append([]model.Rider{}, g.Riders...), rd))
			err := e.store.AttachToGroup(ctx, flightID, g.RideID, class)
			if errors.Is(err, repository.ErrGroupFull) {
				// filled up since it was read
				meta["origin_group_full"] = g.RideID
				break
			}
			if err != nil {
				return MoveResult{}, err
			}
			meta["to"] = string(model.ContainerGroup)
			meta["vehicle_class"] = string(class)
			entry.Action = model.ActionAddToGroup
			entry.TargetGroupID = ptr(g.RideID)
			entry.Metadata = meta
			ev.RideID = g.RideID
			ev.VehicleClass = string(class)
			res.To = model.Placement{Container: model.ContainerGroup, GroupID: g.RideID}
			res.Change, err = e.record(ctx, entry, ev)
			return res, err
		}
	}

	if err := e.store.UnparkToUnmatched(ctx, flightID); err != nil {
		if errors.Is(err, repository.ErrWrongContainer) {
			return MoveResult{}, ErrNotInCorral
		}
		return MoveResult{}, err
	}
	meta["to"] = string(model.ContainerUnmatched)
	entry.Action = model.ActionUpdateRiderDetails
	entry.Metadata = meta
	res.To = model.Placement{Container: model.ContainerUnmatched}
	res.Change, err = e.record(ctx, entry, ev)
	return res, err
}

// AssignFromCorral moves a parked rider into a group after the
// compatibility checks.  Hard failures return *ValidationError.  Soft
// failures return *WarningError unless confirm is set, in which case the
// move goes ahead and the entry is flagged as an override.
func (e *GroupEngine) AssignFromCorral(ctx context.Context, actor model.Actor, flightID, rideID uint64, confirm bool) (MoveResult, error) {
	rd, from, err := e.store.GetRider(ctx, flightID)
	if err != nil {
		return MoveResult{}, err
	}
	if from.Container != model.ContainerCorral {
		return MoveResult{}, ErrNotInCorral
	}
	g, err := e.store.GetGroup(ctx, rideID)
	if err != nil {
		return MoveResult{}, err
	}
	a, err := e.validator.CheckAssignment(g, rd)
	if err != nil {
		return MoveResult{}, hardRejection(err)
	}
	if len(a.Warnings) > 0 && !confirm {
		return MoveResult{}, &WarningError{Warnings: a.Warnings}
	}

	if err := e.store.AttachToGroup(ctx, flightID, rideID, a.VehicleClass); err != nil {
		if errors.Is(err, repository.ErrWrongContainer) {
			return MoveResult{}, ErrNotInCorral
		}
		return MoveResult{}, hardRejection(err)
	}

	meta := map[string]any{
		"flight_id":     flightID,
		"from":          string(model.ContainerCorral),
		"to":            string(model.ContainerGroup),
		"bag_units":     a.BagUnits,
		"vehicle_class": string(a.VehicleClass),
		"size_after":    len(g.Riders) + 1,
	}
	if len(a.Warnings) > 0 {
		msgs := make([]string, 0, len(a.Warnings))
		for _, w := range a.Warnings {
			msgs = append(msgs, w.Message)
		}
		meta["warnings"] = msgs
	}
	entry := model.ChangeLogEntry{
		ActorUserID:   actor.UserID,
		ActorRole:     actor.Role,
		Action:        model.ActionAddToGroup,
		TargetGroupID: ptr(rideID),
		TargetUserID:  ptr(rd.UserID),
		Metadata:      meta,
		IgnoredError:  len(a.Warnings) > 0,
	}
	ev := queue.GroupChangedEvent{
		RideID:       rideID,
		FlightIDs:    []uint64{flightID},
		VehicleClass: string(a.VehicleClass),
		IgnoredError: entry.IgnoredError,
	}
	res := MoveResult{
		FlightID: flightID,
		From:     from,
		To:       model.Placement{Container: model.ContainerGroup, GroupID: rideID},
		Warnings: a.Warnings,
	}
	res.Change, err = e.record(ctx, entry, ev)
	return res, err
}

// ---- group lifecycle ----

// CreateGroup forms a new group from unmatched or corral riders.  The
// riders must share an airport, a direction and the group's date, their
// windows must overlap with the pickup inside the overlap, and their size
// and bag load must map to a vehicle class.
func (e *GroupEngine) CreateGroup(ctx context.Context, actor model.Actor, in CreateGroupInput) (GroupResult, error) {
	ids := dedupe(in.FlightIDs)
	if len(ids) < model.MinGroupSize || len(ids) > model.MaxGroupSize {
		return GroupResult{}, invalid(CodeGroupSize, ErrInvalidGroupSize)
	}
	clock := strings.TrimSpace(in.Time)
	if in.Date.IsZero() || clock == "" {
		return GroupResult{}, invalid(CodeMissingSchedule, ErrMissingSchedule)
	}
	if _, err := model.ParseClock(clock); err != nil {
		return GroupResult{}, invalidf("time %q", in.Time)
	}

	riders := make([]model.Rider, 0, len(ids))
	before := make(map[string]string, len(ids))
	for _, id := range ids {
		rd, p, err := e.store.GetRider(ctx, id)
		if err != nil {
			return GroupResult{}, err
		}
		if p.Container == model.ContainerGroup {
			return GroupResult{}, fmt.Errorf("flight %d in group %d: %w", id, p.GroupID, ErrRiderUnavailable)
		}
		riders = append(riders, rd)
		before[fmt.Sprint(id)] = string(p.Container)
	}
	for _, rd := range riders[1:] {
		if rd.Airport != riders[0].Airport {
			return GroupResult{}, invalid(CodeAirportMismatch, grouping.ErrAirportMismatch)
		}
		if rd.Direction != riders[0].Direction {
			return GroupResult{}, invalid(CodeDirectionMismatch, grouping.ErrDirectionMismatch)
		}
	}
	date := model.DateOnly(in.Date)
	for _, rd := range riders {
		if !model.DateOnly(rd.Date).Equal(date) {
			return GroupResult{}, invalid(CodeDateMismatch,
				fmt.Errorf("%w: flight %d is on %s", grouping.ErrDateMismatch, rd.FlightID, rd.Date.Format(model.DateLayout)))
		}
	}
	cons, err := grouping.Consolidate(riders)
	if err != nil {
		return GroupResult{}, hardRejection(err)
	}
	if err := pickupInside(date, clock, cons); err != nil {
		return GroupResult{}, err
	}
	units := grouping.BagUnits(riders)
	class := grouping.VehicleClassFor(len(riders), units)
	if class == model.VehicleNone {
		return GroupResult{}, invalid(CodeVehicleClass,
			fmt.Errorf("%w: %d riders with %d bag units", ErrInvalidVehicleClass, len(riders), units))
	}
	subsidized := len(riders) >= model.SubsidyThreshold
	if in.Subsidized != nil {
		subsidized = *in.Subsidized
	}
	clock = normalizeClock(clock)
	voucher := strings.TrimSpace(in.Voucher)

	rideID, err := e.store.CreateGroup(ctx, model.NewGroup{
		FlightIDs:    ids,
		Airport:      riders[0].Airport,
		Direction:    riders[0].Direction,
		Date:         date,
		Time:         clock,
		Voucher:      voucher,
		Subsidized:   subsidized,
		VehicleClass: class,
	})
	if err != nil {
		if errors.Is(err, repository.ErrWrongContainer) {
			return GroupResult{}, fmt.Errorf("%w: %v", ErrRiderUnavailable, err)
		}
		return GroupResult{}, err
	}
	g := model.Group{
		RideID:       rideID,
		Airport:      riders[0].Airport,
		Direction:    riders[0].Direction,
		Date:         date,
		Time:         clock,
		Voucher:      voucher,
		Subsidized:   subsidized,
		VehicleClass: class,
		Riders:       riders,
	}

	entry := model.ChangeLogEntry{
		ActorUserID:   actor.UserID,
		ActorRole:     actor.Role,
		Action:        model.ActionCreateGroup,
		TargetGroupID: ptr(rideID),
		Metadata: map[string]any{
			"flight_ids":    ids,
			"from":          before,
			"date":          date.Format(model.DateLayout),
			"time":          clock,
			"voucher":       voucher,
			"is_subsidized": subsidized,
			"bag_units":     units,
			"vehicle_class": string(class),
		},
	}
	ev := queue.GroupChangedEvent{
		RideID:       rideID,
		FlightIDs:    ids,
		Date:         date.Format(model.DateLayout),
		Time:         clock,
		VehicleClass: string(class),
	}
	change, err := e.record(ctx, entry, ev)
	return GroupResult{Group: g, Change: change}, err
}

// pickupInside rejects a pickup that falls outside the riders' shared
// window.  A pickup clock earlier than the window start is read as the
// following day, for windows that run past midnight.
func pickupInside(date time.Time, clock string, cons grouping.Consensus) error {
	at, err := model.At(date, clock)
	if err != nil {
		return invalidf("time %q", clock)
	}
	if at.Before(cons.Start) {
		at = at.Add(24 * time.Hour)
	}
	if at.Before(cons.Start) || at.After(cons.EarliestEnd) {
		return invalid(CodePickupOutsideWindow, fmt.Errorf("%w: %s not within %s-%s", ErrPickupOutsideWindow,
			clock, cons.Start.Format(model.ClockLayout), cons.EarliestEnd.Format(model.ClockLayout)))
	}
	return nil
}

// DeleteGroup dissolves a group.  Members return to the unmatched pool.
func (e *GroupEngine) DeleteGroup(ctx context.Context, actor model.Actor, rideID uint64) (GroupResult, error) {
	g, err := e.store.GetGroup(ctx, rideID)
	if err != nil {
		return GroupResult{}, err
	}
	released, err := e.store.DeleteGroup(ctx, rideID)
	if err != nil {
		return GroupResult{}, err
	}
	entry := model.ChangeLogEntry{
		ActorUserID:   actor.UserID,
		ActorRole:     actor.Role,
		Action:        model.ActionDeleteGroup,
		TargetGroupID: ptr(rideID),
		Metadata: map[string]any{
			"released_flight_ids": released,
			"date":                g.Date.Format(model.DateLayout),
			"time":                g.Time,
			"voucher":             g.Voucher,
			"vehicle_class":       string(g.VehicleClass),
		},
	}
	change, err := e.record(ctx, entry, queue.GroupChangedEvent{RideID: rideID, FlightIDs: released})
	return GroupResult{Group: g, Change: change}, err
}

// UpdateGroupTime sets a new pickup date and time for the whole group.
func (e *GroupEngine) UpdateGroupTime(ctx context.Context, actor model.Actor, rideID uint64, date time.Time, clock string) (GroupResult, error) {
	clock = strings.TrimSpace(clock)
	if date.IsZero() || clock == "" {
		return GroupResult{}, invalid(CodeMissingSchedule, ErrMissingSchedule)
	}
	if _, err := model.ParseClock(clock); err != nil {
		return GroupResult{}, invalidf("time %q", clock)
	}
	clock = normalizeClock(clock)
	date = model.DateOnly(date)

	g, err := e.store.GetGroup(ctx, rideID)
	if err != nil {
		return GroupResult{}, err
	}
	if err := e.store.UpdateGroupSchedule(ctx, rideID, date, clock); err != nil {
		return GroupResult{}, err
	}
	beforeDate, beforeTime := g.Date.Format(model.DateLayout), g.Time
	g.Date, g.Time = date, clock

	entry := model.ChangeLogEntry{
		ActorUserID:   actor.UserID,
		ActorRole:     actor.Role,
		Action:        model.ActionUpdateGroupTime,
		TargetGroupID: ptr(rideID),
		Metadata: map[string]any{
			"before": map[string]any{"date": beforeDate, "time": beforeTime},
			"after":  map[string]any{"date": date.Format(model.DateLayout), "time": clock},
		},
	}
	ev := queue.GroupChangedEvent{RideID: rideID, FlightIDs: g.FlightIDs(), Date: date.Format(model.DateLayout), Time: clock}
	change, err := e.record(ctx, entry, ev)
	return GroupResult{Group: g, Change: change}, err
}

// UpdateVoucher records a voucher code on the group.  An empty code clears
// it.
func (e *GroupEngine) UpdateVoucher(ctx context.Context, actor model.Actor, rideID uint64, voucher string) (GroupResult, error) {
	voucher = strings.TrimSpace(voucher)
	if len(voucher) > 64 {
		return GroupResult{}, invalidf("voucher longer than 64 characters")
	}
	g, err := e.store.GetGroup(ctx, rideID)
	if err != nil {
		return GroupResult{}, err
	}
	if err := e.store.UpdateVoucher(ctx, rideID, voucher); err != nil {
		return GroupResult{}, err
	}
	before := g.Voucher
	g.Voucher = voucher
	entry := model.ChangeLogEntry{
		ActorUserID:   actor.UserID,
		ActorRole:     actor.Role,
		Action:        model.ActionUpdateVoucher,
		TargetGroupID: ptr(rideID),
		Metadata:      map[string]any{"before": before, "after": voucher},
	}
	change, err := e.record(ctx, entry, queue.GroupChangedEvent{RideID: rideID, FlightIDs: g.FlightIDs()})
	return GroupResult{Group: g, Change: change}, err
}

// ConfirmEmail records that the group's confirmation email was sent.
// The audit entry is the only write, so a failed append is a plain error.
func (e *GroupEngine) ConfirmEmail(ctx context.Context, actor model.Actor, rideID uint64) (GroupResult, error) {
	g, err := e.store.GetGroup(ctx, rideID)
	if err != nil {
		return GroupResult{}, err
	}
	entry := model.ChangeLogEntry{
		ActorUserID:   actor.UserID,
		ActorRole:     actor.Role,
		Action:        model.ActionEmailConfirmed,
		TargetGroupID: ptr(rideID),
		Metadata:      map[string]any{"flight_ids": g.FlightIDs(), "recipients": len(g.Riders)},
	}
	change, err := e.record(ctx, entry, queue.GroupChangedEvent{RideID: rideID, FlightIDs: g.FlightIDs()})
	var unaudited *UnauditedError
	if errors.As(err, &unaudited) {
		return GroupResult{}, unaudited.Err
	}
	return GroupResult{Group: g, Change: change}, err
}

// ---- rider edits ----

// UpdateRiderDetails edits a request's availability window and bags.
// Group membership is not re-validated.
func (e *GroupEngine) UpdateRiderDetails(ctx context.Context, actor model.Actor, flightID uint64, d model.RiderDetails) (MoveResult, error) {
	if err := validateDetails(d); err != nil {
		return MoveResult{}, err
	}
	rd, p, err := e.store.GetRider(ctx, flightID)
	if err != nil {
		return MoveResult{}, err
	}
	if err := e.store.UpdateRiderDetails(ctx, flightID, d); err != nil {
		return MoveResult{}, err
	}
	entry := model.ChangeLogEntry{
		ActorUserID:  actor.UserID,
		ActorRole:    actor.Role,
		Action:       model.ActionUpdateRiderDetails,
		TargetUserID: ptr(rd.UserID),
		Metadata: map[string]any{
			"flight_id": flightID,
			"before": map[string]any{
				"earliest_time": rd.Window.Start.Format(model.ClockLayout),
				"latest_time":   rd.Window.End.Format(model.ClockLayout),
				"checked_bags":  rd.CheckedBags,
				"carry_on_bags": rd.CarryOnBags,
			},
			"after": map[string]any{
				"earliest_time": normalizeClock(d.EarliestTime),
				"latest_time":   normalizeClock(d.LatestTime),
				"checked_bags":  d.CheckedBags,
				"carry_on_bags": d.CarryOnBags,
			},
		},
	}
	ev := queue.GroupChangedEvent{FlightIDs: []uint64{flightID}}
	if p.Container == model.ContainerGroup {
		entry.TargetGroupID = ptr(p.GroupID)
		ev.RideID = p.GroupID
	}
	res := MoveResult{FlightID: flightID, From: p, To: p}
	res.Change, err = e.record(ctx, entry, ev)
	return res, err
}

// AddFlight stores a travel request on behalf of a user.  It starts in the
// unmatched pool.
func (e *GroupEngine) AddFlight(ctx context.Context, actor model.Actor, in model.FlightInput) (MoveResult, error) {
	in.Airport = strings.ToUpper(strings.TrimSpace(in.Airport))
	in.Direction = model.Direction(strings.ToUpper(string(in.Direction)))
	switch {
	case in.UserID == 0:
		return MoveResult{}, invalidf("user_id is required")
	case in.Date.IsZero():
		return MoveResult{}, invalid(CodeMissingSchedule, ErrMissingSchedule)
	case in.Airport == "":
		return MoveResult{}, invalidf("airport is required")
	case !in.Direction.Valid():
		return MoveResult{}, invalidf("direction %q", in.Direction)
	}
	if err := validateDetails(model.RiderDetails{
		EarliestTime: in.EarliestTime, LatestTime: in.LatestTime,
		CheckedBags: in.CheckedBags, CarryOnBags: in.CarryOnBags,
	}); err != nil {
		return MoveResult{}, err
	}
	in.Date = model.DateOnly(in.Date)

	id, err := e.store.AddFlight(ctx, in)
	if err != nil {
		return MoveResult{}, err
	}
	entry := model.ChangeLogEntry{
		ActorUserID:  actor.UserID,
		ActorRole:    actor.Role,
		Action:       model.ActionAddFlight,
		TargetUserID: ptr(in.UserID),
		Metadata: map[string]any{
			"flight_id": id,
			"date":      in.Date.Format(model.DateLayout),
			"airport":   in.Airport,
			"direction": string(in.Direction),
			"window":    normalizeClock(in.EarliestTime) + "-" + normalizeClock(in.LatestTime),
		},
	}
	res := MoveResult{FlightID: id, To: model.Placement{Container: model.ContainerUnmatched}}
	res.Change, err = e.record(ctx, entry, queue.GroupChangedEvent{FlightIDs: []uint64{id}})
	return res, err
}

// record appends the entry for a committed mutation and publishes the
// event.  An append failure becomes *UnauditedError; a publish failure is
// only logged.
func (e *GroupEngine) record(ctx context.Context, entry model.ChangeLogEntry, ev queue.GroupChangedEvent) (*model.ChangeLogEntry, error) {
	fields := logrus.Fields{
		"action": entry.Action,
		"actor":  entry.ActorUserID,
	}
	if entry.TargetGroupID != nil {
		fields["ride_id"] = *entry.TargetGroupID
	}
	if len(ev.FlightIDs) == 1 {
		fields["flight_id"] = ev.FlightIDs[0]
	}
	log := e.log.WithFields(fields)

	saved, err := e.changes.Append(ctx, entry)
	if err != nil {
		log.WithError(err).Error("mutation committed but change log append failed")
		return nil, &UnauditedError{Action: entry.Action, Err: err}
	}
	log.WithField("change_id", saved.ID).Info("group mutation")

	ev.ChangeID = saved.ID
	ev.Action = string(saved.Action)
	ev.ActorUserID = saved.ActorUserID
	ev.IgnoredError = saved.IgnoredError
	ev.OccurredAt = saved.CreatedAt.Format(time.RFC3339)
	if err := e.events.PublishGroupChanged(ctx, ev); err != nil {
		log.WithError(err).Warn("publish group.changed failed")
	}
	return &saved, nil
}

func validateDetails(d model.RiderDetails) error {
	if _, err := model.ParseClock(d.EarliestTime); err != nil {
		return invalidf("earliest_time %q", d.EarliestTime)
	}
	if _, err := model.ParseClock(d.LatestTime); err != nil {
		return invalidf("latest_time %q", d.LatestTime)
	}
	if d.CheckedBags < 0 || d.CarryOnBags < 0 {
		return invalidf("bag counts must not be negative")
	}
	return nil
}

func normalizeClock(s string) string {
	at, err := model.At(time.Time{}, s)
	if err != nil {
		return s
	}
	return at.Format(model.ClockLayout)
}

func without(riders []model.Rider, flightID uint64) []model.Rider {
	out := make([]model.Rider, 0, len(riders))
	for _, r := range riders {
		if r.FlightID != flightID {
			out = append(out, r)
		}
	}
	return out
}

// dedupe drops repeated ids and zero ids, keeping the first occurrence.
func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
