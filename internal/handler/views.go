package handler

import (
    "time"

    "github.com/iliyamo/rideshare-groups/internal/grouping"
    "github.com/iliyamo/rideshare-groups/internal/model"
    "github.com/iliyamo/rideshare-groups/internal/service"
)

// RiderView is the JSON shape of a rider card.
type RiderView struct {
    FlightID     uint64      `json:"flight_id"`
    UserID       uint64      `json:"user_id"`
    Name         string      `json:"name"`
    Phone        string      `json:"phone,omitempty"`
    Date         string      `json:"date"`
    EarliestTime string      `json:"earliest_time"`
    LatestTime   string      `json:"latest_time"`
    Airport      string      `json:"airport"`
    Direction    string      `json:"direction"`
    CheckedBags  int         `json:"checked_bags"`
    CarryOnBags  int         `json:"carry_on_bags"`
    BagUnits     int         `json:"bag_units"`
    FlightNo     string      `json:"flight_no,omitempty"`
    AirlineCode  string      `json:"airline_code,omitempty"`
    Origin       *OriginView `json:"origin,omitempty"`
}

// OriginView tells where a corral rider came from.
type OriginView struct {
    Type    string  `json:"type"`
    GroupID *uint64 `json:"group_id,omitempty"`
}

// GroupView carries the stored pickup plus the values derived from the
// current members.
type GroupView struct {
    RideID        uint64      `json:"ride_id"`
    Airport       string      `json:"airport"`
    Direction     string      `json:"direction"`
    Date          string      `json:"date"`
    Time          string      `json:"time"`
    Voucher       string      `json:"voucher,omitempty"`
    Size          int         `json:"size"`
    TotalBagUnits int         `json:"total_bag_units"`
    VehicleClass  string      `json:"vehicle_class"`
    IsSubsidized  bool        `json:"is_subsidized"`
    Riders        []RiderView `json:"riders"`
}

// ChangeView is one change-log entry as returned to clients.
type ChangeView struct {
    ID            string         `json:"id"`
    ActorUserID   uint64         `json:"actor_user_id"`
    ActorName     string         `json:"actor_name"`
    ActorRole     string         `json:"actor_role"`
    Action        string         `json:"action"`
    TargetGroupID *uint64        `json:"target_group_id,omitempty"`
    TargetUserID  *uint64        `json:"target_user_id,omitempty"`
    Metadata      map[string]any `json:"metadata,omitempty"`
    IgnoredError  bool           `json:"ignored_error"`
    CreatedAt     time.Time      `json:"created_at"`
}

// WarningView is a soft check the operator may override.
type WarningView struct {
    Code    string `json:"code"`
    Message string `json:"message"`
}

// MoveView reports a single rider move.
type MoveView struct {
    FlightID uint64        `json:"flight_id"`
    From     PlacementView `json:"from"`
    To       PlacementView `json:"to"`
    Change   *ChangeView   `json:"change,omitempty"`
    Warnings []WarningView `json:"warnings,omitempty"`
}

// PlacementView names a container and, for groups, the ride.
type PlacementView struct {
    Container string `json:"container,omitempty"`
    GroupID   uint64 `json:"group_id,omitempty"`
}

func riderView(r model.Rider) RiderView {
    v := RiderView{
        FlightID:     r.FlightID,
        UserID:       r.UserID,
        Name:         r.Name,
        Phone:        r.Phone,
        Date:         r.Date.Format(model.DateLayout),
        EarliestTime: r.Window.Start.Format(model.ClockLayout),
        LatestTime:   r.Window.End.Format(model.ClockLayout),
        Airport:      r.Airport,
        Direction:    string(r.Direction),
        CheckedBags:  r.CheckedBags,
        CarryOnBags:  r.CarryOnBags,
        BagUnits:     grouping.BagUnits([]model.Rider{r}),
        FlightNo:     r.FlightNo,
        AirlineCode:  r.AirlineCode,
    }
    if r.Origin != nil {
        v.Origin = &OriginView{Type: string(r.Origin.Type), GroupID: r.Origin.GroupID}
    }
    return v
}

func riderViews(rs []model.Rider) []RiderView {
    out := make([]RiderView, 0, len(rs))
    for _, r := range rs {
        out = append(out, riderView(r))
    }
    return out
}

func groupView(g model.Group) GroupView {
    return GroupView{
        RideID:        g.RideID,
        Airport:       g.Airport,
        Direction:     string(g.Direction),
        Date:          g.Date.Format(model.DateLayout),
        Time:          g.Time,
        Voucher:       g.Voucher,
        Size:          len(g.Riders),
        TotalBagUnits: grouping.BagUnits(g.Riders),
        VehicleClass:  string(grouping.ClassifyGroup(g.Riders)),
        IsSubsidized:  g.IsSubsidized(),
        Riders:        riderViews(g.Riders),
    }
}

func changeView(e *model.ChangeLogEntry) *ChangeView {
    if e == nil {
        return nil
    }
    return &ChangeView{
        ID:            e.ID,
        ActorUserID:   e.ActorUserID,
        ActorName:     e.ActorName,
        ActorRole:     e.ActorRole,
        Action:        string(e.Action),
        TargetGroupID: e.TargetGroupID,
        TargetUserID:  e.TargetUserID,
        Metadata:      e.Metadata,
        IgnoredError:  e.IgnoredError,
        CreatedAt:     e.CreatedAt,
    }
}

func warningViews(ws []grouping.Warning) []WarningView {
    if len(ws) == 0 {
        return nil
    }
    out := make([]WarningView, 0, len(ws))
    for _, w := range ws {
        out = append(out, WarningView{Code: w.Code, Message: w.Message})
    }
    return out
}

func placementView(p model.Placement) PlacementView {
    v := PlacementView{Container: string(p.Container)}
    if p.Container == model.ContainerGroup {
        v.GroupID = p.GroupID
    }
    return v
}

func moveView(r service.MoveResult) MoveView {
    return MoveView{
        FlightID: r.FlightID,
        From:     placementView(r.From),
        To:       placementView(r.To),
        Change:   changeView(r.Change),
        Warnings: warningViews(r.Warnings),
    }
}
