package model

import (
    "sort"
    "strings"
    "time"
)

// Action tags a change-log entry.  The set is closed.
type Action string

const (
    ActionRunAlgorithm       Action = "RUN_ALGORITHM"
    ActionAddToGroup         Action = "ADD_TO_GROUP"
    ActionRemoveFromGroup    Action = "REMOVE_FROM_GROUP"
    ActionCreateGroup        Action = "CREATE_GROUP"
    ActionDeleteGroup        Action = "DELETE_GROUP"
    ActionIgnoreError        Action = "IGNORE_ERROR"
    ActionUpdateGroupTime    Action = "UPDATE_GROUP_TIME"
    ActionUpdateVoucher      Action = "UPDATE_VOUCHER"
    ActionUpdateRiderDetails Action = "UPDATE_RIDER_DETAILS"
    ActionEmailConfirmed     Action = "EMAIL_CONFIRMED"
    ActionAddFlight          Action = "ADD_FLIGHT"
)

// Actions lists every known action in declaration order.
var Actions = []Action{
    ActionRunAlgorithm, ActionAddToGroup, ActionRemoveFromGroup,
    ActionCreateGroup, ActionDeleteGroup, ActionIgnoreError,
    ActionUpdateGroupTime, ActionUpdateVoucher, ActionUpdateRiderDetails,
    ActionEmailConfirmed, ActionAddFlight,
}

// Valid reports whether a is part of the closed action set.
func (a Action) Valid() bool {
    for _, known := range Actions {
        if a == known {
            return true
        }
    }
    return false
}

// Actor identifies who performed a mutation.  The identity provider hands
// us only the id and role.
type Actor struct {
    UserID uint64
    Role   string
}

// ChangeLogEntry is an immutable audit record.  ActorName is resolved from
// the users table on read and is never stored.
type ChangeLogEntry struct {
    ID            string
    ActorUserID   uint64
    ActorRole     string
    ActorName     string
    Action        Action
    TargetGroupID *uint64
    TargetUserID  *uint64
    Metadata      map[string]any
    IgnoredError  bool
    CreatedAt     time.Time
}

// ChangeLogSort selects the ordering column for change-log queries.
type ChangeLogSort string

const (
    SortByDate   ChangeLogSort = "date"
    SortByActor  ChangeLogSort = "actor"
    SortByAction ChangeLogSort = "action"
)

// ChangeLogFilter narrows and orders change-log queries.  From is inclusive
// and To is exclusive.  An empty Actions set matches every action.
type ChangeLogFilter struct {
    ActorName string
    Actions   []Action
    From      *time.Time
    To        *time.Time
    SortBy    ChangeLogSort
    Desc      bool
}

// SortChangeLog orders entries in place.  Ties fall back to created_at and
// then id so the result is deterministic.
func SortChangeLog(entries []ChangeLogEntry, by ChangeLogSort, desc bool) {
    less := func(a, b ChangeLogEntry) bool {
        switch by {
        case SortByActor:
            an, bn := strings.ToLower(a.ActorName), strings.ToLower(b.ActorName)
            if an != bn {
                return an < bn
            }
        case SortByAction:
            if a.Action != b.Action {
                return a.Action < b.Action
            }
        }
        if !a.CreatedAt.Equal(b.CreatedAt) {
            return a.CreatedAt.Before(b.CreatedAt)
        }
        return a.ID < b.ID
    }
    sort.SliceStable(entries, func(i, j int) bool {
        if desc {
            return less(entries[j], entries[i])
        }
        return less(entries[i], entries[j])
    })
}
