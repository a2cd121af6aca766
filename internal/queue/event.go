// Package queue defines message payloads exchanged over the message broker.
package queue

// GroupChangedQueue is the durable queue every group mutation is announced on.
const GroupChangedQueue = "group.changed"

// GroupChangedEvent is published after a group mutation has been committed
// and audited.  It carries enough context for downstream consumers (mail
// sender, ops log) to act without querying the primary database.
type GroupChangedEvent struct {
    ChangeID     string   `json:"change_id"`
    Action       string   `json:"action"`
    ActorUserID  uint64   `json:"actor_user_id"`
    RideID       uint64   `json:"ride_id,omitempty"`
    FlightIDs    []uint64 `json:"flight_ids,omitempty"`
    Date         string   `json:"date,omitempty"`
    Time         string   `json:"time,omitempty"`
    VehicleClass string   `json:"vehicle_class,omitempty"`
    IgnoredError bool     `json:"ignored_error,omitempty"`
    OccurredAt   string   `json:"occurred_at"`
}
