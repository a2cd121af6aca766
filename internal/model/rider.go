package model

import "time"

// Direction tells whether a travel leg heads to or away from the airport.
type Direction string

const (
    DirectionToAirport   Direction = "TO_AIRPORT"
    DirectionFromAirport Direction = "FROM_AIRPORT"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
    return d == DirectionToAirport || d == DirectionFromAirport
}

// Container names the place a rider currently sits in.  Every rider is in
// exactly one container at a time.
type Container string

const (
    ContainerUnmatched Container = "unmatched"
    ContainerCorral    Container = "corral"
    ContainerGroup     Container = "group"
)

// Origin records where a rider came from before being parked in the corral
// so that a later return can put it back.
type Origin struct {
    Type    Container // unmatched or group
    GroupID *uint64   // set when Type is ContainerGroup
}

// Rider is one person's request for a single leg of travel, joined with
// the display details of the requesting user.
//
// Fields:
//  UserID      – users.id of the traveller.
//  FlightID    – flights.id of this leg request.
//  Date        – calendar date of travel (UTC midnight).
//  Window      – availability window as full timestamps.
//  CheckedBags – large bags, counted twice for capacity.
//  CarryOnBags – carry-on bags.
//  Origin      – provenance, only set while the rider is in the corral.
type Rider struct {
    UserID      uint64
    FlightID    uint64
    Name        string
    Phone       string
    Date        time.Time
    Window      TimeWindow
    Airport     string
    Direction   Direction
    CheckedBags int
    CarryOnBags int
    FlightNo    string
    AirlineCode string
    Origin      *Origin
}

// Placement describes the container a flight is in at the moment of the
// lookup.  GroupID is only meaningful for ContainerGroup and Origin only
// for ContainerCorral.
type Placement struct {
    Container Container
    GroupID   uint64
    Origin    *Origin
}

// FlightInput carries the fields needed to store a new travel request.
type FlightInput struct {
    UserID       uint64
    Date         time.Time
    EarliestTime string
    LatestTime   string
    Airport      string
    Direction    Direction
    CheckedBags  int
    CarryOnBags  int
    FlightNo     string
    AirlineCode  string
}

// RiderDetails holds the editable parts of a travel request.
type RiderDetails struct {
    EarliestTime string
    LatestTime   string
    CheckedBags  int
    CarryOnBags  int
}
