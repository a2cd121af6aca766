// Package repository is the only place that reads raw flights, rides,
// matches, corral and change_log rows.  It turns them into the typed
// aggregates of package model.  The sentinel errors below let the service
// and handler layers tell failure modes apart.
package repository

import "errors"

// ErrRiderNotFound is returned when no flight row has the requested id.
var ErrRiderNotFound = errors.New("rider not found")

// ErrGroupNotFound is returned when no ride row has the requested id.
var ErrGroupNotFound = errors.New("group not found")

// ErrUserNotFound is returned when a referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrWrongContainer is returned when a move expects a rider in one
// container but storage has it in another, for example removing a rider
// from a group it has already left.  Handlers translate this into 409.
var ErrWrongContainer = errors.New("rider is not in the expected container")

// ErrGroupFull is returned when a rider is attached to a ride that already
// has the maximum number of members.
var ErrGroupFull = errors.New("group is full")
