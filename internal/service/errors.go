package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/rideshare-groups/internal/grouping"
	"github.com/iliyamo/rideshare-groups/internal/model"
	"github.com/iliyamo/rideshare-groups/internal/repository"
)

var (
	ErrInvalidGroupSize    = errors.New("a group needs between 2 and 6 riders")
	ErrInvalidVehicleClass = errors.New("invalid size/bag combination")
	ErrMissingSchedule     = errors.New("date and time are required")
	ErrInvalidInput        = errors.New("invalid input")
	ErrPickupOutsideWindow = errors.New("pickup time is outside the shared window")
	// ErrNotInCorral is returned by corral operations on a rider that is
	// somewhere else.
	ErrNotInCorral = errors.New("rider is not in the corral")
	// ErrRiderUnavailable is returned when a candidate for a new group is
	// already a member of another group.
	ErrRiderUnavailable = errors.New("rider already belongs to a group")
)

// Validation codes carried by ValidationError.
const (
	CodeNoOverlap           = "NO_OVERLAP"
	CodeDateMismatch        = "DATE_MISMATCH"
	CodeGroupFull           = "GROUP_FULL"
	CodeAirportMismatch     = "AIRPORT_MISMATCH"
	CodeDirectionMismatch   = "DIRECTION_MISMATCH"
	CodeGroupSize           = "INVALID_GROUP_SIZE"
	CodeVehicleClass        = "INVALID_VEHICLE_CLASS"
	CodeMissingSchedule     = "MISSING_SCHEDULE"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeTooFewRiders        = "TOO_FEW_RIDERS"
	CodePickupOutsideWindow = "PICKUP_OUTSIDE_WINDOW"
)

// ValidationError is a hard rejection.  Nothing was written and nothing
// was logged.
type ValidationError struct {
	Code string
	Err  error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(code string, err error) error { return &ValidationError{Code: code, Err: err} }

func invalidf(format string, args ...any) error {
	return &ValidationError{Code: CodeInvalidInput, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)}
}

// hardRejection maps a grouping sentinel to its validation code.
func hardRejection(err error) error {
	switch {
	case errors.Is(err, grouping.ErrNoOverlap):
		return invalid(CodeNoOverlap, err)
	case errors.Is(err, grouping.ErrDateMismatch):
		return invalid(CodeDateMismatch, err)
	case errors.Is(err, grouping.ErrGroupFull), errors.Is(err, repository.ErrGroupFull):
		return invalid(CodeGroupFull, err)
	case errors.Is(err, grouping.ErrAirportMismatch):
		return invalid(CodeAirportMismatch, err)
	case errors.Is(err, grouping.ErrDirectionMismatch):
		return invalid(CodeDirectionMismatch, err)
	case errors.Is(err, grouping.ErrTooFewWindows):
		return invalid(CodeTooFewRiders, err)
	}
	return err
}

// WarningError pauses a move that only failed soft checks.  Repeating the
// call with confirm set applies it and marks the log entry as an override.
type WarningError struct {
	Warnings []grouping.Warning
}

func (e *WarningError) Error() string {
	if len(e.Warnings) == 1 {
		return e.Warnings[0].Message
	}
	return fmt.Sprintf("%d warnings need confirmation", len(e.Warnings))
}

// UnauditedError reports a mutation that was committed but whose change
// log entry could not be written.  The caller must tell the operator.
type UnauditedError struct {
	Action model.Action
	Err    error
}

func (e *UnauditedError) Error() string {
	return fmt.Sprintf("%s applied but not recorded in the change log: %v", e.Action, e.Err)
}

func (e *UnauditedError) Unwrap() error { return e.Err }
