package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rideshare-groups/internal/model"
)

// ErrUnknownAction is returned for an action outside the closed set.
var ErrUnknownAction = errors.New("unknown change-log action")

// ChangeLog records and queries the audit trail.
type ChangeLog struct {
	store ChangeLogStore
	now   func() time.Time
	newID func() string
}

// NewChangeLog returns a recorder backed by store.
func NewChangeLog(store ChangeLogStore) *ChangeLog {
	return &ChangeLog{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// Append stamps e with an id and a UTC time and stores it.  A storage
// failure is always returned.
func (c *ChangeLog) Append(ctx context.Context, e model.ChangeLogEntry) (model.ChangeLogEntry, error) {
	if !e.Action.Valid() {
		return model.ChangeLogEntry{}, fmt.Errorf("%w: %q", ErrUnknownAction, e.Action)
	}
	e.ID = c.newID()
	e.CreatedAt = c.now()
	if err := c.store.Append(ctx, e); err != nil {
		return model.ChangeLogEntry{}, fmt.Errorf("append change log: %w", err)
	}
	return e, nil
}

// Query returns matching entries, newest first unless f says otherwise.
func (c *ChangeLog) Query(ctx context.Context, f model.ChangeLogFilter) ([]model.ChangeLogEntry, error) {
	if f.SortBy == "" {
		f.SortBy = model.SortByDate
		f.Desc = true
	}
	for _, a := range f.Actions {
		if !a.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, a)
		}
	}
	return c.store.Query(ctx, f)
}
