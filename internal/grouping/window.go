package grouping

import (
	"errors"
	"time"

	"github.com/iliyamo/rideshare-groups/internal/model"
)

var (
	// ErrTooFewWindows is returned when fewer than two riders are offered.
	ErrTooFewWindows = errors.New("at least two riders are needed to derive a window")
	// ErrNoOverlap means the riders share no common instant.
	ErrNoOverlap = errors.New("no overlap")
)

// Consensus is the derived pickup for a prospective group.
//
// Date and Time are what gets stored; Start is the same value as an
// instant.  EarliestEnd is the feasibility bound: no member is available
// after it.
type Consensus struct {
	Date        time.Time
	Time        string
	Start       time.Time
	EarliestEnd time.Time
}

// Window returns the feasible interval [Start, EarliestEnd].
func (c Consensus) Window() model.TimeWindow {
	return model.TimeWindow{Start: c.Start, End: c.EarliestEnd}
}

// Consolidate derives the consensus pickup for two or more riders.  The
// pickup is the latest start among them, dated with that rider's date.  It
// is recomputed from scratch for every candidate set.
func Consolidate(riders []model.Rider) (Consensus, error) {
	if len(riders) < 2 {
		return Consensus{}, ErrTooFewWindows
	}
	return consensusOf(riders)
}

func consensusOf(riders []model.Rider) (Consensus, error) {
	latest := riders[0]
	earliestEnd := riders[0].Window.End
	for _, r := range riders[1:] {
		if r.Window.Start.After(latest.Window.Start) {
			latest = r
		}
		if r.Window.End.Before(earliestEnd) {
			earliestEnd = r.Window.End
		}
	}
	if latest.Window.Start.After(earliestEnd) {
		return Consensus{}, ErrNoOverlap
	}
	return Consensus{
		Date:        model.DateOnly(latest.Date),
		Time:        latest.Window.Start.Format(model.ClockLayout),
		Start:       latest.Window.Start,
		EarliestEnd: earliestEnd,
	}, nil
}

// GroupWindow is the window a newcomer must overlap to join g.  It is the
// common window of the current members.  An empty group, or one whose
// members no longer share a window after a manual time change, collapses
// to the stored pickup instant.
func GroupWindow(g model.Group) model.TimeWindow {
	if len(g.Riders) > 0 {
		if c, err := consensusOf(g.Riders); err == nil {
			return c.Window()
		}
	}
	if at, err := g.PickupAt(); err == nil {
		return model.Instant(at)
	}
	return model.Instant(model.DateOnly(g.Date))
}
