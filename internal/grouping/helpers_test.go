package grouping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rideshare-groups/internal/model"
)

func rider(t *testing.T, id uint64, date, earliest, latest string, checked, carry int) model.Rider {
	t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(t, err)
	w, err := model.NewWindow(d, earliest, latest)
	require.NoError(t, err)
	return model.Rider{
		UserID:      id,
		FlightID:    id,
		Date:        d,
		Window:      w,
		Airport:     "LAX",
		Direction:   model.DirectionToAirport,
		CheckedBags: checked,
		CarryOnBags: carry,
	}
}

func group(t *testing.T, date, clock string, riders ...model.Rider) model.Group {
	t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(t, err)
	return model.Group{
		RideID:    42,
		Airport:   "LAX",
		Direction: model.DirectionToAirport,
		Date:      d,
		Time:      clock,
		Riders:    riders,
	}
}
