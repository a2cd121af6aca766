package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rideshare-groups/internal/database"
	"github.com/iliyamo/rideshare-groups/internal/model"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DialectSQLite))
	return NewSQLStore(db)
}

func seedUser(t *testing.T, s *SQLStore, name string) uint64 {
	t.Helper()
	id, err := s.Users.Create(context.Background(), model.User{Name: name, Phone: "555-0100", Role: "STUDENT"})
	require.NoError(t, err)
	return id
}

func seedFlight(t *testing.T, s *SQLStore, userID uint64, date, earliest, latest string, checked, carry int) uint64 {
	t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(t, err)
	id, err := s.AddFlight(context.Background(), model.FlightInput{
		UserID:       userID,
		Date:         d,
		EarliestTime: earliest,
		LatestTime:   latest,
		Airport:      "LAX",
		Direction:    model.DirectionToAirport,
		CheckedBags:  checked,
		CarryOnBags:  carry,
		FlightNo:     "UA12",
		AirlineCode:  "UA",
	})
	require.NoError(t, err)
	return id
}

func newGroup(t *testing.T, date, clock string, ids ...uint64) model.NewGroup {
	t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(t, err)
	return model.NewGroup{
		FlightIDs:    ids,
		Airport:      "LAX",
		Direction:    model.DirectionToAirport,
		Date:         d,
		Time:         clock,
		Subsidized:   len(ids) >= model.SubsidyThreshold,
		VehicleClass: model.VehicleX,
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
