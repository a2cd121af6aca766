package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/rideshare-groups/internal/model"
)

// FlightRepo reads riders out of the flights table and tracks which
// container each one is in.  A flight is in a group when a matches row
// references it, in the corral when a corral row references it, and
// unmatched otherwise.  flights.matched is kept in step for exports but
// never decides placement.
type FlightRepo struct {
	db *sql.DB
}

// NewFlightRepo returns a FlightRepo bound to db.
func NewFlightRepo(db *sql.DB) *FlightRepo { return &FlightRepo{db: db} }

// DB exposes the handle for callers that need their own transaction.
func (r *FlightRepo) DB() *sql.DB { return r.db }

// ListUnmatched returns riders that are in neither a group nor the corral,
// earliest travel first.
func (r *FlightRepo) ListUnmatched(ctx context.Context) ([]model.Rider, error) {
	q := `SELECT ` + riderColumns + `
	      FROM flights f
	      LEFT JOIN users u ON u.id = f.user_id
	      LEFT JOIN matches m ON m.flight_id = f.id
	      LEFT JOIN corral c ON c.flight_id = f.id
	      WHERE m.flight_id IS NULL AND c.flight_id IS NULL
	      ORDER BY f.date, f.earliest_time, f.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Rider{}
	for rows.Next() {
		var row riderRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, err
		}
		rd, err := row.toRider()
		if err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

// ListCorral returns riders parked in the corral with their provenance,
// oldest parking first.
func (r *FlightRepo) ListCorral(ctx context.Context) ([]model.Rider, error) {
	q := `SELECT ` + riderColumns + `, c.origin_type, c.origin_group_id
	      FROM corral c
	      JOIN flights f ON f.id = c.flight_id
	      LEFT JOIN users u ON u.id = f.user_id
	      ORDER BY c.created_at, f.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Rider{}
	for rows.Next() {
		var row riderRow
		var originType sql.NullString
		var originGroup sql.NullInt64
		if err := rows.Scan(append(row.scanTargets(), &originType, &originGroup)...); err != nil {
			return nil, err
		}
		rd, err := row.toRider()
		if err != nil {
			return nil, err
		}
		rd.Origin = originFrom(originType, originGroup)
		out = append(out, rd)
	}
	return out, rows.Err()
}

// GetRider loads one rider and reports the container it currently sits in.
func (r *FlightRepo) GetRider(ctx context.Context, flightID uint64) (model.Rider, model.Placement, error) {
	return locate(ctx, r.db, flightID)
}

// RidersByFlightIDs loads riders in the order of ids.  Unknown ids yield
// ErrRiderNotFound.
func (r *FlightRepo) RidersByFlightIDs(ctx context.Context, ids []uint64) ([]model.Rider, error) {
	if len(ids) == 0 {
		return []model.Rider{}, nil
	}
	in, args := inClause(ids)
	q := `SELECT ` + riderColumns + `
	      FROM flights f
	      LEFT JOIN users u ON u.id = f.user_id
	      WHERE f.id IN (` + in + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := make(map[uint64]model.Rider, len(ids))
	for rows.Next() {
		var row riderRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, err
		}
		rd, err := row.toRider()
		if err != nil {
			return nil, err
		}
		byID[rd.FlightID] = rd
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Rider, 0, len(ids))
	for _, id := range ids {
		rd, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("flight %d: %w", id, ErrRiderNotFound)
		}
		out = append(out, rd)
	}
	return out, nil
}

// AddFlight stores a new travel request for an existing user.  It starts
// out unmatched.
func (r *FlightRepo) AddFlight(ctx context.Context, in model.FlightInput) (uint64, error) {
	var id int64
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := userByID(ctx, tx, in.UserID); err != nil {
			return err
		}
		const q = `INSERT INTO flights
		           (user_id, date, earliest_time, latest_time, airport, direction,
		            checked_bags, carry_on_bags, flight_no, airline_code, matched)
		           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`
		res, err := tx.ExecContext(ctx, q,
			in.UserID, dateArg(in.Date), in.EarliestTime, in.LatestTime, in.Airport, string(in.Direction),
			in.CheckedBags, in.CarryOnBags, nullable(in.FlightNo), nullable(in.AirlineCode))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UpdateRiderDetails rewrites the availability window and bag counts.
func (r *FlightRepo) UpdateRiderDetails(ctx context.Context, flightID uint64, d model.RiderDetails) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM flights WHERE id = ?`, flightID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRiderNotFound
	}
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE flights SET earliest_time = ?, latest_time = ?, checked_bags = ?, carry_on_bags = ? WHERE id = ?`,
		d.EarliestTime, d.LatestTime, d.CheckedBags, d.CarryOnBags, flightID)
	return err
}

// locate loads a rider and its placement through q, which may be a
// transaction so that a move can re-check state under its own snapshot.
func locate(ctx context.Context, q querier, flightID uint64) (model.Rider, model.Placement, error) {
	query := `SELECT ` + riderColumns + `, m.ride_id, c.origin_type, c.origin_group_id
	          FROM flights f
	          LEFT JOIN users u ON u.id = f.user_id
	          LEFT JOIN matches m ON m.flight_id = f.id
	          LEFT JOIN corral c ON c.flight_id = f.id
	          WHERE f.id = ?`
	var row riderRow
	var rideID sql.NullInt64
	var originType sql.NullString
	var originGroup sql.NullInt64
	err := q.QueryRowContext(ctx, query, flightID).Scan(append(row.scanTargets(), &rideID, &originType, &originGroup)...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Rider{}, model.Placement{}, ErrRiderNotFound
	}
	if err != nil {
		return model.Rider{}, model.Placement{}, err
	}
	rd, err := row.toRider()
	if err != nil {
		return model.Rider{}, model.Placement{}, err
	}
	p := model.Placement{Container: model.ContainerUnmatched}
	switch {
	case rideID.Valid:
		p = model.Placement{Container: model.ContainerGroup, GroupID: uint64(rideID.Int64)}
	case originType.Valid:
		p = model.Placement{Container: model.ContainerCorral, Origin: originFrom(originType, originGroup)}
		rd.Origin = p.Origin
	}
	return rd, p, nil
}
