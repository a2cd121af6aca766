package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/rideshare-groups/internal/model"
)

// GroupRepo persists rides and their match rows.  The rides row is the
// source of truth for a group's pickup, voucher and vehicle class; every
// matches row carries a copy so downstream exports can read a single
// table.  All multi-row writes run in one transaction.
type GroupRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewGroupRepo returns a GroupRepo bound to db.
func NewGroupRepo(db *sql.DB) *GroupRepo {
	return &GroupRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// CorralMove describes parking a rider in the corral.  GroupClass is the
// vehicle class of the origin group once the rider has left it and is
// ignored for unmatched origins.
type CorralMove struct {
	FlightID    uint64
	Origin      model.Origin
	ActorUserID uint64
	GroupClass  model.VehicleClass
}

const groupColumns = `r.id, r.airport, r.direction, r.date, r.time, r.voucher, r.is_subsidized, r.vehicle_class`

// ListGroups returns every group matching f with its members, ordered by
// pickup date and time.
func (r *GroupRepo) ListGroups(ctx context.Context, f model.GroupFilter) ([]model.Group, error) {
	where := []string{}
	args := []any{}
	if f.Date != nil {
		where = append(where, "r.date = ?")
		args = append(args, dateArg(*f.Date))
	}
	if f.Airport != "" {
		where = append(where, "r.airport = ?")
		args = append(args, strings.ToUpper(f.Airport))
	}
	if f.Direction != "" {
		where = append(where, "r.direction = ?")
		args = append(args, string(f.Direction))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return queryGroups(ctx, r.db, cond, args...)
}

// GetGroup returns one group with its members.
func (r *GroupRepo) GetGroup(ctx context.Context, rideID uint64) (model.Group, error) {
	return getGroup(ctx, r.db, rideID)
}

func getGroup(ctx context.Context, q querier, rideID uint64) (model.Group, error) {
	groups, err := queryGroups(ctx, q, "r.id = ?", rideID)
	if err != nil {
		return model.Group{}, err
	}
	if len(groups) == 0 {
		return model.Group{}, ErrGroupNotFound
	}
	return groups[0], nil
}

func queryGroups(ctx context.Context, q querier, cond string, args ...any) ([]model.Group, error) {
	query := `SELECT ` + groupColumns + `, ` + riderColumns + `
	          FROM rides r
	          LEFT JOIN matches m ON m.ride_id = r.id
	          LEFT JOIN flights f ON f.id = m.flight_id
	          LEFT JOIN users u ON u.id = f.user_id
	          WHERE ` + cond + `
	          ORDER BY r.date, r.time, r.id, f.id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Group{}
	index := map[uint64]int{}
	for rows.Next() {
		var (
			g          model.Group
			direction  string
			date       time.Time
			clock      string
			voucher    sql.NullString
			class      sql.NullString
			subsidized bool
			row        riderRow
		)
		targets := append([]any{&g.RideID, &g.Airport, &direction, &date, &clock, &voucher, &subsidized, &class}, row.scanTargets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		i, seen := index[g.RideID]
		if !seen {
			g.Direction = model.Direction(direction)
			g.Date = model.DateOnly(date)
			g.Time = normalizeClock(clock)
			g.Voucher = voucher.String
			g.Subsidized = subsidized
			g.VehicleClass = model.VehicleClass(class.String)
			g.Riders = []model.Rider{}
			out = append(out, g)
			i = len(out) - 1
			index[g.RideID] = i
		}
		if row.present() {
			rd, err := row.toRider()
			if err != nil {
				return nil, err
			}
			out[i].Riders = append(out[i].Riders, rd)
		}
	}
	return out, rows.Err()
}

// CreateGroup writes the ride row, one match row per rider, flips the
// riders' matched flags and clears them out of the corral.  Either all of
// it lands or none of it does.  Riders already in another group make the
// whole call fail with ErrWrongContainer.
func (r *GroupRepo) CreateGroup(ctx context.Context, ng model.NewGroup) (uint64, error) {
	var rideID uint64
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		riders := make([]model.Rider, 0, len(ng.FlightIDs))
		for _, fid := range ng.FlightIDs {
			rd, p, err := locate(ctx, tx, fid)
			if err != nil {
				return err
			}
			if p.Container == model.ContainerGroup {
				return fmt.Errorf("flight %d already in group %d: %w", fid, p.GroupID, ErrWrongContainer)
			}
			riders = append(riders, rd)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rides (airport, direction, date, time, voucher, is_subsidized, vehicle_class, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ng.Airport, string(ng.Direction), dateArg(ng.Date), ng.Time, nullable(ng.Voucher),
			ng.Subsidized, nullable(string(ng.VehicleClass)), r.now())
		if err != nil {
			return fmt.Errorf("insert ride: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rideID = uint64(id)

		query := `INSERT INTO matches (ride_id, flight_id, user_id, date, time, voucher, is_subsidized, vehicle_class) VALUES `
		args := make([]any, 0, len(riders)*8)
		for i, rd := range riders {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?, ?, ?)"
			args = append(args, rideID, rd.FlightID, rd.UserID, dateArg(ng.Date), ng.Time,
				nullable(ng.Voucher), ng.Subsidized, nullable(string(ng.VehicleClass)))
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert matches: %w", err)
		}

		in, idArgs := inClause(ng.FlightIDs)
		if _, err := tx.ExecContext(ctx, `UPDATE flights SET matched = 1 WHERE id IN (`+in+`)`, idArgs...); err != nil {
			return fmt.Errorf("mark flights matched: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM corral WHERE flight_id IN (`+in+`)`, idArgs...); err != nil {
			return fmt.Errorf("clear corral: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rideID, nil
}

// DeleteGroup removes a ride and its match rows.  Former members become
// unmatched and corral entries that pointed at the ride fall back to an
// unmatched origin.  It returns the flights that were released.
func (r *GroupRepo) DeleteGroup(ctx context.Context, rideID uint64) ([]uint64, error) {
	var released []uint64
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		g, err := getGroup(ctx, tx, rideID)
		if err != nil {
			return err
		}
		released = g.FlightIDs()
		if len(released) > 0 {
			in, args := inClause(released)
			if _, err := tx.ExecContext(ctx, `UPDATE flights SET matched = 0 WHERE id IN (`+in+`)`, args...); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE ride_id = ?`, rideID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE corral SET origin_type = ?, origin_group_id = NULL WHERE origin_group_id = ?`,
			string(model.ContainerUnmatched), rideID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM rides WHERE id = ?`, rideID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// UpdateGroupSchedule sets a new pickup date and time on the ride and all
// of its match rows.
func (r *GroupRepo) UpdateGroupSchedule(ctx context.Context, rideID uint64, date time.Time, clock string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := rideExists(ctx, tx, rideID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE rides SET date = ?, time = ? WHERE id = ?`, dateArg(date), clock, rideID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE matches SET date = ?, time = ? WHERE ride_id = ?`, dateArg(date), clock, rideID)
		return err
	})
}

// UpdateVoucher records a voucher code on the ride and its match rows.  An
// empty code clears it.
func (r *GroupRepo) UpdateVoucher(ctx context.Context, rideID uint64, voucher string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := rideExists(ctx, tx, rideID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE rides SET voucher = ? WHERE id = ?`, nullable(voucher), rideID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE matches SET voucher = ? WHERE ride_id = ?`, nullable(voucher), rideID)
		return err
	})
}

// ParkInCorral moves a rider from its origin container into the corral.
// The origin is re-checked inside the transaction; a rider that has moved
// in the meantime yields ErrWrongContainer.
func (r *GroupRepo) ParkInCorral(ctx context.Context, mv CorralMove) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, p, err := locate(ctx, tx, mv.FlightID)
		if err != nil {
			return err
		}
		var originGroup any
		switch mv.Origin.Type {
		case model.ContainerGroup:
			if mv.Origin.GroupID == nil || p.Container != model.ContainerGroup || p.GroupID != *mv.Origin.GroupID {
				return ErrWrongContainer
			}
			originGroup = *mv.Origin.GroupID
			if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE flight_id = ?`, mv.FlightID); err != nil {
				return err
			}
			if err := setVehicleClass(ctx, tx, *mv.Origin.GroupID, mv.GroupClass); err != nil {
				return err
			}
		case model.ContainerUnmatched:
			if p.Container != model.ContainerUnmatched {
				return ErrWrongContainer
			}
		default:
			return fmt.Errorf("invalid corral origin %q", mv.Origin.Type)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE flights SET matched = 0 WHERE id = ?`, mv.FlightID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO corral (flight_id, origin_type, origin_group_id, actor_user_id, created_at) VALUES (?, ?, ?, ?, ?)`,
			mv.FlightID, string(mv.Origin.Type), originGroup, mv.ActorUserID, r.now())
		return err
	})
}

// UnparkToUnmatched releases a corral rider back to the unmatched pool.
func (r *GroupRepo) UnparkToUnmatched(ctx context.Context, flightID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM corral WHERE flight_id = ?`, flightID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrWrongContainer
	}
	return nil
}

// AttachToGroup moves a corral rider into a ride and records the group's
// new vehicle class.  It returns ErrGroupFull when the ride already has the
// maximum number of members.
func (r *GroupRepo) AttachToGroup(ctx context.Context, flightID, rideID uint64, class model.VehicleClass) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			date       time.Time
			clock      string
			voucher    sql.NullString
			subsidized bool
			members    int
		)
		// the no-op write locks the ride row until commit so concurrent
		// attaches see each other's member counts
		if _, err := tx.ExecContext(ctx, `UPDATE rides SET vehicle_class = vehicle_class WHERE id = ?`, rideID); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx,
			`SELECT date, time, voucher, is_subsidized FROM rides WHERE id = ?`, rideID,
		).Scan(&date, &clock, &voucher, &subsidized)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGroupNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE ride_id = ?`, rideID).Scan(&members); err != nil {
			return err
		}
		if members >= model.MaxGroupSize {
			return ErrGroupFull
		}
		rd, p, err := locate(ctx, tx, flightID)
		if err != nil {
			return err
		}
		if p.Container != model.ContainerCorral {
			return ErrWrongContainer
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM corral WHERE flight_id = ?`, flightID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO matches (ride_id, flight_id, user_id, date, time, voucher, is_subsidized, vehicle_class)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rideID, flightID, rd.UserID, dateArg(date), normalizeClock(clock), voucher, subsidized, nullable(string(class))); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE flights SET matched = 1 WHERE id = ?`, flightID); err != nil {
			return err
		}
		return setVehicleClass(ctx, tx, rideID, class)
	})
}

func setVehicleClass(ctx context.Context, tx *sql.Tx, rideID uint64, class model.VehicleClass) error {
	if _, err := tx.ExecContext(ctx, `UPDATE rides SET vehicle_class = ? WHERE id = ?`, nullable(string(class)), rideID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE matches SET vehicle_class = ? WHERE ride_id = ?`, nullable(string(class)), rideID)
	return err
}

func rideExists(ctx context.Context, q querier, rideID uint64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM rides WHERE id = ?`, rideID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrGroupNotFound
	}
	return err
}
