package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/rideshare-groups/internal/model"
)

// riderColumns selects a rider joined with its user.  The flights table is
// aliased f and users u.  Keep in sync with riderRow.scanTargets.
const riderColumns = `f.id, f.user_id, u.name, u.phone, f.date, f.earliest_time, f.latest_time,
       f.airport, f.direction, f.checked_bags, f.carry_on_bags, f.flight_no, f.airline_code`

// riderRow mirrors riderColumns.  Every column is nullable so the same row
// type serves LEFT JOINs from rides, where a ride may have no members.
type riderRow struct {
	FlightID    sql.NullInt64
	UserID      sql.NullInt64
	Name        sql.NullString
	Phone       sql.NullString
	Date        sql.NullTime
	Earliest    sql.NullString
	Latest      sql.NullString
	Airport     sql.NullString
	Direction   sql.NullString
	CheckedBags sql.NullInt64
	CarryOnBags sql.NullInt64
	FlightNo    sql.NullString
	AirlineCode sql.NullString
}

func (r *riderRow) scanTargets() []any {
	return []any{
		&r.FlightID, &r.UserID, &r.Name, &r.Phone, &r.Date, &r.Earliest, &r.Latest,
		&r.Airport, &r.Direction, &r.CheckedBags, &r.CarryOnBags, &r.FlightNo, &r.AirlineCode,
	}
}

// present reports whether the LEFT JOIN produced a flight.
func (r *riderRow) present() bool { return r.FlightID.Valid }

// toRider is the single normalisation point from storage to model.Rider.
func (r *riderRow) toRider() (model.Rider, error) {
	if !r.Date.Valid {
		return model.Rider{}, fmt.Errorf("flight %d: missing date", r.FlightID.Int64)
	}
	date := model.DateOnly(r.Date.Time)
	w, err := model.NewWindow(date, r.Earliest.String, r.Latest.String)
	if err != nil {
		return model.Rider{}, fmt.Errorf("flight %d: %w", r.FlightID.Int64, err)
	}
	return model.Rider{
		UserID:      uint64(r.UserID.Int64),
		FlightID:    uint64(r.FlightID.Int64),
		Name:        r.Name.String,
		Phone:       r.Phone.String,
		Date:        date,
		Window:      w,
		Airport:     strings.ToUpper(strings.TrimSpace(r.Airport.String)),
		Direction:   model.Direction(strings.ToUpper(r.Direction.String)),
		CheckedBags: int(r.CheckedBags.Int64),
		CarryOnBags: int(r.CarryOnBags.Int64),
		FlightNo:    r.FlightNo.String,
		AirlineCode: r.AirlineCode.String,
	}, nil
}

// originFrom converts corral columns into a model.Origin.
func originFrom(originType sql.NullString, originGroup sql.NullInt64) *model.Origin {
	if !originType.Valid {
		return nil
	}
	o := &model.Origin{Type: model.Container(originType.String)}
	if o.Type == model.ContainerGroup && originGroup.Valid {
		id := uint64(originGroup.Int64)
		o.GroupID = &id
	}
	return o
}

// normalizeClock turns "10:00:00" (MySQL TIME) into "10:00".
func normalizeClock(s string) string {
	off, err := model.ParseClock(s)
	if err != nil {
		return s
	}
	return time.Time{}.Add(off).Format(model.ClockLayout)
}

// dateArg renders a calendar date for DATE columns.
func dateArg(t time.Time) string { return model.DateOnly(t).Format(model.DateLayout) }

// nullable returns nil for an empty string so optional columns stay NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
