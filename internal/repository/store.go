package repository

import "database/sql"

// SQLStore bundles the repositories that back the group engine so a single
// value can satisfy the service layer's store interfaces.
type SQLStore struct {
	*FlightRepo
	*GroupRepo
	*ChangeLogRepo
	Users *UserRepo
}

// NewSQLStore wires every repository to db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		FlightRepo:    NewFlightRepo(db),
		GroupRepo:     NewGroupRepo(db),
		ChangeLogRepo: NewChangeLogRepo(db),
		Users:         NewUserRepo(db),
	}
}
