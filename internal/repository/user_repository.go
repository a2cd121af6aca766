package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/rideshare-groups/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// userByID fetches a user by id on q.
func userByID(ctx context.Context, q querier, id uint64) (model.User, error) {
	var u model.User
	var phone, email sql.NullString
	err := q.QueryRowContext(ctx,
		"SELECT id,name,phone,email,role FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &phone, &email, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Phone, u.Email = phone.String, email.String
	return u, nil
}

// Create inserts a user and returns its id.  Accounts are provisioned by
// the identity provider, so only test fixtures call this.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, phone, email, role) VALUES (?,?,?,?)",
		u.Name, nullable(u.Phone), nullable(u.Email), u.Role)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
