package platform

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UserStore implements UserDirectory against the host's user table.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore builds a user directory adapter.
func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// User loads one user record.
func (s *UserStore) User(ctx context.Context, userID int64) (User, error) {
	const query = `SELECT user_id, login, firstname, lastname, email FROM users WHERE user_id = $1`
	var row struct {
		UserID    int64  `db:"user_id"`
		Login     string `db:"login"`
		FirstName string `db:"firstname"`
		LastName  string `db:"lastname"`
		Email     string `db:"email"`
	}
	if err := s.db.GetContext(ctx, &row, query, userID); err != nil {
		return User{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	return User{
		ID:        row.UserID,
		Login:     row.Login,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
	}, nil
}
