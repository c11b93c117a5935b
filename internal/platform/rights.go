package platform

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RightsStore implements Rights against the host's role assignment table.
type RightsStore struct {
	db *sqlx.DB
}

// NewRightsStore builds a role membership adapter.
func NewRightsStore(db *sqlx.DB) *RightsStore {
	return &RightsStore{db: db}
}

// RolesOf lists all roles assigned to a user.
func (s *RightsStore) RolesOf(ctx context.Context, userID int64) ([]int64, error) {
	const query = `SELECT role_id FROM role_assignments WHERE user_id = $1 ORDER BY role_id ASC`
	var roleIDs []int64
	if err := s.db.SelectContext(ctx, &roleIDs, query, userID); err != nil {
		return nil, fmt.Errorf("list roles of user %d: %w", userID, err)
	}
	return roleIDs, nil
}
