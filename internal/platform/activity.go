package platform

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ActivityStore implements Activity as the union of progress-mark holders
// and change-event participants, matching how the host counts "anyone who
// ever touched this object".
type ActivityStore struct {
	db *sqlx.DB
}

// NewActivityStore builds an activity population adapter.
func NewActivityStore(db *sqlx.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// UserIDsWithActivity returns the deduplicated population for an object.
func (s *ActivityStore) UserIDsWithActivity(ctx context.Context, objectID int64) ([]int64, error) {
	const query = `
		SELECT user_id FROM progress_marks WHERE obj_id = $1
		UNION
		SELECT user_id FROM activity_events WHERE obj_id = $1
		ORDER BY user_id ASC`
	var userIDs []int64
	if err := s.db.SelectContext(ctx, &userIDs, query, objectID); err != nil {
		return nil, fmt.Errorf("list activity population for object %d: %w", objectID, err)
	}
	return userIDs, nil
}
