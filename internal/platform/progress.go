package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ProgressStore implements LearningProgress by clearing the host's progress
// tables directly. Assessment objects additionally need their attempt rows
// cleared, which are keyed by hierarchy reference rather than object id;
// BindAssessment records that mapping before the reset call.
type ProgressStore struct {
	db *sqlx.DB

	mu       sync.Mutex
	bindings map[int64]int64 // objectID -> refID
}

// NewProgressStore builds a learning-progress adapter.
func NewProgressStore(db *sqlx.DB) *ProgressStore {
	return &ProgressStore{db: db, bindings: make(map[int64]int64)}
}

// BindAssessment records the reference an assessment object was reached by.
func (s *ProgressStore) BindAssessment(ctx context.Context, objectID, refID int64) error {
	s.mu.Lock()
	s.bindings[objectID] = refID
	s.mu.Unlock()
	return nil
}

// ResetForAllUsers clears every user's progress on the object.
func (s *ProgressStore) ResetForAllUsers(ctx context.Context, objectID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin progress reset: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM progress_marks WHERE obj_id = $1`, objectID); err != nil {
		return fmt.Errorf("clear progress marks: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM activity_events WHERE obj_id = $1`, objectID); err != nil {
		return fmt.Errorf("clear activity events: %w", err)
	}
	if err = s.clearAttempts(ctx, tx, objectID, nil); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit progress reset: %w", err)
	}
	return nil
}

// ResetForUsers clears progress on the object for the given users only.
func (s *ProgressStore) ResetForUsers(ctx context.Context, objectID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin progress reset: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM progress_marks WHERE obj_id = $1 AND user_id = ANY($2)`, objectID, pq.Array(userIDs)); err != nil {
		return fmt.Errorf("clear progress marks: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM activity_events WHERE obj_id = $1 AND user_id = ANY($2)`, objectID, pq.Array(userIDs)); err != nil {
		return fmt.Errorf("clear activity events: %w", err)
	}
	if err = s.clearAttempts(ctx, tx, objectID, userIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit progress reset: %w", err)
	}
	return nil
}

func (s *ProgressStore) clearAttempts(ctx context.Context, tx *sqlx.Tx, objectID int64, userIDs []int64) error {
	s.mu.Lock()
	refID, bound := s.bindings[objectID]
	s.mu.Unlock()
	if !bound {
		return nil
	}

	if userIDs == nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM assessment_attempts WHERE ref_id = $1`, refID); err != nil {
			return fmt.Errorf("clear assessment attempts: %w", err)
		}
		return nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM assessment_attempts WHERE ref_id = $1 AND user_id = ANY($2)`, refID, pq.Array(userIDs)); err != nil {
		return fmt.Errorf("clear assessment attempts: %w", err)
	}
	return nil
}
