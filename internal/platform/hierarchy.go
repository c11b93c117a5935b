package platform

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TreeStore implements Hierarchy against the host's tree tables.
type TreeStore struct {
	db *sqlx.DB
}

// NewTreeStore builds a hierarchy adapter.
func NewTreeStore(db *sqlx.DB) *TreeStore {
	return &TreeStore{db: db}
}

// InHierarchy reports whether a reference has a tree entry.
func (s *TreeStore) InHierarchy(ctx context.Context, refID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tree WHERE child_ref = $1)`
	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, refID); err != nil {
		return false, fmt.Errorf("check tree membership: %w", err)
	}
	return exists, nil
}

// Children lists direct children with their object type tags. References
// flagged deleted in the host are skipped.
func (s *TreeStore) Children(ctx context.Context, refID int64) ([]Node, error) {
	const query = `
		SELECT r.ref_id AS ref_id, o.type AS type
		FROM tree t
		JOIN object_refs r ON r.ref_id = t.child_ref
		JOIN objects o ON o.obj_id = r.obj_id
		WHERE t.parent_ref = $1 AND NOT r.deleted
		ORDER BY t.position ASC, r.ref_id ASC`
	var rows []struct {
		RefID int64  `db:"ref_id"`
		Type  string `db:"type"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, refID); err != nil {
		return nil, fmt.Errorf("list tree children: %w", err)
	}
	nodes := make([]Node, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, Node{RefID: row.RefID, Type: row.Type})
	}
	return nodes, nil
}

// ResolveReference maps a course-reference node onto the course it points at.
func (s *TreeStore) ResolveReference(ctx context.Context, refID int64) (Node, error) {
	const query = `
		SELECT c.target_ref AS ref_id, o.type AS type
		FROM course_refs c
		JOIN object_refs r ON r.ref_id = c.target_ref
		JOIN objects o ON o.obj_id = r.obj_id
		WHERE c.ref_id = $1`
	var row struct {
		RefID int64  `db:"ref_id"`
		Type  string `db:"type"`
	}
	if err := s.db.GetContext(ctx, &row, query, refID); err != nil {
		return Node{}, fmt.Errorf("resolve course reference %d: %w", refID, err)
	}
	return Node{RefID: row.RefID, Type: row.Type}, nil
}
