package platform

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ProgrammeStore implements Curriculum against the host's study-programme
// link table. Programme children are defined by curriculum links, not by the
// generic tree.
type ProgrammeStore struct {
	db *sqlx.DB
}

// NewProgrammeStore builds a curriculum adapter.
func NewProgrammeStore(db *sqlx.DB) *ProgrammeStore {
	return &ProgrammeStore{db: db}
}

// Children lists the curriculum links directly under a programme node.
func (s *ProgrammeStore) Children(ctx context.Context, refID int64) ([]CurriculumNode, error) {
	const query = `
		SELECT l.child_ref AS ref_id, o.type AS type, l.is_container AS is_container
		FROM programme_links l
		JOIN object_refs r ON r.ref_id = l.child_ref
		JOIN objects o ON o.obj_id = r.obj_id
		WHERE l.parent_ref = $1 AND NOT r.deleted
		ORDER BY l.position ASC, l.child_ref ASC`
	var rows []struct {
		RefID       int64  `db:"ref_id"`
		Type        string `db:"type"`
		IsContainer bool   `db:"is_container"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, refID); err != nil {
		return nil, fmt.Errorf("list programme links: %w", err)
	}
	nodes := make([]CurriculumNode, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, CurriculumNode{RefID: row.RefID, Type: row.Type, IsContainer: row.IsContainer})
	}
	return nodes, nil
}
