package platform

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// LookupStore implements ObjectLookup against the host's object tables.
type LookupStore struct {
	db *sqlx.DB
}

// NewLookupStore builds an object lookup adapter.
func NewLookupStore(db *sqlx.DB) *LookupStore {
	return &LookupStore{db: db}
}

// ObjectID maps a hierarchy reference to its object id.
func (s *LookupStore) ObjectID(ctx context.Context, refID int64) (int64, error) {
	const query = `SELECT obj_id FROM object_refs WHERE ref_id = $1`
	var objID int64
	if err := s.db.GetContext(ctx, &objID, query, refID); err != nil {
		return 0, fmt.Errorf("lookup object id for ref %d: %w", refID, err)
	}
	return objID, nil
}

// Type returns the type tag of an object.
func (s *LookupStore) Type(ctx context.Context, objectID int64) (string, error) {
	const query = `SELECT type FROM objects WHERE obj_id = $1`
	var typ string
	if err := s.db.GetContext(ctx, &typ, query, objectID); err != nil {
		return "", fmt.Errorf("lookup type for object %d: %w", objectID, err)
	}
	return typ, nil
}

// Title returns the display title of an object.
func (s *LookupStore) Title(ctx context.Context, objectID int64) (string, error) {
	const query = `SELECT title FROM objects WHERE obj_id = $1`
	var title string
	if err := s.db.GetContext(ctx, &title, query, objectID); err != nil {
		return "", fmt.Errorf("lookup title for object %d: %w", objectID, err)
	}
	return title, nil
}
