package service

import (
	"context"
	"fmt"

	"github.com/lmsops/lp-reset-api/internal/models"
	"github.com/lmsops/lp-reset-api/internal/platform"
)

// TargetResolver expands a schedule's selected root objects into the full
// set of objects a run touches. Courses are walked through the generic
// containment tree; study programmes contribute the objects linked in
// their structured curriculum instead. Reference/alias nodes are replaced
// by their targets before anything else happens, so a course and a
// reference to it can never both end up in the result.
type TargetResolver struct {
	tree   platform.Hierarchy
	links  platform.Curriculum
	lookup platform.ObjectLookup
}

// NewTargetResolver creates a resolver over the host's hierarchy services.
func NewTargetResolver(tree platform.Hierarchy, links platform.Curriculum, lookup platform.ObjectLookup) *TargetResolver {
	return &TargetResolver{tree: tree, links: links, lookup: lookup}
}

// Resolve returns the deduplicated target set in first-discovered order:
// roots in input order, then depth-first children. A visited set keyed by
// resolved reference keeps cycles and diamond shapes from recursing forever
// or producing duplicates.
func (r *TargetResolver) Resolve(ctx context.Context, roots []int64) ([]models.TargetObject, error) {
	visited := make(map[int64]bool)
	var targets []models.TargetObject

	for _, refID := range roots {
		node, err := r.node(ctx, refID)
		if err != nil {
			return nil, err
		}
		if err := r.visit(ctx, node, visited, &targets); err != nil {
			return nil, err
		}
	}
	return targets, nil
}

func (r *TargetResolver) node(ctx context.Context, refID int64) (platform.Node, error) {
	objectID, err := r.lookup.ObjectID(ctx, refID)
	if err != nil {
		return platform.Node{}, fmt.Errorf("resolve object for ref %d: %w", refID, err)
	}
	objectType, err := r.lookup.Type(ctx, objectID)
	if err != nil {
		return platform.Node{}, fmt.Errorf("resolve type for ref %d: %w", refID, err)
	}
	return platform.Node{RefID: refID, Type: objectType}, nil
}

func (r *TargetResolver) visit(ctx context.Context, node platform.Node, visited map[int64]bool, targets *[]models.TargetObject) error {
	if node.Type == models.TypeCourseReference {
		target, err := r.tree.ResolveReference(ctx, node.RefID)
		if err != nil {
			return fmt.Errorf("resolve course reference %d: %w", node.RefID, err)
		}
		node = target
	}
	if visited[node.RefID] {
		return nil
	}
	visited[node.RefID] = true
	*targets = append(*targets, models.TargetObject{RefID: node.RefID, Type: node.Type})

	// Programme children come from curriculum links, everything else from
	// the generic tree.
	if node.Type == models.TypeProgramme {
		links, err := r.links.Children(ctx, node.RefID)
		if err != nil {
			return fmt.Errorf("curriculum children of %d: %w", node.RefID, err)
		}
		for _, link := range links {
			if err := r.visit(ctx, platform.Node{RefID: link.RefID, Type: link.Type}, visited, targets); err != nil {
				return err
			}
		}
		return nil
	}

	inTree, err := r.tree.InHierarchy(ctx, node.RefID)
	if err != nil {
		return fmt.Errorf("hierarchy membership of %d: %w", node.RefID, err)
	}
	if !inTree {
		return nil
	}
	children, err := r.tree.Children(ctx, node.RefID)
	if err != nil {
		return fmt.Errorf("children of %d: %w", node.RefID, err)
	}
	for _, child := range children {
		if err := r.visit(ctx, child, visited, targets); err != nil {
			return err
		}
	}
	return nil
}
