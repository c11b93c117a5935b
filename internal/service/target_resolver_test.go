package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmsops/lp-reset-api/internal/models"
	"github.com/lmsops/lp-reset-api/internal/platform"
)

type stubTree struct {
	members  map[int64]bool
	children map[int64][]platform.Node
	aliases  map[int64]platform.Node
}

func (s *stubTree) InHierarchy(_ context.Context, refID int64) (bool, error) {
	return s.members[refID], nil
}

func (s *stubTree) Children(_ context.Context, refID int64) ([]platform.Node, error) {
	return s.children[refID], nil
}

func (s *stubTree) ResolveReference(_ context.Context, refID int64) (platform.Node, error) {
	return s.aliases[refID], nil
}

type stubLinks struct {
	children map[int64][]platform.CurriculumNode
}

func (s *stubLinks) Children(_ context.Context, refID int64) ([]platform.CurriculumNode, error) {
	return s.children[refID], nil
}

type stubLookup struct {
	types map[int64]string
}

func (s *stubLookup) ObjectID(_ context.Context, refID int64) (int64, error) { return refID, nil }

func (s *stubLookup) Type(_ context.Context, objectID int64) (string, error) {
	return s.types[objectID], nil
}

func (s *stubLookup) Title(_ context.Context, objectID int64) (string, error) { return "", nil }

func refIDs(targets []models.TargetObject) []int64 {
	out := make([]int64, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.RefID)
	}
	return out
}

func TestTargetResolverWalksTreeDepthFirst(t *testing.T) {
	tree := &stubTree{
		members: map[int64]bool{1: true, 2: true},
		children: map[int64][]platform.Node{
			1: {{RefID: 2, Type: models.TypeCourse}, {RefID: 3, Type: models.TypeAssessment}},
			2: {{RefID: 4, Type: models.TypeAssessment}},
		},
	}
	lookup := &stubLookup{types: map[int64]string{1: models.TypeCourse}}
	resolver := NewTargetResolver(tree, &stubLinks{}, lookup)

	targets, err := resolver.Resolve(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4, 3}, refIDs(targets))
}

func TestTargetResolverSubstitutesAliases(t *testing.T) {
	tree := &stubTree{
		members: map[int64]bool{1: true},
		children: map[int64][]platform.Node{
			1: {{RefID: 8, Type: models.TypeCourseReference}},
		},
		aliases: map[int64]platform.Node{
			8: {RefID: 2, Type: models.TypeCourse},
		},
	}
	lookup := &stubLookup{types: map[int64]string{1: models.TypeCourse}}
	resolver := NewTargetResolver(tree, &stubLinks{}, lookup)

	targets, err := resolver.Resolve(context.Background(), []int64{1})
	require.NoError(t, err)
	// The alias ref 8 never appears; its target does.
	assert.Equal(t, []int64{1, 2}, refIDs(targets))
	assert.Equal(t, models.TypeCourse, targets[1].Type)
}

func TestTargetResolverAliasTargetDeduplicated(t *testing.T) {
	tree := &stubTree{
		members: map[int64]bool{1: true, 2: true},
		children: map[int64][]platform.Node{
			1: {{RefID: 2, Type: models.TypeCourse}, {RefID: 8, Type: models.TypeCourseReference}},
		},
		aliases: map[int64]platform.Node{
			8: {RefID: 2, Type: models.TypeCourse},
		},
	}
	lookup := &stubLookup{types: map[int64]string{1: models.TypeCourse}}
	resolver := NewTargetResolver(tree, &stubLinks{}, lookup)

	targets, err := resolver.Resolve(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, refIDs(targets))
}

func TestTargetResolverSurvivesCycles(t *testing.T) {
	tree := &stubTree{
		members: map[int64]bool{1: true, 2: true},
		children: map[int64][]platform.Node{
			1: {{RefID: 2, Type: models.TypeCourse}},
			2: {{RefID: 1, Type: models.TypeCourse}},
		},
	}
	lookup := &stubLookup{types: map[int64]string{1: models.TypeCourse}}
	resolver := NewTargetResolver(tree, &stubLinks{}, lookup)

	targets, err := resolver.Resolve(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, refIDs(targets))
}

func TestTargetResolverProgrammeUsesCurriculum(t *testing.T) {
	tree := &stubTree{
		// The programme node also sits in the generic tree; its tree
		// children must not be consulted.
		members: map[int64]bool{10: true},
		children: map[int64][]platform.Node{
			10: {{RefID: 99, Type: models.TypeCourse}},
		},
		aliases: map[int64]platform.Node{
			31: {RefID: 40, Type: models.TypeCourse},
		},
	}
	links := &stubLinks{children: map[int64][]platform.CurriculumNode{
		10: {
			{RefID: 20, Type: models.TypeProgramme, IsContainer: true},
			{RefID: 31, Type: models.TypeCourseReference},
		},
		20: {
			{RefID: 32, Type: models.TypeCourseReference},
		},
	}}
	tree.aliases[32] = platform.Node{RefID: 41, Type: models.TypeCourse}
	lookup := &stubLookup{types: map[int64]string{10: models.TypeProgramme}}
	resolver := NewTargetResolver(tree, links, lookup)

	targets, err := resolver.Resolve(context.Background(), []int64{10})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 41, 40}, refIDs(targets))
	assert.NotContains(t, refIDs(targets), int64(99))
}

func TestTargetResolverIdempotent(t *testing.T) {
	tree := &stubTree{
		members: map[int64]bool{1: true},
		children: map[int64][]platform.Node{
			1: {{RefID: 2, Type: models.TypeCourse}},
		},
	}
	lookup := &stubLookup{types: map[int64]string{1: models.TypeCourse}}
	resolver := NewTargetResolver(tree, &stubLinks{}, lookup)

	first, err := resolver.Resolve(context.Background(), []int64{1})
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
