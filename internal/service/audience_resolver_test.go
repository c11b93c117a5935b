package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmsops/lp-reset-api/internal/models"
)

type stubActivity struct {
	byObject map[int64][]int64
}

func (s *stubActivity) UserIDsWithActivity(_ context.Context, objectID int64) ([]int64, error) {
	return s.byObject[objectID], nil
}

type stubRights struct {
	byUser map[int64][]int64
}

func (s *stubRights) RolesOf(_ context.Context, userID int64) ([]int64, error) {
	return s.byUser[userID], nil
}

func TestAudienceResolverAll(t *testing.T) {
	activity := &stubActivity{byObject: map[int64][]int64{
		100: {9, 5, 5, 12},
	}}
	resolver := NewAudienceResolver(activity, &stubRights{})

	users, err := resolver.Resolve(context.Background(), &models.Schedule{AudienceMode: models.AudienceAll}, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 9, 12}, users)
}

func TestAudienceResolverAllEmptyPopulation(t *testing.T) {
	resolver := NewAudienceResolver(&stubActivity{}, &stubRights{})

	users, err := resolver.Resolve(context.Background(), &models.Schedule{AudienceMode: models.AudienceAll}, 100)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestAudienceResolverSpecificIgnoresPopulation(t *testing.T) {
	activity := &stubActivity{byObject: map[int64][]int64{
		100: {1, 2, 3},
	}}
	resolver := NewAudienceResolver(activity, &stubRights{})
	sched := &models.Schedule{
		AudienceMode:    models.AudienceSpecific,
		AudienceUserIDs: []int64{12, 5, 9},
	}

	users, err := resolver.Resolve(context.Background(), sched, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 9, 12}, users)
}

func TestAudienceResolverByRole(t *testing.T) {
	activity := &stubActivity{byObject: map[int64][]int64{
		100: {5, 9, 12},
	}}
	rights := &stubRights{byUser: map[int64][]int64{
		5:  {200},
		9:  {201},
		12: {200, 202},
	}}
	resolver := NewAudienceResolver(activity, rights)
	sched := &models.Schedule{
		AudienceMode:    models.AudienceByRole,
		AudienceRoleIDs: []int64{200},
	}

	users, err := resolver.Resolve(context.Background(), sched, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 12}, users)
}

func TestAudienceResolverAllExcept(t *testing.T) {
	activity := &stubActivity{byObject: map[int64][]int64{
		100: {5, 9, 12},
	}}
	resolver := NewAudienceResolver(activity, &stubRights{})
	sched := &models.Schedule{
		AudienceMode:    models.AudienceAllExcept,
		ExcludedUserIDs: []int64{9, 77},
	}

	users, err := resolver.Resolve(context.Background(), sched, 100)
	require.NoError(t, err)
	// Exactly the ALL set minus the exclusions; an exclusion outside the
	// population changes nothing.
	assert.Equal(t, []int64{5, 12}, users)

	// Excluding the whole population yields an empty audience.
	sched.ExcludedUserIDs = []int64{5, 9, 12}
	users, err = resolver.Resolve(context.Background(), sched, 100)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestAudienceResolverRepeatable(t *testing.T) {
	activity := &stubActivity{byObject: map[int64][]int64{
		100: {12, 5, 9},
	}}
	resolver := NewAudienceResolver(activity, &stubRights{})
	sched := &models.Schedule{AudienceMode: models.AudienceAll}

	first, err := resolver.Resolve(context.Background(), sched, 100)
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), sched, 100)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
