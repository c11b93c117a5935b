package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/lmsops/lp-reset-api/internal/models"
	"github.com/lmsops/lp-reset-api/internal/platform"
)

// AudienceResolver turns a schedule's audience mode into a concrete user id
// set for one target object. Results are sorted and deduplicated so repeated
// resolution of an unchanged state yields an identical slice.
type AudienceResolver struct {
	activity platform.Activity
	rights   platform.Rights
}

// NewAudienceResolver creates a resolver over the host's activity and
// rights services.
func NewAudienceResolver(activity platform.Activity, rights platform.Rights) *AudienceResolver {
	return &AudienceResolver{activity: activity, rights: rights}
}

// Resolve returns the affected user ids for the object. An object with no
// candidate users yields an empty set, not an error.
func (r *AudienceResolver) Resolve(ctx context.Context, sched *models.Schedule, objectID int64) ([]int64, error) {
	switch sched.AudienceMode {
	case models.AudienceAll:
		population, err := r.activity.UserIDsWithActivity(ctx, objectID)
		if err != nil {
			return nil, fmt.Errorf("activity population of object %d: %w", objectID, err)
		}
		return sortedUnique(population), nil

	case models.AudienceSpecific:
		// The configured set stands on its own; the object's population is
		// irrelevant.
		return sortedUnique(sched.AudienceUserIDs), nil

	case models.AudienceByRole:
		population, err := r.activity.UserIDsWithActivity(ctx, objectID)
		if err != nil {
			return nil, fmt.Errorf("activity population of object %d: %w", objectID, err)
		}
		wanted := make(map[int64]bool, len(sched.AudienceRoleIDs))
		for _, roleID := range sched.AudienceRoleIDs {
			wanted[roleID] = true
		}
		var matched []int64
		for _, userID := range sortedUnique(population) {
			roles, err := r.rights.RolesOf(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("roles of user %d: %w", userID, err)
			}
			for _, roleID := range roles {
				if wanted[roleID] {
					matched = append(matched, userID)
					break
				}
			}
		}
		return matched, nil

	case models.AudienceAllExcept:
		population, err := r.activity.UserIDsWithActivity(ctx, objectID)
		if err != nil {
			return nil, fmt.Errorf("activity population of object %d: %w", objectID, err)
		}
		excluded := make(map[int64]bool, len(sched.ExcludedUserIDs))
		for _, userID := range sched.ExcludedUserIDs {
			excluded[userID] = true
		}
		var kept []int64
		for _, userID := range sortedUnique(population) {
			if !excluded[userID] {
				kept = append(kept, userID)
			}
		}
		return kept, nil

	default:
		return nil, fmt.Errorf("unknown audience mode %d", sched.AudienceMode)
	}
}

func sortedUnique(ids []int64) []int64 {
	if len(ids) == 0 {
		return []int64{}
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
